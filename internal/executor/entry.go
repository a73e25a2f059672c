package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/spachava753/selenology/internal/diff"
	"github.com/spachava753/selenology/internal/environment"
	"github.com/spachava753/selenology/internal/models"
)

const (
	// PregenerateCommand is the tool subcommand that writes the std definitions.
	PregenerateCommand = "generate-roblox-std"
	// PregenerateArtifact is the file PregenerateCommand writes into the snapshot.
	PregenerateArtifact = "roblox.toml"
)

// singleThreaded is appended to every measured invocation so diagnostics
// are emitted in a stable order.
var singleThreaded = []string{"--num-threads", "1"}

// Snapshotter materializes a corpus entry into a directory.
type Snapshotter interface {
	Snapshot(ctx context.Context, repo models.Repository, dir string) (string, error)
}

// DefaultEntryExecutor runs a single corpus entry through all phases.
type DefaultEntryExecutor struct {
	env     models.EnvConfig
	fetcher Snapshotter
	tools   environment.Runner
	differ  diff.Engine
	timeout time.Duration
}

// NewEntryExecutor creates an entry executor. Tool invocations go through
// tools; fetcher acquires the snapshots.
func NewEntryExecutor(env models.EnvConfig, fetcher Snapshotter, tools environment.Runner, differ diff.Engine, timeout time.Duration) *DefaultEntryExecutor {
	return &DefaultEntryExecutor{
		env:     env,
		fetcher: fetcher,
		tools:   tools,
		differ:  differ,
		timeout: timeout,
	}
}

// Execute runs the entry and returns the result. When the entry fails, the
// returned error is a *models.EntryError and is also set on the result.
func (e *DefaultEntryExecutor) Execute(ctx context.Context, repo models.Repository) (*models.EntryResult, error) {
	startedAt := time.Now()
	result := &models.EntryResult{
		ID:        repo.ID,
		Directory: filepath.Join(e.env.ScratchRoot, repo.ID),
	}

	defer func() {
		result.Durations.TotalSec = time.Since(startedAt).Seconds()
	}()

	fail := func(phase models.Phase, typ models.ErrorType, err error) (*models.EntryResult, error) {
		if ctx.Err() != nil {
			typ = models.ErrCancelled
		}
		entryErr := &models.EntryError{ID: repo.ID, Phase: phase, Type: typ, Err: err}
		result.Error = entryErr
		return result, entryErr
	}

	// Phase 1: Scratch directory. Mkdir fails if it already exists; a
	// partially populated directory is left for inspection.
	slog.Debug("creating directory", "id", repo.ID, "path", result.Directory)
	if err := os.Mkdir(result.Directory, 0755); err != nil {
		return fail(models.PhaseCreateDirectory, models.ErrDirectoryCreationFailed, err)
	}

	// Phase 2: Snapshot
	fetchStart := time.Now()
	commit, err := e.fetcher.Snapshot(ctx, repo, result.Directory)
	result.Durations.FetchSec = time.Since(fetchStart).Seconds()
	if err != nil {
		var entryErr *models.EntryError
		if errors.As(err, &entryErr) {
			return fail(entryErr.Phase, entryErr.Type, entryErr.Err)
		}
		return fail(models.PhaseFetch, models.ErrFetchFailed, err)
	}
	result.Commit = commit

	// Phase 3: Std definitions for the old run
	if repo.NeedsPregeneration {
		slog.Debug("generating std on old tool", "id", repo.ID)
		if err := e.pregenerate(ctx, result.Directory); err != nil {
			return fail(models.PhasePregenerateOld, models.ErrPregenerationFailed, err)
		}
	}

	// Phase 4: Old tool
	slog.Debug("running old tool", "id", repo.ID)
	oldStart := time.Now()
	oldOutput, err := e.runTool(ctx, e.env.OldTool, repo, result.Directory)
	result.Durations.OldSec = time.Since(oldStart).Seconds()
	if err != nil {
		return fail(models.PhaseRunOld, models.ErrProcessSpawnFailed, err)
	}
	if !utf8.Valid(oldOutput) {
		return fail(models.PhaseDecodeOld, models.ErrEncodingInvalid, errInvalidUTF8(oldOutput))
	}

	// Phase 5: Regenerate std definitions. Always with the old binary, so
	// only the analysis differs between the two runs.
	if repo.NeedsPregeneration {
		slog.Debug("deleting stale std artifact", "id", repo.ID)
		if err := os.Remove(filepath.Join(result.Directory, PregenerateArtifact)); err != nil {
			return fail(models.PhaseRemoveArtifact, models.ErrArtifactRemovalFailed, err)
		}

		slog.Debug("regenerating std before new tool", "id", repo.ID)
		if err := e.pregenerate(ctx, result.Directory); err != nil {
			return fail(models.PhasePregenerateNew, models.ErrPregenerationFailed, err)
		}
	}

	// Phase 6: New tool
	slog.Debug("running new tool", "id", repo.ID)
	newStart := time.Now()
	newOutput, err := e.runTool(ctx, e.env.NewTool, repo, result.Directory)
	result.Durations.NewSec = time.Since(newStart).Seconds()
	if err != nil {
		return fail(models.PhaseRunNew, models.ErrProcessSpawnFailed, err)
	}
	if !utf8.Valid(newOutput) {
		return fail(models.PhaseDecodeNew, models.ErrEncodingInvalid, errInvalidUTF8(newOutput))
	}

	// Phase 7: Diff
	slog.Debug("checking difference", "id", repo.ID)
	result.Segments = e.differ.Diff(string(oldOutput), string(newOutput))

	return result, nil
}

// runTool runs one measured invocation and returns its stdout. A non-zero
// exit is expected when the tool reports diagnostics.
func (e *DefaultEntryExecutor) runTool(ctx context.Context, tool string, repo models.Repository, dir string) ([]byte, error) {
	args := make([]string, 0, len(repo.Args)+len(singleThreaded))
	args = append(args, repo.Args...)
	args = append(args, singleThreaded...)

	var stdout, stderr bytes.Buffer
	code, err := e.tools.Exec(ctx, environment.Command{
		Name: tool,
		Args: args,
		Dir:  dir,
	}, &stdout, &stderr, environment.ExecOptions{Timeout: e.timeout})
	if err != nil {
		return nil, err
	}

	slog.Debug("tool finished",
		"id", repo.ID,
		"tool", tool,
		"exit_code", code,
		"stdout_bytes", stdout.Len(),
		"stderr_bytes", stderr.Len())

	return stdout.Bytes(), nil
}

// pregenerate writes the std definitions artifact with the old tool.
func (e *DefaultEntryExecutor) pregenerate(ctx context.Context, dir string) error {
	var stderr bytes.Buffer
	code, err := e.tools.Exec(ctx, environment.Command{
		Name: e.env.OldTool,
		Args: []string{PregenerateCommand},
		Dir:  dir,
	}, nil, &stderr, environment.ExecOptions{Timeout: e.timeout})
	if err != nil {
		return err
	}
	if code != 0 {
		slog.Warn("std generation exited non-zero", "dir", dir, "exit_code", code, "stderr", stderr.String())
	}
	return nil
}

func errInvalidUTF8(output []byte) error {
	for i := 0; i < len(output); {
		r, size := utf8.DecodeRune(output[i:])
		if r == utf8.RuneError && size == 1 {
			return fmt.Errorf("invalid utf-8 sequence at byte %d", i)
		}
		i += size
	}
	return fmt.Errorf("invalid utf-8")
}
