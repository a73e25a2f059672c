package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/spachava753/selenology/internal/config"
	"github.com/spachava753/selenology/internal/diff"
	"github.com/spachava753/selenology/internal/environment"
	"github.com/spachava753/selenology/internal/environment/docker"
	"github.com/spachava753/selenology/internal/environment/local"
	"github.com/spachava753/selenology/internal/fetch"
	"github.com/spachava753/selenology/internal/models"
	"github.com/spachava753/selenology/internal/report"
)

// EntryExecutor executes a single corpus entry and returns the result.
type EntryExecutor interface {
	Execute(ctx context.Context, repo models.Repository) (*models.EntryResult, error)
}

// NewEntryExecutorFunc creates an EntryExecutor for a run.
type NewEntryExecutorFunc func(env models.EnvConfig, cfg models.RunConfig) EntryExecutor

// Sink receives entry results in corpus order.
type Sink func(repo models.Repository, result *models.EntryResult) error

// Orchestrator coordinates the execution of all corpus entries in a run.
type Orchestrator struct {
	env      models.EnvConfig
	cfg      models.RunConfig
	executor EntryExecutor
}

// NewOrchestrator creates a new orchestrator.
func NewOrchestrator(env models.EnvConfig, cfg models.RunConfig, executorFactory NewEntryExecutorFunc) (*Orchestrator, error) {
	cfg, err := config.ValidateRunConfig(cfg)
	if err != nil {
		return nil, err
	}

	return &Orchestrator{
		env:      env,
		cfg:      cfg,
		executor: executorFactory(env, cfg),
	}, nil
}

// outcome is what one entry produced.
type outcome struct {
	result *models.EntryResult
	err    error
}

// Run executes every corpus entry in order and hands each result to sink.
// Unless KeepGoing is set, the first failed entry stops the run and its
// error is returned; nothing after it reaches sink.
func (o *Orchestrator) Run(ctx context.Context, corpus models.Corpus, sink Sink) (*models.RunResult, error) {
	rr := &models.RunResult{
		TotalEntries: len(corpus.Entries),
		StartedAt:    time.Now(),
	}
	defer func() {
		rr.EndedAt = time.Now()
		rr.TotalDurationSec = rr.EndedAt.Sub(rr.StartedAt).Seconds()
	}()

	if err := os.MkdirAll(o.env.ScratchRoot, 0755); err != nil {
		return rr, fmt.Errorf("creating scratch directory: %w", err)
	}

	if o.cfg.Jobs <= 1 || len(corpus.Entries) <= 1 {
		return rr, o.runSequential(ctx, corpus.Entries, sink, rr)
	}
	return rr, o.runConcurrent(ctx, corpus.Entries, sink, rr)
}

func (o *Orchestrator) runSequential(ctx context.Context, entries []models.Repository, sink Sink, rr *models.RunResult) error {
	for i, repo := range entries {
		if err := ctx.Err(); err != nil {
			rr.Cancelled = true
			rr.SkippedEntries = len(entries) - i
			return err
		}

		slog.Info("scanning", "id", repo.ID, "entry", i+1, "of", len(entries))
		result, err := o.executor.Execute(ctx, repo)
		if err := o.handle(repo, outcome{result, err}, sink, rr); err != nil {
			rr.SkippedEntries = len(entries) - i - 1
			return err
		}
	}
	return nil
}

// runConcurrent executes entries on a bounded pool. Results are handed to
// sink strictly in corpus order as they become available.
func (o *Orchestrator) runConcurrent(ctx context.Context, entries []models.Repository, sink Sink, rr *models.RunResult) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	outcomes := make([]*outcome, len(entries))
	done := make([]chan struct{}, len(entries))
	for i := range done {
		done[i] = make(chan struct{})
	}

	var g errgroup.Group
	g.SetLimit(o.cfg.Jobs)

	// Feeder: Go blocks while the pool is full
	fed := make(chan struct{})
	go func() {
		defer close(fed)
		for i, repo := range entries {
			g.Go(func() error {
				defer close(done[i])
				if ctx.Err() != nil {
					return nil
				}
				slog.Info("scanning", "id", repo.ID)
				result, err := o.executor.Execute(ctx, repo)
				outcomes[i] = &outcome{result, err}
				return nil
			})
		}
	}()

	var runErr error
	handled := 0
	for i, repo := range entries {
		<-done[i]
		if outcomes[i] == nil {
			rr.Cancelled = true
			runErr = ctx.Err()
			break
		}
		handled++
		if err := o.handle(repo, *outcomes[i], sink, rr); err != nil {
			runErr = err
			break
		}
	}

	cancel()
	<-fed
	g.Wait()

	rr.SkippedEntries = len(entries) - handled
	if runErr == nil && rr.Cancelled {
		runErr = context.Canceled
	}
	return runErr
}

// handle records one outcome and emits it. A returned error stops the run.
func (o *Orchestrator) handle(repo models.Repository, oc outcome, sink Sink, rr *models.RunResult) error {
	if oc.err != nil {
		var entryErr *models.EntryError
		if !errors.As(oc.err, &entryErr) {
			entryErr = &models.EntryError{ID: repo.ID, Type: models.ErrInternalError, Err: oc.err}
		}
		rr.FailedEntries++
		rr.Failures = append(rr.Failures, entryErr)
		if entryErr.Type == models.ErrCancelled {
			rr.Cancelled = true
		}
		slog.Error("entry failed", "id", repo.ID, "phase", entryErr.Phase, "type", entryErr.Type, "error", entryErr.Err)

		if !o.cfg.KeepGoing || entryErr.Type == models.ErrCancelled {
			return entryErr
		}

		result := oc.result
		if result == nil {
			result = &models.EntryResult{ID: repo.ID}
		}
		result.Error = entryErr
		if err := sink(repo, result); err != nil {
			return fmt.Errorf("%s: emitting report: %w", repo.ID, err)
		}
		return nil
	}

	if oc.result.Changed() {
		rr.ChangedEntries++
	} else {
		rr.UnchangedEntries++
	}
	slog.Info("compared", "id", repo.ID, "changed", oc.result.Changed(), "duration_sec", fmt.Sprintf("%.2f", oc.result.Durations.TotalSec))

	if err := sink(repo, oc.result); err != nil {
		return fmt.Errorf("%s: emitting report: %w", repo.ID, err)
	}

	if o.cfg.Cleanup && oc.result.Directory != "" {
		if err := os.RemoveAll(oc.result.Directory); err != nil {
			slog.Warn("removing snapshot", "id", repo.ID, "path", oc.result.Directory, "error", err)
		}
	}
	return nil
}

// DefaultEntryExecutorFunc creates the production entry executor: git on the
// host, tools on the host or in a container.
func DefaultEntryExecutorFunc(env models.EnvConfig, cfg models.RunConfig) EntryExecutor {
	host := local.NewRunner()

	var tools environment.Runner = host
	if cfg.DockerImage != "" {
		tools = docker.NewRunner(cfg.DockerImage, env.OldTool, env.NewTool)
	}
	slog.Debug("runners", "git", host.Name(), "tools", tools.Name())

	return NewEntryExecutor(env, fetch.NewFetcher(host, cfg.Timeout), tools, diff.NewDiffer(cfg.Granularity), cfg.Timeout)
}

// RunFromConfig loads the corpus and runs it, streaming the report to w.
// The report is closed only when every entry was handled.
func RunFromConfig(ctx context.Context, env models.EnvConfig, cfg models.RunConfig, manifestPath string, w *report.Writer) (*models.RunResult, error) {
	var (
		corpus models.Corpus
		err    error
	)
	if manifestPath == "" {
		corpus, err = config.LoadDefaultManifest()
	} else {
		corpus, err = config.LoadManifestFile(manifestPath)
	}
	if err != nil {
		return nil, fmt.Errorf("loading manifest: %w", err)
	}
	slog.Debug("loaded corpus", "entries", len(corpus.Entries), "ids", corpus.IDs())

	if cfg.DockerImage != "" {
		slog.Info("pulling tool image", "image", cfg.DockerImage)
		if err := docker.NewRunner(cfg.DockerImage).PullImage(ctx); err != nil {
			return nil, err
		}
	}

	orchestrator, err := NewOrchestrator(env, cfg, DefaultEntryExecutorFunc)
	if err != nil {
		return nil, fmt.Errorf("creating orchestrator: %w", err)
	}

	if err := w.Begin(); err != nil {
		return nil, err
	}

	result, err := orchestrator.Run(ctx, corpus, w.WriteResult)
	if err != nil {
		return result, err
	}

	if err := w.End(); err != nil {
		return result, err
	}
	return result, nil
}
