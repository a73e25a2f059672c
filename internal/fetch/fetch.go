package fetch

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spachava753/selenology/internal/environment"
	"github.com/spachava753/selenology/internal/models"
)

// gitEnv keeps git from blocking on credential prompts for unreachable or
// private remotes.
var gitEnv = map[string]string{"GIT_TERMINAL_PROMPT": "0"}

// Fetcher materializes shallow single-commit snapshots with the git client.
type Fetcher struct {
	runner  environment.Runner
	git     string
	timeout time.Duration
}

// NewFetcher creates a fetcher that runs git through runner. A zero
// timeout disables per-command timeouts.
func NewFetcher(runner environment.Runner, timeout time.Duration) *Fetcher {
	return &Fetcher{
		runner:  runner,
		git:     "git",
		timeout: timeout,
	}
}

// Snapshot fetches repo.Ref from repo.Location at depth 1 into dir, which
// must already exist, and checks it out. It returns the resolved HEAD
// commit, or an empty string if it could not be resolved.
func (f *Fetcher) Snapshot(ctx context.Context, repo models.Repository, dir string) (string, error) {
	steps := []struct {
		phase models.Phase
		args  []string
	}{
		{models.PhaseInit, []string{"init"}},
		{models.PhaseRemote, []string{"remote", "add", "origin", repo.Location}},
		{models.PhaseFetch, []string{"fetch", "--depth", "1", "origin", repo.Ref}},
		{models.PhaseCheckout, []string{"checkout", "FETCH_HEAD"}},
	}

	for _, step := range steps {
		slog.Debug("git", "id", repo.ID, "args", step.args)
		if _, err := f.git1(ctx, dir, step.args...); err != nil {
			return "", &models.EntryError{
				ID:    repo.ID,
				Phase: step.phase,
				Type:  models.ErrFetchFailed,
				Err:   err,
			}
		}
	}

	commit, err := f.git1(ctx, dir, "rev-parse", "HEAD")
	if err != nil {
		slog.Debug("resolving snapshot commit", "id", repo.ID, "error", err)
		return "", nil
	}
	return strings.TrimSpace(commit), nil
}

// git1 runs one git command and returns its stdout. Unlike analysis tool
// runs, a non-zero exit from git is a failure.
func (f *Fetcher) git1(ctx context.Context, dir string, args ...string) (string, error) {
	var stdout, stderr bytes.Buffer
	code, err := f.runner.Exec(ctx, environment.Command{
		Name: f.git,
		Args: args,
		Dir:  dir,
	}, &stdout, &stderr, environment.ExecOptions{Env: gitEnv, Timeout: f.timeout})
	if err != nil {
		return "", err
	}
	if code != 0 {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return "", fmt.Errorf("git %s exited with code %d", args[0], code)
		}
		return "", fmt.Errorf("git %s exited with code %d: %s", args[0], code, msg)
	}
	return stdout.String(), nil
}
