package docker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/spachava753/selenology/internal/environment"
)

// Exit codes reserved by `docker run` for its own failures.
const (
	exitDockerError    = 125
	exitCannotInvoke   = 126
	exitCommandMissing = 127
)

// Runner executes commands inside throwaway containers. The command's
// working directory and every configured mount are bind-mounted at the
// same path they have on the host, so tool binaries and snapshot paths
// resolve identically inside and outside the container.
type Runner struct {
	image  string
	mounts []string
	seq    atomic.Uint64
}

// NewRunner creates a Docker runner for image. Each mount is a host path
// made available read-only inside the container.
func NewRunner(image string, mounts ...string) *Runner {
	return &Runner{
		image:  image,
		mounts: mounts,
	}
}

// Name returns the runner name.
func (r *Runner) Name() string {
	return "docker"
}

// PullImage pulls the configured image so the first invocation does not pay for it.
func (r *Runner) PullImage(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, "docker", "pull", r.image)
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("pulling docker image: %w", err)
	}

	return nil
}

// Exec runs the command in a fresh container that is removed when it exits.
func (r *Runner) Exec(ctx context.Context, cmd environment.Command, stdout, stderr io.Writer, opts environment.ExecOptions) (int, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	containerName := r.containerName()
	var dockerStderr strings.Builder
	errWriter := io.Writer(&dockerStderr)
	if stderr != nil {
		errWriter = io.MultiWriter(stderr, &dockerStderr)
	}

	execCmd := exec.CommandContext(ctx, "docker", r.runArgs(containerName, cmd, opts)...)
	execCmd.Stdout = stdout
	execCmd.Stderr = errWriter

	err := execCmd.Run()
	if ctx.Err() != nil {
		// Killing the CLI leaves the container running
		r.remove(containerName)
		if opts.Timeout > 0 && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return -1, fmt.Errorf("%s: %w after %s", cmd.Name, environment.ErrTimedOut, opts.Timeout)
		}
		return -1, fmt.Errorf("%s: %w", cmd.Name, ctx.Err())
	}
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return -1, fmt.Errorf("executing docker: %w", err)
	}

	switch code := exitErr.ExitCode(); code {
	case exitDockerError, exitCannotInvoke, exitCommandMissing:
		return -1, fmt.Errorf("running %s in %s (exit %d): %s", cmd, r.image, code, strings.TrimSpace(dockerStderr.String()))
	default:
		return code, nil
	}
}

// containerName is unique per invocation, including concurrent ones.
func (r *Runner) containerName() string {
	return fmt.Sprintf("selenology-%d-%d-%d", os.Getpid(), time.Now().UnixNano(), r.seq.Add(1))
}

func (r *Runner) runArgs(containerName string, cmd environment.Command, opts environment.ExecOptions) []string {
	args := []string{
		"run",
		"--rm",
		"--name", containerName,
	}

	if cmd.Dir != "" {
		args = append(args, "-v", fmt.Sprintf("%s:%s", cmd.Dir, cmd.Dir), "-w", cmd.Dir)
	}

	for _, m := range r.mounts {
		args = append(args, "-v", fmt.Sprintf("%s:%s:ro", m, m))
	}

	// Sorted so the invocation is reproducible
	keys := make([]string, 0, len(opts.Env))
	for k := range opts.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, "-e", fmt.Sprintf("%s=%s", k, opts.Env[k]))
	}

	args = append(args, r.image, cmd.Name)
	return append(args, cmd.Args...)
}

func (r *Runner) remove(containerName string) {
	cmd := exec.Command("docker", "rm", "-f", containerName)
	if err := cmd.Run(); err != nil {
		slog.Debug("removing container", "container", containerName, "error", err)
	}
}
