package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/spachava753/selenology/internal/environment"
)

// Runner executes commands as subprocesses of the harness.
type Runner struct{}

// NewRunner creates a new host runner.
func NewRunner() *Runner {
	return &Runner{}
}

// Name returns the runner name.
func (r *Runner) Name() string {
	return "local"
}

// Exec runs the command on the host.
func (r *Runner) Exec(ctx context.Context, cmd environment.Command, stdout, stderr io.Writer, opts environment.ExecOptions) (int, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	execCmd := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	execCmd.Dir = cmd.Dir
	execCmd.Stdout = stdout
	execCmd.Stderr = stderr

	if len(opts.Env) > 0 {
		execCmd.Env = os.Environ()
		for k, v := range opts.Env {
			execCmd.Env = append(execCmd.Env, fmt.Sprintf("%s=%s", k, v))
		}
	}

	err := execCmd.Run()
	if err == nil {
		return 0, nil
	}

	// Check for context timeout before the exit code: a killed process
	// also reports an ExitError.
	if opts.Timeout > 0 && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return -1, fmt.Errorf("%s: %w after %s", cmd.Name, environment.ErrTimedOut, opts.Timeout)
	}
	if ctx.Err() != nil {
		return -1, fmt.Errorf("%s: %w", cmd.Name, ctx.Err())
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}

	return -1, fmt.Errorf("executing %s: %w", cmd, err)
}
