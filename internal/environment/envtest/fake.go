// Package envtest provides a scripted environment.Runner for tests.
package envtest

import (
	"context"
	"io"
	"sync"

	"github.com/spachava753/selenology/internal/environment"
)

// Response is what a scripted command writes and returns.
type Response struct {
	Stdout string
	Stderr string
	Code   int
	Err    error
}

// HandlerFunc decides the response for a command. It runs before the
// command is recorded, so it may inspect or modify the working directory.
type HandlerFunc func(cmd environment.Command) Response

// Runner is a fake environment.Runner that records every command.
type Runner struct {
	handler HandlerFunc

	mu      sync.Mutex
	calls   []environment.Command
	options []environment.ExecOptions
}

// NewRunner creates a fake runner. A nil handler answers every command
// with an empty successful response.
func NewRunner(handler HandlerFunc) *Runner {
	if handler == nil {
		handler = func(environment.Command) Response { return Response{} }
	}
	return &Runner{handler: handler}
}

// Name returns the runner name.
func (r *Runner) Name() string {
	return "fake"
}

// Exec records cmd and replays the handler's response.
func (r *Runner) Exec(ctx context.Context, cmd environment.Command, stdout, stderr io.Writer, opts environment.ExecOptions) (int, error) {
	if err := ctx.Err(); err != nil {
		return -1, err
	}

	resp := r.handler(cmd)

	r.mu.Lock()
	r.calls = append(r.calls, cmd)
	r.options = append(r.options, opts)
	r.mu.Unlock()

	if resp.Err != nil {
		return -1, resp.Err
	}
	if stdout != nil {
		io.WriteString(stdout, resp.Stdout)
	}
	if stderr != nil {
		io.WriteString(stderr, resp.Stderr)
	}
	return resp.Code, nil
}

// Calls returns a copy of the recorded commands in execution order.
func (r *Runner) Calls() []environment.Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]environment.Command(nil), r.calls...)
}

// Options returns the ExecOptions of each recorded command, in the same
// order as Calls.
func (r *Runner) Options() []environment.ExecOptions {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]environment.ExecOptions(nil), r.options...)
}
