package environment

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"
)

// ErrTimedOut is returned when a command exceeds its ExecOptions.Timeout.
var ErrTimedOut = errors.New("command timed out")

// Command describes a single subprocess invocation.
type Command struct {
	Name string   // binary to run
	Args []string // arguments, passed verbatim
	Dir  string   // working directory
}

// String renders the command for logs and error messages.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// ExecOptions configures command execution.
type ExecOptions struct {
	Env     map[string]string
	Timeout time.Duration
}

// Runner executes commands somewhere: on the host, in a container.
type Runner interface {
	// Name returns the runner name (e.g., "local", "docker").
	Name() string

	// Exec runs cmd, streaming stdout and stderr to the provided writers.
	// A command that starts and exits non-zero is not an error: the exit
	// code is returned with a nil error. Errors mean the process could not
	// be spawned, was cancelled, or timed out.
	Exec(ctx context.Context, cmd Command, stdout, stderr io.Writer, opts ExecOptions) (int, error)
}
