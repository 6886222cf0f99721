// Package build runs the external bundler after a debounced change and
// records the outcome of each run.
package build

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// Command is the external build tool invocation.
type Command struct {
	Name string
	Args []string
	// Dir is the working directory; empty means the current one.
	Dir string
}

// String renders the command line for logs.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}

	return c.Name + " " + strings.Join(c.Args, " ")
}

// Validate rejects command names that only make sense to a shell. The
// command is executed directly, so "npm run build" as a single name would
// never resolve.
func (c Command) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("command cannot be empty")
	}

	if strings.ContainsAny(c.Name, " \t;&|$`<>") {
		return fmt.Errorf("command %q contains shell syntax; put arguments in args", c.Name)
	}

	return nil
}

// Runner executes a command and reports its exit code. A non-nil error
// means the process could not be started at all.
type Runner interface {
	Run(ctx context.Context, cmd Command, stdout, stderr io.Writer) (exitCode int, err error)
}

// ExecRunner spawns real processes. Processes are never killed by this
// runner, even when ctx is cancelled.
type ExecRunner struct{}

// NewExecRunner creates the production runner.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run starts cmd with the given output streams and waits for it to exit.
func (r *ExecRunner) Run(_ context.Context, cmd Command, stdout, stderr io.Writer) (int, error) {
	c := exec.Command(cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	c.Stdout = stdout
	c.Stderr = stderr

	if err := c.Start(); err != nil {
		return -1, err
	}

	err := c.Wait()
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}

	// The process ran but copying its output failed.
	if c.ProcessState != nil {
		return c.ProcessState.ExitCode(), nil
	}

	return -1, err
}
