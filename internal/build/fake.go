package build

import (
	"context"
	"io"
	"sync"
)

// FakeRunner is an in-memory Runner for tests. It returns a programmed
// exit code instantly unless Hold is set.
type FakeRunner struct {
	// ExitCode is returned for every run.
	ExitCode int
	// SpawnErr, when set, simulates a process that cannot start.
	SpawnErr error
	// Stdout and Stderr are written to the provided streams.
	Stdout string
	Stderr string
	// Hold, when non-nil, blocks each run until it is closed.
	Hold chan struct{}

	mutex    sync.Mutex
	commands []Command
	started  chan Command
}

// NewFakeRunner creates a fake that exits with exitCode.
func NewFakeRunner(exitCode int) *FakeRunner {
	return &FakeRunner{
		ExitCode: exitCode,
		started:  make(chan Command, 64),
	}
}

// Run records the invocation and returns the programmed result.
func (f *FakeRunner) Run(_ context.Context, cmd Command, stdout, stderr io.Writer) (int, error) {
	f.mutex.Lock()
	f.commands = append(f.commands, cmd)
	started := f.started
	f.mutex.Unlock()

	if started != nil {
		select {
		case started <- cmd:
		default:
		}
	}

	if f.SpawnErr != nil {
		return -1, f.SpawnErr
	}

	if f.Stdout != "" && stdout != nil {
		_, _ = io.WriteString(stdout, f.Stdout)
	}
	if f.Stderr != "" && stderr != nil {
		_, _ = io.WriteString(stderr, f.Stderr)
	}

	if f.Hold != nil {
		<-f.Hold
	}

	return f.ExitCode, nil
}

// Calls returns how many times Run was invoked.
func (f *FakeRunner) Calls() int {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	return len(f.commands)
}

// Commands returns a copy of every recorded invocation.
func (f *FakeRunner) Commands() []Command {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	out := make([]Command, len(f.commands))
	copy(out, f.commands)

	return out
}

// Started delivers each command as its run begins.
func (f *FakeRunner) Started() <-chan Command {
	return f.started
}
