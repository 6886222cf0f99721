package build

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	pwerrors "github.com/conneroisu/pagewatch/internal/errors"
	"github.com/conneroisu/pagewatch/internal/logging"
)

// DefaultStderrTail bounds how much child stderr is kept on a Job.
const DefaultStderrTail = 8 * 1024

// Outcome is the terminal state of a Job.
type Outcome int

const (
	OutcomePending Outcome = iota
	OutcomeSuccess
	OutcomeFailure
	OutcomeSpawnError
)

func (o Outcome) String() string {
	switch o {
	case OutcomePending:
		return "pending"
	case OutcomeSuccess:
		return "success"
	case OutcomeFailure:
		return "failure"
	case OutcomeSpawnError:
		return "spawn_error"
	default:
		return "unknown"
	}
}

// Job is one execution of the build command. Fields other than ID and
// InvokedAt are only valid after Done is closed.
type Job struct {
	ID         int64
	InvokedAt  time.Time
	FinishedAt time.Time
	// ExitStatus is nil when the process never started.
	ExitStatus *int
	Stderr     string
	Err        error

	// Diagnostics are parsed from Stderr when the build fails.
	Diagnostics []*pwerrors.Diagnostic

	done chan struct{}
}

// Done is closed once the job reaches a terminal state.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Wait blocks until the job finishes.
func (j *Job) Wait() {
	<-j.done
}

// Succeeded reports whether the job finished with exit code zero.
func (j *Job) Succeeded() bool {
	return j.Outcome() == OutcomeSuccess
}

// Outcome classifies the job without blocking.
func (j *Job) Outcome() Outcome {
	select {
	case <-j.done:
	default:
		return OutcomePending
	}

	switch {
	case j.ExitStatus == nil:
		return OutcomeSpawnError
	case *j.ExitStatus == 0:
		return OutcomeSuccess
	default:
		return OutcomeFailure
	}
}

// Duration is the wall time of a finished job.
func (j *Job) Duration() time.Duration {
	if j.FinishedAt.IsZero() {
		return 0
	}

	return j.FinishedAt.Sub(j.InvokedAt)
}

// InvokerOptions tunes an Invoker.
type InvokerOptions struct {
	// Stdout and Stderr receive the child's output; nil means the
	// process's own streams.
	Stdout io.Writer
	Stderr io.Writer
	// StderrTail caps Job.Stderr; zero means DefaultStderrTail.
	StderrTail int
}

// Invoker runs the build command without blocking the caller. It does not
// serialize runs: two calls produce two independent processes.
type Invoker struct {
	runner  Runner
	command Command
	logger  logging.Logger
	metrics *BuildMetrics
	parser  *pwerrors.DiagnosticParser
	stdout  io.Writer
	stderr  io.Writer
	tail    int
	nextID  atomic.Int64
	wg      sync.WaitGroup
}

// NewInvoker creates an invoker for command.
func NewInvoker(runner Runner, command Command, logger logging.Logger, opts InvokerOptions) *Invoker {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.StderrTail <= 0 {
		opts.StderrTail = DefaultStderrTail
	}

	return &Invoker{
		runner:  runner,
		command: command,
		logger:  logger.WithComponent("build"),
		metrics: NewBuildMetrics(),
		parser:  pwerrors.NewDiagnosticParser(),
		stdout:  opts.Stdout,
		stderr:  opts.Stderr,
		tail:    opts.StderrTail,
	}
}

// Command returns the configured build command.
func (inv *Invoker) Command() Command {
	return inv.command
}

// Run starts a build and returns immediately. The process outlives ctx
// cancellation; ctx only carries values to the logger and runner.
func (inv *Invoker) Run(ctx context.Context) *Job {
	job := &Job{
		ID:        inv.nextID.Add(1),
		InvokedAt: time.Now(),
		done:      make(chan struct{}),
	}

	runCtx := context.WithoutCancel(ctx)
	inv.logger.Info(runCtx, "build started", "job", job.ID, "command", inv.command.String())

	inv.wg.Add(1)
	go func() {
		defer inv.wg.Done()
		inv.execute(runCtx, job)
	}()

	return job
}

// Wait blocks until every build started so far has exited.
func (inv *Invoker) Wait() {
	inv.wg.Wait()
}

// Metrics returns a snapshot of build counters.
func (inv *Invoker) Metrics() BuildMetrics {
	return inv.metrics.GetSnapshot()
}

func (inv *Invoker) execute(ctx context.Context, job *Job) {
	tail := newTailBuffer(inv.tail)
	stderr := io.MultiWriter(inv.stderr, tail)

	code, err := inv.runner.Run(ctx, inv.command, inv.stdout, stderr)

	job.FinishedAt = time.Now()
	job.Stderr = tail.String()
	if err != nil {
		job.Err = pwerrors.NewBuildError(pwerrors.CodeBuildSpawn,
			fmt.Sprintf("could not start %q", inv.command.Name), err).
			WithContext("command", inv.command.String())
	} else {
		status := code
		job.ExitStatus = &status
		if code != 0 {
			job.Err = pwerrors.NewBuildError(pwerrors.CodeBuildExit,
				fmt.Sprintf("exited with code %d", code), nil).
				WithContext("exit_code", code)
			job.Diagnostics = inv.parser.Parse(job.Stderr)
		}
	}
	close(job.done)

	inv.metrics.RecordJob(job)
	rate := inv.metrics.GetSuccessRate()

	duration := job.Duration()
	switch job.Outcome() {
	case OutcomeSuccess:
		inv.logger.Info(ctx, "build succeeded",
			"job", job.ID, "duration_ms", duration.Milliseconds(), "success_rate", rate)
	case OutcomeFailure:
		fields := []interface{}{
			"job", job.ID, "exit_code", code, "duration_ms", duration.Milliseconds(),
			"stderr_tail", lastLine(job.Stderr), "success_rate", rate,
		}
		if first := firstError(job.Diagnostics); first != nil {
			fields = append(fields, "error_at", first.Location(), "error_message", first.Message)
		}
		inv.logger.Error(ctx, job.Err, "build failed", fields...)
	case OutcomeSpawnError:
		inv.logger.Error(ctx, err, "build could not start",
			"job", job.ID, "command", inv.command.String())
	}
}

func firstError(diagnostics []*pwerrors.Diagnostic) *pwerrors.Diagnostic {
	for _, d := range diagnostics {
		if d.Severity == pwerrors.SeverityError {
			return d
		}
	}

	return nil
}

func lastLine(s string) string {
	s = strings.TrimRight(s, "\r\n")
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}

	return s
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	mutex sync.Mutex
	limit int
	buf   []byte
}

func newTailBuffer(limit int) *tailBuffer {
	return &tailBuffer{limit: limit}
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	n := len(p)
	if n >= t.limit {
		t.buf = append(t.buf[:0], p[n-t.limit:]...)
		return n, nil
	}

	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.limit; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}

	return n, nil
}

func (t *tailBuffer) String() string {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	return string(t.buf)
}
