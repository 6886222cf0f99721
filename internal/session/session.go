// Package session owns one watch-build loop: a FileWatcher subscribed to
// the source roots, the Debouncer that coalesces its events, and the
// build Invoker the debouncer fires.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/conneroisu/pagewatch/internal/build"
	"github.com/conneroisu/pagewatch/internal/classify"
	pwerrors "github.com/conneroisu/pagewatch/internal/errors"
	"github.com/conneroisu/pagewatch/internal/logging"
	"github.com/conneroisu/pagewatch/internal/watcher"
)

// Options configures a Session.
type Options struct {
	Policy     classify.Policy
	IgnoreDirs []string
	Debounce   time.Duration
	// RunOnStart fires one build as soon as the subscription is live.
	RunOnStart bool
	Logger     logging.Logger
}

// Session is the handle returned by Start.
type Session struct {
	id        string
	invoker   *build.Invoker
	policy    classify.Policy
	watcher   *watcher.FileWatcher
	debouncer *watcher.Debouncer
	logger    logging.Logger
	opts      Options

	mutex     sync.Mutex
	ctx       context.Context
	jobs      []*build.Job
	closeOnce sync.Once
	closeErr  error
}

// New creates a session that runs builds through invoker.
func New(invoker *build.Invoker, opts Options) (*Session, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if len(opts.Policy.Extensions) == 0 {
		opts.Policy = classify.DefaultPolicy()
	}

	fw, err := watcher.New(watcher.Options{
		IgnoreDirs: opts.IgnoreDirs,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	s := &Session{
		id:      id,
		invoker: invoker,
		policy:  opts.Policy,
		watcher: fw,
		logger:  logger.WithComponent("session").With("session_id", id),
		opts:    opts,
		ctx:     context.Background(),
	}
	s.debouncer = watcher.NewDebouncer(opts.Debounce, s.runBuild)

	fw.AddFilter(s.policy.ShouldTriggerBuild)
	fw.AddHandler(s.onChange)

	return s, nil
}

// Start subscribes to every root and begins delivering events. Any root
// that cannot be watched aborts startup with a fatal watch error and
// releases the subscription.
func (s *Session) Start(ctx context.Context, roots []string) error {
	if len(roots) == 0 {
		return pwerrors.NewWatchError(pwerrors.CodeWatchRootMissing, "no watch roots configured", nil)
	}

	for _, root := range roots {
		if err := s.watcher.AddRecursive(root); err != nil {
			_ = s.Close()
			return err
		}
	}

	s.mutex.Lock()
	s.ctx = ctx
	s.mutex.Unlock()

	s.watcher.Start(ctx)
	s.logger.Info(ctx, "watching for changes",
		"roots", roots,
		"extensions", s.policy.Extensions,
		"debounce_ms", s.debouncer.Delay().Milliseconds())

	if s.opts.RunOnStart {
		s.runBuild()
	}

	return nil
}

// ID identifies this session in log output.
func (s *Session) ID() string {
	return s.id
}

// Trigger schedules a build as if a qualifying change had been observed.
func (s *Session) Trigger() {
	s.debouncer.Trigger()
}

// Close cancels any pending build and closes the watch subscription. It
// returns once the OS handle is released. Builds already running are left
// to finish.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.debouncer.Stop()
		s.closeErr = s.watcher.Close()

		s.mutex.Lock()
		ctx := s.ctx
		s.mutex.Unlock()
		s.logger.Info(ctx, "watch subscription closed")
	})

	return s.closeErr
}

// Closed reports whether the watch subscription has been released.
func (s *Session) Closed() bool {
	return s.watcher.Closed()
}

// Jobs returns every build started by this session, oldest first.
func (s *Session) Jobs() []*build.Job {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	out := make([]*build.Job, len(s.jobs))
	copy(out, s.jobs)

	return out
}

// Wait blocks until all started builds have exited.
func (s *Session) Wait() {
	s.invoker.Wait()
}

func (s *Session) onChange(event watcher.ChangeEvent) {
	s.mutex.Lock()
	ctx := s.ctx
	s.mutex.Unlock()

	s.logger.Info(ctx, "change detected", "path", event.Path, "kind", event.Kind.String())
	s.debouncer.Trigger()
}

func (s *Session) runBuild() {
	s.mutex.Lock()
	ctx := s.ctx
	s.mutex.Unlock()

	job := s.invoker.Run(ctx)

	s.mutex.Lock()
	s.jobs = append(s.jobs, job)
	s.mutex.Unlock()
}
