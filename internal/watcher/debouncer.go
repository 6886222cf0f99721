package watcher

import (
	"sync"
	"time"
)

// DefaultDebounceDelay is the quiet period used when no delay is given.
const DefaultDebounceDelay = 500 * time.Millisecond

// Debouncer coalesces bursts of triggers into a single delayed action.
// Every Trigger cancels the pending run and schedules a new one, so the
// action fires once per quiet period. There is no maximum wait.
type Debouncer struct {
	delay  time.Duration
	action func()

	mutex      sync.Mutex
	timer      *time.Timer
	generation uint64
	stopped    bool
}

// NewDebouncer creates a debouncer that runs action delay after the last Trigger.
func NewDebouncer(delay time.Duration, action func()) *Debouncer {
	if delay <= 0 {
		delay = DefaultDebounceDelay
	}

	return &Debouncer{
		delay:  delay,
		action: action,
	}
}

// Debounce returns a trigger function for action.
func Debounce(action func(), delay time.Duration) func() {
	return NewDebouncer(delay, action).Trigger
}

// Delay returns the configured quiet period.
func (d *Debouncer) Delay() time.Duration {
	return d.delay
}

// Trigger re-arms the timer. It is a no-op after Stop.
func (d *Debouncer) Trigger() {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.stopped {
		return
	}

	if d.timer != nil {
		d.timer.Stop()
	}

	// A timer that already fired but is waiting on the lock sees a newer
	// generation and drops itself.
	d.generation++
	gen := d.generation
	d.timer = time.AfterFunc(d.delay, func() {
		d.fire(gen)
	})
}

func (d *Debouncer) fire(gen uint64) {
	d.mutex.Lock()
	if d.stopped || gen != d.generation {
		d.mutex.Unlock()
		return
	}
	d.timer = nil
	d.mutex.Unlock()

	if d.action != nil {
		d.action()
	}
}

// Pending reports whether an action is scheduled.
func (d *Debouncer) Pending() bool {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	return d.timer != nil
}

// Stop cancels any pending action and disables further triggers. It
// returns true if a scheduled action was cancelled.
func (d *Debouncer) Stop() bool {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	cancelled := false
	if d.timer != nil {
		cancelled = d.timer.Stop()
		d.timer = nil
	}
	d.stopped = true
	d.generation++

	return cancelled
}
