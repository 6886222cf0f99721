package watcher

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fireRecorder struct {
	mu    sync.Mutex
	times []time.Time
}

func (r *fireRecorder) record() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.times = append(r.times, time.Now())
}

func (r *fireRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.times)
}

func (r *fireRecorder) first() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.times[0]
}

func TestNewDebouncer_DefaultDelay(t *testing.T) {
	d := NewDebouncer(0, func() {})
	assert.Equal(t, DefaultDebounceDelay, d.Delay())
	assert.Equal(t, 500*time.Millisecond, DefaultDebounceDelay)
}

func TestDebouncer_BurstFiresOnce(t *testing.T) {
	rec := &fireRecorder{}
	delay := 100 * time.Millisecond
	d := NewDebouncer(delay, rec.record)
	defer d.Stop()

	var last time.Time
	for i := 0; i < 5; i++ {
		last = time.Now()
		d.Trigger()
		time.Sleep(20 * time.Millisecond)
	}

	require.Eventually(t, func() bool { return rec.count() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.False(t, rec.first().Before(last.Add(delay)), "action must fire no earlier than last trigger plus delay")

	// No stragglers from the cancelled timers.
	time.Sleep(2 * delay)
	assert.Equal(t, 1, rec.count())
	assert.False(t, d.Pending())
}

func TestDebouncer_SeparatedTriggersFireEach(t *testing.T) {
	rec := &fireRecorder{}
	delay := 30 * time.Millisecond
	d := NewDebouncer(delay, rec.record)
	defer d.Stop()

	for i := 1; i <= 3; i++ {
		d.Trigger()
		want := i
		require.Eventually(t, func() bool { return rec.count() == want }, time.Second, 5*time.Millisecond)
		time.Sleep(delay)
	}

	assert.Equal(t, 3, rec.count())
}

func TestDebouncer_StopCancelsPending(t *testing.T) {
	var fired atomic.Int32
	d := NewDebouncer(50*time.Millisecond, func() { fired.Add(1) })

	d.Trigger()
	assert.True(t, d.Pending())
	assert.True(t, d.Stop())
	assert.False(t, d.Pending())

	// Triggers after Stop are ignored.
	d.Trigger()
	assert.False(t, d.Pending())

	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())
	assert.False(t, d.Stop(), "nothing left to cancel")
}

func TestDebounce_ReturnsTrigger(t *testing.T) {
	var fired atomic.Int32
	trigger := Debounce(func() { fired.Add(1) }, 20*time.Millisecond)

	for i := 0; i < 10; i++ {
		trigger()
	}

	require.Eventually(t, func() bool { return fired.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load())
}

func TestDebouncer_ConcurrentTriggers(t *testing.T) {
	var fired atomic.Int32
	d := NewDebouncer(50*time.Millisecond, func() { fired.Add(1) })
	defer d.Stop()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				d.Trigger()
			}
		}()
	}
	wg.Wait()

	require.Eventually(t, func() bool { return fired.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load())
}
