package integration

import (
	"sync"
	"time"
)

// Debouncer coalesces bursts of buffer edits into one rescan. The callback
// runs after no Trigger has arrived for the configured delay, and never
// runs concurrently with itself.
type Debouncer struct {
	mu      sync.Mutex
	run     sync.Mutex
	delay   time.Duration
	timer   *time.Timer
	pending bool
	stopped bool
	gen     uint64
	fn      func()
}

// NewDebouncer returns a debouncer that calls fn once the input has been
// quiet for delay.
func NewDebouncer(delay time.Duration, fn func()) *Debouncer {
	return &Debouncer{delay: delay, fn: fn}
}

// Trigger restarts the quiet period. Triggers after Stop are ignored.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}

	d.pending = true
	d.gen++
	gen := d.gen
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() { d.fire(gen) })
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if !d.pending || d.gen != gen || d.fn == nil {
		d.mu.Unlock()
		return
	}
	d.pending = false
	d.timer = nil
	d.mu.Unlock()

	d.run.Lock()
	defer d.run.Unlock()
	d.fn()
}

// Flush runs a pending callback now instead of waiting out the delay.
// It reports whether anything was pending.
func (d *Debouncer) Flush() bool {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
	if !d.pending || d.fn == nil {
		d.mu.Unlock()
		return false
	}
	d.pending = false
	d.mu.Unlock()

	d.run.Lock()
	defer d.run.Unlock()
	d.fn()
	return true
}

// Cancel drops a pending callback without running it.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
	d.pending = false
}

// Stop cancels any pending callback and ignores later triggers.
func (d *Debouncer) Stop() {
	d.Cancel()
	d.mu.Lock()
	d.stopped = true
	d.mu.Unlock()
}

// Pending reports whether a callback is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}
