package suggest

import (
	"sync"
	"time"
)

// Debouncer coalesces a burst of triggers into a single delayed call: each
// Trigger resets the pending timer, and only a timer that survives the full
// quiet period uninterrupted fires.
type Debouncer struct {
	clock Clock
	quiet time.Duration

	mu      sync.Mutex
	pending Timer
}

// NewDebouncer creates a Debouncer with the given quiet period.
func NewDebouncer(clock Clock, quiet time.Duration) *Debouncer {
	return &Debouncer{clock: clock, quiet: quiet}
}

// Trigger schedules f to run after the quiet period, replacing any pending
// schedule.
func (d *Debouncer) Trigger(f func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pending != nil {
		d.pending.Stop()
	}
	d.pending = d.clock.AfterFunc(d.quiet, f)
}

// Cancel drops any pending schedule without firing it.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pending != nil {
		d.pending.Stop()
		d.pending = nil
	}
}
