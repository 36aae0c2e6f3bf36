package suggest

import "time"

// Timer is a cancellable delayed task handle.
type Timer interface {
	// Stop cancels the timer. It reports whether the call prevented the
	// function from firing.
	Stop() bool
}

// Clock schedules delayed functions. The production implementation wraps
// time.AfterFunc; tests substitute a simulated clock to drive debounce
// timing deterministically.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// SystemClock is the wall-clock Clock implementation.
type SystemClock struct{}

func (SystemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
