// shared/clock/clock.go
package clock

import "time"

// Clock is the time source for code that schedules work. Services take a
// Clock so tests can drive timers and tickers deterministically.
type Clock interface {
	Now() time.Time
	// AfterFunc calls f once d has elapsed, unless the returned Timer is
	// stopped first.
	AfterFunc(d time.Duration, f func()) *Timer
	// NewTicker panics if d <= 0.
	NewTicker(d time.Duration) *Ticker
}

// Timer is a pending AfterFunc call.
type Timer struct {
	stop func() bool
}

// Stop cancels the call. It reports false when the call already ran or the
// timer was stopped before.
func (t *Timer) Stop() bool { return t.stop() }

// Ticker delivers ticks on C. Slow consumers lose ticks.
type Ticker struct {
	C    <-chan time.Time
	stop func()
}

func (t *Ticker) Stop() { t.stop() }

// Real returns the wall clock.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) *Timer {
	t := time.AfterFunc(d, f)
	return &Timer{stop: t.Stop}
}

func (realClock) NewTicker(d time.Duration) *Ticker {
	t := time.NewTicker(d)
	return &Ticker{C: t.C, stop: t.Stop}
}
