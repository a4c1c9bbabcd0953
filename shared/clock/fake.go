// shared/clock/fake.go
package clock

import (
	"sort"
	"sync"
	"time"
)

// FakeClock only moves when Advance is called. AfterFunc callbacks run
// synchronously inside Advance, in deadline order, so a callback must not
// call Advance itself.
type FakeClock struct {
	mu      sync.Mutex
	now     time.Time
	pending []*fakeTimer
	changed *sync.Cond
}

type fakeTimer struct {
	deadline time.Time
	fn       func()         // AfterFunc timers
	ch       chan time.Time // tickers
	every    time.Duration  // tickers only
	stopped  bool
	fired    bool
}

// NewFake returns a FakeClock frozen at start.
func NewFake(start time.Time) *FakeClock {
	c := &FakeClock{now: start}
	c.changed = sync.NewCond(&c.mu)
	return c
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// AfterFunc with d <= 0 runs f before returning.
func (c *FakeClock) AfterFunc(d time.Duration, f func()) *Timer {
	if d <= 0 {
		f()
		return &Timer{stop: func() bool { return false }}
	}

	c.mu.Lock()
	ft := &fakeTimer{deadline: c.now.Add(d), fn: f}
	c.pending = append(c.pending, ft)
	c.changed.Broadcast()
	c.mu.Unlock()

	return &Timer{stop: func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		if ft.stopped || ft.fired {
			return false
		}
		ft.stopped = true
		return true
	}}
}

func (c *FakeClock) NewTicker(d time.Duration) *Ticker {
	if d <= 0 {
		panic("clock: non-positive interval for NewTicker")
	}

	c.mu.Lock()
	ch := make(chan time.Time, 1)
	ft := &fakeTimer{deadline: c.now.Add(d), ch: ch, every: d}
	c.pending = append(c.pending, ft)
	c.changed.Broadcast()
	c.mu.Unlock()

	return &Ticker{C: ch, stop: func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		ft.stopped = true
	}}
}

// Advance moves time forward by d and fires everything that came due.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	target := c.now
	c.mu.Unlock()

	for {
		due := c.takeDue(target)
		if len(due) == 0 {
			return
		}
		for _, ft := range due {
			if ft.fn != nil {
				ft.fn()
				continue
			}
			select {
			case ft.ch <- target:
			default:
			}
		}
	}
}

func (c *FakeClock) takeDue(target time.Time) []*fakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()

	var due, keep []*fakeTimer
	for _, ft := range c.pending {
		switch {
		case ft.stopped:
		case ft.deadline.After(target):
			keep = append(keep, ft)
		default:
			due = append(due, ft)
		}
	}
	sort.SliceStable(due, func(i, j int) bool { return due[i].deadline.Before(due[j].deadline) })

	for _, ft := range due {
		if ft.every > 0 {
			ft.deadline = ft.deadline.Add(ft.every)
			keep = append(keep, ft)
		} else {
			ft.fired = true
		}
	}
	c.pending = keep
	return due
}

// WaitForTimers blocks until at least n timers or tickers are pending. Use
// it before Advance when another goroutine registers the timer.
func (c *FakeClock) WaitForTimers(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.pendingLocked() < n {
		c.changed.Wait()
	}
}

// PendingCount reports timers and tickers that have neither fired nor been stopped.
func (c *FakeClock) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pendingLocked()
}

func (c *FakeClock) pendingLocked() int {
	n := 0
	for _, ft := range c.pending {
		if !ft.stopped {
			n++
		}
	}
	return n
}
