// board/rollover/rollover.go
package rollover

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/Ftotnem/LIVEBOARD/board/leaderboard"
	"github.com/Ftotnem/LIVEBOARD/board/store"
	"github.com/Ftotnem/LIVEBOARD/shared/clock"
)

// Publisher republishes the board after submissions were reset.
type Publisher interface {
	Publish(ctx context.Context) (*leaderboard.Board, error)
}

// Resetter periodically zeroes the daily submission counters of agents whose
// last reset happened before the start of the current day in loc.
type Resetter struct {
	agents    store.AgentStore
	publisher Publisher
	clock     clock.Clock
	interval  time.Duration
	loc       *time.Location
	extra     []func()

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func NewResetter(agents store.AgentStore, publisher Publisher, clk clock.Clock, interval time.Duration, loc *time.Location) *Resetter {
	if loc == nil {
		loc = time.UTC
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Resetter{
		agents:    agents,
		publisher: publisher,
		clock:     clk,
		interval:  interval,
		loc:       loc,
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
}

// AlsoEvery registers housekeeping to run on each tick.
func (r *Resetter) AlsoEvery(fn func()) {
	r.extra = append(r.extra, fn)
}

// StartOfDay returns midnight of t's date in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// RunOnce resets stale agents and republishes when anything changed.
func (r *Resetter) RunOnce(ctx context.Context) (int, error) {
	now := r.clock.Now()
	n, err := r.agents.ResetSubmissions(ctx, StartOfDay(now, r.loc), now)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, nil
	}
	log.Printf("INFO: Daily rollover reset submissions for %d agents", n)
	if _, err := r.publisher.Publish(ctx); err != nil {
		log.Printf("ERROR: Failed to publish leaderboard after rollover: %v", err)
	}
	return n, nil
}

// Start runs the rollover loop until Stop is called. Run it in a goroutine.
func (r *Resetter) Start() {
	defer close(r.done)
	log.Printf("INFO: Rollover starting with check interval %v (%s)", r.interval, r.loc)

	ticker := r.clock.NewTicker(r.interval)
	defer ticker.Stop()

	r.tick()
	for {
		select {
		case <-r.ctx.Done():
			log.Println("INFO: Rollover shutting down.")
			return
		case <-ticker.C:
			r.tick()
		}
	}
}

func (r *Resetter) tick() {
	if _, err := r.RunOnce(r.ctx); err != nil && r.ctx.Err() == nil {
		log.Printf("ERROR: Daily rollover failed: %v", err)
	}
	for _, fn := range r.extra {
		fn()
	}
}

// Stop ends the loop and waits for it to exit. Only call after Start.
func (r *Resetter) Stop() {
	r.once.Do(r.cancel)
	<-r.done
}
