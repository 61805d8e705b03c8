package engine

import (
	"context"
	"sync"
	"time"

	"auction_go/internal/domain"
	"auction_go/internal/infra"
)

// CountdownService derives per-listing countdowns on a fixed cadence. Each
// subscription runs its own ticker synchronized only to the wall clock, reads
// nothing but the immutable end time, and never blocks bid submissions.
type CountdownService struct {
	store    *Store
	clock    domain.Clock
	interval time.Duration
	wg       sync.WaitGroup
}

// NewCountdownService creates a countdown service. A non-positive interval
// falls back to the 1-second cadence.
func NewCountdownService(store *Store, clock domain.Clock, interval time.Duration) *CountdownService {
	if clock == nil {
		clock = domain.SystemClock
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &CountdownService{
		store:    store,
		clock:    clock,
		interval: interval,
	}
}

// Subscribe starts emitting countdown samples for one listing: once
// immediately, then on every tick. Ticking stops permanently when the
// countdown expires, and earlier if the returned cancel function is called
// or ctx is done, so detached observers leak no periodic work.
func (c *CountdownService) Subscribe(ctx context.Context, listingID string, fn func(domain.Countdown)) (func(), error) {
	snap, ok := c.store.Snapshot(listingID)
	if !ok {
		return nil, domain.ErrNotFound
	}
	end := snap.EndTime

	ctx, cancel := context.WithCancel(ctx)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		// Release the derived context on expiry too, not only when the
		// subscriber detaches.
		defer cancel()

		cd := domain.CountdownAt(end, c.clock.Now())
		fn(cd)
		infra.GlobalMetrics.RecordCountdownTick()
		if cd.IsExpired {
			return
		}

		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cd := domain.CountdownAt(end, c.clock.Now())
				fn(cd)
				infra.GlobalMetrics.RecordCountdownTick()
				if cd.IsExpired {
					return
				}
			}
		}
	}()

	return cancel, nil
}

// Wait blocks until every subscription goroutine has stopped.
func (c *CountdownService) Wait() {
	c.wg.Wait()
}
