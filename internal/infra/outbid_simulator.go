package infra

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"auction_go/internal/domain"
)

// listingBrowser is the read-only slice of the store the simulator needs.
type listingBrowser interface {
	Snapshots() []domain.Listing
}

// OutbidSimulator fires randomized, non-authoritative outbid notifications
// against active listings. The events exist purely for urgency: they never
// touch listing state, and the notifier is the only thing that hears them.
type OutbidSimulator struct {
	browser  listingBrowser
	notifier domain.Notifier
	clock    domain.Clock
	rng      domain.RandSource
	min, max time.Duration
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewOutbidSimulator creates a simulator emitting at a random interval within
// [min, max].
func NewOutbidSimulator(browser listingBrowser, notifier domain.Notifier, clock domain.Clock, rng domain.RandSource, min, max time.Duration) *OutbidSimulator {
	if clock == nil {
		clock = domain.SystemClock
	}
	if rng == nil {
		rng = domain.NewRandSource(time.Now().UnixNano())
	}
	if min <= 0 {
		min = 30 * time.Second
	}
	if max < min {
		max = min
	}
	return &OutbidSimulator{
		browser:  browser,
		notifier: notifier,
		clock:    clock,
		rng:      rng,
		min:      min,
		max:      max,
	}
}

// Start begins emitting simulated outbid events until Stop or ctx is done.
func (s *OutbidSimulator) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				slog.Error("Outbid simulator panic recovered", slog.Any("panic", r))
			}
		}()

		for {
			timer := time.NewTimer(s.nextInterval())
			select {
			case <-ctx.Done():
				timer.Stop()
				slog.Info("Outbid simulator stopped")
				return
			case <-timer.C:
				s.fire()
			}
		}
	}()
}

// Stop halts the simulator and waits for its goroutine.
func (s *OutbidSimulator) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *OutbidSimulator) nextInterval() time.Duration {
	spread := int(s.max-s.min) + 1
	return s.min + time.Duration(s.rng.Intn(spread))
}

// fire picks one random active listing and notifies. No state changes.
func (s *OutbidSimulator) fire() {
	now := s.clock.Now()

	var active []domain.Listing
	for _, l := range s.browser.Snapshots() {
		if l.StatusAt(now) == domain.StatusActive {
			active = append(active, l)
		}
	}
	if len(active) == 0 {
		return
	}

	target := active[s.rng.Intn(len(active))]
	s.notifier.Outbid(target.ID)
	GlobalMetrics.RecordOutbidEvent()
}
