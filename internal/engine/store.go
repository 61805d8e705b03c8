package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"auction_go/internal/domain"
	"auction_go/internal/event"
	"auction_go/internal/infra"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Store is the single owner of the listing collection. All mutation happens
// inside its Run loop, so bid applications are totally ordered: a bid that is
// acknowledged before another begins validation is visible to that later
// validation. Every other component only ever sees deep-copied snapshots.
type Store struct {
	inbox    chan event.Event
	listings map[string]*domain.Listing
	subs     map[string]map[uint64]func(domain.Listing)
	nextSub  uint64
	nextSeq  uint64
	clock    domain.Clock
	rng      domain.RandSource
	notifier domain.Notifier

	mu sync.RWMutex // guards listings and subs for external reads
}

// NewStore creates a store. Nil clock, rng or notifier fall back to system
// defaults.
func NewStore(inboxSize int, clock domain.Clock, rng domain.RandSource, notifier domain.Notifier) *Store {
	if inboxSize <= 0 {
		inboxSize = 64
	}
	if clock == nil {
		clock = domain.SystemClock
	}
	if rng == nil {
		rng = domain.NewRandSource(time.Now().UnixNano())
	}
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &Store{
		inbox:    make(chan event.Event, inboxSize),
		listings: make(map[string]*domain.Listing),
		subs:     make(map[string]map[uint64]func(domain.Listing)),
		nextSub:  1,
		nextSeq:  1,
		clock:    clock,
		rng:      rng,
		notifier: notifier,
	}
}

// Load installs externally supplied listings. Each seed is normalized so the
// invariants hold from the first read: current bid equals the history head
// (or the starting bid), and malformed seeds are rejected with a SeedError.
// A listing whose end time has already passed loads as ended.
func (s *Store) Load(seeds []domain.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range seeds {
		l := seeds[i].Clone()
		if err := l.Normalize(); err != nil {
			return err
		}
		s.listings[l.ID] = &l
	}
	return nil
}

// Run starts the main bid-application loop. This MUST be run in a single
// goroutine.
func (s *Store) Run(ctx context.Context) {
	slog.Info("Auction store started")

	defer func() {
		if r := recover(); r != nil {
			slog.Error("CRITICAL_PANIC_DETECTED", slog.Any("panic", r))
			s.DumpState("panic_dump.json")
			panic(fmt.Sprintf("HALTED: %v", r))
		}
	}()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Auction store stopping...")
			return
		case ev := <-s.inbox:
			s.processEvent(ev)
		}
	}
}

func (s *Store) processEvent(ev event.Event) {
	switch e := ev.(type) {
	case *event.BidRequestEvent:
		s.applyBid(e)
	default:
		slog.Warn("Unknown event type", slog.String("type", ev.GetType()))
	}
}

// SubmitBid enqueues a bid and suspends until the store replies or ctx is
// done. The call either fully succeeds (ledger, current bid and publication
// together) or fully fails with no state change.
func (s *Store) SubmitBid(ctx context.Context, listingID, bidder string, amount decimal.Decimal) (domain.Bid, error) {
	observed := decimal.Zero
	if snap, ok := s.Snapshot(listingID); ok {
		observed = snap.CurrentBid
	}

	req := &event.BidRequestEvent{
		BaseEvent: event.BaseEvent{Ts: s.clock.Now().UnixMilli()},
		ListingID: listingID,
		Bidder:    bidder,
		Amount:    amount,
		Observed:  observed,
		Reply:     make(chan event.BidOutcome, 1),
	}

	select {
	case s.inbox <- req:
	case <-ctx.Done():
		return domain.Bid{}, ctx.Err()
	}

	select {
	case out := <-req.Reply:
		return out.Bid, out.Err
	case <-ctx.Done():
		return domain.Bid{}, ctx.Err()
	}
}

func (s *Store) applyBid(req *event.BidRequestEvent) {
	start := time.Now()

	s.mu.Lock()
	l, ok := s.listings[req.ListingID]
	if !ok {
		s.mu.Unlock()
		s.reject(req, &domain.BidError{ListingID: req.ListingID, Reason: domain.ErrNotFound})
		return
	}

	now := s.clock.Now()
	if err := ValidateBid(l, req.Amount, now); err != nil {
		reason := err
		// The amount was above the bid the submitter saw, but another bid
		// landed first. Classified separately so the caller knows a retry
		// with a fresh amount can succeed.
		if errors.Is(err, domain.ErrBidTooLow) && req.Amount.GreaterThan(req.Observed) {
			reason = domain.ErrConcurrentConflict
		}
		berr := &domain.BidError{ListingID: req.ListingID, Reason: reason, CurrentBid: l.CurrentBid}
		s.mu.Unlock()
		s.reject(req, berr)
		return
	}

	bid := domain.Bid{
		ID:        uuid.NewString(),
		Bidder:    req.Bidder,
		Amount:    req.Amount,
		Timestamp: now,
		Proof:     domain.NewProofToken(s.rng),
	}
	l.BidHistory = l.BidHistory.Prepend(bid)
	l.CurrentBid = req.Amount

	snap := l.Clone()
	fns := make([]func(domain.Listing), 0, len(s.subs[req.ListingID]))
	for _, fn := range s.subs[req.ListingID] {
		fns = append(fns, fn)
	}
	s.nextSeq++
	s.mu.Unlock()

	// Each observer gets an independent snapshot of the same state.
	for _, fn := range fns {
		fn(snap.Clone())
	}

	s.notifier.BidAccepted(req.ListingID, req.Amount)
	infra.GlobalMetrics.RecordBidAccepted(time.Since(start).Nanoseconds())
	req.Reply <- event.BidOutcome{Bid: bid}
}

func (s *Store) reject(req *event.BidRequestEvent, berr *domain.BidError) {
	s.notifier.BidRejected(req.ListingID, berr)
	infra.GlobalMetrics.RecordBidRejected()
	req.Reply <- event.BidOutcome{Err: berr}
}

// Snapshot returns a deep copy of one listing. Reading twice without an
// intervening bid yields identical values.
func (s *Store) Snapshot(id string) (domain.Listing, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.listings[id]
	if !ok {
		return domain.Listing{}, false
	}
	return l.Clone(), true
}

// Snapshots returns deep copies of all listings sorted by id.
func (s *Store) Snapshots() []domain.Listing {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Listing, 0, len(s.listings))
	for _, l := range s.listings {
		result = append(result, l.Clone())
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	return result
}

// PublishSeq returns the number of accepted bids published so far plus one.
func (s *Store) PublishSeq() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextSeq
}

// Subscribe registers an observer for one listing. The callback receives a
// private snapshot after every accepted bid. The returned function detaches
// the observer.
func (s *Store) Subscribe(listingID string, fn func(domain.Listing)) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.listings[listingID]; !ok {
		return nil, domain.ErrNotFound
	}

	id := s.nextSub
	s.nextSub++
	if s.subs[listingID] == nil {
		s.subs[listingID] = make(map[uint64]func(domain.Listing))
	}
	s.subs[listingID][id] = fn
	infra.GlobalMetrics.IncrementSubscriptions()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.subs[listingID][id]; ok {
			delete(s.subs[listingID], id)
			infra.GlobalMetrics.DecrementSubscriptions()
		}
	}, nil
}

// DumpState writes the entire internal state to a file (for post-mortem).
func (s *Store) DumpState(filename string) {
	slog.Info("Dumping internal state...", slog.String("file", filename))

	s.mu.RLock()
	data := struct {
		NextSeq  uint64                     `json:"next_seq"`
		Listings map[string]*domain.Listing `json:"listings"`
	}{
		NextSeq:  s.nextSeq,
		Listings: s.listings,
	}
	b, err := json.MarshalIndent(data, "", "  ")
	s.mu.RUnlock()

	if err != nil {
		slog.Error("Failed to marshal state", slog.Any("error", err))
		return
	}

	if err := os.WriteFile(filename, b, 0644); err != nil {
		slog.Error("Failed to write state dump", slog.Any("error", err))
	}
}

type noopNotifier struct{}

func (noopNotifier) BidAccepted(string, decimal.Decimal) {}
func (noopNotifier) BidRejected(string, error)           {}
func (noopNotifier) Outbid(string)                       {}
