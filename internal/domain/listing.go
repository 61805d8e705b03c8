package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle phase of a listing. It is always derived from the
// listing's time boundaries and the current clock, never stored.
type Status string

const (
	StatusUpcoming Status = "upcoming"
	StatusActive   Status = "active"
	StatusEnded    Status = "ended"
)

// Seller identifies who offers a listing.
type Seller struct {
	Name   string  `json:"name"`
	Rating float64 `json:"rating"`
}

// Bid represents one accepted bid event. Once recorded it is immutable.
type Bid struct {
	ID        string          `json:"id"`
	Bidder    string          `json:"bidder"`
	Amount    decimal.Decimal `json:"amount"`
	Timestamp time.Time       `json:"timestamp"`
	Proof     string          `json:"proof"` // opaque token, no verification performed
}

// BidHistory is the append-only ledger of accepted bids, newest first.
type BidHistory []Bid

// Prepend returns the history with bid at the front. Prior entries are never
// reordered or removed.
func (h BidHistory) Prepend(bid Bid) BidHistory {
	out := make(BidHistory, 0, len(h)+1)
	out = append(out, bid)
	out = append(out, h...)
	return out
}

// Head returns the most recent bid.
func (h BidHistory) Head() (Bid, bool) {
	if len(h) == 0 {
		return Bid{}, false
	}
	return h[0], true
}

// clone returns an independent copy of the history.
func (h BidHistory) clone() BidHistory {
	if h == nil {
		return nil
	}
	out := make(BidHistory, len(h))
	copy(out, h)
	return out
}

// Listing represents one auctionable item.
//
// CurrentBid is monotonically non-decreasing and starts at StartingBid.
// EndTime is fixed at creation; there is no reopening or extension.
// BidCount and Status are derived, so the consistency invariants cannot be
// violated by field assignment.
type Listing struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	ImageURL    string          `json:"image_url"`
	Seller      Seller          `json:"seller"`
	StartingBid decimal.Decimal `json:"starting_bid"`
	CurrentBid  decimal.Decimal `json:"current_bid"`
	StartTime   time.Time       `json:"start_time"` // zero value: active immediately
	EndTime     time.Time       `json:"end_time"`
	BidHistory  BidHistory      `json:"bid_history"`
	IsWatched   bool            `json:"is_watched"`
}

// StatusAt derives the lifecycle phase at the given instant.
func (l *Listing) StatusAt(now time.Time) Status {
	if !l.StartTime.IsZero() && now.Before(l.StartTime) {
		return StatusUpcoming
	}
	if now.Before(l.EndTime) {
		return StatusActive
	}
	return StatusEnded
}

// BidCount is always the ledger length.
func (l *Listing) BidCount() int {
	return len(l.BidHistory)
}

// Clone returns a deep copy safe to hand to readers. Mutating the copy never
// affects the store's listing.
func (l *Listing) Clone() Listing {
	out := *l
	out.BidHistory = l.BidHistory.clone()
	return out
}

// Normalize establishes the invariants for an externally supplied listing:
// CurrentBid equals the seed history head when present, otherwise the
// starting bid. Seed histories are trusted beyond these checks.
func (l *Listing) Normalize() error {
	if l.ID == "" {
		return &SeedError{ListingID: l.ID, Err: ErrMissingID}
	}
	if !l.StartingBid.IsPositive() {
		return &SeedError{ListingID: l.ID, Err: ErrInvalidStartingBid}
	}
	if l.EndTime.IsZero() {
		return &SeedError{ListingID: l.ID, Err: ErrMissingEndTime}
	}
	if head, ok := l.BidHistory.Head(); ok {
		if head.Amount.LessThan(l.StartingBid) {
			return &SeedError{ListingID: l.ID, Err: ErrInvalidSeedHistory}
		}
		for i := 0; i+1 < len(l.BidHistory); i++ {
			if !l.BidHistory[i].Amount.GreaterThan(l.BidHistory[i+1].Amount) {
				return &SeedError{ListingID: l.ID, Err: ErrInvalidSeedHistory}
			}
		}
		l.CurrentBid = head.Amount
	} else {
		l.CurrentBid = l.StartingBid
	}
	return nil
}
