package event

import (
	"auction_go/internal/domain"

	"github.com/shopspring/decimal"
)

// Event is the unit of work flowing through the engine inbox and out to the
// live view hub.
type Event interface {
	GetSeq() uint64
	GetType() string
}

const (
	TypeBidRequest    = "bid_request"
	TypeListingUpdate = "listing_update"
	TypeCountdownTick = "countdown_tick"
)

// BaseEvent carries the fields shared by all events. Seq is assigned by the
// store loop when the event is published; Ts is unix milliseconds.
type BaseEvent struct {
	Seq uint64 `json:"seq"`
	Ts  int64  `json:"ts"`
}

func (e *BaseEvent) GetSeq() uint64 { return e.Seq }

// BidOutcome is the reply to one bid submission: exactly one of Bid or Err.
type BidOutcome struct {
	Bid domain.Bid
	Err error
}

// BidRequestEvent asks the store to apply one bid. Observed is the current
// bid the submitting view displayed when the request was made; it lets the
// store tell a stale race apart from a plainly low bid.
type BidRequestEvent struct {
	BaseEvent
	ListingID string
	Bidder    string
	Amount    decimal.Decimal
	Observed  decimal.Decimal
	Reply     chan BidOutcome
}

func (e *BidRequestEvent) GetType() string { return TypeBidRequest }

// ListingUpdateEvent carries a listing snapshot published after an accepted
// bid.
type ListingUpdateEvent struct {
	BaseEvent
	Listing domain.Listing `json:"listing"`
}

func (e *ListingUpdateEvent) GetType() string { return TypeListingUpdate }

// CountdownTickEvent carries one countdown sample for a listing.
type CountdownTickEvent struct {
	BaseEvent
	ListingID string           `json:"listing_id"`
	Countdown domain.Countdown `json:"countdown"`
}

func (e *CountdownTickEvent) GetType() string { return TypeCountdownTick }
