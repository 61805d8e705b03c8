package domain

import (
	"errors"

	"github.com/shopspring/decimal"
)

// RetriableError defines an interface for errors that can be retried
type RetriableError interface {
	error
	IsRetriable() bool
}

// IsRetriable checks if an error is retriable
func IsRetriable(err error) bool {
	var re RetriableError
	if errors.As(err, &re) {
		return re.IsRetriable()
	}
	return false
}

var (
	// ErrBidTooLow is returned when a proposed amount is not strictly greater
	// than the current bid. Equal amounts are always rejected.
	ErrBidTooLow = errors.New("bid too low")

	// ErrAuctionClosed is returned when the listing is not active (either
	// ended or not yet open for bidding).
	ErrAuctionClosed = errors.New("auction closed")

	// ErrNotFound is returned when the listing id is unknown to the store.
	ErrNotFound = errors.New("listing not found")

	// ErrConcurrentConflict is returned when a bid was valid against the
	// snapshot the submitter saw but an interleaved bid completed first.
	// Retriable with a fresh amount from the latest snapshot.
	ErrConcurrentConflict = errors.New("concurrent bid conflict")

	// ErrMissingID is returned for seed listings without an identifier.
	ErrMissingID = errors.New("missing listing id")

	// ErrInvalidStartingBid is returned for seed listings whose starting bid
	// is zero or negative.
	ErrInvalidStartingBid = errors.New("starting bid must be positive")

	// ErrMissingEndTime is returned for seed listings without an end time.
	ErrMissingEndTime = errors.New("missing end time")

	// ErrInvalidSeedHistory is returned when a seed bid history is not
	// strictly decreasing newest-first or falls below the starting bid.
	ErrInvalidSeedHistory = errors.New("invalid seed bid history")
)

// BidError carries the rejection context for a bid submission. All bid
// rejections are expected, recoverable outcomes, never faults.
type BidError struct {
	ListingID  string
	Reason     error           // one of the sentinel reasons above
	CurrentBid decimal.Decimal // current bid at the moment of rejection
}

func (e *BidError) Error() string {
	return "bid rejected [" + e.ListingID + "]: " + e.Reason.Error()
}

// IsRetriable reports whether resubmitting can succeed without the listing
// state changing first. Only a concurrent conflict qualifies: the submitter
// can retry immediately with an amount above the latest snapshot.
func (e *BidError) IsRetriable() bool {
	return errors.Is(e.Reason, ErrConcurrentConflict)
}

func (e *BidError) Unwrap() error {
	return e.Reason
}

// SeedError represents an invalid externally supplied listing (never retriable)
type SeedError struct {
	ListingID string
	Err       error
}

func (e *SeedError) Error() string {
	return "seed error [" + e.ListingID + "]: " + e.Err.Error()
}

func (e *SeedError) IsRetriable() bool {
	return false
}

func (e *SeedError) Unwrap() error {
	return e.Err
}
