package engine

import (
	"time"

	"auction_go/internal/domain"

	"github.com/shopspring/decimal"
)

// ValidateBid decides whether a proposed amount may be accepted against the
// listing's state at the given instant. It is pure and side-effect-free.
//
// A bid must be strictly greater than the current bid: equal amounts are
// always rejected, so ties cannot occur.
func ValidateBid(l *domain.Listing, amount decimal.Decimal, now time.Time) error {
	if l.StatusAt(now) != domain.StatusActive {
		return domain.ErrAuctionClosed
	}
	if amount.LessThanOrEqual(l.CurrentBid) {
		return domain.ErrBidTooLow
	}
	return nil
}
