// Package catalog provides pure, stateless transformations over listing
// snapshots for browse surfaces. Nothing here mutates engine state.
package catalog

import (
	"sort"
	"strings"

	"auction_go/internal/domain"

	"github.com/shopspring/decimal"
)

// Filter narrows a listing collection. Zero values disable a criterion.
type Filter struct {
	Query    string // case-insensitive match over title and description
	Category string // exact category, empty or "all" matches everything
	MinPrice decimal.Decimal
	MaxPrice decimal.Decimal // zero: unbounded
}

// Apply returns the listings matching all active criteria, preserving input
// order.
func Apply(listings []domain.Listing, f Filter) []domain.Listing {
	query := strings.ToLower(f.Query)

	out := make([]domain.Listing, 0, len(listings))
	for _, l := range listings {
		if query != "" &&
			!strings.Contains(strings.ToLower(l.Title), query) &&
			!strings.Contains(strings.ToLower(l.Description), query) {
			continue
		}
		if f.Category != "" && f.Category != "all" && l.Category != f.Category {
			continue
		}
		if l.CurrentBid.LessThan(f.MinPrice) {
			continue
		}
		if !f.MaxPrice.IsZero() && l.CurrentBid.GreaterThan(f.MaxPrice) {
			continue
		}
		out = append(out, l)
	}
	return out
}

// SortOrder selects how a listing collection is ordered.
type SortOrder string

const (
	SortEndingSoon SortOrder = "ending-soon"
	SortHighestBid SortOrder = "highest-bid"
	SortMostBids   SortOrder = "most-bids"
)

// Sort returns a sorted copy of the listings. Unknown orders return the input
// order unchanged.
func Sort(listings []domain.Listing, order SortOrder) []domain.Listing {
	out := make([]domain.Listing, len(listings))
	copy(out, listings)

	switch order {
	case SortEndingSoon:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].EndTime.Before(out[j].EndTime)
		})
	case SortHighestBid:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].CurrentBid.GreaterThan(out[j].CurrentBid)
		})
	case SortMostBids:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].BidCount() > out[j].BidCount()
		})
	}
	return out
}
