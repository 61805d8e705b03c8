package engine

import (
	"errors"
	"testing"
	"time"

	"auction_go/internal/domain"

	"github.com/shopspring/decimal"
)

func TestValidateBid(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	active := &domain.Listing{
		ID:          "1",
		StartingBid: decimal.NewFromInt(8000),
		CurrentBid:  decimal.NewFromInt(8000),
		EndTime:     now.Add(time.Hour),
	}

	tests := []struct {
		name    string
		listing *domain.Listing
		amount  decimal.Decimal
		want    error
	}{
		{"higher bid accepted", active, decimal.NewFromInt(8500), nil},
		{"lower bid rejected", active, decimal.NewFromInt(7000), domain.ErrBidTooLow},
		{"equal bid rejected", active, decimal.NewFromInt(8000), domain.ErrBidTooLow},
		{
			"ended listing rejected",
			&domain.Listing{ID: "2", CurrentBid: decimal.NewFromInt(100), EndTime: now.Add(-time.Minute)},
			decimal.NewFromInt(500),
			domain.ErrAuctionClosed,
		},
		{
			"upcoming listing rejected",
			&domain.Listing{ID: "3", CurrentBid: decimal.NewFromInt(100), StartTime: now.Add(time.Hour), EndTime: now.Add(2 * time.Hour)},
			decimal.NewFromInt(500),
			domain.ErrAuctionClosed,
		},
		{
			"closed wins over too low",
			&domain.Listing{ID: "4", CurrentBid: decimal.NewFromInt(100), EndTime: now.Add(-time.Minute)},
			decimal.NewFromInt(50),
			domain.ErrAuctionClosed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := tt.listing.Clone()
			err := ValidateBid(tt.listing, tt.amount, now)
			if !errors.Is(err, tt.want) {
				t.Errorf("ValidateBid = %v, want %v", err, tt.want)
			}
			// Validation never mutates
			if !before.CurrentBid.Equal(tt.listing.CurrentBid) || len(before.BidHistory) != len(tt.listing.BidHistory) {
				t.Error("ValidateBid must not mutate the listing")
			}
		})
	}
}
