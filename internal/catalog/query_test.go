package catalog

import (
	"testing"
	"time"

	"auction_go/internal/domain"

	"github.com/shopspring/decimal"
)

func sampleListings() []domain.Listing {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return []domain.Listing{
		{
			ID: "1", Title: "Vintage Rolex Submariner", Description: "Rare 1970s Submariner",
			Category: "Watches", CurrentBid: decimal.NewFromInt(15500), EndTime: now.Add(2 * 24 * time.Hour),
			BidHistory: make(domain.BidHistory, 23),
		},
		{
			ID: "2", Title: "Original Van Gogh Sketch", Description: "Authenticated sketch dated 1888",
			Category: "Art", CurrentBid: decimal.NewFromInt(125000), EndTime: now.Add(5 * 24 * time.Hour),
			BidHistory: make(domain.BidHistory, 47),
		},
		{
			ID: "3", Title: "Ferrari 250 GT Model", Description: "Limited edition 1:18 scale model",
			Category: "Collectibles", CurrentBid: decimal.NewFromInt(850), EndTime: now.Add(24 * time.Hour),
			BidHistory: make(domain.BidHistory, 12),
		},
	}
}

func ids(listings []domain.Listing) []string {
	out := make([]string, len(listings))
	for i, l := range listings {
		out[i] = l.ID
	}
	return out
}

func TestApply(t *testing.T) {
	listings := sampleListings()

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"no criteria", Filter{}, []string{"1", "2", "3"}},
		{"query matches title", Filter{Query: "rolex"}, []string{"1"}},
		{"query matches description", Filter{Query: "1888"}, []string{"2"}},
		{"category", Filter{Category: "Collectibles"}, []string{"3"}},
		{"category all", Filter{Category: "all"}, []string{"1", "2", "3"}},
		{"price range", Filter{MinPrice: decimal.NewFromInt(1000), MaxPrice: decimal.NewFromInt(20000)}, []string{"1"}},
		{"combined", Filter{Query: "model", Category: "Collectibles"}, []string{"3"}},
		{"no match", Filter{Query: "persian rug"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Apply(listings, tt.filter))
			if len(got) != len(tt.want) {
				t.Fatalf("Apply = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("Apply = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestSort(t *testing.T) {
	listings := sampleListings()

	tests := []struct {
		name  string
		order SortOrder
		want  []string
	}{
		{"ending soon", SortEndingSoon, []string{"3", "1", "2"}},
		{"highest bid", SortHighestBid, []string{"2", "1", "3"}},
		{"most bids", SortMostBids, []string{"2", "1", "3"}},
		{"unknown keeps order", SortOrder("shuffled"), []string{"1", "2", "3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Sort(listings, tt.order))
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Fatalf("Sort(%s) = %v, want %v", tt.order, got, tt.want)
				}
			}
		})
	}

	// Input order untouched
	if listings[0].ID != "1" {
		t.Error("Sort must not mutate its input")
	}
}
