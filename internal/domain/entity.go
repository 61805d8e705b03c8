package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ListingInfo is the persisted catalog row for a listing
type ListingInfo struct {
	ID           string          `gorm:"primaryKey" json:"id"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Category     string          `json:"category" gorm:"index"`
	ImageURL     string          `json:"image_url"`
	ThumbPath    string          `json:"thumb_path"` // local thumbnail cache path
	SellerName   string          `json:"seller_name"`
	SellerRating float64         `json:"seller_rating"`
	StartingBid  decimal.Decimal `json:"starting_bid"`
	StartTime    time.Time       `json:"start_time"`
	EndTime      time.Time       `json:"end_time"`
	IsWatched    bool            `json:"is_watched" gorm:"index"` // user watchlist status
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// SeedBid is a persisted seed bid for a listing's initial history
type SeedBid struct {
	ID        string          `gorm:"primaryKey" json:"id"`
	ListingID string          `gorm:"index" json:"listing_id"`
	Bidder    string          `json:"bidder"`
	Amount    decimal.Decimal `json:"amount"`
	PlacedAt  time.Time       `json:"placed_at"`
	Proof     string          `json:"proof"`
}

// AppConfig represents user-specific configuration (Key-Value)
type AppConfig struct {
	Key       string    `gorm:"primaryKey" json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
