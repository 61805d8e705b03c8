package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"auction_go/internal/domain"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Storage is the catalog data source: it supplies the engine's initial
// listings and persists user-side extras (watchlist, preferences). Live bid
// state never flows back here.
type Storage struct {
	db *gorm.DB
}

// NewStorage creates a new SQLite storage instance. An empty path resolves
// to the per-user data directory.
func NewStorage(path string) (*Storage, error) {
	dbPath := path
	if dbPath == "" {
		resolved, err := getDBPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve DB path: %w", err)
		}
		dbPath = resolved
	}

	// Ensure directory exists
	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create DB directory: %w", err)
	}

	// Connect to SQLite (Pure Go)
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Auto Migration
	if err := db.AutoMigrate(&domain.ListingInfo{}, &domain.SeedBid{}, &domain.AppConfig{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Storage{db: db}, nil
}

// getDBPath resolves the database file path based on OS
func getDBPath() (string, error) {
	var configDir string
	var err error

	if runtime.GOOS == "windows" {
		configDir = os.Getenv("LOCALAPPDATA")
		if configDir == "" {
			configDir, err = os.UserConfigDir()
		}
	} else {
		configDir, err = os.UserConfigDir()
	}

	if err != nil {
		return "", err
	}

	return filepath.Join(configDir, "AuctionGo", "data", "auctiongo.db"), nil
}

// ======================================================================================
// Listing Operations
// ======================================================================================

// UpsertListing creates or updates a catalog listing
func (s *Storage) UpsertListing(info *domain.ListingInfo) error {
	return s.db.Save(info).Error
}

// GetListing retrieves one catalog listing by id
func (s *Storage) GetListing(id string) (*domain.ListingInfo, error) {
	var info domain.ListingInfo
	err := s.db.First(&info, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil // Not found is not an error
	}
	return &info, err
}

// GetAllListings retrieves the full catalog
func (s *Storage) GetAllListings() ([]domain.ListingInfo, error) {
	var infos []domain.ListingInfo
	err := s.db.Find(&infos).Error
	return infos, err
}

// ToggleWatched flips the watchlist status of a listing
func (s *Storage) ToggleWatched(id string) (bool, error) {
	var info domain.ListingInfo
	if err := s.db.First(&info, "id = ?", id).Error; err != nil {
		return false, err
	}

	info.IsWatched = !info.IsWatched
	err := s.db.Save(&info).Error
	return info.IsWatched, err
}

// InsertSeedBid stores one seed bid for a listing's initial history
func (s *Storage) InsertSeedBid(bid *domain.SeedBid) error {
	return s.db.Save(bid).Error
}

// DeleteSeedBids removes all seed bids of a listing. Reseeding replaces a
// listing's history wholesale; leftover rows from an earlier seed would
// duplicate amounts and break the strictly-decreasing invariant.
func (s *Storage) DeleteSeedBids(listingID string) error {
	return s.db.Where("listing_id = ?", listingID).Delete(&domain.SeedBid{}).Error
}

// GetSeedBids retrieves a listing's seed bids newest first
func (s *Storage) GetSeedBids(listingID string) ([]domain.SeedBid, error) {
	var bids []domain.SeedBid
	err := s.db.Where("listing_id = ?", listingID).Find(&bids).Error
	if err != nil {
		return nil, err
	}
	sort.Slice(bids, func(i, j int) bool {
		return bids[i].PlacedAt.After(bids[j].PlacedAt)
	})
	return bids, nil
}

// LoadCatalog assembles the engine's initial listings from the persisted
// catalog. It satisfies domain.ListingSource.
func (s *Storage) LoadCatalog() ([]domain.Listing, error) {
	infos, err := s.GetAllListings()
	if err != nil {
		return nil, err
	}

	listings := make([]domain.Listing, 0, len(infos))
	for _, info := range infos {
		bids, err := s.GetSeedBids(info.ID)
		if err != nil {
			return nil, err
		}

		history := make(domain.BidHistory, 0, len(bids))
		for _, b := range bids {
			history = append(history, domain.Bid{
				ID:        b.ID,
				Bidder:    b.Bidder,
				Amount:    b.Amount,
				Timestamp: b.PlacedAt,
				Proof:     b.Proof,
			})
		}

		listings = append(listings, domain.Listing{
			ID:          info.ID,
			Title:       info.Title,
			Description: info.Description,
			Category:    info.Category,
			ImageURL:    info.ImageURL,
			Seller:      domain.Seller{Name: info.SellerName, Rating: info.SellerRating},
			StartingBid: info.StartingBid,
			StartTime:   info.StartTime,
			EndTime:     info.EndTime,
			BidHistory:  history,
			IsWatched:   info.IsWatched,
		})
	}

	return listings, nil
}

// ======================================================================================
// Config Operations
// ======================================================================================

// SaveConfig saves a user configuration
func (s *Storage) SaveConfig(key, value string) error {
	config := domain.AppConfig{
		Key:   key,
		Value: value,
	}
	return s.db.Save(&config).Error
}

// LoadConfigMap loads all user configurations as a map
func (s *Storage) LoadConfigMap() (map[string]string, error) {
	var configs []domain.AppConfig
	if err := s.db.Find(&configs).Error; err != nil {
		return nil, err
	}

	result := make(map[string]string)
	for _, cfg := range configs {
		result[cfg.Key] = cfg.Value
	}
	return result, nil
}
