package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"auction_go/internal/domain"
	"auction_go/internal/infra"
	"auction_go/internal/infra/storage"
)

// seedVersionKey marks the catalog seed already applied to this database.
const seedVersionKey = "seed.version"

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	Config  *infra.Config
	Storage *storage.Storage
	Media   *infra.MediaCache
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize performs core system initialization (DB, Dir, etc.)
func (b *Bootstrap) Initialize() error {
	slog.Info("🚀 Bootstrapping Auction Go...")

	// 1. Load Config
	cfg, err := infra.LoadConfig("configs/config.yaml")
	if err != nil {
		return err // Let main handle the error
	}
	b.Config = cfg

	// 2. Setup Logger
	logger := infra.NewLogger(cfg)
	slog.SetDefault(logger)

	// 3. Initialize Storage (DB)
	store, err := storage.NewStorage(cfg.Storage.Path)
	if err != nil {
		return err
	}
	b.Storage = store
	slog.Info("✅ Database initialized")

	// 4. Seed the catalog on first run
	if err := b.seedCatalog(); err != nil {
		return err
	}

	// 5. Initialize Media Cache
	media, err := infra.NewMediaCache()
	if err != nil {
		return err
	}
	b.Media = media
	slog.Info("✅ Media cache ready")

	return nil
}

// seedCatalog writes the configured seed listings into the database unless
// this seed version was applied before. End times are relative to startup so
// a fresh install always opens with live auctions.
func (b *Bootstrap) seedCatalog() error {
	version := fmt.Sprintf("%s-%d", b.Config.App.Version, len(b.Config.Catalog.Seed))

	applied, err := b.Storage.LoadConfigMap()
	if err != nil {
		return err
	}
	if applied[seedVersionKey] == version {
		slog.Info("Catalog seed already applied", slog.String("version", version))
		return nil
	}

	now := time.Now()
	rng := domain.NewRandSource(now.UnixNano())
	for _, seed := range b.Config.Catalog.Seed {
		info := &domain.ListingInfo{
			ID:           seed.ID,
			Title:        seed.Title,
			Description:  seed.Description,
			Category:     seed.Category,
			ImageURL:     seed.ImageURL,
			SellerName:   seed.Seller.Name,
			SellerRating: seed.Seller.Rating,
			StartingBid:  seed.StartingBid,
			StartTime:    now.Add(seed.StartsIn.Std()),
			EndTime:      now.Add(seed.EndsIn.Std()),
			UpdatedAt:    now,
		}

		// Preserve the watchlist flag across reseeds.
		if existing, _ := b.Storage.GetListing(seed.ID); existing != nil {
			info.IsWatched = existing.IsWatched
			info.ThumbPath = existing.ThumbPath
			info.CreatedAt = existing.CreatedAt
		}

		if err := b.Storage.UpsertListing(info); err != nil {
			return fmt.Errorf("seed listing %s: %w", seed.ID, err)
		}

		// Replace the seed history wholesale. Rows carry fresh uuids, so an
		// earlier seed's rows would otherwise survive and duplicate amounts.
		if err := b.Storage.DeleteSeedBids(seed.ID); err != nil {
			return fmt.Errorf("seed listing %s: %w", seed.ID, err)
		}

		for _, sb := range seed.Bids {
			record := &domain.SeedBid{
				ID:        uuid.NewString(),
				ListingID: seed.ID,
				Bidder:    sb.Bidder,
				Amount:    sb.Amount,
				PlacedAt:  now.Add(-sb.PlacedAgo.Std()),
				Proof:     domain.NewProofToken(rng),
			}
			if err := b.Storage.InsertSeedBid(record); err != nil {
				return fmt.Errorf("seed bid for %s: %w", seed.ID, err)
			}
		}
	}

	if err := b.Storage.SaveConfig(seedVersionKey, version); err != nil {
		return err
	}
	slog.Info("✅ Catalog seeded",
		slog.Int("listings", len(b.Config.Catalog.Seed)),
		slog.String("version", version))
	return nil
}

// SyncMedia fetches listing thumbnails in the background. The catalog is
// usable before thumbnails land; rows are updated as each one arrives.
func (b *Bootstrap) SyncMedia(ctx context.Context) {
	slog.Info("🔄 Starting media synchronization...")

	listings, err := b.Storage.GetAllListings()
	if err != nil {
		slog.Error("Failed to load listings for media sync", slog.Any("error", err))
		return
	}

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, 5) // Limit concurrent downloads

	for _, info := range listings {
		if info.ImageURL == "" || info.ThumbPath != "" {
			continue
		}
		wg.Add(1)
		go func(info domain.ListingInfo) {
			defer wg.Done()
			select {
			case <-ctx.Done():
				return
			case semaphore <- struct{}{}: // Acquire
			}
			defer func() { <-semaphore }() // Release

			path, err := b.Media.FetchThumbnail(info.ID, info.ImageURL)
			if err != nil {
				slog.Warn("Failed to fetch thumbnail",
					slog.String("listing", info.ID), slog.Any("error", err))
				return
			}
			info.ThumbPath = path
			info.UpdatedAt = time.Now()
			if err := b.Storage.UpsertListing(&info); err != nil {
				slog.Error("Failed to update thumbnail path",
					slog.String("listing", info.ID), slog.Any("error", err))
			}
		}(info)
	}

	wg.Wait()
	slog.Info("✨ Media synchronization completed")
}
