package infra

import (
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Duration accepts yaml values in time.ParseDuration form ("48h", "90s").
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// SeedBidEntry is one trusted seed bid in a listing's initial history,
// newest first.
type SeedBidEntry struct {
	Bidder    string          `yaml:"bidder"`
	Amount    decimal.Decimal `yaml:"amount"`
	PlacedAgo Duration        `yaml:"placed_ago"` // how long before startup the bid landed
}

// SeedListing describes one catalog entry. End times are given relative to
// startup so a fresh install always has live auctions.
type SeedListing struct {
	ID          string          `yaml:"id"`
	Title       string          `yaml:"title"`
	Description string          `yaml:"description"`
	Category    string          `yaml:"category"`
	ImageURL    string          `yaml:"image_url"`
	StartingBid decimal.Decimal `yaml:"starting_bid"`
	StartsIn    Duration        `yaml:"starts_in"` // zero: active immediately
	EndsIn      Duration        `yaml:"ends_in"`
	Seller      struct {
		Name   string  `yaml:"name"`
		Rating float64 `yaml:"rating"`
	} `yaml:"seller"`
	Bids []SeedBidEntry `yaml:"bids"`
}

// Config holds all application settings, loaded from yaml with environment
// overrides applied afterwards.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Server struct {
		Enabled bool   `yaml:"enabled"`
		Addr    string `yaml:"addr"`
	} `yaml:"server"`

	Engine struct {
		InboxSize           int `yaml:"inbox_size"`
		CountdownIntervalMS int `yaml:"countdown_interval_ms"`
	} `yaml:"engine"`

	View struct {
		AnimationMS     int `yaml:"animation_ms"`
		FrameIntervalMS int `yaml:"frame_interval_ms"`
	} `yaml:"view"`

	Simulation struct {
		Enabled        bool `yaml:"enabled"`
		MinIntervalSec int  `yaml:"min_interval_sec"`
		MaxIntervalSec int  `yaml:"max_interval_sec"`
	} `yaml:"simulation"`

	Storage struct {
		Path string `yaml:"path"` // empty: per-user data directory
	} `yaml:"storage"`

	Catalog struct {
		Seed []SeedListing `yaml:"seed"`
	} `yaml:"catalog"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// LoadConfig reads and parses the configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	overrideWithEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	if c.Engine.InboxSize < 0 {
		return fmt.Errorf("engine inbox size must not be negative")
	}
	if c.Engine.CountdownIntervalMS < 0 {
		return fmt.Errorf("countdown interval must not be negative")
	}
	if c.View.AnimationMS < 0 || c.View.FrameIntervalMS < 0 {
		return fmt.Errorf("view intervals must not be negative")
	}
	if c.Server.Enabled && c.Server.Addr == "" {
		return fmt.Errorf("server address is required when the server is enabled")
	}
	if c.Simulation.Enabled {
		if c.Simulation.MinIntervalSec <= 0 || c.Simulation.MaxIntervalSec < c.Simulation.MinIntervalSec {
			return fmt.Errorf("simulation interval range is invalid")
		}
	}

	seen := make(map[string]bool, len(c.Catalog.Seed))
	for _, s := range c.Catalog.Seed {
		if s.ID == "" {
			return fmt.Errorf("seed listing without id")
		}
		if seen[s.ID] {
			return fmt.Errorf("duplicate seed listing id: %s", s.ID)
		}
		seen[s.ID] = true
		if !s.StartingBid.IsPositive() {
			return fmt.Errorf("seed listing %s: starting bid must be positive", s.ID)
		}
		if s.EndsIn == 0 {
			return fmt.Errorf("seed listing %s: ends_in is required", s.ID)
		}
	}

	return nil
}

// CountdownInterval returns the countdown cadence, defaulting to 1 second.
func (c *Config) CountdownInterval() time.Duration {
	if c.Engine.CountdownIntervalMS <= 0 {
		return time.Second
	}
	return time.Duration(c.Engine.CountdownIntervalMS) * time.Millisecond
}

// AnimationDuration returns the bid animation duration, defaulting to 800ms.
func (c *Config) AnimationDuration() time.Duration {
	if c.View.AnimationMS <= 0 {
		return 800 * time.Millisecond
	}
	return time.Duration(c.View.AnimationMS) * time.Millisecond
}

// FrameInterval returns the rendering cadence, defaulting to 16ms.
func (c *Config) FrameInterval() time.Duration {
	if c.View.FrameIntervalMS <= 0 {
		return 16 * time.Millisecond
	}
	return time.Duration(c.View.FrameIntervalMS) * time.Millisecond
}

// overrideWithEnv overrides settings from environment variables when present.
func overrideWithEnv(cfg *Config) {
	if addr := os.Getenv("AUCTION_SERVER_ADDR"); addr != "" {
		cfg.Server.Addr = addr
	}
	if path := os.Getenv("AUCTION_STORAGE_PATH"); path != "" {
		cfg.Storage.Path = path
	}
	if level := os.Getenv("AUCTION_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
}
