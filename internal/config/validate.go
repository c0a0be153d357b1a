package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Data.Dir == "" {
		return errors.New("data.dir is required")
	}

	if c.Trade.MinimumDemand < 0 {
		return errors.New("trade.minimum_demand must be >= 0")
	}
	switch c.Trade.LandingPadSize {
	case "S", "M", "L":
	default:
		return fmt.Errorf("trade.landing_pad_size must be S, M or L, got %q", c.Trade.LandingPadSize)
	}
	if c.Trade.MaxDataAge <= 0 {
		return errors.New("trade.max_data_age must be positive")
	}
	if c.Trade.MaxTradeDistance <= 0 {
		return errors.New("trade.max_trade_distance must be positive")
	}
	if c.Trade.MaxStarDistance <= 0 {
		return errors.New("trade.max_star_distance must be positive")
	}
	if c.Trade.CargoSpace < 1 {
		return errors.New("trade.cargo_space must be >= 1")
	}
	if c.Trade.MaxHops < 1 {
		return errors.New("trade.max_hops must be >= 1")
	}

	if c.Fetch.BaseURL == "" {
		return errors.New("fetch.base_url is required")
	}
	if c.Fetch.MaxRetries < 0 {
		return errors.New("fetch.max_retries must be >= 0")
	}

	if c.Feed.URL == "" {
		return errors.New("feed.url is required")
	}
	if c.Feed.HighWatermark < 1 {
		return errors.New("feed.high_watermark must be >= 1")
	}
	if c.Feed.ErrorThreshold < 1 {
		return errors.New("feed.error_threshold must be >= 1")
	}
	if c.Feed.RefreshInterval <= 0 {
		return errors.New("feed.refresh_interval must be positive")
	}

	return nil
}
