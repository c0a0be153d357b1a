package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultDataDir          = "data/eddb"
	DefaultMinimumDemand    = 20000
	DefaultLandingPadSize   = "L"
	DefaultMaxDataAge       = 12 * time.Hour
	DefaultMinimumProfit    = 19000
	DefaultMaxTradeDistance = 50
	DefaultMaxStarDistance  = 500
	DefaultCargoSpace       = 720
	DefaultMaxHops          = 5

	DefaultFetchBaseURL      = "https://eddb.io/archive/v6"
	DefaultFetchMaxAge       = 12 * time.Hour
	DefaultFetchTimeout      = 5 * time.Minute
	DefaultFetchMaxRetries   = 3
	DefaultFetchRetryBackoff = 1 * time.Second

	DefaultFeedURL             = "wss://eddn.edcd.io:9500"
	DefaultFeedHighWatermark   = 1000
	DefaultFeedReconnectDelay  = 5 * time.Second
	DefaultFeedErrorThreshold  = 50
	DefaultFeedRefreshInterval = 12 * time.Hour
	DefaultFeedStopFile        = "scripts/stop.stop"
)

func (c *Config) applyDefaults() {
	if c.Data.Dir == "" {
		c.Data.Dir = DefaultDataDir
	}

	// Trade defaults
	if c.Trade.MinimumDemand == 0 {
		c.Trade.MinimumDemand = DefaultMinimumDemand
	}
	if c.Trade.LandingPadSize == "" {
		c.Trade.LandingPadSize = DefaultLandingPadSize
	}
	if c.Trade.MaxDataAge == 0 {
		c.Trade.MaxDataAge = DefaultMaxDataAge
	}
	if c.Trade.MinimumProfit == 0 {
		c.Trade.MinimumProfit = DefaultMinimumProfit
	}
	if c.Trade.MaxTradeDistance == 0 {
		c.Trade.MaxTradeDistance = DefaultMaxTradeDistance
	}
	if c.Trade.MaxStarDistance == 0 {
		c.Trade.MaxStarDistance = DefaultMaxStarDistance
	}
	if c.Trade.CargoSpace == 0 {
		c.Trade.CargoSpace = DefaultCargoSpace
	}
	if c.Trade.MaxHops == 0 {
		c.Trade.MaxHops = DefaultMaxHops
	}

	// Fetch defaults
	if c.Fetch.BaseURL == "" {
		c.Fetch.BaseURL = DefaultFetchBaseURL
	}
	if c.Fetch.MaxAge == 0 {
		c.Fetch.MaxAge = DefaultFetchMaxAge
	}
	if c.Fetch.Timeout == 0 {
		c.Fetch.Timeout = DefaultFetchTimeout
	}
	if c.Fetch.MaxRetries == 0 {
		c.Fetch.MaxRetries = DefaultFetchMaxRetries
	}
	if c.Fetch.RetryBackoff == 0 {
		c.Fetch.RetryBackoff = DefaultFetchRetryBackoff
	}

	// Feed defaults
	if c.Feed.URL == "" {
		c.Feed.URL = DefaultFeedURL
	}
	if c.Feed.HighWatermark == 0 {
		c.Feed.HighWatermark = DefaultFeedHighWatermark
	}
	if c.Feed.ReconnectDelay == 0 {
		c.Feed.ReconnectDelay = DefaultFeedReconnectDelay
	}
	if c.Feed.ErrorThreshold == 0 {
		c.Feed.ErrorThreshold = DefaultFeedErrorThreshold
	}
	if c.Feed.RefreshInterval == 0 {
		c.Feed.RefreshInterval = DefaultFeedRefreshInterval
	}
	if c.Feed.StopFile == "" {
		c.Feed.StopFile = DefaultFeedStopFile
	}
}
