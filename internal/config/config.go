package config

import (
	"path/filepath"
	"time"
)

// Config is the root configuration for the trade data engine.
type Config struct {
	Data  DataConfig  `yaml:"data"`
	Trade TradeConfig `yaml:"trade"`
	Fetch FetchConfig `yaml:"fetch"`
	Feed  FeedConfig  `yaml:"feed"`
}

// DataConfig locates the on-disk data files.
type DataConfig struct {
	Dir string `yaml:"dir"` // Root directory for snapshots, records and outputs
}

// TradeConfig holds the route-search thresholds.
type TradeConfig struct {
	MinimumDemand    int64         `yaml:"minimum_demand"`     // Min supply/demand for a listing to be usable
	LandingPadSize   string        `yaml:"landing_pad_size"`   // Required station pad class, matched exactly
	MaxDataAge       time.Duration `yaml:"max_data_age"`       // Freshness window for listings at load time
	MinimumProfit    float64       `yaml:"minimum_profit"`     // Min per-unit margin for a single-hop pair
	MaxTradeDistance float64       `yaml:"max_trade_distance"` // Max system-to-system jump distance (ly)
	MaxStarDistance  int64         `yaml:"max_star_distance"`  // Max station distance from star (ls)
	CargoSpace       int64         `yaml:"cargo_space"`        // Cargo capacity used for $/trip figures
	MaxHops          int           `yaml:"max_hops"`           // Max legs in a multi-hop chain
}

// FetchConfig holds bulk snapshot download settings.
type FetchConfig struct {
	BaseURL      string        `yaml:"base_url"`
	MaxAge       time.Duration `yaml:"max_age"` // Skip download when local file is younger
	Timeout      time.Duration `yaml:"timeout"`
	MaxRetries   int           `yaml:"max_retries"`
	RetryBackoff time.Duration `yaml:"retry_backoff"`
}

// FeedConfig holds live feed settings.
type FeedConfig struct {
	URL             string        `yaml:"url"`
	HighWatermark   int           `yaml:"high_watermark"`   // Bounded receive buffer; overflow is dropped
	ReconnectDelay  time.Duration `yaml:"reconnect_delay"`  // Fixed wait between connection attempts
	ErrorThreshold  int           `yaml:"error_threshold"`  // Consecutive receive errors before teardown
	RefreshInterval time.Duration `yaml:"refresh_interval"` // Full rebuild cadence while streaming
	StopFile        string        `yaml:"stop_file"`        // Pollable stop signal
}

// Data file locations, all under Data.Dir.

// ListingsFile is the raw trade record CSV shared by cleanup and the feed.
func (c *Config) ListingsFile() string { return filepath.Join(c.Data.Dir, "trade.csv") }

// SystemsFile is the systems reference snapshot.
func (c *Config) SystemsFile() string { return filepath.Join(c.Data.Dir, "systems.json") }

// StationsFile is the stations reference snapshot.
func (c *Config) StationsFile() string { return filepath.Join(c.Data.Dir, "stations.json") }

// CommoditiesFile is the commodities reference snapshot.
func (c *Config) CommoditiesFile() string { return filepath.Join(c.Data.Dir, "commodities.json") }

// TradeOutputFile is the main single-hop trade output.
func (c *Config) TradeOutputFile() string { return filepath.Join(c.Data.Dir, "TradeOutput.csv") }

// ShortJumpOutputFile is the filtered short-jump view of the trade output.
func (c *Config) ShortJumpOutputFile() string {
	return filepath.Join(c.Data.Dir, "TradeOutputShortJumps.csv")
}

// MultiHopOutputFile is the multi-hop chain output.
func (c *Config) MultiHopOutputFile() string {
	return filepath.Join(c.Data.Dir, "TradeOutputMultihop.csv")
}

// HighestOutputFile is the unconstrained global search output.
func (c *Config) HighestOutputFile() string {
	return filepath.Join(c.Data.Dir, "TradeOutputHighest.csv")
}

// StatsFile holds data volume counters per rebuild.
func (c *Config) StatsFile() string { return filepath.Join(c.Data.Dir, "DataStats.csv") }
