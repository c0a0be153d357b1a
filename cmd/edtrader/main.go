package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/almarsh/edtrader/internal/config"
	"github.com/almarsh/edtrader/internal/export"
	"github.com/almarsh/edtrader/internal/feed"
	"github.com/almarsh/edtrader/internal/fetch"
	"github.com/almarsh/edtrader/internal/refdata"
	"github.com/almarsh/edtrader/internal/route"
	"github.com/almarsh/edtrader/internal/store"
	"github.com/almarsh/edtrader/internal/version"
)

const usage = `usage: edtrader [flags] <command>

commands:
  update    download snapshots, rebuild, run all searches
  trades    single-hop search (plus short-jump view)
  multihop  greedy multi-hop chain search
  highest   unconstrained global search
  clean     deduplicate and prune the trade record file
  feed      stream live market updates (queued)
  feedlite  stream live market updates (inline)
`

func main() {
	configPath := flag.String("config", "configs/edtrader.yaml", "path to config file")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	command := flag.Arg(0)
	if command == "" {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := loadConfig(*configPath, logger)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("starting edtrader",
		"version", version.String(),
		"command", command,
		"data_dir", cfg.Data.Dir,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	switch command {
	case "update":
		err = runUpdate(ctx, cfg, logger)
	case "trades":
		err = runTrades(ctx, cfg, logger)
	case "multihop":
		err = runMultiHop(ctx, cfg, logger)
	case "highest":
		err = runHighest(ctx, cfg, logger)
	case "clean":
		err = runClean(cfg, logger)
	case "feed":
		err = runFeed(ctx, cfg, logger, true)
	case "feedlite":
		err = runFeed(ctx, cfg, logger, false)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		logger.Error("command failed", "command", command, "error", err)
		os.Exit(1)
	}
}

// loadConfig falls back to built-in defaults when no config file exists, so
// the binary works out of the box.
func loadConfig(path string, logger *slog.Logger) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		logger.Info("no config file, using defaults", "path", path)
		return config.Default(), nil
	}
	return config.LoadAndValidate(path)
}

// buildSnapshot runs one rebuild cycle against the on-disk data files.
func buildSnapshot(ctx context.Context, cfg *config.Config, withListings bool, logger *slog.Logger) (*refdata.Snapshot, error) {
	return refdata.Build(ctx, refdata.BuildParams{
		SystemsFile:     cfg.SystemsFile(),
		StationsFile:    cfg.StationsFile(),
		CommoditiesFile: cfg.CommoditiesFile(),
		ListingsFile:    cfg.ListingsFile(),
		WithListings:    withListings,
		Trade:           cfg.Trade,
	}, logger)
}

// runUpdate refreshes the bulk snapshots, cleans the record file and runs
// every search.
func runUpdate(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	fetcher := fetch.New(cfg.Fetch, logger)
	files := []fetch.File{
		{Name: "systems_populated.json", Path: cfg.SystemsFile()},
		{Name: "stations.json", Path: cfg.StationsFile()},
		{Name: "commodities.json", Path: cfg.CommoditiesFile()},
		{Name: "listings.csv", Path: cfg.ListingsFile()},
	}
	if err := fetcher.FetchAll(ctx, files); err != nil {
		return fmt.Errorf("fetch snapshots: %w", err)
	}

	if _, err := store.Cleanup(cfg.ListingsFile(), time.Now().UTC(), logger); err != nil {
		return fmt.Errorf("clean record file: %w", err)
	}

	snap, err := buildSnapshot(ctx, cfg, true, logger)
	if err != nil {
		return err
	}
	now := time.Now().UTC()

	rows := route.BestTrades(snap, cfg.Trade)
	if err := export.WriteTrades(cfg.TradeOutputFile(), rows, cfg.Trade.CargoSpace, now); err != nil {
		return err
	}
	if err := export.WriteTrades(cfg.ShortJumpOutputFile(), route.ShortJumps(rows), cfg.Trade.CargoSpace, now); err != nil {
		return err
	}

	trip, err := route.FindMultiHop(snap, cfg.Trade, rows, logger)
	if err == nil {
		if err := export.WriteTrip(cfg.MultiHopOutputFile(), trip, cfg.Trade.CargoSpace, now); err != nil {
			return err
		}
	} else {
		logger.Warn("multi-hop search produced no chain", "error", err)
	}

	legs := route.FindHighestTrades(snap, cfg.Trade)
	if err := export.WriteLegs(cfg.HighestOutputFile(), legs, cfg.Trade.CargoSpace, now); err != nil {
		return err
	}

	return export.WriteStats(cfg.StatsFile(),
		len(snap.Systems), len(snap.Stations), len(snap.Commodities), len(snap.Listings), now)
}

// runTrades rebuilds and writes the single-hop outputs.
func runTrades(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	snap, err := buildSnapshot(ctx, cfg, true, logger)
	if err != nil {
		return err
	}
	now := time.Now().UTC()

	rows := route.BestTrades(snap, cfg.Trade)
	logger.Info("single-hop search complete", "rows", len(rows))

	if err := export.WriteTrades(cfg.TradeOutputFile(), rows, cfg.Trade.CargoSpace, now); err != nil {
		return err
	}
	if err := export.WriteTrades(cfg.ShortJumpOutputFile(), route.ShortJumps(rows), cfg.Trade.CargoSpace, now); err != nil {
		return err
	}
	return export.WriteStats(cfg.StatsFile(),
		len(snap.Systems), len(snap.Stations), len(snap.Commodities), len(snap.Listings), now)
}

// runMultiHop rebuilds, seeds from the single-hop search and writes the chain.
func runMultiHop(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	snap, err := buildSnapshot(ctx, cfg, true, logger)
	if err != nil {
		return err
	}

	rows := route.BestTrades(snap, cfg.Trade)
	trip, err := route.FindMultiHop(snap, cfg.Trade, rows, logger)
	if err != nil {
		return err
	}
	return export.WriteTrip(cfg.MultiHopOutputFile(), trip, cfg.Trade.CargoSpace, time.Now().UTC())
}

// runHighest rebuilds and writes the unconstrained global search output.
func runHighest(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	snap, err := buildSnapshot(ctx, cfg, true, logger)
	if err != nil {
		return err
	}

	legs := route.FindHighestTrades(snap, cfg.Trade)
	logger.Info("global search complete", "legs", len(legs))
	return export.WriteLegs(cfg.HighestOutputFile(), legs, cfg.Trade.CargoSpace, time.Now().UTC())
}

// runClean deduplicates and prunes the trade record file in place.
func runClean(cfg *config.Config, logger *slog.Logger) error {
	stats, err := store.Cleanup(cfg.ListingsFile(), time.Now().UTC(), logger)
	if err != nil {
		return err
	}
	logger.Info("clean complete",
		"rows_before", stats.Original,
		"rows_after", stats.Kept,
		"removed", stats.Removed,
		"rewritten", stats.Rewritten,
	)
	return nil
}

// runFeed streams live market updates into the record file until the context
// is cancelled or the stop file appears.
func runFeed(ctx context.Context, cfg *config.Config, logger *slog.Logger, queued bool) error {
	rebuild := func(ctx context.Context) (*refdata.Snapshot, error) {
		return buildSnapshot(ctx, cfg, false, logger)
	}
	pipeline := feed.NewPipeline(cfg.Feed, cfg.ListingsFile(), rebuild, logger)

	var err error
	if queued {
		err = pipeline.Run(ctx)
	} else {
		err = pipeline.RunInline(ctx)
	}

	stats := pipeline.Stats()
	logger.Info("feed stopped",
		"processed", stats.Processed,
		"records_appended", stats.RecordsAppended,
		"dropped_queue_full", stats.DroppedQueueFull,
		"dropped_rebuilding", stats.DroppedRebuilding,
		"dropped_unresolved", stats.DroppedUnresolved,
	)
	return err
}
