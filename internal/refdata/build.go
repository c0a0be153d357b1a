package refdata

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/almarsh/edtrader/internal/config"
	"github.com/almarsh/edtrader/internal/model"
	"github.com/almarsh/edtrader/internal/store"
)

// BuildParams names the inputs of one rebuild cycle.
type BuildParams struct {
	SystemsFile     string
	StationsFile    string
	CommoditiesFile string
	ListingsFile    string

	// WithListings controls whether the trade record file is loaded. Feed
	// lookups only need the reference tables.
	WithListings bool

	Trade config.TradeConfig
	Now   time.Time
}

// Build assembles a Snapshot from scratch. Dependent steps run in strict
// sequence (parse, sort, index, filter, order books); the fan-out inside
// each step is barriered with first-error-wins propagation.
func Build(ctx context.Context, p BuildParams, logger *slog.Logger) (*Snapshot, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if p.Now.IsZero() {
		p.Now = time.Now().UTC()
	}

	snap := &Snapshot{
		ID:      uuid.New(),
		BuiltAt: p.Now,
		markets: make(map[int64][]*model.Listing),
	}
	logger = logger.With("rebuild_id", snap.ID)
	started := time.Now()

	// Parse fan-out: one task per input file.
	var records []store.Record
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snap.Systems, err = parseSystems(p.SystemsFile)
		return err
	})
	g.Go(func() error {
		var err error
		snap.Stations, err = parseStations(p.StationsFile)
		return err
	})
	g.Go(func() error {
		var err error
		snap.Commodities, err = parseCommodities(p.CommoditiesFile)
		return err
	})
	if p.WithListings {
		g.Go(func() error {
			var err error
			records, err = store.ParseRecords(p.ListingsFile, p.Trade.MaxDataAge, p.Now, logger)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("parse reference data: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Sort fan-out. Reference tables ascending by name (empty names first),
	// records newest first so the dedup pass keeps the latest per key.
	g = new(errgroup.Group)
	g.Go(func() error {
		sort.Slice(snap.Systems, func(i, j int) bool { return snap.Systems[i].Name < snap.Systems[j].Name })
		return nil
	})
	g.Go(func() error {
		sort.Slice(snap.Stations, func(i, j int) bool { return snap.Stations[i].Name < snap.Stations[j].Name })
		return nil
	})
	g.Go(func() error {
		sort.Slice(snap.Commodities, func(i, j int) bool { return snap.Commodities[i].Name < snap.Commodities[j].Name })
		return nil
	})
	g.Go(func() error {
		sort.Slice(records, func(i, j int) bool { return records[i].CollectedAt > records[j].CollectedAt })
		return nil
	})
	g.Wait()

	// Index fan-out: each lookup table is an independent unit.
	g = new(errgroup.Group)
	g.Go(func() error {
		snap.systemsByID = make(map[int64]*model.StarSystem, len(snap.Systems))
		snap.systemsByName = make(map[string]*model.StarSystem, len(snap.Systems))
		for _, sys := range snap.Systems {
			snap.systemsByID[sys.ID] = sys
			snap.systemsByName[nameKey(sys.Name)] = sys
		}
		return nil
	})
	g.Go(func() error {
		snap.commoditiesByID = make(map[int64]*model.Commodity, len(snap.Commodities))
		snap.commoditiesByName = make(map[string]*model.Commodity, len(snap.Commodities))
		for _, c := range snap.Commodities {
			snap.commoditiesByID[c.ID] = c
			snap.commoditiesByName[nameKey(c.Name)] = c
		}
		return nil
	})
	g.Wait()

	// Station back-references depend on the system index.
	snap.stationsByID = make(map[int64]*model.Station, len(snap.Stations))
	snap.stationsByName = make(map[string][]*model.Station, len(snap.Stations))
	for _, st := range snap.Stations {
		st.System = snap.systemsByID[st.SystemID]
		snap.stationsByID[st.ID] = st
		key := nameKey(st.Name)
		snap.stationsByName[key] = append(snap.stationsByName[key], st)
	}

	if p.WithListings {
		snap.Listings = filterListings(records, snap, p.Trade, logger)
		buildOrderBooks(snap)
	}

	logger.Info("snapshot built",
		"systems", len(snap.Systems),
		"stations", len(snap.Stations),
		"commodities", len(snap.Commodities),
		"listings", len(snap.Listings),
		"order_books", len(snap.books),
		"elapsed", time.Since(started),
	)
	return snap, nil
}

// filterListings converts newest-first records into the working listing set.
// Keeping the first record per (station, commodity) key yields the most
// recent one; the remaining filters drop listings the trade searches could
// never use.
func filterListings(records []store.Record, snap *Snapshot, trade config.TradeConfig, logger *slog.Logger) []*model.Listing {
	type listingKey struct {
		stationID   int64
		commodityID int64
	}
	seen := make(map[listingKey]struct{}, len(records))
	listings := make([]*model.Listing, 0, len(records))

	for i := range records {
		rec := &records[i]
		key := listingKey{rec.StationID, rec.CommodityID}
		if _, dup := seen[key]; dup {
			continue
		}

		station, ok := snap.stationsByID[rec.StationID]
		if !ok || station.System == nil {
			continue
		}
		if rec.Supply < trade.MinimumDemand && rec.Demand < trade.MinimumDemand {
			continue
		}
		if station.Planetary || station.MaxLandingPad != trade.LandingPadSize {
			continue
		}

		seen[key] = struct{}{}
		listings = append(listings, &model.Listing{
			ID:          rec.ID,
			StationID:   rec.StationID,
			CommodityID: rec.CommodityID,
			Supply:      rec.Supply,
			Demand:      rec.Demand,
			BuyPrice:    rec.BuyPrice,
			SellPrice:   rec.SellPrice,
			CollectedAt: rec.CollectedAt,
			Station:     station,
			System:      station.System,
			Commodity:   snap.commoditiesByID[rec.CommodityID],
		})
	}

	logger.Debug("filtered listings",
		"raw", len(records),
		"kept", len(listings),
	)
	return listings
}

// buildOrderBooks groups listings per commodity and sorts each side. Each
// commodity is an independent unit of fan-out writing to its own book.
func buildOrderBooks(snap *Snapshot) {
	grouped := make(map[int64]*model.OrderBook)
	for _, l := range snap.Listings {
		book := grouped[l.CommodityID]
		if book == nil {
			book = &model.OrderBook{Commodity: l.Commodity}
			grouped[l.CommodityID] = book
		}
		if l.BuyPrice > 0 {
			book.Buys = append(book.Buys, l)
		}
		if l.SellPrice > 0 {
			book.Sells = append(book.Sells, l)
		}
	}

	books := make([]*model.OrderBook, 0, len(grouped))
	for _, book := range grouped {
		books = append(books, book)
	}

	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for _, book := range books {
		book := book
		g.Go(func() error {
			sort.Slice(book.Buys, func(i, j int) bool { return book.Buys[i].BuyPrice < book.Buys[j].BuyPrice })
			sort.Slice(book.Sells, func(i, j int) bool { return book.Sells[i].SellPrice > book.Sells[j].SellPrice })
			return nil
		})
	}
	g.Wait()

	snap.books = make(map[int64]*model.OrderBook, len(grouped))
	for id, book := range grouped {
		if len(book.Buys) > 0 && len(book.Sells) > 0 {
			snap.books[id] = book
		}
	}
}
