package refdata

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/almarsh/edtrader/internal/config"
	"github.com/almarsh/edtrader/internal/store"
)

var testNow = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func testTrade() config.TradeConfig {
	return config.TradeConfig{
		MinimumDemand:    10000,
		LandingPadSize:   "L",
		MaxDataAge:       12 * time.Hour,
		MinimumProfit:    50,
		MaxTradeDistance: 50,
		MaxStarDistance:  500,
		CargoSpace:       720,
		MaxHops:          5,
	}
}

const testSystems = `[
  {"id": 1, "name": "Aulin", "x": 0, "y": 0, "z": 0},
  {"id": 2, "name": "Barnard", "x": 10, "y": 0, "z": 0},
  {"id": 3, "name": "Cemiess", "x": 20, "y": 0, "z": 0}
]`

const testStations = `[
  {"id": 10, "system_id": 1, "name": "Alpha Dock", "type": "Coriolis Starport", "max_landing_pad_size": "L", "distance_to_star": 100},
  {"id": 20, "system_id": 2, "name": "Beta Dock", "type": "Coriolis Starport", "max_landing_pad_size": "L", "distance_to_star": 100},
  {"id": 30, "system_id": 3, "name": "Gamma Dock", "type": "Orbis Starport", "max_landing_pad_size": "L", "distance_to_star": 100},
  {"id": 40, "system_id": 2, "name": "Alpha Dock", "type": "Outpost", "max_landing_pad_size": "L", "distance_to_star": 150},
  {"id": 50, "system_id": 1, "name": "Surface Port", "type": "Planetary Port", "is_planetary": true, "max_landing_pad_size": "L", "distance_to_star": 100},
  {"id": 60, "system_id": 1, "name": "Medium Hub", "type": "Outpost", "max_landing_pad_size": "M", "distance_to_star": 100},
  {"id": 70, "system_id": 2, "name": "Roving Carrier", "type": "Fleet Carrier", "max_landing_pad_size": "L"}
]`

const testCommodities = `[
  {"id": 1, "name": "Gold"},
  {"id": 2, "name": "Silver"},
  {"id": 3, "name": "Bertrandite"},
  {"id": 4, "name": "Tea"}
]`

// writeFixture lays out a small but complete data directory and returns
// BuildParams pointing at it.
func writeFixture(t *testing.T) BuildParams {
	t.Helper()
	dir := t.TempDir()

	files := map[string]string{
		"systems.json":     testSystems,
		"stations.json":    testStations,
		"commodities.json": testCommodities,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	ts := testNow.Add(-time.Hour).Unix()
	records := []store.Record{
		// Station 10 sells gold cheap; an older duplicate must lose the dedup.
		{StationID: 10, CommodityID: 1, Supply: 9999, BuyPrice: 90, CollectedAt: testNow.Add(-2 * time.Hour).Unix()},
		{StationID: 10, CommodityID: 1, Supply: 20000, BuyPrice: 100, CollectedAt: ts},
		// Station 20 buys gold dear and sells silver.
		{StationID: 20, CommodityID: 1, Demand: 20000, SellPrice: 200, CollectedAt: ts},
		{StationID: 20, CommodityID: 2, Supply: 20000, BuyPrice: 50, CollectedAt: ts},
		// Station 30 buys silver and sells bertrandite.
		{StationID: 30, CommodityID: 2, Demand: 20000, SellPrice: 140, CollectedAt: ts},
		{StationID: 30, CommodityID: 3, Supply: 20000, BuyPrice: 100, CollectedAt: ts},
		// Station 10 buys bertrandite.
		{StationID: 10, CommodityID: 3, Demand: 20000, SellPrice: 190, CollectedAt: ts},
		// One-sided commodity: tea is only ever bought.
		{StationID: 20, CommodityID: 4, Demand: 20000, SellPrice: 300, CollectedAt: ts},
		// Filtered out: volume floor, planetary station, wrong pad, unknown station.
		{StationID: 10, CommodityID: 2, Supply: 50, Demand: 50, BuyPrice: 40, CollectedAt: ts},
		{StationID: 50, CommodityID: 1, Supply: 20000, BuyPrice: 10, CollectedAt: ts},
		{StationID: 60, CommodityID: 1, Supply: 20000, BuyPrice: 10, CollectedAt: ts},
		{StationID: 999, CommodityID: 1, Supply: 20000, BuyPrice: 10, CollectedAt: ts},
	}

	var b strings.Builder
	b.WriteString(store.Header + "\n")
	for _, rec := range records {
		b.WriteString(rec.Encode() + "\n")
	}
	listings := filepath.Join(dir, "trade.csv")
	if err := os.WriteFile(listings, []byte(b.String()), 0644); err != nil {
		t.Fatalf("write trade.csv: %v", err)
	}

	return BuildParams{
		SystemsFile:     filepath.Join(dir, "systems.json"),
		StationsFile:    filepath.Join(dir, "stations.json"),
		CommoditiesFile: filepath.Join(dir, "commodities.json"),
		ListingsFile:    listings,
		WithListings:    true,
		Trade:           testTrade(),
		Now:             testNow,
	}
}

func buildFixture(t *testing.T) *Snapshot {
	t.Helper()
	snap, err := Build(context.Background(), writeFixture(t), nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return snap
}

func TestBuildIndexes(t *testing.T) {
	snap := buildFixture(t)

	if len(snap.Systems) != 3 {
		t.Errorf("len(Systems) = %d, want 3", len(snap.Systems))
	}
	// The fleet carrier must not survive station parsing.
	if len(snap.Stations) != 6 {
		t.Errorf("len(Stations) = %d, want 6", len(snap.Stations))
	}
	if _, ok := snap.Station(70); ok {
		t.Error("Station(70) found a fleet carrier, want excluded")
	}

	st, ok := snap.Station(10)
	if !ok {
		t.Fatal("Station(10) not found")
	}
	if st.System == nil || st.System.ID != 1 {
		t.Errorf("Station(10).System = %+v, want system 1 attached", st.System)
	}

	sys, ok := snap.System(2)
	if !ok || sys.Name != "Barnard" {
		t.Errorf("System(2) = %+v, %v, want Barnard", sys, ok)
	}
	c, ok := snap.Commodity(3)
	if !ok || c.Name != "Bertrandite" {
		t.Errorf("Commodity(3) = %+v, %v, want Bertrandite", c, ok)
	}
}

func TestBuildNameResolution(t *testing.T) {
	snap := buildFixture(t)

	if _, ok := snap.SystemByName("  aulin "); !ok {
		t.Error("SystemByName case-insensitive lookup failed")
	}
	if _, ok := snap.CommodityByName("GOLD"); !ok {
		t.Error("CommodityByName case-insensitive lookup failed")
	}

	// "Alpha Dock" exists in two systems; the system name disambiguates.
	st, ok := snap.StationByName("alpha dock", "Barnard")
	if !ok {
		t.Fatal("StationByName(alpha dock, Barnard) not found")
	}
	if st.ID != 40 {
		t.Errorf("StationByName resolved station %d, want 40", st.ID)
	}
	if _, ok := snap.StationByName("alpha dock", "Cemiess"); ok {
		t.Error("StationByName found a station in the wrong system")
	}
}

func TestBuildFiltersListings(t *testing.T) {
	snap := buildFixture(t)

	// 8 usable rows minus the dedup loser.
	if len(snap.Listings) != 7 {
		t.Fatalf("len(Listings) = %d, want 7", len(snap.Listings))
	}

	for _, l := range snap.Listings {
		if l.StationID == 50 || l.StationID == 60 || l.StationID == 999 {
			t.Errorf("listing on excluded station %d survived filtering", l.StationID)
		}
		if l.Station == nil || l.System == nil || l.Commodity == nil {
			t.Errorf("listing %+v has unresolved references", l)
		}
	}

	// Dedup kept the newest gold listing at station 10.
	var goldAt10 int
	for _, l := range snap.Listings {
		if l.StationID == 10 && l.CommodityID == 1 {
			goldAt10++
			if l.Supply != 20000 || l.BuyPrice != 100 {
				t.Errorf("dedup survivor = supply %d price %v, want the newest (20000, 100)", l.Supply, l.BuyPrice)
			}
		}
	}
	if goldAt10 != 1 {
		t.Errorf("found %d gold listings at station 10, want 1", goldAt10)
	}
}

func TestBuildOrderBooks(t *testing.T) {
	snap := buildFixture(t)

	if len(snap.OrderBooks()) != 3 {
		t.Errorf("len(OrderBooks()) = %d, want 3", len(snap.OrderBooks()))
	}
	// Tea only has a sell side, so it gets no book.
	if _, ok := snap.OrderBook(4); ok {
		t.Error("OrderBook(4) exists for a one-sided commodity")
	}

	book, ok := snap.OrderBook(1)
	if !ok {
		t.Fatal("OrderBook(1) not found")
	}
	if len(book.Buys) != 1 || len(book.Sells) != 1 {
		t.Fatalf("gold book sides = (%d, %d), want (1, 1)", len(book.Buys), len(book.Sells))
	}
	if book.Buys[0].BuyPrice != 100 {
		t.Errorf("gold best buy = %v, want 100", book.Buys[0].BuyPrice)
	}
	if book.Sells[0].SellPrice != 200 {
		t.Errorf("gold best sell = %v, want 200", book.Sells[0].SellPrice)
	}
}

func TestMarketMemoization(t *testing.T) {
	snap := buildFixture(t)

	first := snap.Market(10)
	second := snap.Market(10)
	if len(first) != 2 {
		t.Fatalf("Market(10) has %d listings, want 2", len(first))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("Market(10) recomputed listing %d, want memoized value", i)
		}
	}

	if got := snap.Market(40); len(got) != 0 {
		t.Errorf("Market(40) has %d listings, want 0", len(got))
	}
}

func TestBuildWithoutListings(t *testing.T) {
	p := writeFixture(t)
	p.WithListings = false

	snap, err := Build(context.Background(), p, nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(snap.Listings) != 0 {
		t.Errorf("len(Listings) = %d, want 0", len(snap.Listings))
	}
	if len(snap.OrderBooks()) != 0 {
		t.Errorf("len(OrderBooks()) = %d, want 0", len(snap.OrderBooks()))
	}
	if _, ok := snap.SystemByName("Aulin"); !ok {
		t.Error("reference lookups must still work without listings")
	}
}

func TestBuildMissingFile(t *testing.T) {
	p := writeFixture(t)
	p.SystemsFile = filepath.Join(t.TempDir(), "absent.json")

	if _, err := Build(context.Background(), p, nil); err == nil {
		t.Error("Build with missing systems file expected error, got nil")
	}
}
