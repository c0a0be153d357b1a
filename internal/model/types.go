package model

import (
	"math"
	"time"
)

// -----------------------------------------------------------------------------
// Reference Types
// -----------------------------------------------------------------------------

// StarSystem is a star system from the bulk reference snapshot.
// Immutable after load.
type StarSystem struct {
	ID   int64   // Primary key
	Name string  // Display name
	X    float64 // Galactic coordinates (light years)
	Y    float64
	Z    float64
}

// DistanceTo returns the straight-line distance to another system in light years.
func (s *StarSystem) DistanceTo(other *StarSystem) float64 {
	dx := s.X - other.X
	dy := s.Y - other.Y
	dz := s.Z - other.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Station is a dockable station from the bulk reference snapshot.
// Immutable after load except for the System back-reference, which the
// indexer attaches.
type Station struct {
	ID       int64  // Primary key
	SystemID int64  // Foreign key to StarSystem
	Name     string // Display name
	Type     string // Station type (e.g., "Coriolis Starport")

	Planetary      bool   // Surface stations need different ships
	MaxLandingPad  string // Largest pad class: "S", "M" or "L"
	DistanceToStar int64  // Light seconds from the arrival star

	System *StarSystem // Attached during indexing
}

// Commodity is a tradeable good. Immutable after load.
type Commodity struct {
	ID   int64
	Name string
}

// -----------------------------------------------------------------------------
// Market Types
// -----------------------------------------------------------------------------

// Listing is one station's supply/demand/price snapshot for one commodity.
// After indexing at most one Listing exists per (station, commodity) pair:
// the most recently collected one.
type Listing struct {
	ID          int64
	StationID   int64
	CommodityID int64

	Supply    int64
	Demand    int64
	BuyPrice  float64 // Price the station sells at (we buy), 0 = not sold here
	SellPrice float64 // Price the station pays (we sell), 0 = not bought here

	CollectedAt int64 // Unix seconds

	// Resolved during indexing.
	Station   *Station
	System    *StarSystem
	Commodity *Commodity
}

// CollectedTime returns the collection timestamp as a time.Time.
func (l *Listing) CollectedTime() time.Time {
	return time.Unix(l.CollectedAt, 0).UTC()
}

// Age returns the time elapsed since collection, relative to now.
func (l *Listing) Age(now time.Time) time.Duration {
	return now.Sub(l.CollectedTime())
}

// OrderBook splits one commodity's listings into priced buy and sell sides.
// Buys are sorted ascending by buy price, Sells descending by sell price;
// both sides contain only listings with a positive price.
type OrderBook struct {
	Commodity *Commodity
	Buys      []*Listing
	Sells     []*Listing
}

// -----------------------------------------------------------------------------
// Route Types
// -----------------------------------------------------------------------------

// RouteLeg is one profitable buy-then-sell pairing between two stations.
type RouteLeg struct {
	Buy    *Listing
	Sell   *Listing
	Profit float64 // Sell.SellPrice - Buy.BuyPrice
}

// JumpDistance returns the system-to-system distance for this leg.
func (l RouteLeg) JumpDistance() float64 {
	return l.Buy.System.DistanceTo(l.Sell.System)
}

// Trip is an ordered chain of legs; each leg's sell station is the next
// leg's buy station.
type Trip struct {
	Legs []RouteLeg
}

// TotalProfit returns the cumulative per-unit profit across all legs.
func (t Trip) TotalProfit() float64 {
	var total float64
	for _, leg := range t.Legs {
		total += leg.Profit
	}
	return total
}
