package refdata

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/almarsh/edtrader/internal/model"
)

// Snapshot is one rebuild cycle's immutable view of the trading graph.
// All reference slices are name-sorted; Listings is the filtered working set
// sorted by collection timestamp descending. The market cache is the only
// mutable part and is memoization-only: computing the same station twice
// yields the same value, so concurrent population is idempotent.
type Snapshot struct {
	ID      uuid.UUID // Rebuild cycle identifier, for log correlation
	BuiltAt time.Time

	Systems     []*model.StarSystem
	Stations    []*model.Station
	Commodities []*model.Commodity
	Listings    []*model.Listing

	systemsByID     map[int64]*model.StarSystem
	stationsByID    map[int64]*model.Station
	commoditiesByID map[int64]*model.Commodity

	// Lower-cased trimmed name lookups for feed resolution.
	systemsByName     map[string]*model.StarSystem
	stationsByName    map[string][]*model.Station
	commoditiesByName map[string]*model.Commodity

	// Per-commodity order books; only commodities with both sides populated.
	books map[int64]*model.OrderBook

	marketMu sync.RWMutex
	markets  map[int64][]*model.Listing
}

// System returns a system by id.
func (s *Snapshot) System(id int64) (*model.StarSystem, bool) {
	sys, ok := s.systemsByID[id]
	return sys, ok
}

// Station returns a station by id.
func (s *Snapshot) Station(id int64) (*model.Station, bool) {
	st, ok := s.stationsByID[id]
	return st, ok
}

// Commodity returns a commodity by id.
func (s *Snapshot) Commodity(id int64) (*model.Commodity, bool) {
	c, ok := s.commoditiesByID[id]
	return c, ok
}

// OrderBook returns the order book for a commodity, if the commodity has at
// least one priced listing on each side.
func (s *Snapshot) OrderBook(commodityID int64) (*model.OrderBook, bool) {
	b, ok := s.books[commodityID]
	return b, ok
}

// OrderBooks returns the full order-book index keyed by commodity id.
func (s *Snapshot) OrderBooks() map[int64]*model.OrderBook {
	return s.books
}

func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// SystemByName resolves a system by case-insensitive exact name match.
func (s *Snapshot) SystemByName(name string) (*model.StarSystem, bool) {
	sys, ok := s.systemsByName[nameKey(name)]
	return sys, ok
}

// StationByName resolves a station by case-insensitive exact name match,
// constrained to the station whose owning system has the given name.
// Station names repeat across systems, so the system name disambiguates.
func (s *Snapshot) StationByName(name, systemName string) (*model.Station, bool) {
	for _, st := range s.stationsByName[nameKey(name)] {
		if st.System != nil && st.System.Name == systemName {
			return st, true
		}
	}
	return nil, false
}

// CommodityByName resolves a commodity by case-insensitive exact name match.
func (s *Snapshot) CommodityByName(name string) (*model.Commodity, bool) {
	c, ok := s.commoditiesByName[nameKey(name)]
	return c, ok
}

// Market returns the station's current listings, computing and memoizing
// them on first use. The listing set is fixed for the Snapshot's lifetime,
// so a lost race simply recomputes the identical slice.
func (s *Snapshot) Market(stationID int64) []*model.Listing {
	s.marketMu.RLock()
	market, ok := s.markets[stationID]
	s.marketMu.RUnlock()
	if ok {
		return market
	}

	market = make([]*model.Listing, 0, 8)
	for _, l := range s.Listings {
		if l.StationID == stationID {
			market = append(market, l)
		}
	}

	s.marketMu.Lock()
	if cached, ok := s.markets[stationID]; ok {
		market = cached
	} else {
		s.markets[stationID] = market
	}
	s.marketMu.Unlock()
	return market
}
