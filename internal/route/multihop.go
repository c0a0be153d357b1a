package route

import (
	"errors"
	"log/slog"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/almarsh/edtrader/internal/config"
	"github.com/almarsh/edtrader/internal/model"
	"github.com/almarsh/edtrader/internal/refdata"
)

// ErrNoSeed is returned when the single-hop search produced nothing to
// chain from.
var ErrNoSeed = errors.New("no seed trade for multi-hop search")

// FindMultiHop builds a greedy chain of profitable hops. The chain is seeded
// from the highest-profit single-hop row, then repeatedly extended: from the
// current station, the best (buy, sell) pairing against the pooled markets
// of all eligible nearby stations becomes the next leg. Stations are never
// revisited. After the chain terminates, a closing return-trip match back to
// the very first buy station is appended when profitable.
func FindMultiHop(snap *refdata.Snapshot, trade config.TradeConfig, rows []TradeRow, logger *slog.Logger) (model.Trip, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(rows) == 0 {
		return model.Trip{}, ErrNoSeed
	}

	seed := rows[0].Leg
	visited := map[int64]struct{}{
		seed.Buy.StationID:  {},
		seed.Sell.StationID: {},
	}
	trip := model.Trip{Legs: []model.RouteLeg{seed}}

	logger.Debug("multi-hop seeded",
		"commodity", seed.Buy.Commodity.Name,
		"from", seed.Buy.Station.Name,
		"to", seed.Sell.Station.Name,
		"profit", seed.Profit,
	)

	extendChain(snap, trade, &trip, visited, seed.Sell.Station, logger)

	// Close the loop back to the starting market when possible.
	if len(trip.Legs) > 1 {
		last := trip.Legs[len(trip.Legs)-1]
		if ret, ok := BestReturn(snap, last.Sell.Station, seed.Buy.Station, ReturnTripMinVolume); ok {
			trip.Legs = append(trip.Legs, ret)
		}
	}

	logger.Info("multi-hop chain complete",
		"legs", len(trip.Legs),
		"total_profit", trip.TotalProfit(),
	)
	return trip, nil
}

// extendChain recursively appends the best next hop from the current buy
// station until the hop budget is spent or no profitable pairing remains.
func extendChain(snap *refdata.Snapshot, trade config.TradeConfig, trip *model.Trip, visited map[int64]struct{}, current *model.Station, logger *slog.Logger) {
	if len(trip.Legs) > trade.MaxHops {
		logger.Debug("multi-hop budget reached", "station", current.Name, "legs", len(trip.Legs))
		return
	}

	buyMarket := snap.Market(current.ID)
	if len(buyMarket) == 0 {
		logger.Debug("multi-hop station has no market", "station", current.Name)
		return
	}

	candidates := eligibleStations(snap, trade, visited, current)
	if len(candidates) == 0 {
		logger.Debug("multi-hop found no eligible stations", "station", current.Name)
		return
	}

	// Warm the market cache in parallel, then pool synchronously. Each
	// station is an independent unit; the pool order follows the ascending
	// jump-distance order of candidates.
	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for _, st := range candidates {
		st := st
		g.Go(func() error {
			snap.Market(st.ID)
			return nil
		})
	}
	g.Wait()

	var pool []*model.Listing
	for _, st := range candidates {
		pool = append(pool, snap.Market(st.ID)...)
	}

	leg, ok := bestPair(buyMarket, pool, trade.MinimumDemand, trade.MinimumDemand)
	if !ok {
		logger.Debug("multi-hop found no profitable pairing",
			"station", current.Name,
			"pool", len(pool),
		)
		return
	}

	visited[leg.Buy.StationID] = struct{}{}
	visited[leg.Sell.StationID] = struct{}{}
	trip.Legs = append(trip.Legs, leg)

	logger.Debug("multi-hop leg added",
		"commodity", leg.Buy.Commodity.Name,
		"from", leg.Buy.Station.Name,
		"to", leg.Sell.Station.Name,
		"profit", leg.Profit,
	)

	extendChain(snap, trade, trip, visited, leg.Sell.Station, logger)
}

// eligibleStations returns the unvisited stations reachable from current
// under the configured limits, ordered by ascending jump distance.
func eligibleStations(snap *refdata.Snapshot, trade config.TradeConfig, visited map[int64]struct{}, current *model.Station) []*model.Station {
	var out []*model.Station
	for _, st := range snap.Stations {
		if _, seen := visited[st.ID]; seen {
			continue
		}
		if st.SystemID == current.SystemID || st.ID == current.ID {
			continue
		}
		if st.Planetary || st.MaxLandingPad != trade.LandingPadSize {
			continue
		}
		if st.DistanceToStar > trade.MaxStarDistance {
			continue
		}
		if st.System == nil || current.System.DistanceTo(st.System) > trade.MaxTradeDistance {
			continue
		}
		out = append(out, st)
	}

	sort.Slice(out, func(i, j int) bool {
		return current.System.DistanceTo(out[i].System) < current.System.DistanceTo(out[j].System)
	})
	return out
}
