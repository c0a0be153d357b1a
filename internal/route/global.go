package route

import (
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/almarsh/edtrader/internal/config"
	"github.com/almarsh/edtrader/internal/model"
	"github.com/almarsh/edtrader/internal/refdata"
)

// Global search constants: jump limits are relaxed entirely, the volume
// floor is lowered, and only a very generous star-distance ceiling remains.
const (
	globalMaxStarDistance = 10000
	globalMinVolume       = 3000
)

// FindHighestTrades searches every pad-matching station regardless of jump
// distance and returns all pairings whose margin clears the configured
// minimum profit, sorted by margin descending.
func FindHighestTrades(snap *refdata.Snapshot, trade config.TradeConfig) []model.RouteLeg {
	var stations []*model.Station
	for _, st := range snap.Stations {
		if st.Planetary || st.MaxLandingPad != trade.LandingPadSize {
			continue
		}
		if st.DistanceToStar > globalMaxStarDistance {
			continue
		}
		stations = append(stations, st)
	}

	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for _, st := range stations {
		st := st
		g.Go(func() error {
			snap.Market(st.ID)
			return nil
		})
	}
	g.Wait()

	var pool []*model.Listing
	for _, st := range stations {
		pool = append(pool, snap.Market(st.ID)...)
	}

	bestSell := bestSellByCommodity(pool, globalMinVolume)

	var legs []model.RouteLeg
	for _, buy := range pool {
		if buy.BuyPrice <= 0 || buy.Supply < globalMinVolume {
			continue
		}
		sell, ok := bestSell[buy.CommodityID]
		if !ok {
			continue
		}
		profit := sell.SellPrice - buy.BuyPrice
		if profit < trade.MinimumProfit {
			continue
		}
		legs = append(legs, model.RouteLeg{Buy: buy, Sell: sell, Profit: profit})
	}

	sort.SliceStable(legs, func(i, j int) bool { return legs[i].Profit > legs[j].Profit })
	return legs
}
