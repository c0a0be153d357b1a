package route

import (
	"sort"

	"github.com/almarsh/edtrader/internal/config"
	"github.com/almarsh/edtrader/internal/model"
	"github.com/almarsh/edtrader/internal/refdata"
)

// Short-jump view thresholds.
const (
	shortJumpMaxDistance     = 18.6
	shortJumpMaxStarDistance = 200
)

// TradeRow is one single-hop output row: a profitable (buy, sell) pairing
// plus the best return-trip leg from the sell station back to the buy
// station, when one exists.
type TradeRow struct {
	Leg    model.RouteLeg
	Return *model.RouteLeg
}

// TotalProfit is the one-way profit plus the return leg's, if any.
func (r TradeRow) TotalProfit() float64 {
	total := r.Leg.Profit
	if r.Return != nil {
		total += r.Return.Profit
	}
	return total
}

// BestTrades finds every profitable single-hop (buy, sell) pairing under the
// configured thresholds. Sell candidates are walked in descending sell-price
// order; for each, all buy-side listings of the same commodity within margin
// and distance limits produce one row. The result is sorted by one-way
// profit descending.
func BestTrades(snap *refdata.Snapshot, trade config.TradeConfig) []TradeRow {
	sells := make([]*model.Listing, 0, len(snap.Listings))
	for _, l := range snap.Listings {
		if l.SellPrice <= 0 || l.Demand <= trade.MinimumDemand {
			continue
		}
		if l.Station.DistanceToStar >= trade.MaxStarDistance {
			continue
		}
		if _, ok := snap.OrderBook(l.CommodityID); !ok {
			continue
		}
		sells = append(sells, l)
	}
	sort.Slice(sells, func(i, j int) bool { return sells[i].SellPrice > sells[j].SellPrice })

	var rows []TradeRow
	for _, sell := range sells {
		book, _ := snap.OrderBook(sell.CommodityID)
		for _, buy := range book.Buys {
			if buy.BuyPrice <= 0 || buy.Supply <= trade.MinimumDemand {
				continue
			}
			if buy.Station.DistanceToStar >= trade.MaxStarDistance {
				continue
			}
			profit := sell.SellPrice - buy.BuyPrice
			if profit <= trade.MinimumProfit {
				continue
			}
			if buy.System.DistanceTo(sell.System) >= trade.MaxTradeDistance {
				continue
			}

			row := TradeRow{Leg: model.RouteLeg{Buy: buy, Sell: sell, Profit: profit}}
			if ret, ok := BestReturn(snap, sell.Station, buy.Station, ReturnTripMinVolume); ok {
				row.Return = &ret
			}
			rows = append(rows, row)
		}
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Leg.Profit > rows[j].Leg.Profit })
	return rows
}

// ShortJumps filters trade rows down to quick runs: a short jump between
// systems and both stations close to their arrival star.
func ShortJumps(rows []TradeRow) []TradeRow {
	var out []TradeRow
	for _, row := range rows {
		if row.Leg.JumpDistance() >= shortJumpMaxDistance {
			continue
		}
		if row.Leg.Buy.Station.DistanceToStar >= shortJumpMaxStarDistance {
			continue
		}
		if row.Leg.Sell.Station.DistanceToStar >= shortJumpMaxStarDistance {
			continue
		}
		out = append(out, row)
	}
	return out
}
