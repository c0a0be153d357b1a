package route

import (
	"github.com/almarsh/edtrader/internal/model"
	"github.com/almarsh/edtrader/internal/refdata"
)

// ReturnTripMinVolume is the fixed supply/demand floor for return-trip
// matching inside the single-hop search. The multi-hop chain search uses the
// configured minimum demand instead; the two are deliberately distinct.
const ReturnTripMinVolume = 7000

// BestReturn finds the single most profitable commodity to buy at buyStation
// and sell at sellStation, requiring at least minVolume supply on the buy
// side and minVolume demand on the sell side. Returns false when no
// positive-profit match exists.
func BestReturn(snap *refdata.Snapshot, buyStation, sellStation *model.Station, minVolume int64) (model.RouteLeg, bool) {
	buyMarket := snap.Market(buyStation.ID)
	sellMarket := snap.Market(sellStation.ID)

	return bestPair(buyMarket, sellMarket, minVolume, minVolume)
}

// bestPair matches every eligible buy-side listing against the best
// eligible sell-side listing of the same commodity and returns the pairing
// with the highest profit. Only positive-profit pairs qualify.
func bestPair(buyMarket, sellPool []*model.Listing, minSupply, minDemand int64) (model.RouteLeg, bool) {
	bestSell := bestSellByCommodity(sellPool, minDemand)
	if len(bestSell) == 0 {
		return model.RouteLeg{}, false
	}

	var (
		best  model.RouteLeg
		found bool
	)
	for _, buy := range buyMarket {
		if buy.BuyPrice <= 0 || buy.Supply < minSupply {
			continue
		}
		sell, ok := bestSell[buy.CommodityID]
		if !ok {
			continue
		}
		profit := sell.SellPrice - buy.BuyPrice
		if profit <= 0 {
			continue
		}
		if !found || profit > best.Profit {
			best = model.RouteLeg{Buy: buy, Sell: sell, Profit: profit}
			found = true
		}
	}
	return best, found
}

// bestSellByCommodity picks the highest-priced eligible sell listing per
// commodity. Equivalent to scanning a price-descending sell side and taking
// the first match.
func bestSellByCommodity(pool []*model.Listing, minDemand int64) map[int64]*model.Listing {
	best := make(map[int64]*model.Listing)
	for _, sell := range pool {
		if sell.SellPrice <= 0 || sell.Demand < minDemand {
			continue
		}
		if cur, ok := best[sell.CommodityID]; !ok || sell.SellPrice > cur.SellPrice {
			best[sell.CommodityID] = sell
		}
	}
	return best
}
