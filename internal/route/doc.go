// Package route implements the trade route searches.
//
// Searches:
//   - BestReturn: best single commodity to haul between two given stations
//   - BestTrades: all profitable single-hop pairs under the configured limits
//   - FindMultiHop: greedy chain of profitable hops seeded from the best pair
//   - FindHighestTrades: global best pairs with distance limits relaxed
//
// All searches read a refdata.Snapshot (indices, market cache, order books)
// and never mutate it; they are safe to run concurrently against the same
// snapshot.
package route
