// Package refdata builds the per-rebuild reference snapshot.
//
// A Snapshot is an immutable view assembled from the bulk reference files
// (systems, stations, commodities) and the cleaned trade record file:
// id lookup tables with resolved cross-references, the filtered listing set,
// a per-commodity order-book index, and a memoized per-station market cache.
//
// Every rebuild produces a fresh Snapshot owned by the caller; nothing in
// this package survives across rebuild cycles. Route searches and the feed
// pipeline only ever read a Snapshot.
package refdata
