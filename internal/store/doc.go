// Package store owns the raw trade record file.
//
// The file is an append-only CSV shared by two writers that never run
// concurrently: the bulk cleanup pass and the live feed's record appender.
// Cleanup enforces the canonical invariants before anything is loaded into
// memory: no record older than the fixed staleness horizon, and exactly one
// record per (station, commodity) key (the most recently collected one).
package store
