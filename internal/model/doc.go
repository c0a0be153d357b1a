// Package model defines shared data types for the trade data engine.
//
// Conventions:
//   - Prices: float64 credits per unit
//   - Quantities (supply/demand): int64 units
//   - Timestamps: int64 seconds since Unix epoch (collection time)
//   - Distances: light years between systems, light seconds from star
package model
