// Package feed ingests the live market-update stream.
//
// The transport client owns a single pub/sub connection with a bounded
// receive buffer: frames beyond the high watermark are dropped rather than
// queued, by design. The pipeline decompresses frames, keeps only commodity
// schema documents, resolves free-text names against the current reference
// snapshot, and appends normalized records to the trade record file.
//
// Connection lifecycle per attempt: Connecting -> Streaming -> (error) ->
// Backoff -> Connecting. While a reference rebuild is in progress incoming
// messages are dropped, trading a few lost updates for bounded memory and
// race-free lookups.
package feed
