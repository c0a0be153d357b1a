package store

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"
)

// StaleHorizon is the fixed age beyond which records are deleted outright
// during cleanup. Distinct from the configurable freshness window applied
// at parse time.
const StaleHorizon = 5 * 24 * time.Hour

// Replace retry bounds for the atomic file swap.
const (
	replaceRetries = 5
	replaceBackoff = time.Second
)

// CleanupStats summarizes one cleanup pass.
type CleanupStats struct {
	Original  int // Data rows before cleanup
	Kept      int // Data rows after cleanup
	Removed   int // Original - Kept
	Rewritten bool
}

// recordKey identifies the dedup group: one surviving record per key.
type recordKey struct {
	stationID   int64
	commodityID int64
}

// Cleanup rewrites the record file so that no row is older than StaleHorizon
// and at most one row survives per (station, commodity) key: the one with
// the maximum collected-at timestamp (first seen wins on equal timestamps).
// The rewrite is skipped entirely when nothing was removed, so a second pass
// over a clean file is a no-op.
func Cleanup(path string, now time.Time, logger *slog.Logger) (CleanupStats, error) {
	if logger == nil {
		logger = slog.Default()
	}

	f, err := os.Open(path)
	if err != nil {
		return CleanupStats{}, fmt.Errorf("open record file: %w", err)
	}

	// Streaming group-by-key, keep-max-timestamp reduction. Strictly-greater
	// comparison keeps the first-seen record on timestamp ties.
	var (
		latest   = make(map[recordKey]Record)
		stats    CleanupStats
		horizon  = now.Add(-StaleHorizon)
		scanner  = bufio.NewScanner(f)
		scanFail error
	)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || isHeader(line) {
			continue
		}
		stats.Original++

		rec, err := parseLine(line)
		if err != nil {
			logger.Debug("cleanup dropping malformed record", "error", err)
			continue
		}
		if rec.CollectedTime().Before(horizon) {
			continue
		}

		key := recordKey{rec.StationID, rec.CommodityID}
		if best, ok := latest[key]; !ok || rec.CollectedAt > best.CollectedAt {
			latest[key] = rec
		}
	}
	scanFail = scanner.Err()
	f.Close()
	if scanFail != nil {
		return CleanupStats{}, fmt.Errorf("read record file: %w", scanFail)
	}

	stats.Kept = len(latest)
	stats.Removed = stats.Original - stats.Kept

	if stats.Removed == 0 {
		logger.Info("cleanup found no removable records",
			"file", path,
			"rows", stats.Original,
		)
		return stats, nil
	}

	records := make([]Record, 0, len(latest))
	for _, rec := range latest {
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].CollectedAt > records[j].CollectedAt
	})

	// Self-check the descending date order before persisting.
	if len(records) > 1 {
		first := records[0].CollectedAt
		last := records[len(records)-1].CollectedAt
		if first < last {
			return CleanupStats{}, fmt.Errorf(
				"cleanup sort invariant violated: first date %d < last date %d", first, last)
		}
	}

	if err := writeReplacing(path, records); err != nil {
		return CleanupStats{}, err
	}
	stats.Rewritten = true

	logger.Info("cleanup rewrote record file",
		"file", path,
		"prev", stats.Original,
		"now", stats.Kept,
		"removed", stats.Removed,
	)
	return stats, nil
}

// writeReplacing writes records to a temp file and swaps it into place.
// Both the removal of the original and the install of the replacement are
// retried a bounded number of times; exhausting either is fatal.
func writeReplacing(path string, records []Record) error {
	tmp := path + ".tmp"

	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	w := bufio.NewWriter(out)
	fmt.Fprintln(w, Header)
	for _, rec := range records {
		fmt.Fprintln(w, rec.Encode())
	}
	if err := w.Flush(); err != nil {
		out.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := retryFileOp(func() error { return os.Remove(path) }); err != nil {
		return fmt.Errorf("remove original record file: %w", err)
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("record file %s still present after remove", path)
	}

	if err := retryFileOp(func() error { return os.Rename(tmp, path) }); err != nil {
		return fmt.Errorf("install cleaned record file: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("record file %s missing after rename: %w", path, err)
	}
	return nil
}

// retryFileOp retries a file operation against transient contention
// (antivirus scans, feed appends racing shutdown) with a fixed backoff.
func retryFileOp(op func() error) error {
	var err error
	for attempt := 0; attempt <= replaceRetries; attempt++ {
		if err = op(); err == nil {
			return nil
		}
		time.Sleep(replaceBackoff)
	}
	return err
}
