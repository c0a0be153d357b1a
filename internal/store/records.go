package store

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Header is the first line of the raw trade record file. Column order is the
// wire contract; parseLine and Encode must agree with it.
const Header = "id,station_id,commodity_id,supply,supply_bracket,buy_price,sell_price,demand,demand_bracket,collected_at"

// Record is one raw trade record row. Feed-sourced rows carry ID and both
// brackets as zero.
type Record struct {
	ID            int64
	StationID     int64
	CommodityID   int64
	Supply        int64
	SupplyBracket int64
	BuyPrice      float64
	SellPrice     float64
	Demand        int64
	DemandBracket int64
	CollectedAt   int64 // Unix seconds
}

// CollectedTime returns the collection timestamp as a time.Time.
func (r Record) CollectedTime() time.Time {
	return time.Unix(r.CollectedAt, 0).UTC()
}

// Encode renders the record as a CSV line matching Header.
func (r Record) Encode() string {
	return fmt.Sprintf("%d,%d,%d,%d,%d,%s,%s,%d,%d,%d",
		r.ID, r.StationID, r.CommodityID,
		r.Supply, r.SupplyBracket,
		formatPrice(r.BuyPrice), formatPrice(r.SellPrice),
		r.Demand, r.DemandBracket,
		r.CollectedAt,
	)
}

// formatPrice renders whole-credit prices without a decimal point so that
// round-tripping bulk rows leaves them byte-identical.
func formatPrice(p float64) string {
	if p == float64(int64(p)) {
		return strconv.FormatInt(int64(p), 10)
	}
	return strconv.FormatFloat(p, 'f', -1, 64)
}

// parseLine parses one CSV line. The header row and blank lines are the
// caller's problem.
func parseLine(line string) (Record, error) {
	fields := strings.Split(line, ",")
	if len(fields) != 10 {
		return Record{}, fmt.Errorf("expected 10 fields, got %d", len(fields))
	}

	var (
		r   Record
		err error
	)
	if r.ID, err = parseInt(fields[0]); err != nil {
		return Record{}, fmt.Errorf("id: %w", err)
	}
	if r.StationID, err = parseInt(fields[1]); err != nil {
		return Record{}, fmt.Errorf("station_id: %w", err)
	}
	if r.CommodityID, err = parseInt(fields[2]); err != nil {
		return Record{}, fmt.Errorf("commodity_id: %w", err)
	}
	if r.Supply, err = parseInt(fields[3]); err != nil {
		return Record{}, fmt.Errorf("supply: %w", err)
	}
	if r.SupplyBracket, err = parseInt(fields[4]); err != nil {
		return Record{}, fmt.Errorf("supply_bracket: %w", err)
	}
	if r.BuyPrice, err = parseFloat(fields[5]); err != nil {
		return Record{}, fmt.Errorf("buy_price: %w", err)
	}
	if r.SellPrice, err = parseFloat(fields[6]); err != nil {
		return Record{}, fmt.Errorf("sell_price: %w", err)
	}
	if r.Demand, err = parseInt(fields[7]); err != nil {
		return Record{}, fmt.Errorf("demand: %w", err)
	}
	if r.DemandBracket, err = parseInt(fields[8]); err != nil {
		return Record{}, fmt.Errorf("demand_bracket: %w", err)
	}
	if r.CollectedAt, err = parseInt(fields[9]); err != nil {
		return Record{}, fmt.Errorf("collected_at: %w", err)
	}
	return r, nil
}

// parseInt tolerates empty fields: upstream bracket columns are sometimes
// blank.
func parseInt(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseInt(s, 10, 64)
}

func parseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

// isHeader reports whether a raw line is the CSV header row.
func isHeader(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), "id")
}

// ParseRecords loads the record file, dropping rows older than maxAge
// (the configurable freshness window, not the cleanup horizon). Malformed
// rows are logged and skipped, never fatal.
func ParseRecords(path string, maxAge time.Duration, now time.Time, logger *slog.Logger) ([]Record, error) {
	if logger == nil {
		logger = slog.Default()
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open record file: %w", err)
	}
	defer f.Close()

	var (
		records  []Record
		skipped  int
		tooOld   int
		scanner  = bufio.NewScanner(f)
		deadline = now.Add(-maxAge)
	)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || isHeader(line) {
			continue
		}
		rec, err := parseLine(line)
		if err != nil {
			skipped++
			logger.Debug("skipping malformed record", "error", err)
			continue
		}
		if rec.CollectedTime().Before(deadline) {
			tooOld++
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read record file: %w", err)
	}

	logger.Debug("parsed trade records",
		"file", path,
		"loaded", len(records),
		"stale", tooOld,
		"malformed", skipped,
	)
	return records, nil
}

// appendRetries and appendBackoff bound the per-record append retry loop.
const (
	appendRetries = 10
	appendBackoff = time.Second
)

// AppendRecords appends records to the file, one CSV line each. Each record
// is retried independently on I/O failure; a record that exhausts its
// retries is logged and dropped without aborting the batch.
func AppendRecords(path string, records []Record, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	for _, rec := range records {
		line := rec.Encode() + "\n"

		var lastErr error
		for attempt := 0; attempt <= appendRetries; attempt++ {
			if lastErr = appendLine(path, line); lastErr == nil {
				break
			}
			time.Sleep(appendBackoff)
		}
		if lastErr != nil {
			logger.Warn("dropping record after failed appends",
				"station_id", rec.StationID,
				"commodity_id", rec.CommodityID,
				"error", lastErr,
			)
		}
	}
}

func appendLine(path, line string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(line); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
