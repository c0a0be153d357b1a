package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestEncodeParseRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
		line string
	}{
		{
			name: "bulk row with whole prices",
			rec: Record{
				ID: 7, StationID: 42, CommodityID: 3,
				Supply: 25000, SupplyBracket: 3,
				BuyPrice: 1200, SellPrice: 0,
				Demand: 0, DemandBracket: 0,
				CollectedAt: 1700000000,
			},
			line: "7,42,3,25000,3,1200,0,0,0,1700000000",
		},
		{
			name: "feed row with zero id and brackets",
			rec: Record{
				StationID: 9, CommodityID: 12,
				Supply: 0, Demand: 30000,
				BuyPrice: 0, SellPrice: 4517,
				CollectedAt: 1700000001,
			},
			line: "0,9,12,0,0,0,4517,30000,0,1700000001",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rec.Encode(); got != tt.line {
				t.Errorf("Encode() = %q, want %q", got, tt.line)
			}
			parsed, err := parseLine(tt.line)
			if err != nil {
				t.Fatalf("parseLine failed: %v", err)
			}
			if parsed != tt.rec {
				t.Errorf("parseLine() = %+v, want %+v", parsed, tt.rec)
			}
		})
	}
}

func TestParseLineToleratesEmptyFields(t *testing.T) {
	rec, err := parseLine("1,2,3,4,,100,200,5,,1700000000")
	if err != nil {
		t.Fatalf("parseLine failed: %v", err)
	}
	if rec.SupplyBracket != 0 || rec.DemandBracket != 0 {
		t.Errorf("empty brackets = (%d, %d), want (0, 0)", rec.SupplyBracket, rec.DemandBracket)
	}
}

func TestParseLineMalformed(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"too few fields", "1,2,3"},
		{"too many fields", "1,2,3,4,5,6,7,8,9,10,11"},
		{"non-numeric id", "abc,2,3,4,5,6,7,8,9,10"},
		{"non-numeric price", "1,2,3,4,5,junk,7,8,9,10"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseLine(tt.line); err == nil {
				t.Errorf("parseLine(%q) expected error, got nil", tt.line)
			}
		})
	}
}

func TestParseRecords(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	fresh := Record{StationID: 1, CommodityID: 1, Supply: 100, CollectedAt: now.Add(-time.Hour).Unix()}
	stale := Record{StationID: 2, CommodityID: 2, Supply: 200, CollectedAt: now.Add(-24 * time.Hour).Unix()}

	path := filepath.Join(t.TempDir(), "trade.csv")
	content := strings.Join([]string{
		Header,
		fresh.Encode(),
		stale.Encode(),
		"not,a,record",
		"",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write record file: %v", err)
	}

	records, err := ParseRecords(path, 12*time.Hour, now, nil)
	if err != nil {
		t.Fatalf("ParseRecords failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("ParseRecords returned %d records, want 1", len(records))
	}
	if records[0] != fresh {
		t.Errorf("ParseRecords()[0] = %+v, want %+v", records[0], fresh)
	}
}

func TestParseRecordsMissingFile(t *testing.T) {
	_, err := ParseRecords(filepath.Join(t.TempDir(), "absent.csv"), time.Hour, time.Now(), nil)
	if err == nil {
		t.Error("ParseRecords on missing file expected error, got nil")
	}
}

func TestAppendRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trade.csv")
	recs := []Record{
		{StationID: 1, CommodityID: 2, Supply: 100, BuyPrice: 50, CollectedAt: 1700000000},
		{StationID: 3, CommodityID: 4, Demand: 200, SellPrice: 75, CollectedAt: 1700000001},
	}

	AppendRecords(path, recs, nil)
	AppendRecords(path, recs[:1], nil)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read record file: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("record file has %d lines, want 3", len(lines))
	}
	if lines[0] != recs[0].Encode() {
		t.Errorf("line 0 = %q, want %q", lines[0], recs[0].Encode())
	}
	if lines[2] != recs[0].Encode() {
		t.Errorf("line 2 = %q, want %q", lines[2], recs[0].Encode())
	}
}
