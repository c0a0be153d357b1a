package feed

import (
	"bytes"
	"testing"
	"time"

	"github.com/klauspost/compress/zlib"
)

func compress(t *testing.T, doc string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write([]byte(doc)); err != nil {
		t.Fatalf("compress: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close compressor: %v", err)
	}
	return buf.Bytes()
}

func TestDecodeFrame(t *testing.T) {
	doc := `{"$schemaRef": "https://eddn.edcd.io/schemas/commodity/3","message":{}}`

	got, ok := decodeFrame(compress(t, doc))
	if !ok {
		t.Fatal("decodeFrame rejected a commodity frame")
	}
	if string(got) != doc {
		t.Errorf("decodeFrame() = %q, want %q", got, doc)
	}
}

func TestDecodeFrameOtherSchema(t *testing.T) {
	doc := `{"$schemaRef": "https://eddn.edcd.io/schemas/journal/1","message":{}}`

	if _, ok := decodeFrame(compress(t, doc)); ok {
		t.Error("decodeFrame accepted a non-commodity schema")
	}
}

func TestDecodeFrameGarbage(t *testing.T) {
	if _, ok := decodeFrame([]byte("definitely not zlib")); ok {
		t.Error("decodeFrame accepted an undecompressable frame")
	}
	if _, ok := decodeFrame(nil); ok {
		t.Error("decodeFrame accepted an empty frame")
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    time.Time
		wantErr bool
	}{
		{
			name: "plain",
			in:   "2026-08-01T12:30:45Z",
			want: time.Date(2026, 8, 1, 12, 30, 45, 0, time.UTC),
		},
		{
			name: "fractional seconds",
			in:   "2026-08-01T12:30:45.500Z",
			want: time.Date(2026, 8, 1, 12, 30, 45, 500000000, time.UTC),
		},
		{
			name:    "not a timestamp",
			in:      "last tuesday",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseTimestamp(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("parseTimestamp(%q) expected error, got %v", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseTimestamp(%q) failed: %v", tt.in, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("parseTimestamp(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNegligible(t *testing.T) {
	tests := []struct {
		name  string
		entry commodityEntry
		want  bool
	}{
		{
			name:  "high stock",
			entry: commodityEntry{Stock: 20000, BuyPrice: 100},
			want:  false,
		},
		{
			name:  "high demand",
			entry: commodityEntry{Demand: 20000, SellPrice: 100},
			want:  false,
		},
		{
			name:  "low volume both sides",
			entry: commodityEntry{Stock: 500, Demand: 500, BuyPrice: 100, SellPrice: 120},
			want:  true,
		},
		{
			name:  "no usable price",
			entry: commodityEntry{Stock: 20000, Demand: 20000},
			want:  true,
		},
		{
			name:  "volume floor is exclusive",
			entry: commodityEntry{Stock: minEntryVolume, BuyPrice: 100},
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.entry.negligible(); got != tt.want {
				t.Errorf("negligible() = %v, want %v", got, tt.want)
			}
		})
	}
}
