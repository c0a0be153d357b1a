package feed

import (
	"bytes"
	"io"
	"time"

	"github.com/klauspost/compress/zlib"
)

// commoditySchemaPrefix identifies commodity documents. The relay forwards
// every schema; anything without this prefix is discarded before parsing.
const commoditySchemaPrefix = `{"$schemaRef": "https://eddn.edcd.io/schemas/commodity`

// minEntryVolume is the volume floor for a commodity entry. Entries below it
// on both sides are noise for the route searches and not worth a record.
const minEntryVolume = 10000

// Upstream timestamps come in two shapes, with and without fractional
// seconds.
const (
	timestampLayout     = "2006-01-02T15:04:05Z"
	timestampLayoutFrac = "2006-01-02T15:04:05.000Z"
)

// commodityMessage is the wire shape of one commodity document.
type commodityMessage struct {
	SchemaRef string `json:"$schemaRef"`
	Message   struct {
		SystemName  string           `json:"systemName"`
		StationName string           `json:"stationName"`
		Timestamp   string           `json:"timestamp"`
		Odyssey     bool             `json:"odyssey"`
		Commodities []commodityEntry `json:"commodities"`
	} `json:"message"`
}

type commodityEntry struct {
	Name      string  `json:"name"`
	BuyPrice  float64 `json:"buyPrice"`
	SellPrice float64 `json:"sellPrice"`
	Stock     int64   `json:"stock"`
	Demand    int64   `json:"demand"`
}

// negligible reports whether the entry is below the volume floor on both
// sides or carries no usable price at all.
func (e commodityEntry) negligible() bool {
	if e.Stock < minEntryVolume && e.Demand < minEntryVolume {
		return true
	}
	return e.BuyPrice < 1 && e.SellPrice < 1
}

// decodeFrame decompresses a raw frame and keeps only commodity documents.
// Frames that fail to decompress or carry another schema are dropped without
// comment; the feed is shared and most of it is not for us.
func decodeFrame(data []byte) ([]byte, bool) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, false
	}
	defer zr.Close()

	doc, err := io.ReadAll(zr)
	if err != nil {
		return nil, false
	}
	if !bytes.HasPrefix(doc, []byte(commoditySchemaPrefix)) {
		return nil, false
	}
	return doc, true
}

// parseTimestamp parses an upstream timestamp, trying the plain layout first.
func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(timestampLayout, s)
	if err == nil {
		return t, nil
	}
	return time.Parse(timestampLayoutFrac, s)
}
