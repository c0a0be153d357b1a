package refdata

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/almarsh/edtrader/internal/model"
)

// Wire shapes of the bulk reference snapshots. The upstream schema carries
// more fields; only the ones the engine uses are decoded.

type systemJSON struct {
	ID   int64   `json:"id"`
	Name string  `json:"name"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Z    float64 `json:"z"`
}

type stationJSON struct {
	ID                int64  `json:"id"`
	SystemID          int64  `json:"system_id"`
	Name              string `json:"name"`
	Type              string `json:"type"`
	IsPlanetary       bool   `json:"is_planetary"`
	MaxLandingPadSize string `json:"max_landing_pad_size"`
	DistanceToStar    *int64 `json:"distance_to_star"`
}

type commodityJSON struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func parseSystems(path string) ([]*model.StarSystem, error) {
	var raw []systemJSON
	if err := decodeFile(path, &raw); err != nil {
		return nil, fmt.Errorf("parse systems: %w", err)
	}
	systems := make([]*model.StarSystem, 0, len(raw))
	for _, s := range raw {
		systems = append(systems, &model.StarSystem{
			ID: s.ID, Name: s.Name, X: s.X, Y: s.Y, Z: s.Z,
		})
	}
	return systems, nil
}

func parseStations(path string) ([]*model.Station, error) {
	var raw []stationJSON
	if err := decodeFile(path, &raw); err != nil {
		return nil, fmt.Errorf("parse stations: %w", err)
	}
	stations := make([]*model.Station, 0, len(raw))
	for _, s := range raw {
		// Mobile carrier stations churn too fast to trade against.
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(s.Type)), "fleet") {
			continue
		}
		var dist int64
		if s.DistanceToStar != nil {
			dist = *s.DistanceToStar
		}
		stations = append(stations, &model.Station{
			ID:             s.ID,
			SystemID:       s.SystemID,
			Name:           s.Name,
			Type:           s.Type,
			Planetary:      s.IsPlanetary,
			MaxLandingPad:  s.MaxLandingPadSize,
			DistanceToStar: dist,
		})
	}
	return stations, nil
}

func parseCommodities(path string) ([]*model.Commodity, error) {
	var raw []commodityJSON
	if err := decodeFile(path, &raw); err != nil {
		return nil, fmt.Errorf("parse commodities: %w", err)
	}
	commodities := make([]*model.Commodity, 0, len(raw))
	for _, c := range raw {
		commodities = append(commodities, &model.Commodity{ID: c.ID, Name: c.Name})
	}
	return commodities, nil
}

func decodeFile(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(v); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}
