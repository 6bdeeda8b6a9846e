package dataset

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/couchcryptid/disaster-funding-service/internal/domain"
)

// FeatureCollection mirrors the GeoJSON object served to the map. Geometry is
// passed through untouched.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature is one region polygon. ID carries the state FIPS code as a number
// or a zero-padded string.
type Feature struct {
	Type       string          `json:"type"`
	ID         json.RawMessage `json:"id,omitempty"`
	Properties map[string]any  `json:"properties"`
	Geometry   json.RawMessage `json:"geometry"`
}

// ParseGeometry decodes a GeoJSON FeatureCollection.
func ParseGeometry(r io.Reader) (*FeatureCollection, error) {
	var fc FeatureCollection
	if err := json.NewDecoder(r).Decode(&fc); err != nil {
		return nil, fmt.Errorf("decode geojson: %w", err)
	}
	if fc.Type != "FeatureCollection" {
		return nil, fmt.Errorf("decode geojson: unexpected type %q", fc.Type)
	}
	return &fc, nil
}

// FIPS returns the numeric state identifier of the feature.
func (f Feature) FIPS() (int, bool) {
	raw := strings.Trim(strings.TrimSpace(string(f.ID)), `"`)
	if raw == "" {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Region joins the feature to a region code through the FIPS table.
func (f Feature) Region() (string, bool) {
	fips, ok := f.FIPS()
	if !ok {
		return "", false
	}
	return domain.RegionForFIPS(fips)
}

// JoinFunding returns a copy of fc whose features carry the region's funding,
// event count and fill color. Features without a known region are kept with
// zero funding so the map still draws them.
func JoinFunding(fc *FeatureCollection, agg domain.Aggregation, scale domain.ColorScale) FeatureCollection {
	out := FeatureCollection{Type: "FeatureCollection"}
	if fc == nil {
		out.Features = []Feature{}
		return out
	}
	out.Features = make([]Feature, 0, len(fc.Features))

	for _, f := range fc.Features {
		props := make(map[string]any, len(f.Properties)+5)
		for k, v := range f.Properties {
			props[k] = v
		}

		var funding float64
		var events int
		if code, ok := f.Region(); ok {
			props["region"] = code
			props["name"] = domain.RegionName(code)
			if ra, ok := agg.Regions[code]; ok {
				funding = ra.Funding
				events = ra.EventCount
			}
		}
		props["funding"] = funding
		props["event_count"] = events
		props["fill"] = scale.ColorFor(funding)

		out.Features = append(out.Features, Feature{
			Type:       f.Type,
			ID:         f.ID,
			Properties: props,
			Geometry:   f.Geometry,
		})
	}
	return out
}
