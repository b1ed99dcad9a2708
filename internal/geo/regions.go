package geo

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"epidash/internal/dashboard"
	"epidash/internal/model"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Property names of the region GeoJSON.
const (
	IDProperty   = "OBJECTID"
	NameProperty = "NAME"
)

// LoadRegions reads a region FeatureCollection from path.
func LoadRegions(path string) ([]model.Region, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open regions file: %w", err)
	}
	defer f.Close()
	return ReadRegions(f)
}

// ReadRegions parses a FeatureCollection. Every feature needs an OBJECTID
// property; NAME is optional.
func ReadRegions(r io.Reader) ([]model.Region, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read regions: %w", err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode regions: %w", err)
	}

	regions := make([]model.Region, 0, len(fc.Features))
	seen := make(map[string]bool, len(fc.Features))
	for i, feat := range fc.Features {
		id, ok := propertyID(feat.Properties[IDProperty])
		if !ok {
			return nil, fmt.Errorf("feature %d: missing %s property", i, IDProperty)
		}
		if seen[id] {
			return nil, fmt.Errorf("feature %d: duplicate region %s", i, id)
		}
		seen[id] = true
		regions = append(regions, model.Region{
			ID:       id,
			Name:     feat.Properties.MustString(NameProperty, id),
			Geometry: feat.Geometry,
		})
	}
	return regions, nil
}

// MergeView joins a view onto the region geometry, the way the map layer
// consumes it: one feature per region with its value (nil when absent) and
// fill colour.
func MergeView(regions []model.Region, view model.View) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, r := range regions {
		geom := r.Geometry
		if geom == nil {
			geom = orb.Collection{}
		}
		feat := geojson.NewFeature(geom)
		feat.ID = r.ID
		v, present := view.Map[r.ID]
		feat.Properties[IDProperty] = r.ID
		feat.Properties[NameProperty] = r.Name
		if present {
			feat.Properties["value"] = v
		} else {
			feat.Properties["value"] = nil
		}
		feat.Properties["color"] = dashboard.Color(view.Scale, v, present)
		fc.Append(feat)
	}
	return fc
}

func propertyID(v interface{}) (string, bool) {
	switch id := v.(type) {
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64), true
	case string:
		id = strings.TrimSpace(id)
		return id, id != ""
	default:
		return "", false
	}
}
