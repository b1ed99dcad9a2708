package geo

import (
	"encoding/json"
	"strings"
	"testing"

	"epidash/internal/dashboard"
	"epidash/internal/model"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/require"
)

const corop = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"OBJECTID": 1, "NAME": "Oost-Groningen"},
     "geometry": {"type": "Polygon", "coordinates": [[[6.8,53.0],[7.2,53.0],[7.2,53.3],[6.8,53.0]]]}},
    {"type": "Feature", "properties": {"OBJECTID": "2"},
     "geometry": {"type": "Point", "coordinates": [5.8, 53.2]}}
  ]
}`

func TestReadRegions(t *testing.T) {
	regions, err := ReadRegions(strings.NewReader(corop))
	require.NoError(t, err)
	require.Len(t, regions, 2)
	require.Equal(t, "1", regions[0].ID)
	require.Equal(t, "Oost-Groningen", regions[0].Name)
	require.IsType(t, orb.Polygon{}, regions[0].Geometry)
	require.Equal(t, "2", regions[1].ID)
	require.Equal(t, "2", regions[1].Name, "name falls back to the id")
}

func TestReadRegionsRejectsBadFeatures(t *testing.T) {
	_, err := ReadRegions(strings.NewReader(`{"type":"FeatureCollection","features":[{"type":"Feature","properties":{},"geometry":{"type":"Point","coordinates":[0,0]}}]}`))
	require.ErrorContains(t, err, "missing OBJECTID")

	dup := `{"type":"FeatureCollection","features":[
	  {"type":"Feature","properties":{"OBJECTID":1},"geometry":{"type":"Point","coordinates":[0,0]}},
	  {"type":"Feature","properties":{"OBJECTID":"1"},"geometry":{"type":"Point","coordinates":[0,0]}}]}`
	_, err = ReadRegions(strings.NewReader(dup))
	require.ErrorContains(t, err, "duplicate region 1")

	_, err = ReadRegions(strings.NewReader(`not json`))
	require.Error(t, err)
}

func TestMergeView(t *testing.T) {
	regions, err := ReadRegions(strings.NewReader(corop))
	require.NoError(t, err)

	view := model.View{
		Map:   map[string]float64{"1": 4},
		Scale: dashboard.SelectScale(0, 8, dashboard.DefaultScaleOptions()),
	}
	fc := MergeView(regions, view)
	require.Len(t, fc.Features, 2)

	require.Equal(t, 4.0, fc.Features[0].Properties["value"])
	require.Equal(t, dashboard.YlOrRd8[4], fc.Features[0].Properties["color"])
	require.Nil(t, fc.Features[1].Properties["value"])
	require.Equal(t, dashboard.NaNColor, fc.Features[1].Properties["color"])

	b, err := json.Marshal(fc)
	require.NoError(t, err)
	require.Contains(t, string(b), `"NAME":"Oost-Groningen"`)
}

func TestMergeViewWithoutGeometry(t *testing.T) {
	fc := MergeView([]model.Region{{ID: "9", Name: "Nowhere"}}, model.View{Scale: dashboard.DefaultScale(dashboard.DefaultScaleOptions())})
	_, err := json.Marshal(fc)
	require.NoError(t, err)
}
