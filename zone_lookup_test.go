package osm2ttm

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square(minLon, minLat, maxLon, maxLat float64) orb.MultiPolygon {
	return orb.MultiPolygon{{{{minLon, minLat}, {maxLon, minLat}, {maxLon, maxLat}, {minLon, maxLat}, {minLon, minLat}}}}
}

func testZoneLayer() *ZoneLayer {
	return NewZoneLayer("test", []Zone{
		{Code: 1, Name: "west", Geometry: square(24.00, 60.00, 24.01, 60.01)},
		{Code: 2, Name: "east", Geometry: square(24.01, 60.00, 24.02, 60.01)},
	})
}

func TestZoneForPoint(t *testing.T) {
	layer := testZoneLayer()
	zone, ok := layer.ZoneFor(orb.Point{24.005, 60.005})
	require.True(t, ok)
	assert.Equal(t, "west", zone.Name)

	zone, ok = layer.ZoneFor(orb.Point{24.015, 60.005})
	require.True(t, ok)
	assert.Equal(t, 2, zone.Code)

	_, ok = layer.ZoneFor(orb.Point{25.0, 61.0})
	assert.False(t, ok)
}

func TestZoneForLineLargestArea(t *testing.T) {
	layer := testZoneLayer()
	// Crosses the boundary, most of the line lies in the east zone
	line := orb.LineString{{24.008, 60.005}, {24.019, 60.005}}
	zone, ok := layer.ZoneFor(line)
	require.True(t, ok)
	assert.Equal(t, "east", zone.Name)

	// Runs along the boundary slightly inside the west zone
	line = orb.LineString{{24.00999, 60.002}, {24.00999, 60.008}}
	zone, ok = layer.ZoneFor(line)
	require.True(t, ok)
	assert.Equal(t, "west", zone.Name)

	_, ok = layer.ZoneFor(orb.LineString{{25.0, 61.0}, {25.1, 61.0}})
	assert.False(t, ok)
}

func TestZoneForTieGoesToFirst(t *testing.T) {
	layer := NewZoneLayer("test", []Zone{
		{Code: 1, Name: "first", Geometry: square(24.00, 60.00, 24.01, 60.01)},
		{Code: 2, Name: "duplicate", Geometry: square(24.00, 60.00, 24.01, 60.01)},
	})
	zone, ok := layer.ZoneFor(orb.LineString{{24.002, 60.005}, {24.008, 60.005}})
	require.True(t, ok)
	assert.Equal(t, "first", zone.Name)

	zone, ok = layer.ZoneFor(orb.Point{24.005, 60.005})
	require.True(t, ok)
	assert.Equal(t, "first", zone.Name)
}

func TestZoneForPolygonCentroid(t *testing.T) {
	layer := testZoneLayer()
	polygon := orb.Polygon{{{24.011, 60.001}, {24.019, 60.001}, {24.019, 60.009}, {24.011, 60.009}, {24.011, 60.001}}}
	zone, ok := layer.ZoneFor(polygon)
	require.True(t, ok)
	assert.Equal(t, "east", zone.Name)
}

func TestZoneForWayMemoized(t *testing.T) {
	layer := testZoneLayer()
	line := orb.LineString{{24.001, 60.005}, {24.004, 60.005}}
	zone, ok := layer.ZoneForWay(42, line)
	require.True(t, ok)
	assert.Equal(t, "west", zone.Name)
	// Cached by way ID, geometry is not looked at again
	zone, ok = layer.ZoneForWay(42, orb.LineString{{24.015, 60.005}, {24.018, 60.005}})
	require.True(t, ok)
	assert.Equal(t, "west", zone.Name)
}

func TestLoadZoneLayer(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "zones.geojson")
	content := `{"type":"FeatureCollection","features":[
{"type":"Feature","properties":{"vyoh":5},"geometry":{"type":"Polygon","coordinates":[[[24.0,60.0],[24.01,60.0],[24.01,60.01],[24.0,60.01],[24.0,60.0]]]}},
{"type":"Feature","properties":{"vyoh":"3"},"geometry":{"type":"MultiPolygon","coordinates":[[[[24.01,60.0],[24.02,60.0],[24.02,60.01],[24.01,60.01],[24.01,60.0]]]]}}
]}`
	require.NoError(t, os.WriteFile(filename, []byte(content), 0644))

	layer, err := LoadUrbanZones(filename)
	require.NoError(t, err)
	assert.Equal(t, 2, layer.Len())
	assert.Equal(t, URBAN_ZONES_LAYER, layer.Name())
	zone, ok := layer.ZoneFor(orb.Point{24.015, 60.005})
	require.True(t, ok)
	assert.Equal(t, 3, zone.Code)
	assert.Equal(t, "Intensiivinen joukkoliikennevyöhyke", zone.Name)

	_, err = LoadZoneLayer("broken", filename, "missing", "")
	assert.Error(t, err)
}
