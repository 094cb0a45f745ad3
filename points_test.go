package osm2ttm

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPointsGeoJSON = `{"type":"FeatureCollection","features":[
{"type":"Feature","properties":{"id":5785640},"geometry":{"type":"Point","coordinates":[24.93,60.17]}},
{"type":"Feature","properties":{"id":"cell-2"},"geometry":{"type":"Polygon","coordinates":[[[24.94,60.16],[24.96,60.16],[24.96,60.18],[24.94,60.18],[24.94,60.16]]]}},
{"type":"Feature","properties":{"id":3},"geometry":{"type":"Point","coordinates":[26.0,61.0]}}
]}`

func writeTestPoints(t *testing.T, content string) string {
	filename := filepath.Join(t.TempDir(), "points.geojson")
	require.NoError(t, os.WriteFile(filename, []byte(content), 0644))
	return filename
}

func TestLoadPoints(t *testing.T) {
	filename := writeTestPoints(t, testPointsGeoJSON)
	points, extent, err := LoadPoints(filename, "id", nil)
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.Equal(t, "5785640", points[0].ID)
	assert.Equal(t, orb.Point{24.93, 60.17}, points[0].Geometry())
	assert.Equal(t, "cell-2", points[1].ID)
	assert.InDelta(t, 24.95, points[1].Geom.Lon(), 1e-9)
	assert.InDelta(t, 60.17, points[1].Geom.Lat(), 1e-9)
	assert.IsType(t, orb.Polygon{}, points[1].Geometry())
	assert.Equal(t, orb.Bound{Min: orb.Point{24.93, 60.16}, Max: orb.Point{26.0, 61.0}}, extent)
}

func TestLoadPointsWithinExtent(t *testing.T) {
	filename := writeTestPoints(t, testPointsGeoJSON)
	bound := orb.Bound{Min: orb.Point{24.9, 60.1}, Max: orb.Point{25.0, 60.2}}
	points, extent, err := LoadPoints(filename, "", &bound)
	require.NoError(t, err)
	assert.Len(t, points, 2)
	assert.Equal(t, bound, extent)
}

func TestLoadPointsDuplicateID(t *testing.T) {
	filename := writeTestPoints(t, `{"type":"FeatureCollection","features":[
{"type":"Feature","properties":{"id":1},"geometry":{"type":"Point","coordinates":[24.93,60.17]}},
{"type":"Feature","properties":{"id":"1"},"geometry":{"type":"Point","coordinates":[24.94,60.17]}}
]}`)
	_, _, err := LoadPoints(filename, "id", nil)
	assert.Error(t, err)
}

func TestParseExtent(t *testing.T) {
	extent, err := ParseExtent("24.5 60.0 25.5 60.5")
	require.NoError(t, err)
	assert.Equal(t, orb.Bound{Min: orb.Point{24.5, 60.0}, Max: orb.Point{25.5, 60.5}}, extent)
	_, err = ParseExtent("24.5 60.0")
	assert.True(t, IsConfigurationError(err))
	_, err = ParseExtent("25.5 60.0 24.5 60.5")
	assert.True(t, IsConfigurationError(err))
}
