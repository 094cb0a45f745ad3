package osm2ttm

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Round(x, unit float64) float64 {
	if x > 0 {
		return float64(int64(x/unit+0.5)) * unit
	}
	return float64(int64(x/unit-0.5)) * unit
}

func TestGreatCircleDistance(t *testing.T) {
	p1 := orb.Point{24.9384, 60.1699}
	p2 := orb.Point{24.9384, 60.1799}
	// 0.01 degree of latitude
	gcd := greatCircleDistance(p1, p2)
	assert.Equal(t, Round(1.1119, 0.005), Round(gcd, 0.005))
	assert.Equal(t, 0.0, greatCircleDistance(p1, p1))
}

func TestFindCentroid(t *testing.T) {
	pts := []orb.Point{{24.0, 60.0}, {24.0, 60.0}}
	centroid := findCentroid(pts)
	assert.InDelta(t, 24.0, centroid.Lon(), 1e-9)
	assert.InDelta(t, 60.0, centroid.Lat(), 1e-9)

	square := []orb.Point{{10.0, -1.0}, {10.0, 1.0}, {12.0, 1.0}, {12.0, -1.0}}
	centroid = findCentroid(square)
	assert.InDelta(t, 11.0, centroid.Lon(), 1e-6)
	assert.InDelta(t, 0.0, centroid.Lat(), 1e-6)
}

func TestIntersect(t *testing.T) {
	pt, err := intersect(orb.Point{0, 0}, orb.Point{2, 2}, orb.Point{0, 2}, orb.Point{2, 0})
	require.NoError(t, err)
	assert.Equal(t, orb.Point{1, 1}, pt)

	_, err = intersect(orb.Point{0, 0}, orb.Point{1, 0}, orb.Point{0, 1}, orb.Point{1, 1})
	assert.Error(t, err)
}

func TestSegmentBuffers(t *testing.T) {
	line := orb.LineString{{0, 0}, {10, 0}, {10, 10}, {10, 10}}
	buffers := segmentBuffers(line, 1.0)
	// Zero-length segment is skipped
	require.Len(t, buffers, 2)
	for _, buffer := range buffers {
		assert.Equal(t, orb.CCW, buffer.Orientation())
		assert.InDelta(t, 20.0, math.Abs(planar.Area(buffer)), 1e-9)
	}
	assert.Equal(t, orb.Bound{Min: orb.Point{0, -1}, Max: orb.Point{10, 1}}, buffers[0].Bound())
}

func TestPolygonIntersectionArea(t *testing.T) {
	clip := orb.Ring{{5, 5}, {15, 5}, {15, 15}, {5, 15}, {5, 5}}
	square := orb.Polygon{{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}}}
	assert.InDelta(t, 25.0, polygonIntersectionArea(square, clip), 1e-9)

	// Clockwise subject gives the same area
	clockwise := orb.Polygon{{{0, 0}, {0, 10}, {10, 10}, {10, 0}, {0, 0}}}
	assert.InDelta(t, 25.0, polygonIntersectionArea(clockwise, clip), 1e-9)

	withHole := orb.Polygon{
		{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}},
		{{6, 6}, {6, 8}, {8, 8}, {8, 6}, {6, 6}},
	}
	assert.InDelta(t, 21.0, polygonIntersectionArea(withHole, clip), 1e-9)

	far := orb.Polygon{{{100, 100}, {110, 100}, {110, 110}, {100, 110}, {100, 100}}}
	assert.Equal(t, 0.0, polygonIntersectionArea(far, clip))
}
