package osm2ttm

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

// Geometries are kept in WGS84 (EPSG:4326) everywhere except zone lookups,
// which operate in Web Mercator (EPSG:3857) metres.

func pointToMercator(pt orb.Point) orb.Point {
	return project.Point(pt, project.WGS84.ToMercator)
}

func lineToMercator(line orb.LineString) orb.LineString {
	return project.LineString(line.Clone(), project.WGS84.ToMercator)
}

func multiPolygonToMercator(mp orb.MultiPolygon) orb.MultiPolygon {
	return project.MultiPolygon(mp.Clone(), project.WGS84.ToMercator)
}

// mercatorDistance converts ground distance (metres) at given latitude to Web Mercator units
func mercatorDistance(metres, lat float64) float64 {
	return metres / math.Cos(degreesToRadians(lat))
}
