package osm2ttm

import (
	"fmt"
	"strconv"

	geojson "github.com/paulmach/go.geojson"
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
)

// PrepareGeoJSONPoint returns GeoJSON geometry of Point
func PrepareGeoJSONPoint(pt orb.Point) *geojson.Geometry {
	return geojson.NewPointGeometry([]float64{pt.Lon(), pt.Lat()})
}

// PrepareGeoJSONPolygon returns GeoJSON geometry of Polygon
func PrepareGeoJSONPolygon(polygon orb.Polygon) *geojson.Geometry {
	return geojson.NewPolygonGeometry(polygonToCoordinates(polygon))
}

// PrepareGeoJSONGeometry returns GeoJSON geometry of points, lines and polygons
func PrepareGeoJSONGeometry(geom orb.Geometry) (*geojson.Geometry, error) {
	switch g := geom.(type) {
	case orb.Point:
		return PrepareGeoJSONPoint(g), nil
	case orb.MultiPoint:
		return geojson.NewMultiPointGeometry(pointsToCoordinates(g)...), nil
	case orb.LineString:
		return geojson.NewLineStringGeometry(pointsToCoordinates(g)), nil
	case orb.Polygon:
		return PrepareGeoJSONPolygon(g), nil
	case orb.MultiPolygon:
		polygons := make([][][][]float64, len(g))
		for i := range g {
			polygons[i] = polygonToCoordinates(g[i])
		}
		return geojson.NewMultiPolygonGeometry(polygons...), nil
	default:
		return nil, fmt.Errorf("Geometry type '%s' is not handled", geom.GeoJSONType())
	}
}

func polygonToCoordinates(polygon orb.Polygon) [][][]float64 {
	rings := make([][][]float64, len(polygon))
	for i, ring := range polygon {
		rings[i] = pointsToCoordinates(ring)
	}
	return rings
}

func pointsToCoordinates(pts []orb.Point) [][]float64 {
	coords := make([][]float64, len(pts))
	for i := range pts {
		coords[i] = []float64{pts[i].Lon(), pts[i].Lat()}
	}
	return coords
}

func coordinateToPoint(coord []float64) (orb.Point, error) {
	if len(coord) < 2 {
		return orb.Point{}, fmt.Errorf("Coordinate has %d dimensions, at least 2 expected", len(coord))
	}
	return orb.Point{coord[0], coord[1]}, nil
}

func coordinatesToPoints(coords [][]float64) ([]orb.Point, error) {
	pts := make([]orb.Point, 0, len(coords))
	for _, coord := range coords {
		pt, err := coordinateToPoint(coord)
		if err != nil {
			return nil, err
		}
		pts = append(pts, pt)
	}
	return pts, nil
}

func coordinatesToPolygon(rings [][][]float64) (orb.Polygon, error) {
	polygon := make(orb.Polygon, 0, len(rings))
	for _, ring := range rings {
		pts, err := coordinatesToPoints(ring)
		if err != nil {
			return nil, err
		}
		polygon = append(polygon, orb.Ring(pts))
	}
	return polygon, nil
}

// geometryToOrb converts GeoJSON geometry into orb geometry
func geometryToOrb(geom *geojson.Geometry) (orb.Geometry, error) {
	if geom == nil {
		return nil, errors.New("Empty geometry")
	}
	switch geom.Type {
	case geojson.GeometryPoint:
		return coordinateToPoint(geom.Point)
	case geojson.GeometryMultiPoint:
		pts, err := coordinatesToPoints(geom.MultiPoint)
		return orb.MultiPoint(pts), err
	case geojson.GeometryLineString:
		pts, err := coordinatesToPoints(geom.LineString)
		return orb.LineString(pts), err
	case geojson.GeometryMultiLineString:
		lines := make(orb.MultiLineString, 0, len(geom.MultiLineString))
		for _, line := range geom.MultiLineString {
			pts, err := coordinatesToPoints(line)
			if err != nil {
				return nil, err
			}
			lines = append(lines, orb.LineString(pts))
		}
		return lines, nil
	case geojson.GeometryPolygon:
		return coordinatesToPolygon(geom.Polygon)
	case geojson.GeometryMultiPolygon:
		polygons := make(orb.MultiPolygon, 0, len(geom.MultiPolygon))
		for _, rings := range geom.MultiPolygon {
			polygon, err := coordinatesToPolygon(rings)
			if err != nil {
				return nil, err
			}
			polygons = append(polygons, polygon)
		}
		return polygons, nil
	default:
		return nil, fmt.Errorf("Geometry type '%s' is not handled", geom.Type)
	}
}

// featureProperty returns property of the feature, feature ID is used for the "id" key when property is missing
func featureProperty(feature *geojson.Feature, key string) (interface{}, bool) {
	if value, ok := feature.Properties[key]; ok && value != nil {
		return value, true
	}
	if key == "id" && feature.ID != nil {
		return feature.ID, true
	}
	return nil, false
}

// propertyString formats scalar property value. Integral numbers have no fractional part.
func propertyString(value interface{}) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v)), true
		}
		return fmt.Sprintf("%g", v), true
	case int:
		return fmt.Sprintf("%d", v), true
	case int64:
		return fmt.Sprintf("%d", v), true
	default:
		return "", false
	}
}

// propertyInt returns integer value of numeric or numeric-string property
func propertyInt(value interface{}) (int, bool) {
	switch v := value.(type) {
	case float64:
		return int(v), v == float64(int(v))
	case int:
		return v, true
	case int64:
		return int(v), true
	case string:
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}
