package osm2ttm

import (
	"fmt"
	"os"

	geojson "github.com/paulmach/go.geojson"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/pkg/errors"
)

const (
	DEFAULT_POINT_ID_PROPERTY = "id"
)

// Point is an origin/destination location (WGS84).
// Source keeps the loaded geometry when it was not a point (e.g. a grid cell).
type Point struct {
	ID     string
	Geom   orb.Point
	Source orb.Geometry
}

// Geometry returns loaded geometry of the point
func (pt Point) Geometry() orb.Geometry {
	if pt.Source != nil {
		return pt.Source
	}
	return pt.Geom
}

// LoadPoints reads origins/destinations from GeoJSON feature collection.
// Non-point geometries are replaced by their centroid. With an extent, geometries not within it
// are skipped; without one, the extent of all geometries is returned.
func LoadPoints(filename, idProperty string, extent *orb.Bound) ([]Point, orb.Bound, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, orb.Bound{}, errors.Wrapf(err, "Can't read origins/destinations '%s'", filename)
	}
	collection, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, orb.Bound{}, errors.Wrapf(err, "Can't parse origins/destinations '%s'", filename)
	}
	if idProperty == "" {
		idProperty = DEFAULT_POINT_ID_PROPERTY
	}

	points := make([]Point, 0, len(collection.Features))
	seen := make(map[string]struct{}, len(collection.Features))
	var bound orb.Bound
	skipped := 0
	for i, feature := range collection.Features {
		geom, err := geometryToOrb(feature.Geometry)
		if err != nil {
			return nil, orb.Bound{}, errors.Wrapf(err, "Can't convert geometry of feature #%d in '%s'", i, filename)
		}
		if extent != nil && !boundWithin(geom.Bound(), *extent) {
			skipped++
			continue
		}
		value, ok := featureProperty(feature, idProperty)
		if !ok {
			return nil, orb.Bound{}, fmt.Errorf("Feature #%d in '%s' has no '%s'", i, filename, idProperty)
		}
		id, ok := propertyString(value)
		if !ok {
			return nil, orb.Bound{}, fmt.Errorf("Feature #%d in '%s' has unsupported '%s' value: %v", i, filename, idProperty, value)
		}
		if _, ok := seen[id]; ok {
			return nil, orb.Bound{}, fmt.Errorf("Duplicate origin/destination ID '%s' in '%s'", id, filename)
		}
		seen[id] = struct{}{}

		pt := Point{ID: id}
		if asPoint, ok := geom.(orb.Point); ok {
			pt.Geom = asPoint
		} else {
			pt.Geom, _ = planar.CentroidArea(geom)
			pt.Source = geom
		}
		if len(points) == 0 {
			bound = geom.Bound()
		} else {
			bound = bound.Union(geom.Bound())
		}
		points = append(points, pt)
	}
	if len(points) == 0 {
		return nil, orb.Bound{}, fmt.Errorf("No origins/destinations found in '%s'", filename)
	}
	if extent != nil {
		bound = *extent
	} else {
		log.WithField("extent", bound).Warn("No extent specified, using the extent of origins/destinations")
	}
	log.Infof("Loaded %d origins/destinations from '%s' (%d outside of extent)", len(points), filename, skipped)
	return points, bound, nil
}

func boundWithin(inner, outer orb.Bound) bool {
	return outer.Contains(inner.Min) && outer.Contains(inner.Max)
}

// ParseExtent parses extent given as "xmin ymin xmax ymax" (WGS84)
func ParseExtent(str string) (orb.Bound, error) {
	var minLon, minLat, maxLon, maxLat float64
	n, err := fmt.Sscanf(str, "%f %f %f %f", &minLon, &minLat, &maxLon, &maxLat)
	if err != nil || n != 4 {
		return orb.Bound{}, newConfigurationError("extent must be 'xmin ymin xmax ymax', got '%s'", str)
	}
	if minLon >= maxLon || minLat >= maxLat {
		return orb.Bound{}, newConfigurationError("extent '%s' is empty", str)
	}
	return orb.Bound{Min: orb.Point{minLon, minLat}, Max: orb.Point{maxLon, maxLat}}, nil
}
