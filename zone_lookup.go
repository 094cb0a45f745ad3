package osm2ttm

import (
	"fmt"
	"os"

	geojson "github.com/paulmach/go.geojson"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/osm"
	"github.com/pkg/errors"
	"github.com/puzpuzpuz/xsync/v3"
)

const (
	// ZONE_BUFFER_METRES is the half-width of the buffer built around line geometries
	ZONE_BUFFER_METRES = 5.0

	URBAN_ZONES_LAYER     = "urban_zones"
	MUNICIPALITIES_LAYER  = "municipalities"
	urbanZoneCodeProperty = "vyoh"
	municipalityProperty  = "name"

	noZone = -1
)

// Zone is a polygon region with a numeric code and a name.
// Geometry is stored in Web Mercator metres.
type Zone struct {
	Code     int
	Name     string
	Geometry orb.MultiPolygon
	bound    orb.Bound
}

// ZoneLayer resolves geometries to zones of a single polygon layer.
// Zones keep the order they were given in, which is the tie-break order.
type ZoneLayer struct {
	name  string
	zones []*Zone
	cache *xsync.MapOf[osm.WayID, int]
}

// NewZoneLayer builds layer from zones whose geometry is given in WGS84
func NewZoneLayer(name string, zones []Zone) *ZoneLayer {
	layer := &ZoneLayer{
		name:  name,
		zones: make([]*Zone, 0, len(zones)),
		cache: xsync.NewMapOf[osm.WayID, int](),
	}
	for i := range zones {
		projected := multiPolygonToMercator(zones[i].Geometry)
		layer.zones = append(layer.zones, &Zone{
			Code:     zones[i].Code,
			Name:     zones[i].Name,
			Geometry: projected,
			bound:    projected.Bound(),
		})
	}
	return layer
}

// Name returns layer name used in warnings
func (layer *ZoneLayer) Name() string {
	return layer.name
}

// Len returns number of zones in layer
func (layer *ZoneLayer) Len() int {
	return len(layer.zones)
}

// ZoneFor returns zone for the given WGS84 geometry.
//
// Points are resolved by containment. Lines are buffered by ZONE_BUFFER_METRES and the zone with
// the largest intersection area wins. Polygons are resolved by their centroid.
// When several zones qualify equally, the first one in layer order is returned: zones sharing a
// boundary may therefore resolve differently if layer order changes.
func (layer *ZoneLayer) ZoneFor(geom orb.Geometry) (*Zone, bool) {
	idx := layer.zoneIndex(geom)
	if idx == noZone {
		return nil, false
	}
	return layer.zones[idx], true
}

// ZoneForWay is ZoneFor memoized by way identifier. Safe for concurrent use.
func (layer *ZoneLayer) ZoneForWay(wayID osm.WayID, line orb.LineString) (*Zone, bool) {
	idx, _ := layer.cache.LoadOrCompute(wayID, func() int {
		return layer.zoneIndex(line)
	})
	if idx == noZone {
		return nil, false
	}
	return layer.zones[idx], true
}

func (layer *ZoneLayer) zoneIndex(geom orb.Geometry) int {
	switch g := geom.(type) {
	case orb.Point:
		return layer.containing(g)
	case orb.LineString:
		return layer.largestIntersection(g)
	case orb.MultiLineString:
		if len(g) == 0 {
			return noZone
		}
		joined := orb.LineString{}
		for _, line := range g {
			joined = append(joined, line...)
		}
		return layer.largestIntersection(joined)
	case orb.Polygon, orb.MultiPolygon, orb.Ring:
		centroid, _ := planar.CentroidArea(g)
		return layer.containing(centroid)
	case orb.MultiPoint:
		if len(g) == 0 {
			return noZone
		}
		return layer.containing(findCentroid(g))
	default:
		return noZone
	}
}

func (layer *ZoneLayer) containing(pt orb.Point) int {
	projected := pointToMercator(pt)
	for i, zone := range layer.zones {
		if !zone.bound.Contains(projected) {
			continue
		}
		if planar.MultiPolygonContains(zone.Geometry, projected) {
			return i
		}
	}
	return noZone
}

func (layer *ZoneLayer) largestIntersection(line orb.LineString) int {
	if len(line) == 0 {
		return noZone
	}
	if len(line) == 1 {
		return layer.containing(line[0])
	}
	projected := lineToMercator(line)
	buffers := segmentBuffers(projected, mercatorDistance(ZONE_BUFFER_METRES, line[0].Lat()))
	if len(buffers) == 0 {
		return layer.containing(line[0])
	}
	bufferBound := buffers[0].Bound()
	for _, buffer := range buffers[1:] {
		bufferBound = bufferBound.Union(buffer.Bound())
	}
	best := noZone
	bestArea := 0.0
	for i, zone := range layer.zones {
		if !zone.bound.Intersects(bufferBound) {
			continue
		}
		area := 0.0
		for _, buffer := range buffers {
			if !zone.bound.Intersects(buffer.Bound()) {
				continue
			}
			for _, polygon := range zone.Geometry {
				area += polygonIntersectionArea(polygon, buffer)
			}
		}
		// Strict comparison keeps the first zone on ties
		if area > bestArea {
			best = i
			bestArea = area
		}
	}
	return best
}

// LoadZoneLayer reads zones from GeoJSON feature collection.
// Code is read from codeProperty; nameProperty may be empty.
func LoadZoneLayer(layerName, filename, codeProperty, nameProperty string) (*ZoneLayer, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't read zone layer '%s'", filename)
	}
	collection, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't parse zone layer '%s'", filename)
	}
	zones := make([]Zone, 0, len(collection.Features))
	for i, feature := range collection.Features {
		geom, err := geometryToOrb(feature.Geometry)
		if err != nil {
			return nil, errors.Wrapf(err, "Can't convert geometry of feature #%d in '%s'", i, filename)
		}
		var polygons orb.MultiPolygon
		switch g := geom.(type) {
		case orb.Polygon:
			polygons = orb.MultiPolygon{g}
		case orb.MultiPolygon:
			polygons = g
		default:
			return nil, fmt.Errorf("Feature #%d in '%s' has geometry type '%s', polygon expected", i, filename, geom.GeoJSONType())
		}
		zone := Zone{Geometry: polygons}
		if codeProperty != "" {
			value, ok := featureProperty(feature, codeProperty)
			if !ok {
				return nil, fmt.Errorf("Feature #%d in '%s' has no property '%s'", i, filename, codeProperty)
			}
			code, ok := propertyInt(value)
			if !ok {
				return nil, fmt.Errorf("Feature #%d in '%s' has non-integer '%s': %v", i, filename, codeProperty, value)
			}
			zone.Code = code
		}
		if nameProperty != "" {
			if value, ok := featureProperty(feature, nameProperty); ok {
				zone.Name, _ = propertyString(value)
			}
		}
		zones = append(zones, zone)
	}
	log.WithField("layer", layerName).Infof("Loaded %d zones from '%s'", len(zones), filename)
	return NewZoneLayer(layerName, zones), nil
}

// LoadUrbanZones reads YKR urban zones (code in property `vyoh`)
// Zones are named by the official description of their code.
func LoadUrbanZones(filename string) (*ZoneLayer, error) {
	layer, err := LoadZoneLayer(URBAN_ZONES_LAYER, filename, urbanZoneCodeProperty, "")
	if err != nil {
		return nil, err
	}
	unknown := 0
	for _, zone := range layer.zones {
		urbanZone, ok := UrbanZoneFromCode(zone.Code)
		if !ok {
			unknown++
			continue
		}
		zone.Name = urbanZone.Description()
	}
	if unknown > 0 {
		log.WithField("layer", URBAN_ZONES_LAYER).Warnf("%d zones in '%s' have unknown codes, default coefficients apply to them", unknown, filename)
	}
	return layer, nil
}

// LoadMunicipalities reads municipality polygons (name in property `name`)
func LoadMunicipalities(filename string) (*ZoneLayer, error) {
	return LoadZoneLayer(MUNICIPALITIES_LAYER, filename, "", municipalityProperty)
}
