package osm2ttm

import (
	"fmt"

	"github.com/paulmach/orb"
)

// PrepareWKTPoint returns WKT representation of Point
func PrepareWKTPoint(pt orb.Point) string {
	return fmt.Sprintf("POINT(%f %f)", pt.Lon(), pt.Lat())
}

// PrepareEWKTPoint returns WKT representation of Point prefixed with WGS84 SRID
func PrepareEWKTPoint(pt orb.Point) string {
	return "SRID=4326;" + PrepareWKTPoint(pt)
}
