package osm2ttm

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

const (
	earthRadius = 6370.986884258304
	pi180       = math.Pi / 180.0
	pi180Rev    = 180.0 / math.Pi
)

// degreesToRadians deg = r * pi / 180
func degreesToRadians(d float64) float64 {
	return d * pi180
}

// radiansTodegrees r = deg  * 180 / pi
func radiansTodegrees(d float64) float64 {
	return d * pi180Rev
}

// greatCircleDistance returns distance between two geo-points (kilometers)
func greatCircleDistance(p, q orb.Point) float64 {
	lat1 := degreesToRadians(p.Lat())
	lon1 := degreesToRadians(p.Lon())
	lat2 := degreesToRadians(q.Lat())
	lon2 := degreesToRadians(q.Lon())
	diffLat := lat2 - lat1
	diffLon := lon2 - lon1
	a := math.Pow(math.Sin(diffLat/2), 2) + math.Cos(lat1)*math.Cos(lat2)*math.Pow(math.Sin(diffLon/2), 2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	ans := c * earthRadius
	return ans
}

// findCentroid returns center point for given set of geo-points (not middle point)
func findCentroid(pts []orb.Point) orb.Point {
	totalPoints := len(pts)
	if totalPoints == 1 {
		return pts[0]
	}
	x, y, z := 0.0, 0.0, 0.0
	for i := 0; i < totalPoints; i++ {
		longitude := degreesToRadians(pts[i].Lon())
		latitude := degreesToRadians(pts[i].Lat())
		c1 := math.Cos(latitude)
		x += c1 * math.Cos(longitude)
		y += c1 * math.Sin(longitude)
		z += math.Sin(latitude)
	}

	x /= float64(totalPoints)
	y /= float64(totalPoints)
	z /= float64(totalPoints)

	centralLongitude := math.Atan2(y, x)
	centralSquareRoot := math.Sqrt(x*x + y*y)
	centralLatitude := math.Atan2(z, centralSquareRoot)

	return orb.Point{radiansTodegrees(centralLongitude), radiansTodegrees(centralLatitude)}
}

// Check if two lines intersects and returns intersections Point
// p1, p2 - first line
// p3, p4 - second line
// Note: Euclidean space
func intersect(p1, p2, p3, p4 orb.Point) (orb.Point, error) {
	a1 := p2[1] - p1[1]
	b1 := p1[0] - p2[0]
	c1 := a1*p1[0] + b1*p1[1]
	a2 := p4[1] - p3[1]
	b2 := p3[0] - p4[0]
	c2 := a2*p3[0] + b2*p3[1]

	det := a1*b2 - a2*b1
	if det == 0 {
		return orb.Point{}, fmt.Errorf("The lines are parallel")
	}

	x := (b2*c1 - b1*c2) / det
	y := (a1*c2 - a2*c1) / det
	return orb.Point{x, y}, nil
}

// offsetSegments returns every segment of the line shifted to the left by distance.
// Zero-length segments are skipped.
// Note: Euclidean space
func offsetSegments(line orb.LineString, distance float64) [][2]orb.Point {
	segments := make([][2]orb.Point, 0, len(line))
	for i := 1; i < len(line); i++ {
		p1 := line[i-1]
		p2 := line[i]

		vec := [2]float64{p2[0] - p1[0], p2[1] - p1[1]}
		vecLen := math.Sqrt(vec[0]*vec[0] + vec[1]*vec[1])
		if vecLen == 0 {
			continue
		}
		vec = [2]float64{vec[0] / vecLen, vec[1] / vecLen}

		// Rotate by 90 degrees and scale
		offset := [2]float64{-vec[1] * distance, vec[0] * distance}

		op1 := orb.Point{p1[0] + offset[0], p1[1] + offset[1]}
		op2 := orb.Point{p2[0] + offset[0], p2[1] + offset[1]}
		segments = append(segments, [2]orb.Point{op1, op2})
	}
	return segments
}

// segmentBuffers returns buffer of the line as a set of counter-clockwise rectangles, one per segment.
// Rectangles of adjacent segments overlap only in small wedges at joints.
// Note: Euclidean space
func segmentBuffers(line orb.LineString, distance float64) []orb.Ring {
	left := offsetSegments(line, distance)
	right := offsetSegments(line, -distance)
	buffers := make([]orb.Ring, 0, len(left))
	for i := range left {
		quad := orb.Ring{left[i][0], right[i][0], right[i][1], left[i][1], left[i][0]}
		if quad.Orientation() != orb.CCW {
			quad.Reverse()
		}
		buffers = append(buffers, quad)
	}
	return buffers
}

// sideOf returns positive value when p is on the left of directed line a->b
func sideOf(a, b, p orb.Point) float64 {
	return (b[0]-a[0])*(p[1]-a[1]) - (b[1]-a[1])*(p[0]-a[0])
}

// clipRingToConvex clips subject ring by convex counter-clockwise ring (Sutherland-Hodgman).
// Subject may be concave: area of the result is still the area of intersection.
func clipRingToConvex(subject orb.Ring, clip orb.Ring) orb.Ring {
	output := make([]orb.Point, 0, len(subject))
	output = append(output, subject...)
	if len(output) > 1 && output[0].Equal(output[len(output)-1]) {
		output = output[:len(output)-1]
	}
	for i := 0; i+1 < len(clip) && len(output) > 0; i++ {
		a, b := clip[i], clip[i+1]
		input := output
		output = make([]orb.Point, 0, len(input)+2)
		prev := input[len(input)-1]
		prevInside := sideOf(a, b, prev) >= 0
		for _, cur := range input {
			curInside := sideOf(a, b, cur) >= 0
			if curInside != prevInside {
				if crossing, err := intersect(prev, cur, a, b); err == nil {
					output = append(output, crossing)
				}
			}
			if curInside {
				output = append(output, cur)
			}
			prev, prevInside = cur, curInside
		}
	}
	if len(output) < 3 {
		return nil
	}
	return append(orb.Ring(output), output[0])
}

// polygonIntersectionArea returns area of intersection between polygon (holes respected)
// and convex counter-clockwise ring
func polygonIntersectionArea(polygon orb.Polygon, clip orb.Ring) float64 {
	area := 0.0
	for i, ring := range polygon {
		clipped := clipRingToConvex(ring, clip)
		if clipped == nil {
			continue
		}
		ringArea := math.Abs(planar.Area(clipped))
		if i == 0 {
			area += ringArea
		} else {
			area -= ringArea
		}
	}
	return math.Max(area, 0)
}
