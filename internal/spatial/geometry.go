package spatial

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Centroid calculates the arithmetic centroid of a set of points
func Centroid(points []Point) Point {
	if len(points) == 0 {
		return Point{}
	}

	var sumLat, sumLon float64
	for _, p := range points {
		sumLat += p.Lat
		sumLon += p.Lon
	}

	return Point{
		Lat: sumLat / float64(len(points)),
		Lon: sumLon / float64(len(points)),
	}
}

// AreaSquareMeters approximates the covered area of exterior-only polygons.
// Uses the same flat degree conversion as the buffers.
func AreaSquareMeters(polygons []orb.Polygon) float64 {
	var total float64
	for _, p := range polygons {
		if len(p) == 0 {
			continue
		}
		total += math.Abs(planar.Area(p[0]))
	}
	return total * MetersPerDegree * MetersPerDegree
}

// Covers reports whether any polygon exterior contains the point
func Covers(polygons []orb.Polygon, p Point) bool {
	pt := toOrb(p)
	for _, poly := range polygons {
		if len(poly) > 0 && planar.RingContains(poly[0], pt) {
			return true
		}
	}
	return false
}

// Exteriors strips interior rings from every polygon
func Exteriors(polygons []orb.Polygon) []orb.Polygon {
	out := make([]orb.Polygon, 0, len(polygons))
	for _, p := range polygons {
		if len(p) == 0 {
			continue
		}
		out = append(out, orb.Polygon{p[0]})
	}
	return out
}
