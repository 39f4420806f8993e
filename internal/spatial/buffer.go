package spatial

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// MetersPerDegree is the flat conversion used for every buffer radius.
// It is the equatorial value and is not corrected for latitude, so east-west
// extents shrink in meters away from the equator. Stored geometries depend on
// it staying fixed.
const MetersPerDegree = 111111.0

// MetersToDegrees converts a distance in meters to a degree offset
func MetersToDegrees(meters float64) float64 {
	return meters / MetersPerDegree
}

// PointBuffer builds a circular polygon around a point.
// resolution is the number of segments per quarter circle.
func PointBuffer(p Point, radius float64, resolution int) (orb.Polygon, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := validateBuffer(radius, resolution); err != nil {
		return nil, err
	}
	return orb.Polygon{circleRing(toOrb(p), MetersToDegrees(radius), resolution)}, nil
}

// BufferPoints builds one circular buffer per point, in input order
func BufferPoints(points []Point, radius float64, resolution int) ([]orb.Polygon, error) {
	buffers := make([]orb.Polygon, 0, len(points))
	for i, p := range points {
		buf, err := PointBuffer(p, radius, resolution)
		if err != nil {
			return nil, fmt.Errorf("point %d: %w", i, err)
		}
		buffers = append(buffers, buf)
	}
	return buffers, nil
}

// RouteBuffer builds a ribbon polygon of halfWidth meters along an ordered path.
// Joins and end caps are round, approximated with resolution segments per quarter circle.
func RouteBuffer(points []Point, halfWidth float64, resolution int) (orb.Polygon, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("%w: route buffer needs at least 2 points, got %d", ErrInvalidInput, len(points))
	}
	if err := ValidatePoints(points); err != nil {
		return nil, err
	}
	if err := validateBuffer(halfWidth, resolution); err != nil {
		return nil, err
	}

	w := MetersToDegrees(halfWidth)
	pieces := make([]orb.Polygon, 0, 2*len(points))
	for i, p := range points {
		c := toOrb(p)
		if i > 0 {
			if rect, ok := segmentRect(toOrb(points[i-1]), c, w); ok {
				pieces = append(pieces, orb.Polygon{rect})
			}
		}
		pieces = append(pieces, orb.Polygon{circleRing(c, w, resolution)})
	}

	merged, err := Union(pieces)
	if err != nil {
		return nil, fmt.Errorf("failed to merge route pieces: %w", err)
	}

	// A connected path always merges into one component; keep the largest if
	// numerical noise splits off slivers.
	components := merged.Components()
	best := components[0]
	bestArea := math.Abs(planar.Area(best))
	for _, c := range components[1:] {
		if a := math.Abs(planar.Area(c)); a > bestArea {
			best, bestArea = c, a
		}
	}
	return best, nil
}

func validateBuffer(radius float64, resolution int) error {
	if math.IsNaN(radius) || math.IsInf(radius, 0) || radius <= 0 {
		return fmt.Errorf("%w: buffer radius must be positive, got %v", ErrInvalidInput, radius)
	}
	if resolution < 1 {
		return fmt.Errorf("%w: buffer resolution must be at least 1, got %d", ErrInvalidInput, resolution)
	}
	return nil
}

// circleRing returns a closed counter-clockwise ring of 4*resolution vertices.
// Vertices start half a step off the axes so they never coincide with the
// corners of axis-aligned segment rectangles.
func circleRing(center orb.Point, r float64, resolution int) orb.Ring {
	n := 4 * resolution
	ring := make(orb.Ring, 0, n+1)
	for i := 0; i < n; i++ {
		angle := 2 * math.Pi * (float64(i) + 0.5) / float64(n)
		ring = append(ring, clampToWorld(orb.Point{
			center[0] + r*math.Cos(angle),
			center[1] + r*math.Sin(angle),
		}))
	}
	return append(ring, ring[0])
}

// segmentRect returns the rectangle of half-width w around segment a-b
func segmentRect(a, b orb.Point, w float64) (orb.Ring, bool) {
	dx, dy := b[0]-a[0], b[1]-a[1]
	length := math.Hypot(dx, dy)
	if length == 0 {
		return nil, false
	}
	nx, ny := -dy/length*w, dx/length*w

	ring := orb.Ring{
		{a[0] + nx, a[1] + ny},
		{a[0] - nx, a[1] - ny},
		{b[0] - nx, b[1] - ny},
		{b[0] + nx, b[1] + ny},
		{a[0] + nx, a[1] + ny},
	}
	for i := range ring {
		ring[i] = clampToWorld(ring[i])
	}
	return ring, true
}

// clampToWorld pins a vertex to the valid coordinate range. Buffers around
// points near a pole or the antimeridian get flattened on that side instead of
// wrapping.
func clampToWorld(pt orb.Point) orb.Point {
	return orb.Point{
		math.Max(-180, math.Min(180, pt[0])),
		math.Max(-90, math.Min(90, pt[1])),
	}
}

func toOrb(p Point) orb.Point {
	return orb.Point{p.Lon, p.Lat}
}
