package spatial

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointBuffer_RingShape(t *testing.T) {
	center := Point{Lat: 52.52, Lon: 13.405}

	poly, err := PointBuffer(center, 30, 8)
	require.NoError(t, err)
	require.Len(t, poly, 1)

	ring := poly[0]
	require.Len(t, ring, 4*8+1)
	assert.Equal(t, ring[0], ring[len(ring)-1])
	assert.Equal(t, orb.CCW, ring.Orientation())

	want := MetersToDegrees(30)
	for _, pt := range ring {
		assert.InDelta(t, want, math.Hypot(pt[0]-center.Lon, pt[1]-center.Lat), 1e-12)
	}
}

func TestPointBuffer_ResolutionControlsVertexCount(t *testing.T) {
	p := Point{Lat: 1, Lon: 1}

	coarse, err := PointBuffer(p, 10, 2)
	require.NoError(t, err)
	fine, err := PointBuffer(p, 10, 16)
	require.NoError(t, err)

	assert.Len(t, coarse[0], 9)
	assert.Len(t, fine[0], 65)
}

func TestPointBuffer_NotLatitudeCorrected(t *testing.T) {
	poly, err := PointBuffer(Point{Lat: 60, Lon: 10}, 100, 8)
	require.NoError(t, err)

	b := poly[0].Bound()
	assert.InDelta(t, b.Max[0]-b.Min[0], b.Max[1]-b.Min[1], 1e-12)
}

func TestPointBuffer_RejectsInvalidParameters(t *testing.T) {
	_, err := PointBuffer(Point{}, 0, 8)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = PointBuffer(Point{}, 10, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = PointBuffer(Point{Lat: math.NaN()}, 10, 8)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRouteBuffer_RequiresTwoPoints(t *testing.T) {
	_, err := RouteBuffer(nil, 10, 8)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = RouteBuffer([]Point{{Lat: 1, Lon: 1}}, 10, 8)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRouteBuffer_FollowsPath(t *testing.T) {
	path := []Point{
		{Lat: 0, Lon: 0},
		{Lat: 0.001, Lon: 0},
		{Lat: 0.001, Lon: 0.001},
	}

	poly, err := RouteBuffer(path, 10, 8)
	require.NoError(t, err)
	require.Len(t, poly, 1)
	assert.Equal(t, poly[0][0], poly[0][len(poly[0])-1])

	covered := []orb.Polygon{poly}
	for _, p := range path {
		assert.True(t, Covers(covered, p), "path vertex %v should be covered", p)
	}
	assert.True(t, Covers(covered, Point{Lat: 0.0005, Lon: 0}))
	assert.True(t, Covers(covered, Point{Lat: 0.001, Lon: 0.0005}))

	assert.False(t, Covers(covered, Point{Lat: 0.0005, Lon: MetersToDegrees(30)}))
	assert.False(t, Covers(covered, Point{Lat: 0.0005, Lon: 0.0005}))
}

func TestRouteBuffer_RepeatedPoints(t *testing.T) {
	p := Point{Lat: 10, Lon: 10}

	poly, err := RouteBuffer([]Point{p, p}, 10, 4)
	require.NoError(t, err)
	assert.True(t, Covers([]orb.Polygon{poly}, p))
}

func TestPointBuffer_ClampedNearPoleAndAntimeridian(t *testing.T) {
	p := Point{Lat: 89.9999, Lon: 179.9999}

	poly, err := PointBuffer(p, 30, 8)
	require.NoError(t, err)
	for _, pt := range poly[0] {
		assert.LessOrEqual(t, pt[1], 90.0)
		assert.LessOrEqual(t, pt[0], 180.0)
	}
	assert.True(t, Covers([]orb.Polygon{poly}, p))

	rect, ok := segmentRect(orb.Point{-179.9999, -89.9999}, orb.Point{-179.9999, -89.9995}, MetersToDegrees(30))
	require.True(t, ok)
	for _, pt := range rect {
		assert.GreaterOrEqual(t, pt[1], -90.0)
		assert.GreaterOrEqual(t, pt[0], -180.0)
	}
}
