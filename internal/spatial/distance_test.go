package spatial

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistance_SamePointIsZero(t *testing.T) {
	p := Point{Lat: 52.52, Lon: 13.405}

	d, err := Distance(p, p)
	require.NoError(t, err)
	assert.Equal(t, 0.0, d)
}

func TestDistance_OneDegreeAlongMeridian(t *testing.T) {
	d, err := Distance(Point{Lat: 0, Lon: 0}, Point{Lat: 1, Lon: 0})
	require.NoError(t, err)

	// 2*pi*R/360 on a sphere of radius 6,371 km
	assert.InEpsilon(t, 111194.93, d, 0.001)
	// Close to the commonly quoted 111.32 km per degree
	assert.InEpsilon(t, 111320.0, d, 0.002)
}

func TestDistance_IsSymmetric(t *testing.T) {
	a := Point{Lat: 52.5200, Lon: 13.4050}
	b := Point{Lat: 52.5220, Lon: 13.4050}

	ab, err := Distance(a, b)
	require.NoError(t, err)
	ba, err := Distance(b, a)
	require.NoError(t, err)

	assert.Equal(t, ab, ba)
	assert.InDelta(t, 222.4, ab, 0.5)
}

func TestDistance_RejectsInvalidCoordinates(t *testing.T) {
	valid := Point{Lat: 10, Lon: 10}
	cases := map[string]Point{
		"nan latitude":        {Lat: math.NaN(), Lon: 0},
		"infinite longitude":  {Lat: 0, Lon: math.Inf(1)},
		"latitude too large":  {Lat: 90.5, Lon: 0},
		"longitude too small": {Lat: 0, Lon: -180.1},
	}

	for name, p := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Distance(valid, p)
			assert.ErrorIs(t, err, ErrInvalidInput)

			_, err = Distance(p, valid)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}
