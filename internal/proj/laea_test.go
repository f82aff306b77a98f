package proj

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToPlanar_ProjectionCenter(t *testing.T) {
	// The projection center maps exactly onto the false origin.
	x, y, err := ToPlanar(10.0, 52.0)
	require.NoError(t, err)
	assert.InDelta(t, 4321000.0, x, 1e-6)
	assert.InDelta(t, 3210000.0, y, 1e-6)
}

func TestRoundTrip(t *testing.T) {
	// Sweep the service area (Rhineland and a generous margin).
	for lon := 4.0; lon <= 16.0; lon += 0.7 {
		for lat := 46.0; lat <= 57.0; lat += 0.7 {
			x, y, err := ToPlanar(lon, lat)
			require.NoError(t, err)

			lon2, lat2, err := ToGeographic(x, y)
			require.NoError(t, err)

			// 1e-9 degrees is well under a millimeter.
			assert.InDelta(t, lon, lon2, 1e-9, "lon at (%v,%v)", lon, lat)
			assert.InDelta(t, lat, lat2, 1e-9, "lat at (%v,%v)", lon, lat)
		}
	}
}

func TestToPlanar_Monotonic(t *testing.T) {
	x1, y1, err := ToPlanar(6.9, 51.1)
	require.NoError(t, err)
	x2, _, err := ToPlanar(7.4, 51.1)
	require.NoError(t, err)
	_, y3, err := ToPlanar(6.9, 51.3)
	require.NoError(t, err)

	assert.Greater(t, x2, x1, "x grows eastward")
	assert.Greater(t, y3, y1, "y grows northward")
}

func TestNonFiniteInput(t *testing.T) {
	_, _, err := ToPlanar(math.NaN(), 51.0)
	assert.Error(t, err)

	_, _, err = ToPlanar(7.0, math.Inf(1))
	assert.Error(t, err)

	_, _, err = ToGeographic(math.NaN(), 3210000)
	assert.Error(t, err)
}

func TestToPlanarBatch(t *testing.T) {
	xs, ys, err := ToPlanarBatch([]float64{10, 7}, []float64{52, 51})
	require.NoError(t, err)
	require.Len(t, xs, 2)
	require.Len(t, ys, 2)
	assert.InDelta(t, 4321000.0, xs[0], 1e-6)

	_, _, err = ToPlanarBatch([]float64{10}, []float64{52, 51})
	assert.Error(t, err)

	_, _, err = ToPlanarBatch([]float64{math.Inf(-1)}, []float64{52})
	assert.Error(t, err)
}
