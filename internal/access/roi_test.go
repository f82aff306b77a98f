package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xmin-city/xmin/internal/poi"
)

const (
	roiMinLon = 7.00
	roiMinLat = 51.10
	roiMaxLon = 7.10
	roiMaxLat = 51.20
)

func TestBufferDistance(t *testing.T) {
	assert.Equal(t, 1250.0, BufferDistance(5, 15), "walking 5 km/h for 15 min")
	assert.Equal(t, 4000.0, BufferDistance(16, 15), "cycling 16 km/h for 15 min")
	assert.Equal(t, 0.0, BufferDistance(5, 0))
}

func TestFilterPOIs_InsideAndOutside(t *testing.T) {
	roi, err := BufferedROI(roiMinLon, roiMinLat, roiMaxLon, roiMaxLat, 1000)
	require.NoError(t, err)

	pois := []poi.POI{
		{ID: "inside", Lat: 51.15, Lon: 7.05, Category: "park"},
		{ID: "near", Lat: 51.15, Lon: 7.11, Category: "park"},  // ~700m past the east edge
		{ID: "far", Lat: 51.15, Lon: 7.50, Category: "park"},   // ~28km away
	}

	kept, err := FilterPOIs(pois, roi)
	require.NoError(t, err)

	ids := make([]string, 0, len(kept))
	for _, p := range kept {
		ids = append(ids, p.ID)
	}
	assert.Contains(t, ids, "inside")
	assert.Contains(t, ids, "near")
	assert.NotContains(t, ids, "far")
}

func TestBufferedROI_MonotonicInMinutes(t *testing.T) {
	// Increasing the time budget must never shrink the retained set.
	pois := []poi.POI{
		{ID: "a", Lat: 51.15, Lon: 7.05},
		{ID: "b", Lat: 51.15, Lon: 7.12},
		{ID: "c", Lat: 51.15, Lon: 7.20},
		{ID: "d", Lat: 51.25, Lon: 7.05},
	}

	prev := -1
	for _, minutes := range []int{5, 10, 15, 30, 60} {
		roi, err := BufferedROI(roiMinLon, roiMinLat, roiMaxLon, roiMaxLat, BufferDistance(5, minutes))
		require.NoError(t, err)

		kept, err := FilterPOIs(pois, roi)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(kept), prev, "minutes=%d", minutes)
		prev = len(kept)
	}
}

func TestBufferedROI_RoundedCorner(t *testing.T) {
	// A point diagonally off a corner at distance ~1.4r lies outside the
	// rounded buffer but would be inside naive axis-aligned padding.
	roi, err := BufferedROI(roiMinLon, roiMinLat, roiMaxLon, roiMaxLat, 1000)
	require.NoError(t, err)
	require.Len(t, roi, 1)

	// Corner arcs are present: the ring has far more vertices than a
	// rectangle.
	assert.Greater(t, len(roi[0]), 30)

	padded, err := BufferedROI(roiMinLon, roiMinLat, roiMaxLon, roiMaxLat, 0)
	require.NoError(t, err)
	assert.Len(t, padded[0], 5, "zero buffer keeps the plain rectangle")
}
