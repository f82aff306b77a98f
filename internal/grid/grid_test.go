package grid

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xmin-city/xmin/internal/proj"
)

const (
	bboxMinLon = 7.00
	bboxMinLat = 51.10
	bboxMaxLon = 7.10
	bboxMaxLat = 51.20
)

func planar(t *testing.T, lon, lat float64) (float64, float64) {
	t.Helper()
	x, y, err := proj.ToPlanar(lon, lat)
	require.NoError(t, err)
	return x, y
}

func TestCellsInBBox(t *testing.T) {
	insideX, insideY := planar(t, 7.05, 51.15)
	farX, farY := planar(t, 7.60, 51.15)

	// A centroid up to half a cell width outside the transformed envelope
	// must still be returned.
	edgeX, edgeY := planar(t, bboxMaxLon, 51.15)
	nearX := edgeX + 49.0 // half width is 50m for a 100m cell

	store := NewStore([]Cell{
		{ID: "inside", X: insideX, Y: insideY},
		{ID: "near-edge", X: nearX, Y: edgeY},
		{ID: "far", X: farX, Y: farY},
	}, 100.0)

	cells, err := store.CellsInBBox(bboxMinLon, bboxMinLat, bboxMaxLon, bboxMaxLat)
	require.NoError(t, err)

	ids := make([]string, 0, len(cells))
	for _, c := range cells {
		ids = append(ids, c.ID)
	}
	assert.Contains(t, ids, "inside")
	assert.Contains(t, ids, "near-edge")
	assert.NotContains(t, ids, "far")
}

func TestCellsInBBox_BeyondHalfWidthExcluded(t *testing.T) {
	edgeX, edgeY := planar(t, bboxMaxLon, 51.15)

	store := NewStore([]Cell{
		{ID: "too-far", X: edgeX + 200.0, Y: edgeY},
	}, 100.0)

	cells, err := store.CellsInBBox(bboxMinLon, bboxMinLat, bboxMaxLon, bboxMaxLat)
	require.NoError(t, err)
	assert.Empty(t, cells)
}

func TestCap_Deterministic(t *testing.T) {
	var cells []Cell
	for i := 0; i < 10; i++ {
		cells = append(cells, Cell{ID: fmt.Sprintf("c%d", i)})
	}

	capped := Cap(cells, 3)
	require.Len(t, capped, 3)
	assert.Equal(t, "c0", capped[0].ID)
	assert.Equal(t, "c2", capped[2].ID)

	assert.Len(t, Cap(cells, 0), 10)
	assert.Len(t, Cap(cells, 100), 10)
}

func TestCellPolygonGeographic_ClosedRing(t *testing.T) {
	x, y := planar(t, 7.05, 51.15)

	poly, err := CellPolygonGeographic(x, y, 50.0)
	require.NoError(t, err)
	require.Len(t, poly, 1)

	ring := poly[0]
	require.Len(t, ring, 5)
	assert.Equal(t, ring[0], ring[4], "ring must be closed")

	// Every corner sits within ~100m of the centroid's geographic image.
	for _, p := range ring {
		assert.InDelta(t, 7.05, p[0], 0.01)
		assert.InDelta(t, 51.15, p[1], 0.01)
	}
}
