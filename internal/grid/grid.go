// Package grid holds the in-memory population grid: fixed-size square cells
// with planar centroids, loaded once at startup and read-only afterwards.
package grid

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"

	"github.com/xmin-city/xmin/internal/proj"
)

// Cell is one population grid cell. X/Y is the planar centroid in meters.
type Cell struct {
	ID         string
	X, Y       float64
	Population *int
	DistrictID *int
}

// Store is the immutable cell table.
type Store struct {
	cells []Cell
	half  float64
}

// NewStore wraps cells in a Store. cellSizeM is the cell edge length in meters.
func NewStore(cells []Cell, cellSizeM float64) *Store {
	return &Store{cells: cells, half: cellSizeM / 2}
}

// Len returns the number of cells.
func (s *Store) Len() int { return len(s.cells) }

// Half returns the cell half-width in meters.
func (s *Store) Half() float64 { return s.half }

// CellsInBBox returns every cell whose centroid falls inside the geographic
// bounding box, expanded by half a cell width on each side so partially
// overlapping cells are included. The box corners are transformed
// individually and enveloped: the planar frame is rotated relative to the
// geographic one, so transforming only two corners would clip the box.
func (s *Store) CellsInBBox(minLon, minLat, maxLon, maxLat float64) ([]Cell, error) {
	lons := []float64{minLon, maxLon, minLon, maxLon}
	lats := []float64{minLat, minLat, maxLat, maxLat}
	xs, ys, err := proj.ToPlanarBatch(lons, lats)
	if err != nil {
		return nil, eris.Wrap(err, "grid: transform bbox corners")
	}

	minX, maxX := envelope(xs)
	minY, maxY := envelope(ys)
	minX -= s.half
	maxX += s.half
	minY -= s.half
	maxY += s.half

	var out []Cell
	for _, c := range s.cells {
		if c.X >= minX && c.X <= maxX && c.Y >= minY && c.Y <= maxY {
			out = append(out, c)
		}
	}
	return out, nil
}

// All returns every cell in load order.
func (s *Store) All() []Cell { return s.cells }

// Cap truncates cells to at most limit entries, keeping input order so a
// capped result is deterministic.
func Cap(cells []Cell, limit int) []Cell {
	if limit > 0 && len(cells) > limit {
		return cells[:limit]
	}
	return cells
}

// CellRing builds the closed square ring around a planar centroid.
func CellRing(x, y, half float64) orb.Ring {
	return orb.Ring{
		{x - half, y - half},
		{x + half, y - half},
		{x + half, y + half},
		{x - half, y + half},
		{x - half, y - half},
	}
}

// CellPolygonGeographic derives the cell's boundary polygon in geographic
// coordinates, transforming each corner independently.
func CellPolygonGeographic(x, y, half float64) (orb.Polygon, error) {
	ring := CellRing(x, y, half)
	out := make(orb.Ring, len(ring))
	for i, p := range ring {
		lon, lat, err := proj.ToGeographic(p[0], p[1])
		if err != nil {
			return nil, eris.Wrapf(err, "grid: transform cell corner (%v, %v)", p[0], p[1])
		}
		out[i] = orb.Point{lon, lat}
	}
	return orb.Polygon{out}, nil
}

func envelope(vs []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range vs {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}
