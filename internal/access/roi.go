// Package access implements the accessibility aggregation pipeline: bounding
// the destination set around the query region, reducing the routing engine's
// sparse travel-time matrix to a nearest-POI time per category, and joining
// the result back onto grid cells as GeoJSON features.
package access

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/rotisserie/eris"

	"github.com/xmin-city/xmin/internal/poi"
	"github.com/xmin-city/xmin/internal/proj"
)

// arcSegments controls how finely the buffer's corner arcs are tessellated.
const arcSegments = 8

// BufferDistance converts a travel budget to meters at the given speed.
func BufferDistance(speedKmh float64, minutes int) float64 {
	return speedKmh * (float64(minutes) / 60.0) * 1000.0
}

// BufferedROI builds the query rectangle in the planar frame, grown by a true
// geometric buffer: offset edges joined by quarter-circle corner arcs. The
// corners are transformed individually before enveloping.
func BufferedROI(minLon, minLat, maxLon, maxLat, bufferM float64) (orb.Polygon, error) {
	xs, ys, err := proj.ToPlanarBatch(
		[]float64{minLon, maxLon, minLon, maxLon},
		[]float64{minLat, minLat, maxLat, maxLat},
	)
	if err != nil {
		return nil, eris.Wrap(err, "access: transform roi corners")
	}

	minX, maxX := minMax(xs)
	minY, maxY := minMax(ys)

	if bufferM <= 0 {
		return orb.Polygon{orb.Ring{
			{minX, minY}, {maxX, minY}, {maxX, maxY}, {minX, maxY}, {minX, minY},
		}}, nil
	}

	// Four corner arcs traversed counterclockwise; the straight edges fall
	// out as the chords between consecutive arcs.
	r := bufferM
	var ring orb.Ring
	ring = append(ring, arc(maxX, minY, r, -math.Pi/2)...)
	ring = append(ring, arc(maxX, maxY, r, 0)...)
	ring = append(ring, arc(minX, maxY, r, math.Pi/2)...)
	ring = append(ring, arc(minX, minY, r, math.Pi)...)
	ring = append(ring, ring[0])

	return orb.Polygon{ring}, nil
}

// arc tessellates a quarter circle around (cx, cy) starting at angle `from`,
// sweeping counterclockwise, both endpoints included.
func arc(cx, cy, r, from float64) []orb.Point {
	pts := make([]orb.Point, 0, arcSegments+1)
	for i := 0; i <= arcSegments; i++ {
		a := from + (math.Pi/2)*(float64(i)/float64(arcSegments))
		pts = append(pts, orb.Point{cx + r*math.Cos(a), cy + r*math.Sin(a)})
	}
	return pts
}

// FilterPOIs keeps the candidates whose planar image lies inside the buffered
// ROI. The retained POIs keep their geographic coordinates for the routing
// engine. The filter is a superset bound: it must never exclude a POI that is
// genuinely reachable within the budget, only shed clearly unreachable ones.
func FilterPOIs(pois []poi.POI, roi orb.Polygon) ([]poi.POI, error) {
	out := make([]poi.POI, 0, len(pois))
	for _, p := range pois {
		x, y, err := proj.ToPlanar(p.Lon, p.Lat)
		if err != nil {
			return nil, eris.Wrapf(err, "access: transform poi %s", p.ID)
		}
		if planar.PolygonContains(roi, orb.Point{x, y}) {
			out = append(out, p)
		}
	}
	return out, nil
}

func minMax(vs []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range vs {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}
