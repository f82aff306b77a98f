package access

import (
	"math"

	"github.com/xmin-city/xmin/internal/routing"
)

// Aggregate reduces the sparse travel-time matrix to the minimum minutes per
// (origin id, category). Observations whose destination id has no known
// category are ignored, and non-finite minutes (the engine may emit
// infinities for unreachable pairs) are treated as absent rather than
// propagated.
func Aggregate(obs []routing.Observation, categoryByID map[string]string) map[string]map[string]float64 {
	min := make(map[string]map[string]float64)
	for _, o := range obs {
		cat, ok := categoryByID[o.ToID]
		if !ok {
			continue
		}
		if math.IsNaN(o.Minutes) || math.IsInf(o.Minutes, 0) {
			continue
		}

		byCat := min[o.FromID]
		if byCat == nil {
			byCat = make(map[string]float64)
			min[o.FromID] = byCat
		}
		if cur, ok := byCat[cat]; !ok || o.Minutes < cur {
			byCat[cat] = o.Minutes
		}
	}
	return min
}
