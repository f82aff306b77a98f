package access

import (
	"github.com/paulmach/orb/geojson"
	"github.com/rotisserie/eris"

	"github.com/xmin-city/xmin/internal/grid"
)

// AssembleFeatures joins the aggregated times back onto the queried cells
// (left join: every cell is represented even without travel-time data) and
// renders each cell's boundary in geographic coordinates. Every feature
// carries the same flat property set: id, pop, district_id, and one
// tt_<category> key per requested category, null when no POI of that category
// was reachable.
func AssembleFeatures(cells []grid.Cell, times map[string]map[string]float64, categories []string, half float64) (*geojson.FeatureCollection, error) {
	fc := geojson.NewFeatureCollection()

	for _, c := range cells {
		poly, err := grid.CellPolygonGeographic(c.X, c.Y, half)
		if err != nil {
			return nil, eris.Wrapf(err, "access: render cell %s", c.ID)
		}

		f := geojson.NewFeature(poly)
		f.Properties = geojson.Properties{
			"id":          c.ID,
			"pop":         nullableInt(c.Population),
			"district_id": nullableInt(c.DistrictID),
		}

		byCat := times[c.ID]
		for _, cat := range categories {
			key := "tt_" + cat
			if v, ok := byCat[cat]; ok {
				f.Properties[key] = v
			} else {
				f.Properties[key] = nil
			}
		}

		fc.Append(f)
	}
	return fc, nil
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}
