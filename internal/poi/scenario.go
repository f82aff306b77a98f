package poi

import (
	"strings"

	"github.com/xmin-city/xmin/internal/category"
)

// Addition is a request-scoped ad-hoc POI.
type Addition struct {
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Category string  `json:"category"`
	Name     string  `json:"name,omitempty"`
}

// Edits is the scenario overlay for one request: POIs to add and ids to
// suppress. Never persisted.
type Edits struct {
	Add       []Addition `json:"user_pois,omitempty"`
	RemoveIDs []string   `json:"removed_poi_ids,omitempty"`
}

// Consolidate produces the effective POI set for the requested categories:
// cached POIs unioned with matching additions, minus removed ids. Requested
// categories are normalized against the rule set; unknown ones drop out
// without affecting the rest. Output order is deterministic: cached POIs in
// requested-category order, then additions in request order.
func Consolidate(cache *Cache, rules *category.RuleSet, requested []string, edits Edits) []POI {
	cats := rules.Normalize(requested)
	if len(cats) == 0 {
		return nil
	}

	wanted := make(map[string]bool, len(cats))
	for _, c := range cats {
		wanted[c] = true
	}
	removed := make(map[string]bool, len(edits.RemoveIDs))
	for _, id := range edits.RemoveIDs {
		removed[id] = true
	}

	var out []POI
	for _, cat := range cats {
		for _, p := range cache.Get(cat) {
			if !removed[p.ID] {
				out = append(out, p)
			}
		}
	}

	for i, a := range edits.Add {
		cat := strings.ToLower(strings.TrimSpace(a.Category))
		if !wanted[cat] {
			continue
		}
		p := POI{
			ID:       ScenarioID(i),
			Lat:      a.Lat,
			Lon:      a.Lon,
			Category: cat,
			Name:     a.Name,
		}
		if !removed[p.ID] {
			out = append(out, p)
		}
	}
	return out
}
