// Package overpass fetches categorized POIs from an Overpass API endpoint.
package overpass

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xmin-city/xmin/internal/category"
)

// BBox is a geographic bounding box in Overpass order (south, west, north, east).
type BBox struct {
	South float64
	West  float64
	North float64
	East  float64
}

func (b BBox) String() string {
	return fmt.Sprintf("%v,%v,%v,%v", b.South, b.West, b.North, b.East)
}

// selector emits node/way/relation clauses for one tag filter. A single
// value uses an exact match, multiple values a sorted anchored regex so the
// query text is deterministic for a given rule.
func selector(key string, values []string, b BBox) string {
	var filter string
	if len(values) == 1 {
		filter = fmt.Sprintf("[%q=%q]", key, values[0])
	} else {
		sorted := make([]string, len(values))
		copy(sorted, values)
		sort.Strings(sorted)
		filter = fmt.Sprintf("[%q~%q]", key, "^("+strings.Join(sorted, "|")+")$")
	}

	var sb strings.Builder
	for _, kind := range []string{"node", "way", "relation"} {
		fmt.Fprintf(&sb, "%s%s(%s);\n", kind, filter, b)
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

// BuildQuery unions the selectors of all given rules within the bounding box.
// `out center` makes Overpass attach a representative coordinate to non-point
// geometries (ways, relations).
func BuildQuery(b BBox, rules []category.Rule, timeoutSecs int) string {
	parts := make([]string, 0, len(rules))
	for _, r := range rules {
		parts = append(parts, selector(r.Key, r.Values, b))
	}

	return fmt.Sprintf("[out:json][timeout:%d];\n(\n%s\n);\nout center;",
		timeoutSecs, strings.Join(parts, "\n"))
}
