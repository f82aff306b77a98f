// Package poi holds the point-of-interest model, the startup-warmed category
// cache, and request-scoped scenario consolidation.
package poi

import "fmt"

// ID namespaces. Upstream elements and scenario additions must never collide,
// so each side carries its own prefix.
const (
	upstreamIDPrefix = "osm_"
	scenarioIDPrefix = "user_"
)

// POI is a categorized accessibility destination in geographic coordinates.
type POI struct {
	ID       string  `json:"id"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Category string  `json:"category"`
	Name     string  `json:"name,omitempty"`
}

// UpstreamID builds the cache id for an upstream element id.
func UpstreamID(id int64) string {
	return fmt.Sprintf("%s%d", upstreamIDPrefix, id)
}

// ScenarioID builds the synthesized id for the i-th scenario addition of a
// request. Deterministic so identical requests produce identical output.
func ScenarioID(i int) string {
	return fmt.Sprintf("%s%d", scenarioIDPrefix, i)
}
