package overpass

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xmin-city/xmin/internal/category"
)

var testBBox = BBox{South: 51.0679, West: 6.9357, North: 51.3221, East: 7.4343}

func TestSelector_SingleValue(t *testing.T) {
	s := selector("railway", []string{"station"}, testBBox)

	assert.Contains(t, s, `node["railway"="station"](51.0679,6.9357,51.3221,7.4343);`)
	assert.Contains(t, s, `way["railway"="station"]`)
	assert.Contains(t, s, `relation["railway"="station"]`)
}

func TestSelector_MultiValueSortedRegex(t *testing.T) {
	s := selector("shop", []string{"supermarket", "convenience", "food"}, testBBox)
	assert.Contains(t, s, `node["shop"~"^(convenience|food|supermarket)$"]`)
}

func TestBuildQuery(t *testing.T) {
	rules := []category.Rule{
		{Category: "public_transport", Key: "amenity", Values: []string{"bus_station", "taxi"}},
		{Category: "public_transport", Key: "railway", Values: []string{"station"}},
	}

	q := BuildQuery(testBBox, rules, 60)

	assert.True(t, strings.HasPrefix(q, "[out:json][timeout:60];"))
	assert.True(t, strings.HasSuffix(q, "out center;"))
	assert.Contains(t, q, `node["amenity"~"^(bus_station|taxi)$"]`)
	assert.Contains(t, q, `way["railway"="station"]`)
}

func TestBuildQuery_Deterministic(t *testing.T) {
	rules := category.Default().RulesFor("supermarket")
	assert.Equal(t, BuildQuery(testBBox, rules, 60), BuildQuery(testBBox, rules, 60))
}
