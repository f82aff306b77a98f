package access

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xmin-city/xmin/internal/routing"
)

func TestAggregate_MinimumPerOriginCategory(t *testing.T) {
	obs := []routing.Observation{
		{FromID: "c1", ToID: "poiA", Minutes: 5},
		{FromID: "c1", ToID: "poiA", Minutes: 8},
		{FromID: "c1", ToID: "poiB", Minutes: 3},
		{FromID: "c2", ToID: "poiB", Minutes: 11},
	}
	cats := map[string]string{"poiA": "park", "poiB": "park"}

	got := Aggregate(obs, cats)
	require.Contains(t, got, "c1")
	assert.Equal(t, 3.0, got["c1"]["park"])
	assert.Equal(t, 11.0, got["c2"]["park"])
}

func TestAggregate_MultipleCategories(t *testing.T) {
	obs := []routing.Observation{
		{FromID: "c1", ToID: "p", Minutes: 7},
		{FromID: "c1", ToID: "s", Minutes: 4},
	}
	cats := map[string]string{"p": "park", "s": "supermarket"}

	got := Aggregate(obs, cats)
	assert.Equal(t, 7.0, got["c1"]["park"])
	assert.Equal(t, 4.0, got["c1"]["supermarket"])
}

func TestAggregate_NonFiniteNormalizedToAbsent(t *testing.T) {
	obs := []routing.Observation{
		{FromID: "c1", ToID: "p", Minutes: math.Inf(1)},
		{FromID: "c1", ToID: "q", Minutes: math.NaN()},
	}
	cats := map[string]string{"p": "park", "q": "park"}

	got := Aggregate(obs, cats)
	_, ok := got["c1"]["park"]
	assert.False(t, ok, "non-finite times never surface as values")
}

func TestAggregate_UnknownDestinationIgnored(t *testing.T) {
	obs := []routing.Observation{{FromID: "c1", ToID: "ghost", Minutes: 2}}
	got := Aggregate(obs, map[string]string{})
	assert.Empty(t, got)
}

func TestAggregate_Idempotent(t *testing.T) {
	obs := []routing.Observation{
		{FromID: "c1", ToID: "p", Minutes: 7},
		{FromID: "c2", ToID: "p", Minutes: 9},
	}
	cats := map[string]string{"p": "park"}

	first := Aggregate(obs, cats)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Aggregate(obs, cats))
	}
}
