package overpass

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xmin-city/xmin/internal/category"
	"github.com/xmin-city/xmin/internal/poi"
)

const elementsPayload = `{
  "elements": [
    {"type": "node", "id": 101, "lat": 51.1, "lon": 7.0, "tags": {"leisure": "park", "name": "Stadtpark"}},
    {"type": "way", "id": 202, "center": {"lat": 51.2, "lon": 7.1}, "tags": {"leisure": "garden"}},
    {"type": "node", "id": 303, "lat": 51.15, "lon": 7.05, "tags": {"amenity": "cafe"}},
    {"type": "node", "id": 404, "tags": {"leisure": "park"}},
    {"type": "node", "id": 505, "lat": "corrupt", "lon": 7.2, "tags": {"leisure": "park"}}
  ]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, category.Default(), testBBox, WithRateLimit(1000))
}

func TestFetchCategory(t *testing.T) {
	var gotQuery string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotQuery = r.PostFormValue("data")
		w.Write([]byte(elementsPayload)) //nolint:errcheck
	})

	pois, err := c.FetchCategory(context.Background(), "park")
	require.NoError(t, err)

	// 101 kept (node coordinates), 202 kept (center fallback), 303 discarded
	// (classifies as restaurant), 404 dropped (no coordinate), 505 dropped
	// (unparsable element).
	require.Len(t, pois, 2)
	assert.Equal(t, poi.POI{ID: "osm_101", Lat: 51.1, Lon: 7.0, Category: "park", Name: "Stadtpark"}, pois[0])
	assert.Equal(t, "osm_202", pois[1].ID)
	assert.Equal(t, 51.2, pois[1].Lat)

	assert.Contains(t, gotQuery, `["leisure"~`)
	assert.Contains(t, gotQuery, "out center;")
}

func TestFetchCategory_NonSuccessStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	})

	_, err := c.FetchCategory(context.Background(), "park")
	assert.Error(t, err)
}

func TestFetchCategory_UnknownCategory(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"elements": []}`)) //nolint:errcheck
	})

	_, err := c.FetchCategory(context.Background(), "bogus")
	assert.Error(t, err)
}

func TestFetchCategory_EmptyResult(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"elements": []}`)) //nolint:errcheck
	})

	pois, err := c.FetchCategory(context.Background(), "park")
	require.NoError(t, err)
	assert.Empty(t, pois)
}
