// Package routing talks to the external multimodal routing engine. The engine
// is an opaque collaborator: given origin and destination point sets it
// returns a sparse travel-time matrix, and for a single origin an isochrone
// polygon for a time threshold.
package routing

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rotisserie/eris"
)

// Point is an id-bearing geographic point.
type Point struct {
	ID  string  `json:"id"`
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Observation is one sparse travel-time matrix entry.
type Observation struct {
	FromID  string  `json:"from_id"`
	ToID    string  `json:"to_id"`
	Minutes float64 `json:"minutes"`
}

// Client is the routing engine contract.
type Client interface {
	// TravelTimeMatrix computes travel times from every origin to every
	// destination for one profile. Unreachable pairs may be missing from the
	// result or carry non-finite minutes.
	TravelTimeMatrix(ctx context.Context, origins, destinations []Point, profile string, departure time.Time) ([]Observation, error)

	// Isochrone returns the polygon reachable from a point within the
	// threshold, in geographic coordinates.
	Isochrone(ctx context.Context, lon, lat float64, profile string, thresholdMinutes int) (orb.Geometry, error)
}

type httpClient struct {
	baseURL string
	hc      *http.Client
}

// Option configures the HTTP client.
type Option func(*httpClient)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.hc = hc }
}

// NewClient creates an HTTP routing client against the given base URL.
func NewClient(baseURL string, opts ...Option) Client {
	c := &httpClient{
		baseURL: baseURL,
		hc:      &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type matrixRequest struct {
	Origins      []Point `json:"origins"`
	Destinations []Point `json:"destinations"`
	Profile      string  `json:"profile"`
	Departure    string  `json:"departure"`
}

type matrixResponse struct {
	TravelTimes []Observation `json:"travel_times"`
}

func (c *httpClient) TravelTimeMatrix(ctx context.Context, origins, destinations []Point, profile string, departure time.Time) ([]Observation, error) {
	req := matrixRequest{
		Origins:      origins,
		Destinations: destinations,
		Profile:      profile,
		Departure:    departure.Format(time.RFC3339),
	}

	var resp matrixResponse
	if err := c.post(ctx, "/matrix", req, &resp); err != nil {
		return nil, err
	}
	return resp.TravelTimes, nil
}

type isochroneRequest struct {
	Lat              float64 `json:"lat"`
	Lon              float64 `json:"lon"`
	Profile          string  `json:"profile"`
	ThresholdMinutes int     `json:"threshold_minutes"`
}

func (c *httpClient) Isochrone(ctx context.Context, lon, lat float64, profile string, thresholdMinutes int) (orb.Geometry, error) {
	req := isochroneRequest{Lat: lat, Lon: lon, Profile: profile, ThresholdMinutes: thresholdMinutes}

	var geom geojson.Geometry
	if err := c.post(ctx, "/isochrone", req, &geom); err != nil {
		return nil, err
	}
	return geom.Geometry(), nil
}

func (c *httpClient) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return eris.Wrapf(err, "routing: marshal %s request", path)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return eris.Wrapf(err, "routing: build %s request", path)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return eris.Wrapf(err, "routing: %s request", path)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("routing: %s returned status %d", path, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrapf(err, "routing: read %s response", path)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return eris.Wrapf(err, "routing: parse %s response", path)
	}
	return nil
}
