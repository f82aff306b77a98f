package server

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/paulmach/orb/geojson"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/xmin-city/xmin/internal/access"
	"github.com/xmin-city/xmin/internal/config"
	"github.com/xmin-city/xmin/internal/grid"
	"github.com/xmin-city/xmin/internal/poi"
	"github.com/xmin-city/xmin/internal/proj"
	"github.com/xmin-city/xmin/internal/routing"
)

type isochroneRequest struct {
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	Mode      string  `json:"mode"`
	Threshold int     `json:"threshold"`
}

func (h *handlers) isochrone(w http.ResponseWriter, r *http.Request) {
	st, ok := h.state(w)
	if !ok {
		return
	}

	var req isochroneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	mode, ok := st.mode(req.Mode)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown mode: "+req.Mode)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), st.RoutingTimeout)
	defer cancel()

	geom, err := st.Routing.Isochrone(ctx, req.Lon, req.Lat, mode.Profile, req.Threshold)
	if err != nil {
		zap.L().Error("server: isochrone request failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "routing engine failure")
		return
	}

	f := geojson.NewFeature(geom)
	f.Properties = geojson.Properties{"travel_time": req.Threshold}
	writeJSON(w, http.StatusOK, f)
}

type poisRequest struct {
	BBox       []float64 `json:"bbox"` // south, west, north, east
	Categories []string  `json:"categories"`
}

func (h *handlers) pois(w http.ResponseWriter, r *http.Request) {
	st, ok := h.state(w)
	if !ok {
		return
	}

	var req poisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.BBox) != 4 {
		writeError(w, http.StatusBadRequest, "bbox must be [south,west,north,east]")
		return
	}

	cats := st.Rules.Normalize(req.Categories)
	south, west, north, east := req.BBox[0], req.BBox[1], req.BBox[2], req.BBox[3]

	out := make([]poi.POI, 0)
	for _, cat := range cats {
		for _, p := range st.POIs.Get(cat) {
			if p.Lat < south || p.Lat > north || p.Lon < west || p.Lon > east {
				continue
			}
			// The cache is validated at ingest, but rows are re-checked here
			// so one corrupt entry cannot poison the response.
			if math.IsNaN(p.Lat) || math.IsInf(p.Lat, 0) || math.IsNaN(p.Lon) || math.IsInf(p.Lon, 0) {
				zap.L().Warn("server: dropping cached poi with invalid coordinates",
					zap.String("category", cat),
					zap.String("id", p.ID),
					zap.Float64("raw_lat", p.Lat),
					zap.Float64("raw_lon", p.Lon),
				)
				continue
			}
			out = append(out, p)
		}
	}

	writeJSON(w, http.StatusOK, map[string][]poi.POI{"pois": out})
}

func (h *handlers) grid(w http.ResponseWriter, r *http.Request) {
	st, ok := h.state(w)
	if !ok {
		return
	}

	limit := st.GridLimitDefault
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit: "+raw)
			return
		}
		limit = min(n, st.GridLimitMax)
	}

	cells := st.Grid.All()
	if raw := r.URL.Query().Get("bbox"); raw != "" {
		box, err := parseBBox(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		cells, err = st.Grid.CellsInBBox(box[0], box[1], box[2], box[3])
		if err != nil {
			zap.L().Error("server: grid bbox query failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "grid query failed")
			return
		}
	}
	cells = grid.Cap(cells, limit)

	fc := geojson.NewFeatureCollection()
	for _, c := range cells {
		poly, err := grid.CellPolygonGeographic(c.X, c.Y, st.Grid.Half())
		if err != nil {
			zap.L().Error("server: render grid cell failed", zap.String("id", c.ID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "grid rendering failed")
			return
		}
		f := geojson.NewFeature(poly)
		f.Properties = geojson.Properties{"id": c.ID, "pop": nullableInt(c.Population)}
		fc.Append(f)
	}
	writeJSON(w, http.StatusOK, fc)
}

func (h *handlers) districts(w http.ResponseWriter, r *http.Request) {
	st, ok := h.state(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, st.Districts.FeatureCollection())
}

type cityscopeRequest struct {
	BBox           string         `json:"bbox"` // "minLon,minLat,maxLon,maxLat"
	Categories     []string       `json:"categories"`
	Mode           string         `json:"mode"`
	CurrentMinutes int            `json:"currentMinutes"`
	UserPOIs       []poi.Addition `json:"user_pois"`
	RemovedPOIIDs  []string       `json:"removed_poi_ids"`
}

func (h *handlers) cityscope(w http.ResponseWriter, r *http.Request) {
	st, ok := h.state(w)
	if !ok {
		return
	}

	var req cityscopeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// Unknown categories are filtered, not rejected; zero valid categories
	// means an empty result, not an error.
	cats := st.Rules.Normalize(req.Categories)
	if len(cats) == 0 {
		writeJSON(w, http.StatusOK, geojson.NewFeatureCollection())
		return
	}

	box, err := parseBBox(req.BBox)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	mode, ok := st.mode(req.Mode)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown mode: "+req.Mode)
		return
	}

	cells, err := st.Grid.CellsInBBox(box[0], box[1], box[2], box[3])
	if err != nil {
		zap.L().Error("server: cityscope cell query failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "grid query failed")
		return
	}
	if len(cells) == 0 {
		writeJSON(w, http.StatusOK, geojson.NewFeatureCollection())
		return
	}

	candidates := poi.Consolidate(st.POIs, st.Rules, cats, poi.Edits{
		Add:       req.UserPOIs,
		RemoveIDs: req.RemovedPOIIDs,
	})
	if len(candidates) == 0 {
		writeJSON(w, http.StatusOK, geojson.NewFeatureCollection())
		return
	}

	roi, err := access.BufferedROI(box[0], box[1], box[2], box[3],
		access.BufferDistance(mode.SpeedKmh, req.CurrentMinutes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid bbox coordinates")
		return
	}
	destsPOIs, err := access.FilterPOIs(candidates, roi)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid poi coordinates")
		return
	}
	if len(destsPOIs) == 0 {
		writeJSON(w, http.StatusOK, geojson.NewFeatureCollection())
		return
	}

	origins, err := originPoints(cells)
	if err != nil {
		zap.L().Error("server: cityscope origin transform failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "grid transform failed")
		return
	}

	destinations := make([]routing.Point, len(destsPOIs))
	categoryByID := make(map[string]string, len(destsPOIs))
	for i, p := range destsPOIs {
		destinations[i] = routing.Point{ID: p.ID, Lat: p.Lat, Lon: p.Lon}
		categoryByID[p.ID] = p.Category
	}

	ctx, cancel := context.WithTimeout(r.Context(), st.RoutingTimeout)
	defer cancel()

	obs, err := st.Routing.TravelTimeMatrix(ctx, origins, destinations, mode.Profile, st.Departure)
	if err != nil {
		zap.L().Error("server: travel time matrix failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "routing engine failure")
		return
	}

	times := access.Aggregate(obs, categoryByID)
	fc, err := access.AssembleFeatures(cells, times, cats, st.Grid.Half())
	if err != nil {
		zap.L().Error("server: assemble features failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "feature assembly failed")
		return
	}
	writeJSON(w, http.StatusOK, fc)
}

// mode resolves the requested travel mode, case-insensitively.
func (s *State) mode(raw string) (config.ModeConfig, bool) {
	m, ok := s.Modes[strings.ToLower(strings.TrimSpace(raw))]
	return m, ok
}

// parseBBox parses "minLon,minLat,maxLon,maxLat".
func parseBBox(raw string) ([4]float64, error) {
	var box [4]float64
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return box, eris.Errorf("invalid bbox format: %q", raw)
	}
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return box, eris.Errorf("invalid bbox format: %q", raw)
		}
		box[i] = v
	}
	return box, nil
}

func originPoints(cells []grid.Cell) ([]routing.Point, error) {
	origins := make([]routing.Point, len(cells))
	for i, c := range cells {
		lon, lat, err := proj.ToGeographic(c.X, c.Y)
		if err != nil {
			return nil, eris.Wrapf(err, "server: transform cell %s", c.ID)
		}
		origins[i] = routing.Point{ID: c.ID, Lat: lat, Lon: lon}
	}
	return origins, nil
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}
