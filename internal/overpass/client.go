package overpass

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xmin-city/xmin/internal/category"
	"github.com/xmin-city/xmin/internal/poi"
)

const userAgent = "xmin/0.1"

// Client queries one Overpass endpoint for the POIs of a category within the
// configured city bounding box.
type Client struct {
	baseURL      string
	hc           *http.Client
	limiter      *rate.Limiter
	rules        *category.RuleSet
	bbox         BBox
	queryTimeout int
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

// WithRateLimit sets the requests-per-second limit toward the endpoint.
func WithRateLimit(rps float64) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(rps), 1) }
}

// WithQueryTimeout sets the server-side Overpass timeout in seconds.
func WithQueryTimeout(secs int) Option {
	return func(c *Client) { c.queryTimeout = secs }
}

// NewClient creates a client for the given endpoint, rule set and city bbox.
func NewClient(baseURL string, rules *category.RuleSet, bbox BBox, opts ...Option) *Client {
	c := &Client{
		baseURL:      baseURL,
		hc:           &http.Client{Timeout: 120 * time.Second},
		limiter:      rate.NewLimiter(1, 1),
		rules:        rules,
		bbox:         bbox,
		queryTimeout: 60,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type overpassResponse struct {
	Elements []json.RawMessage `json:"elements"`
}

type element struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    *float64          `json:"lat"`
	Lon    *float64          `json:"lon"`
	Center *struct {
		Lat *float64 `json:"lat"`
		Lon *float64 `json:"lon"`
	} `json:"center"`
	Tags map[string]string `json:"tags"`
}

// FetchCategory retrieves and classifies all POIs of one category. Elements
// the rule set assigns to a different category are discarded (the query's
// regex selectors can over-match), as are elements without a finite
// representative coordinate; the latter are logged with full context but do
// not fail the batch.
func (c *Client) FetchCategory(ctx context.Context, cat string) ([]poi.POI, error) {
	rules := c.rules.RulesFor(cat)
	if len(rules) == 0 {
		return nil, eris.Errorf("overpass: unknown category %q", cat)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "overpass: rate limit")
	}

	q := BuildQuery(c.bbox, rules, c.queryTimeout)
	form := url.Values{"data": {q}}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, eris.Wrap(err, "overpass: build request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "overpass: fetch %s", cat)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("overpass: fetch %s returned status %d", cat, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "overpass: read body")
	}

	var parsed overpassResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, eris.Wrapf(err, "overpass: parse response for %s", cat)
	}

	pois := make([]poi.POI, 0, len(parsed.Elements))
	for _, raw := range parsed.Elements {
		var el element
		if err := json.Unmarshal(raw, &el); err != nil {
			logBadElement(cat, raw, err)
			continue
		}

		matched, ok := c.rules.Classify(el.Tags)
		if !ok || matched != cat {
			continue
		}

		lat, lon := el.coordinate()
		if !finiteCoord(lat) || !finiteCoord(lon) {
			logInvalidCoordinate(cat, el)
			continue
		}

		pois = append(pois, poi.POI{
			ID:       poi.UpstreamID(el.ID),
			Lat:      *lat,
			Lon:      *lon,
			Category: matched,
			Name:     el.Tags["name"],
		})
	}
	return pois, nil
}

// coordinate resolves the representative point: direct lat/lon for nodes,
// the `center` pair for ways and relations.
func (el element) coordinate() (lat, lon *float64) {
	lat, lon = el.Lat, el.Lon
	if el.Center != nil {
		if lat == nil {
			lat = el.Center.Lat
		}
		if lon == nil {
			lon = el.Center.Lon
		}
	}
	return lat, lon
}

func finiteCoord(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}

func logBadElement(cat string, raw json.RawMessage, err error) {
	snippet := string(raw)
	if len(snippet) > 800 {
		snippet = snippet[:800]
	}
	zap.L().Warn("overpass: dropping unparsable element",
		zap.String("category", cat),
		zap.String("raw", snippet),
		zap.Error(err),
	)
}

func logInvalidCoordinate(cat string, el element) {
	tags, _ := json.Marshal(el.Tags)
	if len(tags) > 800 {
		tags = tags[:800]
	}
	zap.L().Warn("overpass: dropping element with invalid coordinate",
		zap.String("category", cat),
		zap.String("type", el.Type),
		zap.Int64("id", el.ID),
		zap.Any("raw_lat", el.Lat),
		zap.Any("raw_lon", el.Lon),
		zap.ByteString("tags", tags),
	)
}
