package geocode

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const defaultGiscoURL = "https://gisco-services.ec.europa.eu/api"

// GiscoProvider geocodes via the Eurostat GISCO geocoding service, a
// photon instance covering the EU well.
type GiscoProvider struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// GiscoOption configures the GiscoProvider.
type GiscoOption func(*GiscoProvider)

// WithGiscoURL overrides the service URL.
func WithGiscoURL(u string) GiscoOption {
	return func(p *GiscoProvider) {
		if u != "" {
			p.baseURL = u
		}
	}
}

// WithGiscoHTTPClient sets a custom HTTP client.
func WithGiscoHTTPClient(hc *http.Client) GiscoOption {
	return func(p *GiscoProvider) {
		p.httpClient = hc
	}
}

// WithGiscoRateLimit sets the requests-per-second limit.
func WithGiscoRateLimit(rps float64) GiscoOption {
	return func(p *GiscoProvider) {
		if rps > 0 {
			p.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// NewGiscoProvider creates a GiscoProvider with the given options.
func NewGiscoProvider(opts ...GiscoOption) *GiscoProvider {
	p := &GiscoProvider{
		baseURL:    defaultGiscoURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(5, 5),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name implements Provider.
func (p *GiscoProvider) Name() string { return "gisco" }

// Available implements Provider.
func (p *GiscoProvider) Available() bool { return true }

// giscoResponse is the GeoJSON FeatureCollection returned by the service.
type giscoResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"` // [lon, lat]
		} `json:"geometry"`
		Properties struct {
			OSMKey   string `json:"osm_key"`
			OSMValue string `json:"osm_value"`
		} `json:"properties"`
	} `json:"features"`
}

// Geocode implements Provider.
func (p *GiscoProvider) Geocode(ctx context.Context, addr AddressInput) (*Result, error) {
	query := formatPlace(addr)
	if query == "" {
		return &Result{Matched: false, Source: p.Name()}, nil
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "geocode: gisco rate limit")
	}

	params := url.Values{
		"q":     {query},
		"limit": {"1"},
	}

	reqURL := p.baseURL + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: gisco build request")
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: gisco request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("geocode: gisco returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: gisco read body")
	}

	var giscoResp giscoResponse
	if err := json.Unmarshal(body, &giscoResp); err != nil {
		return nil, eris.Wrap(err, "geocode: gisco parse response")
	}

	if len(giscoResp.Features) == 0 {
		return &Result{Matched: false, Source: p.Name()}, nil
	}

	feature := giscoResp.Features[0]
	if len(feature.Geometry.Coordinates) < 2 {
		return &Result{Matched: false, Source: p.Name()}, nil
	}

	quality := "approximate"
	switch feature.Properties.OSMKey {
	case "building":
		quality = "rooftop"
	case "highway":
		quality = "range"
	case "place":
		quality = "centroid"
	}

	return &Result{
		Latitude:  feature.Geometry.Coordinates[1],
		Longitude: feature.Geometry.Coordinates[0],
		Source:    p.Name(),
		Quality:   quality,
		Matched:   true,
	}, nil
}
