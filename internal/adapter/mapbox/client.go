package mapbox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/crisislens-service/internal/domain"
	"github.com/couchcryptid/crisislens-service/internal/observability"
)

const (
	collaborator = "mapbox"

	defaultBaseURL      = "https://api.mapbox.com/geocoding/v5/mapbox.places"
	defaultMinRelevance = 0.5

	// Includes neighbourhoods and districts so localities such as Adyar resolve.
	placeTypes = "place,locality,neighborhood,district"
)

// Option configures a Client.
type Option func(*Client)

// WithCountry restricts results to the given ISO 3166-1 alpha-2 codes,
// comma separated (e.g. "in").
func WithCountry(codes string) Option {
	return func(c *Client) { c.country = strings.ToLower(strings.TrimSpace(codes)) }
}

// WithMinRelevance drops features the provider scores below min.
func WithMinRelevance(minRelevance float64) Option {
	return func(c *Client) { c.minRelevance = minRelevance }
}

// Client implements domain.Geocoder using the Mapbox Geocoding API.
type Client struct {
	token        string
	httpClient   *http.Client
	baseURL      string
	country      string
	minRelevance float64
	metrics      *observability.Metrics
	logger       *slog.Logger
}

// NewClient creates a Mapbox geocoding client.
func NewClient(token string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		token:        token,
		httpClient:   &http.Client{Timeout: timeout},
		baseURL:      defaultBaseURL,
		minRelevance: defaultMinRelevance,
		metrics:      metrics,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ForwardGeocode converts a place name and optional region to coordinates.
// An unknown place, or one matched below the relevance floor, yields an empty
// result and no error.
func (c *Client) ForwardGeocode(ctx context.Context, name, region string) (domain.GeocodingResult, error) {
	query := name
	if region != "" {
		query = name + ", " + region
	}

	start := time.Now()
	features, err := c.search(ctx, query)
	c.metrics.ObserveCollaborator(collaborator, time.Since(start), err)
	if err != nil {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return domain.GeocodingResult{}, fmt.Errorf("forward geocode %q: %w: %w", query, domain.ErrCollaboratorUnavailable, err)
	}

	for _, f := range features {
		if f.Relevance < c.minRelevance || len(f.Center) != 2 {
			continue
		}
		c.metrics.GeocodeRequests.WithLabelValues("success").Inc()
		return f.result(), nil
	}

	c.metrics.GeocodeRequests.WithLabelValues("empty").Inc()
	c.logger.Debug("no relevant mapbox feature", "query", query, "features", len(features))
	return domain.GeocodingResult{}, nil
}

func (c *Client) search(ctx context.Context, query string) ([]feature, error) {
	params := url.Values{
		"access_token": {c.token},
		"limit":        {"1"},
		"types":        {placeTypes},
	}
	if c.country != "" {
		params.Set("country", c.country)
	}
	endpoint := fmt.Sprintf("%s/%s.json?%s", c.baseURL, url.PathEscape(query), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("mapbox API error: status %d: %s", resp.StatusCode, body)
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return out.Features, nil
}

// Mapbox API response types.

type response struct {
	Features []feature `json:"features"`
}

type feature struct {
	Center    []float64      `json:"center"` // [lon, lat]
	PlaceName string         `json:"place_name"`
	Text      string         `json:"text"`
	Relevance float64        `json:"relevance"`
	Context   []placeContext `json:"context"`
}

// placeContext is one enclosing area of a feature, e.g. "region.123" / "Tamil Nadu".
type placeContext struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

func (f feature) result() domain.GeocodingResult {
	r := domain.GeocodingResult{
		Lon:              f.Center[0],
		Lat:              f.Center[1],
		FormattedAddress: f.PlaceName,
		PlaceName:        f.Text,
		Confidence:       f.Relevance,
	}
	for _, pc := range f.Context {
		kind, _, _ := strings.Cut(pc.ID, ".")
		switch kind {
		case "region":
			r.Region = pc.Text
		case "country":
			r.Country = pc.Text
		}
	}
	return r
}
