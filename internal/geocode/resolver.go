package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/azielinski/notifyme/internal/models"
	"github.com/azielinski/notifyme/internal/observability"
)

// Resolver maps a (city, country) pair to geographic coordinates.
// Implementations report not-found instead of returning errors; the caller
// branches, never escalates.
type Resolver interface {
	Resolve(ctx context.Context, city, country string) (models.Coordinate, bool)
}

// OpenMeteoResolver resolves locations against the Open-Meteo geocoding API.
// A single bounded attempt per call; transport failures degrade to
// not-found so a dead upstream cannot stall a sweep.
type OpenMeteoResolver struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

type geocodeResponse struct {
	Results []struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"results"`
}

// NewOpenMeteoResolver creates a resolver for the given geocoding endpoint.
func NewOpenMeteoResolver(baseURL string, timeout time.Duration, logger *zap.Logger) *OpenMeteoResolver {
	return &OpenMeteoResolver{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger.Named("location_resolver"),
	}
}

// Resolve looks up coordinates for the pair. Empty city or country
// short-circuits to not-found without a network call.
func (r *OpenMeteoResolver) Resolve(ctx context.Context, city, country string) (models.Coordinate, bool) {
	if city == "" || country == "" {
		return models.Coordinate{}, false
	}

	req, err := r.buildRequest(ctx, city, country)
	if err != nil {
		observability.GeocodeCallsTotal.WithLabelValues("error").Inc()
		r.logger.Error("build geocode request", zap.String("city", city), zap.String("country", country), zap.Error(err))
		return models.Coordinate{}, false
	}

	resp, err := r.client.Do(req)
	if err != nil {
		observability.GeocodeCallsTotal.WithLabelValues("error").Inc()
		r.logger.Error("geocode request failed", zap.String("city", city), zap.String("country", country), zap.Error(err))
		return models.Coordinate{}, false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		observability.GeocodeCallsTotal.WithLabelValues("error").Inc()
		r.logger.Error("geocode upstream status", zap.Int("status", resp.StatusCode), zap.String("city", city), zap.String("country", country))
		return models.Coordinate{}, false
	}

	var payload geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		observability.GeocodeCallsTotal.WithLabelValues("error").Inc()
		r.logger.Error("parse geocode response", zap.String("city", city), zap.String("country", country), zap.Error(err))
		return models.Coordinate{}, false
	}

	if len(payload.Results) == 0 {
		observability.GeocodeCallsTotal.WithLabelValues("not_found").Inc()
		r.logger.Warn("location not found", zap.String("city", city), zap.String("country", country))
		return models.Coordinate{}, false
	}

	observability.GeocodeCallsTotal.WithLabelValues("success").Inc()
	return models.Coordinate{
		Latitude:  payload.Results[0].Latitude,
		Longitude: payload.Results[0].Longitude,
	}, true
}

func (r *OpenMeteoResolver) buildRequest(ctx context.Context, city, country string) (*http.Request, error) {
	baseURL, err := url.Parse(r.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid geocode URL: %w", err)
	}

	params := url.Values{}
	params.Set("name", fmt.Sprintf("%s, %s", city, country))
	params.Set("count", "1")
	params.Set("language", "en")
	params.Set("format", "json")
	baseURL.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}
