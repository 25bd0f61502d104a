package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/azielinski/notifyme/internal/models"
	"github.com/azielinski/notifyme/internal/observability"
)

// Client fetches forecast series for given coordinates. Implementations
// return an empty series on any failure; callers treat empty as
// no-data-available, not as an error.
type Client interface {
	FetchDaily(ctx context.Context, lat, lon float64) []models.DayMeasurement
	FetchHourly(ctx context.Context, lat, lon float64) []models.HourMeasurement
}

// OpenMeteoClient fetches forecasts from the Open-Meteo API. Single
// best-effort attempt per call, no retry and no backoff; a failing upstream
// degrades to empty series which the manager caches for the rest of the day.
type OpenMeteoClient struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// hourlyColumns is the column-oriented hourly payload: parallel arrays
// indexed by position, one entry per hour.
type hourlyColumns struct {
	Hourly struct {
		Time                     []string  `json:"time"`
		Temperature              []float64 `json:"temperature_2m"`
		Humidity                 []float64 `json:"relativehumidity_2m"`
		Precipitation            []float64 `json:"precipitation"`
		PrecipitationProbability []float64 `json:"precipitation_probability"`
	} `json:"hourly"`
}

type dailyColumns struct {
	Daily struct {
		Time                     []string  `json:"time"`
		TemperatureMin           []float64 `json:"temperature_2m_min"`
		TemperatureMax           []float64 `json:"temperature_2m_max"`
		PrecipitationSum         []float64 `json:"precipitation_sum"`
		PrecipitationProbability []float64 `json:"precipitation_probability_max"`
	} `json:"daily"`
}

// NewOpenMeteoClient creates a forecast client for the given endpoint.
func NewOpenMeteoClient(baseURL string, timeout time.Duration, logger *zap.Logger) *OpenMeteoClient {
	return &OpenMeteoClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger.Named("weather_provider"),
	}
}

// FetchDaily retrieves the default multi-day daily window for the coordinates.
func (c *OpenMeteoClient) FetchDaily(ctx context.Context, lat, lon float64) []models.DayMeasurement {
	body, ok := c.call(ctx, "daily", lat, lon, url.Values{
		"daily":    {"temperature_2m_max,temperature_2m_min,precipitation_sum,precipitation_probability_max"},
		"timezone": {"auto"},
	})
	if !ok {
		return nil
	}

	var payload dailyColumns
	if err := json.Unmarshal(body, &payload); err != nil {
		observability.ForecastCallsTotal.WithLabelValues("daily", "error").Inc()
		c.logger.Error("parse daily response", zap.Float64("lat", lat), zap.Float64("lon", lon), zap.Error(err))
		return nil
	}

	d := payload.Daily
	// Positional zip; mismatched column lengths truncate to the shortest.
	n := minLen(len(d.Time), len(d.TemperatureMin), len(d.TemperatureMax), len(d.PrecipitationSum), len(d.PrecipitationProbability))
	measurements := make([]models.DayMeasurement, 0, n)
	for i := 0; i < n; i++ {
		measurements = append(measurements, models.DayMeasurement{
			Date: d.Time[i],
			Temperature: models.TemperatureRange{
				Min: d.TemperatureMin[i],
				Max: d.TemperatureMax[i],
			},
			Precipitation:            d.PrecipitationSum[i],
			PrecipitationProbability: d.PrecipitationProbability[i],
		})
	}
	return measurements
}

// FetchHourly retrieves a 1-day hourly window for the coordinates.
func (c *OpenMeteoClient) FetchHourly(ctx context.Context, lat, lon float64) []models.HourMeasurement {
	body, ok := c.call(ctx, "hourly", lat, lon, url.Values{
		"hourly":        {"temperature_2m,relativehumidity_2m,precipitation,precipitation_probability"},
		"timezone":      {"auto"},
		"forecast_days": {"1"},
	})
	if !ok {
		return nil
	}

	var payload hourlyColumns
	if err := json.Unmarshal(body, &payload); err != nil {
		observability.ForecastCallsTotal.WithLabelValues("hourly", "error").Inc()
		c.logger.Error("parse hourly response", zap.Float64("lat", lat), zap.Float64("lon", lon), zap.Error(err))
		return nil
	}

	h := payload.Hourly
	n := minLen(len(h.Time), len(h.Temperature), len(h.Humidity), len(h.Precipitation), len(h.PrecipitationProbability))
	measurements := make([]models.HourMeasurement, 0, n)
	for i := 0; i < n; i++ {
		measurements = append(measurements, models.HourMeasurement{
			Date:                     h.Time[i],
			Temperature:              h.Temperature[i],
			Humidity:                 h.Humidity[i],
			Precipitation:            h.Precipitation[i],
			PrecipitationProbability: h.PrecipitationProbability[i],
		})
	}
	return measurements
}

// call performs the single upstream attempt and returns the raw body.
// All failure modes log and report !ok.
func (c *OpenMeteoClient) call(ctx context.Context, window string, lat, lon float64, params url.Values) ([]byte, bool) {
	start := time.Now()

	req, err := c.buildRequest(ctx, lat, lon, params)
	if err != nil {
		observability.ForecastCallsTotal.WithLabelValues(window, "error").Inc()
		c.logger.Error("build forecast request", zap.String("window", window), zap.Error(err))
		return nil, false
	}

	c.logger.Debug("fetching forecast", zap.String("window", window), zap.Float64("lat", lat), zap.Float64("lon", lon), zap.String("url", req.URL.String()))

	resp, err := c.client.Do(req)
	if err != nil {
		observability.ForecastCallsTotal.WithLabelValues(window, "error").Inc()
		c.logger.Error("forecast request failed", zap.String("window", window), zap.Float64("lat", lat), zap.Float64("lon", lon), zap.Error(err))
		return nil, false
	}
	defer resp.Body.Close()

	observability.ForecastCallDuration.WithLabelValues(window).Observe(time.Since(start).Seconds())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		observability.ForecastCallsTotal.WithLabelValues(window, "error").Inc()
		c.logger.Error("forecast upstream status", zap.String("window", window), zap.Int("status", resp.StatusCode))
		return nil, false
	}

	buf, err := io.ReadAll(resp.Body)
	if err != nil {
		observability.ForecastCallsTotal.WithLabelValues(window, "error").Inc()
		c.logger.Error("read forecast response", zap.String("window", window), zap.Error(err))
		return nil, false
	}

	observability.ForecastCallsTotal.WithLabelValues(window, "success").Inc()
	return buf, true
}

func (c *OpenMeteoClient) buildRequest(ctx context.Context, lat, lon float64, params url.Values) (*http.Request, error) {
	baseURL, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid forecast URL: %w", err)
	}

	params.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	baseURL.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func minLen(first int, rest ...int) int {
	n := first
	for _, l := range rest {
		if l < n {
			n = l
		}
	}
	return n
}
