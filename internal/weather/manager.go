package weather

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/azielinski/notifyme/internal/cache"
	"github.com/azielinski/notifyme/internal/geocode"
	"github.com/azielinski/notifyme/internal/models"
	"github.com/azielinski/notifyme/internal/observability"
	"github.com/azielinski/notifyme/internal/provider"
)

// ErrLocationNotFound reports that the resolver could not map the
// (city, country) pair to coordinates.
var ErrLocationNotFound = errors.New("location not found")

// Manager orchestrates weather retrieval through a day-bucketed
// read-through cache: cache hit returns immediately, a miss resolves the
// location, fetches from the provider and populates the cache.
//
// The read-then-write sequence is not transactional and carries no
// single-flight deduplication; sweeps are sequential and frequency is part
// of the cache key, so concurrent misses on one key do not occur here.
type Manager struct {
	provider provider.Client
	resolver geocode.Resolver
	store    cache.Store
	logger   *zap.Logger
}

// NewManager creates a Manager with the provided collaborators.
func NewManager(p provider.Client, r geocode.Resolver, s cache.Store, logger *zap.Logger) *Manager {
	return &Manager{
		provider: p,
		resolver: r,
		store:    s,
		logger:   logger.Named("weather_manager"),
	}
}

// GetWeather returns the series for the key, serving today's cached record
// when one exists. Any found record is returned without a provider call,
// including an empty one: an empty fetch is cached deliberately so a failing
// upstream is not hammered for the rest of the day. Fails with
// ErrLocationNotFound when the pair cannot be resolved.
func (m *Manager) GetWeather(ctx context.Context, frequency models.Frequency, city, country string) (models.Series, error) {
	date := cache.Today()
	m.logger.Debug("getting weather",
		zap.String("city", city),
		zap.String("country", country),
		zap.String("frequency", string(frequency)),
		zap.String("date", date),
	)

	if series, ok := m.store.Get(ctx, frequency, city, country, date); ok {
		observability.CacheHitsTotal.WithLabelValues(string(frequency)).Inc()
		m.logger.Debug("cache hit", zap.String("city", city), zap.String("country", country))
		return series, nil
	}
	observability.CacheMissesTotal.WithLabelValues(string(frequency)).Inc()

	coord, ok := m.resolver.Resolve(ctx, city, country)
	if !ok {
		return models.Series{}, fmt.Errorf("%w: %s, %s", ErrLocationNotFound, city, country)
	}

	var series models.Series
	if frequency == models.FrequencyDay {
		series = models.DailySeries(m.provider.FetchDaily(ctx, coord.Latitude, coord.Longitude))
	} else {
		series = models.HourlySeries(m.provider.FetchHourly(ctx, coord.Latitude, coord.Longitude))
	}
	m.logger.Debug("weather fetched", zap.String("city", city), zap.String("country", country), zap.Int("measurements", series.Len()))

	m.store.Put(ctx, frequency, city, country, series)
	return series, nil
}

// CheckLocation reports whether the pair resolves to coordinates. Used by
// event creation to reject subscriptions for unknown places.
func (m *Manager) CheckLocation(ctx context.Context, city, country string) bool {
	_, ok := m.resolver.Resolve(ctx, city, country)
	return ok
}
