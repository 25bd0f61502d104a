package cache

import (
	"context"
	"strings"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"go.uber.org/zap"

	"github.com/azielinski/notifyme/internal/models"
	"github.com/azielinski/notifyme/internal/observability"
)

// Records only matter for the calendar day they were written; two days
// lets an orphaned record survive timezone skew before memcached reaps it.
const memcachedExpiry = int32(2 * 24 * 60 * 60)

// MemcachedStore implements Store using memcached.
type MemcachedStore struct {
	client *memcache.Client
	logger *zap.Logger
}

// NewMemcachedStore creates a MemcachedStore. addrs is a comma-separated
// list (e.g. "localhost:11211" or "host1:11211,host2:11211"). timeout and
// maxIdleConns configure the client; both use package defaults if zero.
func NewMemcachedStore(addrs string, timeout time.Duration, maxIdleConns int, logger *zap.Logger) *MemcachedStore {
	servers := parseAddrs(addrs)
	if len(servers) == 0 {
		servers = []string{"localhost:11211"}
	}
	client := memcache.New(servers...)
	if timeout > 0 {
		client.Timeout = timeout
	}
	if maxIdleConns > 0 {
		client.MaxIdleConns = maxIdleConns
	}
	return &MemcachedStore{client: client, logger: logger.Named("weather_cache")}
}

func parseAddrs(s string) []string {
	var out []string
	for _, a := range strings.Split(s, ",") {
		a = strings.TrimSpace(a)
		if a != "" {
			out = append(out, a)
		}
	}
	return out
}

// Get implements Store.Get. Misses and backend errors both report
// not-found; only backend errors are logged.
func (s *MemcachedStore) Get(ctx context.Context, frequency models.Frequency, city, country, date string) (models.Series, bool) {
	if ctx.Err() != nil {
		return models.Series{}, false
	}
	item, err := s.client.Get(Key(frequency, city, country, date))
	if err != nil {
		if err != memcache.ErrCacheMiss {
			observability.CacheErrorsTotal.WithLabelValues("get").Inc()
			s.logger.Error("memcached get failed", zap.String("city", city), zap.String("country", country), zap.Error(err))
		}
		return models.Series{}, false
	}
	return decodeRecord(item.Value, frequency)
}

// Put implements Store.Put. Write failures are logged and swallowed.
func (s *MemcachedStore) Put(ctx context.Context, frequency models.Frequency, city, country string, series models.Series) {
	raw, err := encodeRecord(frequency, city, country, series)
	if err != nil {
		observability.CacheErrorsTotal.WithLabelValues("put").Inc()
		s.logger.Error("encode cache record", zap.String("city", city), zap.String("country", country), zap.Error(err))
		return
	}
	err = s.client.Set(&memcache.Item{
		Key:        Key(frequency, city, country, Today()),
		Value:      raw,
		Expiration: memcachedExpiry,
	})
	if err != nil {
		observability.CacheErrorsTotal.WithLabelValues("put").Inc()
		s.logger.Error("memcached set failed", zap.String("city", city), zap.String("country", country), zap.Error(err))
	}
}

// Ping checks if memcached is reachable. Used for health checks.
func (s *MemcachedStore) Ping() error {
	return s.client.Ping()
}

// Close closes the memcached client connections. Call during shutdown.
func (s *MemcachedStore) Close() error {
	return s.client.Close()
}
