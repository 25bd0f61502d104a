package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/azielinski/notifyme/internal/models"
)

// Store is the day-bucketed weather document store. Get reports
// (series, found); a miss is not an error. Put stamps the record with
// today's date at write time; write failures are the implementation's to
// log and swallow, so a store outage degrades the system to
// always-fetch-from-provider.
type Store interface {
	Get(ctx context.Context, frequency models.Frequency, city, country, date string) (models.Series, bool)
	Put(ctx context.Context, frequency models.Frequency, city, country string, series models.Series)
}

// Record is the persisted cache document. One record per
// (frequency, city, country) per calendar day; date rollover orphans old
// records rather than deleting them. Weather holds the raw measurement
// array; a document without it counts as a miss.
type Record struct {
	Frequency models.Frequency `json:"frequency"`
	City      string           `json:"city"`
	Country   string           `json:"country"`
	Date      string           `json:"date"`
	Weather   json.RawMessage  `json:"weather,omitempty"`
}

// dateLayout is the calendar-day component of cache keys.
const dateLayout = "2006-01-02"

// Today returns the current day key.
func Today() string {
	return time.Now().Format(dateLayout)
}

// Key builds the exact-match lookup key for the 4-tuple.
func Key(frequency models.Frequency, city, country, date string) string {
	return fmt.Sprintf("weather_v1:%s:%s:%s:%s", frequency, city, country, date)
}

// encodeRecord serializes a cache document stamped with today's date.
func encodeRecord(frequency models.Frequency, city, country string, series models.Series) ([]byte, error) {
	var (
		weather []byte
		err     error
	)
	if frequency == models.FrequencyHour {
		if series.Hours == nil {
			series.Hours = []models.HourMeasurement{}
		}
		weather, err = json.Marshal(series.Hours)
	} else {
		if series.Days == nil {
			series.Days = []models.DayMeasurement{}
		}
		weather, err = json.Marshal(series.Days)
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(Record{
		Frequency: frequency,
		City:      city,
		Country:   country,
		Date:      Today(),
		Weather:   weather,
	})
}

// decodeRecord deserializes a cache document into a tagged series.
// A document without the weather field reports not-found.
func decodeRecord(data []byte, frequency models.Frequency) (models.Series, bool) {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return models.Series{}, false
	}
	if rec.Weather == nil {
		return models.Series{}, false
	}
	if frequency == models.FrequencyHour {
		var hours []models.HourMeasurement
		if err := json.Unmarshal(rec.Weather, &hours); err != nil {
			return models.Series{}, false
		}
		return models.HourlySeries(hours), true
	}
	var days []models.DayMeasurement
	if err := json.Unmarshal(rec.Weather, &days); err != nil {
		return models.Series{}, false
	}
	return models.DailySeries(days), true
}

// InMemoryStore implements Store with a plain map. Used in tests and for
// single-process development runs; not safe for concurrent use.
type InMemoryStore struct {
	data map[string][]byte
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{data: make(map[string][]byte)}
}

func (s *InMemoryStore) Get(ctx context.Context, frequency models.Frequency, city, country, date string) (models.Series, bool) {
	raw, ok := s.data[Key(frequency, city, country, date)]
	if !ok {
		return models.Series{}, false
	}
	return decodeRecord(raw, frequency)
}

func (s *InMemoryStore) Put(ctx context.Context, frequency models.Frequency, city, country string, series models.Series) {
	raw, err := encodeRecord(frequency, city, country, series)
	if err != nil {
		return
	}
	s.data[Key(frequency, city, country, Today())] = raw
}
