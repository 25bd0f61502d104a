package cache

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/azielinski/notifyme/internal/models"
)

func TestKey(t *testing.T) {
	got := Key(models.FrequencyDay, "Warsaw", "Poland", "2021-10-10")
	want := "weather_v1:day:Warsaw:Poland:2021-10-10"
	if got != want {
		t.Fatalf("Key = %q, want %q", got, want)
	}
}

func TestInMemoryStore_RoundTrip(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	series := models.DailySeries([]models.DayMeasurement{
		{Date: "2021-10-10", Temperature: models.TemperatureRange{Min: 1, Max: 2}, Precipitation: 2.1, PrecipitationProbability: 3},
	})
	store.Put(ctx, models.FrequencyDay, "Warsaw", "Poland", series)

	got, ok := store.Get(ctx, models.FrequencyDay, "Warsaw", "Poland", Today())
	if !ok {
		t.Fatalf("Get reported miss after Put")
	}
	if got.Frequency != models.FrequencyDay || got.Len() != 1 || got.Days[0] != series.Days[0] {
		t.Fatalf("Get = %+v, want %+v", got, series)
	}
}

func TestInMemoryStore_MissOnOtherKey(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	store.Put(ctx, models.FrequencyDay, "Warsaw", "Poland", models.DailySeries(nil))

	tests := []struct {
		name      string
		frequency models.Frequency
		city      string
		country   string
		date      string
	}{
		{"different frequency", models.FrequencyHour, "Warsaw", "Poland", Today()},
		{"different city", models.FrequencyDay, "Gdansk", "Poland", Today()},
		{"different country", models.FrequencyDay, "Warsaw", "Germany", Today()},
		{"different date", models.FrequencyDay, "Warsaw", "Poland", "1999-01-01"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, ok := store.Get(ctx, tc.frequency, tc.city, tc.country, tc.date); ok {
				t.Fatalf("Get hit on a non-matching key")
			}
		})
	}
}

// TestInMemoryStore_EmptySeriesIsFound covers the distinction between
// an empty cached series and a miss: an empty record still counts as found.
func TestInMemoryStore_EmptySeriesIsFound(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	store.Put(ctx, models.FrequencyHour, "Warsaw", "Poland", models.HourlySeries(nil))

	got, ok := store.Get(ctx, models.FrequencyHour, "Warsaw", "Poland", Today())
	if !ok {
		t.Fatalf("empty cached series reported as miss")
	}
	if !got.Empty() {
		t.Fatalf("Get = %+v, want empty series", got)
	}
}

func TestEncodeRecord_StampsDocument(t *testing.T) {
	raw, err := encodeRecord(models.FrequencyDay, "Warsaw", "Poland", models.DailySeries([]models.DayMeasurement{
		{Date: "2021-10-10", Temperature: models.TemperatureRange{Min: 1, Max: 2}, Precipitation: 2.1, PrecipitationProbability: 3},
	}))
	if err != nil {
		t.Fatalf("encodeRecord: %v", err)
	}

	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		t.Fatalf("unmarshal record: %v", err)
	}
	if rec.Frequency != models.FrequencyDay || rec.City != "Warsaw" || rec.Country != "Poland" {
		t.Fatalf("record = %+v", rec)
	}
	if rec.Date != Today() {
		t.Fatalf("record date = %q, want %q", rec.Date, Today())
	}
	if rec.Weather == nil {
		t.Fatalf("record has no weather field")
	}
}

func TestDecodeRecord_Malformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"missing weather field", `{"frequency": "day", "city": "Warsaw", "country": "Poland", "date": "2021-10-10"}`},
		{"invalid json", `{"frequency": `},
		{"weather wrong shape", `{"frequency": "day", "weather": {"oops": true}}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, ok := decodeRecord([]byte(tc.data), models.FrequencyDay); ok {
				t.Fatalf("decodeRecord accepted %s", tc.name)
			}
		})
	}
}

func TestDecodeRecord_EmptyWeatherArray(t *testing.T) {
	data := `{"frequency": "hour", "city": "Warsaw", "country": "Poland", "date": "2021-10-10", "weather": []}`
	series, ok := decodeRecord([]byte(data), models.FrequencyHour)
	if !ok {
		t.Fatalf("empty weather array reported as miss")
	}
	if !series.Empty() || series.Frequency != models.FrequencyHour {
		t.Fatalf("decodeRecord = %+v", series)
	}
}
