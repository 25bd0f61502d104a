package message

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/azielinski/notifyme/internal/models"
)

// Builder renders a measurement series into a plain-text weather report.
// Pure: no I/O, deterministic for identical inputs.
type Builder struct{}

// NewBuilder creates a Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Compose renders the report for an event. Reports !ok for an unsupported
// frequency, an empty series, or unparseable hourly timestamps; callers skip
// the mail dispatch in that case.
func (b *Builder) Compose(event models.Event, series models.Series) (title, body string, ok bool) {
	title = fmt.Sprintf("Weather report for %s", event.City)

	switch event.Frequency {
	case models.FrequencyHour:
		body, ok = b.composeHourly(series.Hours, event.EventType)
	case models.FrequencyDay:
		body, ok = b.composeDaily(series.Days, event.EventType)
	default:
		return "", "", false
	}
	if !ok {
		return "", "", false
	}
	return title, body, true
}

// composeHourly groups the series under a single header carrying the first
// element's calendar date, then emits one block per hour.
func (b *Builder) composeHourly(weather []models.HourMeasurement, eventType models.EventType) (string, bool) {
	if len(weather) == 0 {
		return "", false
	}
	first, err := parseTimestamp(weather[0].Date)
	if err != nil {
		return "", false
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Weather for %s\n", first.Format("2006-01-02"))
	for _, m := range weather {
		ts, err := parseTimestamp(m.Date)
		if err != nil {
			return "", false
		}
		fmt.Fprintf(&sb, "%s\n%s\n\n", ts.Format("15:04:05"), hourMetrics(m, eventType))
	}
	return sb.String(), true
}

// composeDaily emits one self-contained block per day, each prefixed by its
// own date.
func (b *Builder) composeDaily(weather []models.DayMeasurement, eventType models.EventType) (string, bool) {
	if len(weather) == 0 {
		return "", false
	}
	var sb strings.Builder
	for _, m := range weather {
		fmt.Fprintf(&sb, "%s\n%s\n", m.Date, dayMetrics(m, eventType))
	}
	return sb.String(), true
}

func hourMetrics(m models.HourMeasurement, eventType models.EventType) string {
	switch eventType {
	case models.EventTypeTemperature:
		return hourTemperature(m)
	case models.EventTypePrecipitation:
		return precipitation(m.Precipitation, m.PrecipitationProbability)
	default:
		return hourTemperature(m) + "\n" + humidity(m) + "\n" + precipitation(m.Precipitation, m.PrecipitationProbability)
	}
}

func dayMetrics(m models.DayMeasurement, eventType models.EventType) string {
	switch eventType {
	case models.EventTypeTemperature:
		return dayTemperature(m)
	case models.EventTypePrecipitation:
		return precipitation(m.Precipitation, m.PrecipitationProbability)
	default:
		return dayTemperature(m) + "\n" + precipitation(m.Precipitation, m.PrecipitationProbability)
	}
}

func hourTemperature(m models.HourMeasurement) string {
	return fmt.Sprintf("Temperature: %s°C.", num(m.Temperature))
}

func dayTemperature(m models.DayMeasurement) string {
	return fmt.Sprintf("Temperature: min: %s°C; max: %s°C.", num(m.Temperature.Min), num(m.Temperature.Max))
}

func humidity(m models.HourMeasurement) string {
	return fmt.Sprintf("Humidity of %s%%.", num(m.Humidity))
}

func precipitation(amount, probability float64) string {
	return fmt.Sprintf("Precipitation of %smm, with probability of %s%%.", num(amount), num(probability))
}

// num renders a float in its shortest decimal form (1 -> "1", 2.1 -> "2.1").
func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Upstream timestamps arrive as "2006-01-02T15:04"; stored fixtures may
// carry seconds or a space separator.
var timestampLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTimestamp(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
