package models

import "strings"

// Frequency selects the forecast window of an event: the next 24 hourly
// readings or a multi-day daily summary.
type Frequency string

const (
	FrequencyHour Frequency = "hour"
	FrequencyDay  Frequency = "day"
)

// EventType selects which metrics a report renders.
type EventType string

const (
	EventTypeAll           EventType = "all"
	EventTypeTemperature   EventType = "temperature"
	EventTypePrecipitation EventType = "precipitation"
)

// ParseFrequency maps a user-supplied string to a Frequency.
func ParseFrequency(s string) (Frequency, bool) {
	switch Frequency(strings.ToLower(strings.TrimSpace(s))) {
	case FrequencyHour:
		return FrequencyHour, true
	case FrequencyDay:
		return FrequencyDay, true
	}
	return "", false
}

// ParseEventType maps a user-supplied string to an EventType.
func ParseEventType(s string) (EventType, bool) {
	switch EventType(strings.ToLower(strings.TrimSpace(s))) {
	case EventTypeAll:
		return EventTypeAll, true
	case EventTypeTemperature:
		return EventTypeTemperature, true
	case EventTypePrecipitation:
		return EventTypePrecipitation, true
	}
	return "", false
}

// Coordinate is a geographic position produced by the location resolver.
// Ephemeral; never persisted.
type Coordinate struct {
	Latitude  float64
	Longitude float64
}

// User owns zero or more events. Password holds the bcrypt hash, never the
// plaintext.
type User struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"-"`
}

// Event is a user's standing subscription to weather reports for one
// (city, country, frequency, event-type) combination. The tuple
// (user_id, frequency, city, country) is unique per user.
type Event struct {
	EventID   int64     `json:"event_id"`
	EventType EventType `json:"event_type"`
	Frequency Frequency `json:"frequency"`
	City      string    `json:"city"`
	Country   string    `json:"country"`
	UserID    int64     `json:"user_id"`
}
