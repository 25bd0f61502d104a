package models

// HourMeasurement is one hour of a hourly forecast window. Date keeps the
// upstream timestamp string (e.g. "2021-10-12T00:00").
type HourMeasurement struct {
	Date                     string  `json:"date"`
	Temperature              float64 `json:"temperature"`
	Humidity                 float64 `json:"humidity"`
	Precipitation            float64 `json:"precipitation"`
	PrecipitationProbability float64 `json:"precipitation_probability"`
}

// TemperatureRange is a daily min/max pair.
type TemperatureRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// DayMeasurement is one day of a daily forecast window. Date is a plain
// "YYYY-MM-DD" string.
type DayMeasurement struct {
	Date                     string           `json:"date"`
	Temperature              TemperatureRange `json:"temperature"`
	Precipitation            float64          `json:"precipitation"`
	PrecipitationProbability float64          `json:"precipitation_probability"`
}

// Series is an ordered, time-ascending measurement sequence tagged by
// frequency. Exactly one of Hours or Days is populated; they are never
// mixed. An empty series means "no data" to every consumer.
type Series struct {
	Frequency Frequency         `json:"frequency"`
	Hours     []HourMeasurement `json:"hours,omitempty"`
	Days      []DayMeasurement  `json:"days,omitempty"`
}

// HourlySeries wraps hourly measurements in a tagged series.
func HourlySeries(hours []HourMeasurement) Series {
	return Series{Frequency: FrequencyHour, Hours: hours}
}

// DailySeries wraps daily measurements in a tagged series.
func DailySeries(days []DayMeasurement) Series {
	return Series{Frequency: FrequencyDay, Days: days}
}

// Len reports the number of measurements in the series.
func (s Series) Len() int {
	if s.Frequency == FrequencyHour {
		return len(s.Hours)
	}
	return len(s.Days)
}

// Empty reports whether the series carries no measurements.
func (s Series) Empty() bool {
	return s.Len() == 0
}
