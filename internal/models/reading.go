package models

import (
	"fmt"
	"math"
	"time"
)

// ValidationError reports a client input fault on a single field.
type ValidationError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ReasonRequired is the reason given for an absent field.
const ReasonRequired = "is required"

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Missing reports whether the field was absent rather than invalid.
func (e ValidationError) Missing() bool {
	return e.Reason == ReasonRequired
}

// Reading is one sensor observation as stored in InfluxDB.
type Reading struct {
	SensorID    string    `json:"sensor_id"`
	Temperature float64   `json:"temperature"` // °C
	Humidity    float64   `json:"humidity"`    // %
	WindSpeed   float64   `json:"wind_speed"`  // km/h
	Pressure    float64   `json:"pressure"`    // hPa
	Timestamp   time.Time `json:"timestamp"`
}

type bound struct {
	metric   Metric
	min, max float64
}

// Inclusive acceptance ranges per metric.
var readingBounds = []bound{
	{MetricTemperature, -50, 60},
	{MetricHumidity, 0, 100},
	{MetricWindSpeed, 0, 300},
	{MetricPressure, 800, 1200},
}

// Value returns the reading's value for metric m.
func (r Reading) Value(m Metric) float64 {
	switch m {
	case MetricTemperature:
		return r.Temperature
	case MetricHumidity:
		return r.Humidity
	case MetricWindSpeed:
		return r.WindSpeed
	case MetricPressure:
		return r.Pressure
	}
	return 0
}

// Fields returns the metric values keyed by field name.
func (r Reading) Fields() map[string]interface{} {
	fields := make(map[string]interface{}, len(metrics))
	for _, m := range metrics {
		fields[string(m)] = r.Value(m)
	}
	return fields
}

// Validate checks the sensor id and the declared range of every metric.
func (r Reading) Validate() error {
	if r.SensorID == "" {
		return ValidationError{Field: "sensor_id", Reason: ReasonRequired}
	}
	for _, b := range readingBounds {
		v := r.Value(b.metric)
		if math.IsNaN(v) || v < b.min || v > b.max {
			return ValidationError{
				Field:  string(b.metric),
				Reason: fmt.Sprintf("%g is outside [%g, %g]", v, b.min, b.max),
			}
		}
	}
	return nil
}

// ReadingPayload is the wire form of a Reading. Metric fields are pointers so
// that an absent field can be told apart from a zero value.
type ReadingPayload struct {
	SensorID    string     `json:"sensor_id"`
	Temperature *float64   `json:"temperature"`
	Humidity    *float64   `json:"humidity"`
	WindSpeed   *float64   `json:"wind_speed"`
	Pressure    *float64   `json:"pressure"`
	Timestamp   *time.Time `json:"timestamp,omitempty"`
}

// ToReading checks that every metric is present, stamps the reading with now
// when no timestamp was sent and validates the result.
func (p ReadingPayload) ToReading(now time.Time) (Reading, error) {
	required := []struct {
		metric Metric
		value  *float64
	}{
		{MetricTemperature, p.Temperature},
		{MetricHumidity, p.Humidity},
		{MetricWindSpeed, p.WindSpeed},
		{MetricPressure, p.Pressure},
	}
	for _, f := range required {
		if f.value == nil {
			return Reading{}, ValidationError{Field: string(f.metric), Reason: ReasonRequired}
		}
	}

	r := Reading{
		SensorID:    p.SensorID,
		Temperature: *p.Temperature,
		Humidity:    *p.Humidity,
		WindSpeed:   *p.WindSpeed,
		Pressure:    *p.Pressure,
		Timestamp:   now.UTC(),
	}
	if p.Timestamp != nil && !p.Timestamp.IsZero() {
		r.Timestamp = p.Timestamp.UTC()
	}
	if err := r.Validate(); err != nil {
		return Reading{}, err
	}
	return r, nil
}
