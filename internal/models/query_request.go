package models

import (
	"fmt"
	"time"
)

// QueryRequest asks for one statistic over a set of metrics, optionally scoped
// to sensors and a time range.
type QueryRequest struct {
	SensorIDs []string   `json:"sensor_ids,omitempty"`
	Metrics   []Metric   `json:"metrics"`
	Statistic Statistic  `json:"statistic"`
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`
}

// Validate rejects unknown metrics or statistics and inverted time ranges.
func (q QueryRequest) Validate() error {
	if len(q.Metrics) == 0 {
		return ValidationError{Field: "metrics", Reason: "at least one metric is required"}
	}
	for _, m := range q.Metrics {
		if !m.Valid() {
			return ValidationError{
				Field:  "metrics",
				Reason: fmt.Sprintf("invalid metric %q, allowed metrics: %v", m, metrics),
			}
		}
	}
	if !q.Statistic.Valid() {
		return ValidationError{
			Field:  "statistic",
			Reason: fmt.Sprintf("invalid statistic %q, allowed statistics: %v", q.Statistic, statistics),
		}
	}
	if q.HasTimeRange() && !q.EndTime.After(*q.StartTime) {
		return ValidationError{Field: "end_time", Reason: "end_time must be after start_time"}
	}
	return nil
}

// HasTimeRange reports whether both bounds were supplied.
func (q QueryRequest) HasTimeRange() bool {
	return q.StartTime != nil && q.EndTime != nil
}
