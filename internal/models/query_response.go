package models

import "time"

// Sensor context values used when a query is not scoped to exactly one sensor.
const (
	SensorContextAll      = "all"
	SensorContextMultiple = "multiple"
)

// QueryStatus tags how a query was answered.
type QueryStatus string

const (
	QueryStatusOK       QueryStatus = "ok"
	QueryStatusDegraded QueryStatus = "degraded"
)

// QueryResult is one aggregated data point.
type QueryResult struct {
	SensorID string  `json:"sensor_id"`
	Metric   string  `json:"metric"`
	Value    float64 `json:"value"`
}

type QueryResponse struct {
	SensorID  string        `json:"sensor_id"`
	Metrics   []Metric      `json:"metrics"`
	Statistic Statistic     `json:"statistic"`
	Results   []QueryResult `json:"results"`
	QueryTime time.Time     `json:"query_time"`

	// Status is carried out of band (X-Query-Status header) so the JSON shape
	// does not change between healthy and degraded answers.
	Status QueryStatus `json:"-"`
}

// Degraded reports whether the backend failed and Results is empty by fallback.
func (r QueryResponse) Degraded() bool {
	return r.Status == QueryStatusDegraded
}

// IngestResponse acknowledges a stored reading.
type IngestResponse struct {
	Message   string    `json:"message"`
	SensorID  string    `json:"sensor_id"`
	Timestamp time.Time `json:"timestamp"`
}
