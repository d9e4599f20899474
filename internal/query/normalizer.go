package query

import (
	"fmt"

	"WeatherMetrics.influxDB/internal/models"
	fluxquery "github.com/influxdata/influxdb-client-go/v2/api/query"
)

const unknown = "unknown"

// RecordIterator is the row cursor returned by the InfluxDB query API.
// *api.QueryTableResult satisfies it.
type RecordIterator interface {
	Next() bool
	Record() *fluxquery.FluxRecord
	Err() error
}

// Normalize flattens aggregated rows into results, in iteration order.
// Missing columns fall back to "unknown" and a zero value.
func Normalize(records RecordIterator) ([]models.QueryResult, error) {
	results := []models.QueryResult{}
	for records.Next() {
		rec := records.Record()
		results = append(results, models.QueryResult{
			SensorID: stringColumn(rec, ColumnSensorID),
			Metric:   stringColumn(rec, ColumnField),
			Value:    numeric(rec.ValueByKey(ColumnValue)),
		})
	}
	if err := records.Err(); err != nil {
		return nil, fmt.Errorf("reading query result: %w", err)
	}
	return results, nil
}

// SensorIDs collects the values of a distinct(column: "sensor_id") result,
// de-duplicated. Order is not specified.
func SensorIDs(records RecordIterator) ([]string, error) {
	seen := make(map[string]struct{})
	for records.Next() {
		if id, ok := records.Record().Value().(string); ok && id != "" {
			seen[id] = struct{}{}
		}
	}
	if err := records.Err(); err != nil {
		return nil, fmt.Errorf("reading sensor ids: %w", err)
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	return ids, nil
}

// SensorContext names the sensor scope of a request for the response envelope.
func SensorContext(sensorIDs []string) string {
	switch len(sensorIDs) {
	case 0:
		return models.SensorContextAll
	case 1:
		return sensorIDs[0]
	default:
		return models.SensorContextMultiple
	}
}

func stringColumn(rec *fluxquery.FluxRecord, column string) string {
	if s, ok := rec.ValueByKey(column).(string); ok {
		return s
	}
	return unknown
}

func numeric(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case uint64:
		return float64(n)
	case int:
		return float64(n)
	}
	return 0
}
