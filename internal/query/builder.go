package query

import (
	"fmt"
	"time"

	"WeatherMetrics.influxDB/internal/models"
)

// Column names written by the store.
const (
	ColumnMeasurement = "_measurement"
	ColumnField       = "_field"
	ColumnValue       = "_value"
	ColumnSensorID    = "sensor_id"
)

// Options carries the store layout the builder targets.
type Options struct {
	Bucket        string
	Measurement   string
	DefaultWindow time.Duration // used when the request has no complete time range
}

// Build translates a validated request into a plan. It fails only for a
// statistic with no aggregate mapping.
func Build(req models.QueryRequest, opts Options) (Plan, error) {
	agg, err := aggregateFor(req.Statistic)
	if err != nil {
		return Plan{}, err
	}

	clauses := []Clause{
		From{Bucket: opts.Bucket},
		rangeFor(req, opts.DefaultWindow),
		Filter{Column: ColumnMeasurement, Values: []string{opts.Measurement}},
	}
	if len(req.SensorIDs) > 0 {
		clauses = append(clauses, Filter{Column: ColumnSensorID, Values: req.SensorIDs})
	}
	if len(req.Metrics) > 0 {
		fields := make([]string, len(req.Metrics))
		for i, m := range req.Metrics {
			fields[i] = string(m)
		}
		clauses = append(clauses, Filter{Column: ColumnField, Values: fields})
	}
	clauses = append(clauses,
		Group{Columns: []string{ColumnSensorID, ColumnField}},
		Aggregate{Func: agg},
	)
	return Plan{Clauses: clauses}, nil
}

// SensorListing builds the plan that enumerates sensor ids seen within window.
func SensorListing(opts Options, window time.Duration) Plan {
	return Plan{Clauses: []Clause{
		From{Bucket: opts.Bucket},
		Range{Window: window},
		Filter{Column: ColumnMeasurement, Values: []string{opts.Measurement}},
		Keep{Columns: []string{ColumnSensorID}},
		Distinct{Column: ColumnSensorID},
	}}
}

func rangeFor(req models.QueryRequest, window time.Duration) Range {
	if req.HasTimeRange() {
		return Range{Start: *req.StartTime, Stop: *req.EndTime}
	}
	return Range{Window: window}
}

func aggregateFor(s models.Statistic) (AggregateFunc, error) {
	switch s {
	case models.StatisticAverage:
		return AggregateMean, nil
	case models.StatisticMin:
		return AggregateMin, nil
	case models.StatisticMax:
		return AggregateMax, nil
	case models.StatisticSum:
		return AggregateSum, nil
	}
	return "", fmt.Errorf("no aggregate for statistic %q", s)
}
