package models

// Metric names one measured quantity of a Reading. The name doubles as the
// InfluxDB field key.
type Metric string

const (
	MetricTemperature Metric = "temperature"
	MetricHumidity    Metric = "humidity"
	MetricWindSpeed   Metric = "wind_speed"
	MetricPressure    Metric = "pressure"
)

// Statistic is an aggregation operator applied per sensor per metric.
type Statistic string

const (
	StatisticMin     Statistic = "min"
	StatisticMax     Statistic = "max"
	StatisticSum     Statistic = "sum"
	StatisticAverage Statistic = "average"
)

var (
	metrics    = []Metric{MetricTemperature, MetricHumidity, MetricWindSpeed, MetricPressure}
	statistics = []Statistic{StatisticMin, StatisticMax, StatisticSum, StatisticAverage}
)

// Metrics returns the supported metrics in their canonical order.
func Metrics() []Metric {
	out := make([]Metric, len(metrics))
	copy(out, metrics)
	return out
}

// Statistics returns the supported statistics in their canonical order.
func Statistics() []Statistic {
	out := make([]Statistic, len(statistics))
	copy(out, statistics)
	return out
}

// Valid reports whether m is one of the supported metrics.
func (m Metric) Valid() bool {
	for _, known := range metrics {
		if m == known {
			return true
		}
	}
	return false
}

// Valid reports whether s is one of the supported statistics.
func (s Statistic) Valid() bool {
	for _, known := range statistics {
		if s == known {
			return true
		}
	}
	return false
}
