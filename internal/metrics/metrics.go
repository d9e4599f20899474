package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	HTTPResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_response_size_bytes",
		Help:    "HTTP response size in bytes",
		Buckets: prometheus.ExponentialBuckets(100, 10, 5),
	}, []string{"method", "path"})

	// InfluxDB gateway
	GatewayOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gateway_operation_duration_seconds",
		Help:    "InfluxDB operation duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "outcome"})

	// Ingestion and queries
	ReadingsAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "weather_readings_accepted_total",
		Help: "Total number of readings written to the store",
	})

	ReadingsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "weather_readings_rejected_total",
		Help: "Total number of readings rejected before or during the write",
	}, []string{"reason"})

	QueriesServed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "weather_queries_total",
		Help: "Total number of aggregation queries by statistic and status",
	}, []string{"statistic", "status"})
)
