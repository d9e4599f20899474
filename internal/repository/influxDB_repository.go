package repository

import (
	"context"
	"fmt"
	"time"

	"WeatherMetrics.influxDB/internal/config"
	"WeatherMetrics.influxDB/internal/metrics"
	"WeatherMetrics.influxDB/internal/models"
	"WeatherMetrics.influxDB/internal/query"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/domain"
	"go.uber.org/zap"
)

// Rows is an open query result. Callers must Close it.
type Rows interface {
	query.RecordIterator
	Close() error
}

// Repository is the store gateway used by the weather service.
type Repository interface {
	WriteReading(ctx context.Context, reading models.Reading) error
	Query(ctx context.Context, plan query.Plan) (Rows, error)
	ListDistinctSensorIDs(ctx context.Context, window time.Duration) ([]string, error)
	HealthCheck(ctx context.Context) error
}

// InfluxDBRepository reads and writes weather readings in one InfluxDB bucket.
// The client is safe for concurrent use.
type InfluxDBRepository struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	queryAPI api.QueryAPI
	cfg      config.InfluxDBConfig
	logger   *zap.Logger
}

// NewInfluxDBRepository creates the client; no connection is made until
// Initialize.
func NewInfluxDBRepository(cfg config.InfluxDBConfig, timeout time.Duration, logger *zap.Logger) *InfluxDBRepository {
	opts := influxdb2.DefaultOptions()
	if secs := uint(timeout / time.Second); secs > 0 {
		opts.SetHTTPRequestTimeout(secs)
	}
	client := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token, opts)
	return &InfluxDBRepository{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		queryAPI: client.QueryAPI(cfg.Org),
		cfg:      cfg,
		logger:   logger,
	}
}

// QueryOptions describes the bucket layout for the query builder.
func (r *InfluxDBRepository) QueryOptions(defaultWindow time.Duration) query.Options {
	return query.Options{
		Bucket:        r.cfg.Bucket,
		Measurement:   r.cfg.Measurement,
		DefaultWindow: defaultWindow,
	}
}

// Initialize checks that InfluxDB is reachable and healthy and, if configured,
// creates the bucket.
func (r *InfluxDBRepository) Initialize(ctx context.Context) error {
	if err := r.HealthCheck(ctx); err != nil {
		return err
	}
	r.logger.Info("Successfully connected to InfluxDB", zap.String("url", r.cfg.URL))

	if r.cfg.CreateBucket {
		if err := r.ensureBucket(ctx); err != nil {
			return err
		}
	}
	return nil
}

// HealthCheck fails unless InfluxDB reports status "pass".
func (r *InfluxDBRepository) HealthCheck(ctx context.Context) (err error) {
	defer observe("health_check", time.Now(), &err)

	health, err := r.client.Health(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect to InfluxDB: %w", err)
	}
	if health.Status != domain.HealthCheckStatusPass {
		msg := ""
		if health.Message != nil {
			msg = *health.Message
		}
		return fmt.Errorf("InfluxDB health check failed: %s %s", health.Status, msg)
	}
	return nil
}

// ensureBucket creates the bucket when the lookup succeeds and finds none.
// A failed lookup is returned as is.
func (r *InfluxDBRepository) ensureBucket(ctx context.Context) error {
	name := r.cfg.Bucket
	found, err := r.client.APIClient().GetBuckets(ctx, &domain.GetBucketsParams{Name: &name})
	if err != nil {
		return fmt.Errorf("error looking up bucket '%s': %w", r.cfg.Bucket, err)
	}
	if found.Buckets != nil && len(*found.Buckets) > 0 {
		return nil
	}

	org, err := r.client.OrganizationsAPI().FindOrganizationByName(ctx, r.cfg.Org)
	if err != nil {
		return fmt.Errorf("error finding organization '%s': %w", r.cfg.Org, err)
	}
	if org == nil {
		return fmt.Errorf("organization '%s' not found", r.cfg.Org)
	}

	if _, err := r.client.BucketsAPI().CreateBucketWithName(ctx, org, r.cfg.Bucket); err != nil {
		return fmt.Errorf("error creating bucket '%s': %w", r.cfg.Bucket, err)
	}
	r.logger.Info("Bucket created", zap.String("bucket", r.cfg.Bucket), zap.String("org", r.cfg.Org))
	return nil
}

// WriteReading writes one point carrying all four metrics.
func (r *InfluxDBRepository) WriteReading(ctx context.Context, reading models.Reading) (err error) {
	defer observe("write", time.Now(), &err)

	p := influxdb2.NewPoint(
		r.cfg.Measurement,
		map[string]string{query.ColumnSensorID: reading.SensorID},
		reading.Fields(),
		reading.Timestamp,
	)
	if err := r.writeAPI.WritePoint(ctx, p); err != nil {
		return fmt.Errorf("error writing to InfluxDB: %w", err)
	}
	r.logger.Debug("Data point written to InfluxDB",
		zap.String("bucket", r.cfg.Bucket),
		zap.String("sensor_id", reading.SensorID),
		zap.Time("timestamp", reading.Timestamp))
	return nil
}

// Query renders the plan to Flux and runs it.
func (r *InfluxDBRepository) Query(ctx context.Context, plan query.Plan) (_ Rows, err error) {
	defer observe("query", time.Now(), &err)

	flux := plan.Flux()
	r.logger.Debug("Executing InfluxDB query", zap.String("flux", flux))

	result, err := r.queryAPI.Query(ctx, flux)
	if err != nil {
		return nil, fmt.Errorf("error querying InfluxDB: %w", err)
	}
	return result, nil
}

// ListDistinctSensorIDs returns the sensor ids that wrote within window.
func (r *InfluxDBRepository) ListDistinctSensorIDs(ctx context.Context, window time.Duration) (_ []string, err error) {
	defer observe("list_sensors", time.Now(), &err)

	plan := query.SensorListing(r.QueryOptions(0), window)
	result, err := r.queryAPI.Query(ctx, plan.Flux())
	if err != nil {
		return nil, fmt.Errorf("error querying sensor ids: %w", err)
	}
	defer result.Close()

	return query.SensorIDs(result)
}

// Close releases the client's connections.
func (r *InfluxDBRepository) Close() {
	r.client.Close()
	r.logger.Info("InfluxDB connection closed")
}

func observe(operation string, start time.Time, err *error) {
	outcome := "success"
	if *err != nil {
		outcome = "error"
	}
	metrics.GatewayOperationDuration.WithLabelValues(operation, outcome).Observe(time.Since(start).Seconds())
}
