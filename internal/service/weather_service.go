package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"WeatherMetrics.influxDB/internal/metrics"
	"WeatherMetrics.influxDB/internal/models"
	"WeatherMetrics.influxDB/internal/query"
	"WeatherMetrics.influxDB/internal/repository"

	"go.uber.org/zap"
)

var (
	// ErrInvalidReading marks a reading rejected before any store call.
	ErrInvalidReading = errors.New("invalid reading")
	// ErrInvalidQuery marks a query request rejected before any store call.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrStoreUnavailable marks a write the store did not accept.
	ErrStoreUnavailable = errors.New("store unavailable")
)

type Options struct {
	Query            query.Options
	SensorListWindow time.Duration
	MaxClockSkew     time.Duration
	GatewayTimeout   time.Duration
	Now              func() time.Time
}

// WeatherService validates readings and queries and delegates storage to the
// repository. It holds no per-request state.
type WeatherService struct {
	repo      repository.Repository
	validator *IngestionValidator
	opts      Options
	logger    *zap.Logger
}

func NewWeatherService(repo repository.Repository, opts Options, logger *zap.Logger) *WeatherService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.SensorListWindow <= 0 {
		opts.SensorListWindow = 30 * 24 * time.Hour
	}
	if opts.Query.DefaultWindow <= 0 {
		opts.Query.DefaultWindow = 24 * time.Hour
	}
	return &WeatherService{
		repo:      repo,
		validator: NewIngestionValidator(opts.MaxClockSkew, opts.Now),
		opts:      opts,
		logger:    logger,
	}
}

// Ingest validates the reading and writes it. A nil error means accepted.
// A reading without a timestamp is stamped with the acceptance time.
func (s *WeatherService) Ingest(ctx context.Context, reading models.Reading) error {
	if reading.Timestamp.IsZero() {
		reading.Timestamp = s.opts.Now().UTC()
	}
	if err := reading.Validate(); err != nil {
		return s.reject(reading, "range", err)
	}
	if err := s.validator.Check(reading); err != nil {
		return s.reject(reading, "clock_skew", err)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.repo.WriteReading(ctx, reading); err != nil {
		metrics.ReadingsRejected.WithLabelValues("store").Inc()
		s.logger.Error("[WeatherService] Failed to store weather data",
			zap.String("sensor_id", reading.SensorID),
			zap.Error(err))
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	metrics.ReadingsAccepted.Inc()
	s.logger.Info("[WeatherService] Weather data stored",
		zap.String("sensor_id", reading.SensorID),
		zap.Time("timestamp", reading.Timestamp))
	return nil
}

func (s *WeatherService) reject(reading models.Reading, reason string, err error) error {
	metrics.ReadingsRejected.WithLabelValues(reason).Inc()
	s.logger.Warn("[WeatherService] Reading rejected",
		zap.String("sensor_id", reading.SensorID),
		zap.String("reason", reason),
		zap.Error(err))
	return fmt.Errorf("%w: %w", ErrInvalidReading, err)
}

// Query validates the request, runs the aggregation and shapes the response.
// Only validation failures are returned as errors; a store failure yields a
// degraded response with no results.
func (s *WeatherService) Query(ctx context.Context, req models.QueryRequest) (models.QueryResponse, error) {
	if err := req.Validate(); err != nil {
		return models.QueryResponse{}, fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}
	plan, err := query.Build(req, s.opts.Query)
	if err != nil {
		return models.QueryResponse{}, fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}

	resp := models.QueryResponse{
		SensorID:  query.SensorContext(req.SensorIDs),
		Metrics:   req.Metrics,
		Statistic: req.Statistic,
		Results:   []models.QueryResult{},
		Status:    models.QueryStatusOK,
	}

	results, err := s.run(ctx, plan)
	if err != nil {
		resp.Status = models.QueryStatusDegraded
		s.logger.Error("[WeatherService] Failed to query weather data",
			zap.String("sensor_id", resp.SensorID),
			zap.String("statistic", string(req.Statistic)),
			zap.Error(err))
	} else {
		resp.Results = results
		s.logger.Info("[WeatherService] Weather query executed",
			zap.String("sensor_id", resp.SensorID),
			zap.Int("results", len(results)))
	}
	metrics.QueriesServed.WithLabelValues(string(req.Statistic), string(resp.Status)).Inc()

	resp.QueryTime = s.opts.Now().UTC()
	return resp, nil
}

func (s *WeatherService) run(ctx context.Context, plan query.Plan) ([]models.QueryResult, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.repo.Query(ctx, plan)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			s.logger.Debug("[WeatherService] Closing query result", zap.Error(cerr))
		}
	}()
	return query.Normalize(rows)
}

// ListSensors returns the distinct sensor ids seen recently, in no particular
// order. A store failure is logged and yields an empty list.
func (s *WeatherService) ListSensors(ctx context.Context) []string {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	ids, err := s.repo.ListDistinctSensorIDs(ctx, s.opts.SensorListWindow)
	if err != nil {
		s.logger.Error("[WeatherService] Failed to query sensor ids", zap.Error(err))
		return []string{}
	}

	seen := make(map[string]struct{}, len(ids))
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	return unique
}

func (s *WeatherService) ListMetrics() []models.Metric {
	return models.Metrics()
}

func (s *WeatherService) ListStatistics() []models.Statistic {
	return models.Statistics()
}

// CheckHealth reports whether the store is reachable.
func (s *WeatherService) CheckHealth(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.repo.HealthCheck(ctx)
}

func (s *WeatherService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opts.GatewayTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.opts.GatewayTimeout)
}
