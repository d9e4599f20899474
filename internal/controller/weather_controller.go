package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"WeatherMetrics.influxDB/internal/models"
	"WeatherMetrics.influxDB/internal/service"
	"WeatherMetrics.influxDB/internal/utils"

	"go.uber.org/zap"
)

// QueryStatusHeader tells clients whether a query answer is degraded.
const QueryStatusHeader = "X-Query-Status"

// Version is reported by the root endpoint.
const Version = "1.0.0"

// WeatherService is the business API the controller needs.
type WeatherService interface {
	Ingest(ctx context.Context, reading models.Reading) error
	Query(ctx context.Context, req models.QueryRequest) (models.QueryResponse, error)
	ListSensors(ctx context.Context) []string
	ListMetrics() []models.Metric
	ListStatistics() []models.Statistic
	CheckHealth(ctx context.Context) error
}

// WeatherController handles HTTP requests for weather data.
type WeatherController struct {
	service WeatherService
	logger  *zap.Logger
	now     func() time.Time
}

// NewWeatherController creates a new WeatherController.
func NewWeatherController(service WeatherService, logger *zap.Logger) *WeatherController {
	return &WeatherController{
		service: service,
		logger:  logger,
		now:     time.Now,
	}
}

// HandleSubmitReading stores one reading.
func (c *WeatherController) HandleSubmitReading(w http.ResponseWriter, r *http.Request) {
	var payload models.ReadingPayload
	if !decodeJSON(w, r, &payload) {
		return
	}

	reading, err := payload.ToReading(c.now())
	if err != nil {
		c.respondWithServiceError(w, err)
		return
	}

	if err := c.service.Ingest(r.Context(), reading); err != nil {
		c.respondWithServiceError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, models.IngestResponse{
		Message:   "Weather data stored successfully",
		SensorID:  reading.SensorID,
		Timestamp: reading.Timestamp,
	})
}

// HandleQuery runs an aggregation query. Degraded answers are still 200 and
// are flagged in the X-Query-Status header.
func (c *WeatherController) HandleQuery(w http.ResponseWriter, r *http.Request) {
	var req models.QueryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := c.service.Query(r.Context(), req)
	if err != nil {
		c.respondWithServiceError(w, err)
		return
	}

	w.Header().Set(QueryStatusHeader, string(resp.Status))
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

func (c *WeatherController) HandleListSensors(w http.ResponseWriter, r *http.Request) {
	utils.RespondWithJSON(w, http.StatusOK, c.service.ListSensors(r.Context()))
}

func (c *WeatherController) HandleListMetrics(w http.ResponseWriter, r *http.Request) {
	utils.RespondWithJSON(w, http.StatusOK, c.service.ListMetrics())
}

func (c *WeatherController) HandleListStatistics(w http.ResponseWriter, r *http.Request) {
	utils.RespondWithJSON(w, http.StatusOK, c.service.ListStatistics())
}

func (c *WeatherController) HandleRoot(w http.ResponseWriter, r *http.Request) {
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{
		"message": "Weather Data Service",
		"version": Version,
		"status":  "running",
	})
}

func (c *WeatherController) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if err := c.service.CheckHealth(r.Context()); err != nil {
		c.logger.Error("Health check failed", zap.Error(err))
		utils.RespondWithError(w, models.NewAPIError(models.ErrorCodeServiceUnavailable,
			"Service unavailable", nil, http.StatusServiceUnavailable))
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// respondWithServiceError maps validation and store errors to API errors.
func (c *WeatherController) respondWithServiceError(w http.ResponseWriter, err error) {
	var verr models.ValidationError
	switch {
	case errors.As(err, &verr):
		code := models.ErrorCodeValidationFailed
		if verr.Missing() {
			code = models.ErrorCodeMissingParameter
		}
		utils.RespondWithError(w, models.NewAPIError(code,
			verr.Error(), verr, http.StatusUnprocessableEntity))
	case errors.Is(err, service.ErrInvalidReading), errors.Is(err, service.ErrInvalidQuery):
		utils.RespondWithError(w, models.NewAPIError(models.ErrorCodeValidationFailed,
			err.Error(), nil, http.StatusUnprocessableEntity))
	case errors.Is(err, service.ErrStoreUnavailable):
		utils.RespondWithError(w, models.NewAPIError(models.ErrorCodeStoreFailure,
			"Failed to store weather data", nil, http.StatusInternalServerError))
	default:
		c.logger.Error("Unhandled service error", zap.Error(err))
		utils.RespondWithError(w, models.NewAPIError(models.ErrorCodeInternalServerError,
			"Internal server error", nil, http.StatusInternalServerError))
	}
}

// decodeJSON reads the request body into dst. Broken JSON is reported as
// invalid_format, well-formed JSON of the wrong shape as bad_request.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	defer r.Body.Close()

	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil {
		return true
	}

	code := models.ErrorCodeBadRequest
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		code = models.ErrorCodeInvalidFormat
	}
	utils.RespondWithError(w, models.NewAPIError(code,
		fmt.Sprintf("error unmarshalling JSON: %v", err), nil, http.StatusBadRequest))
	return false
}
