package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"WeatherMetrics.influxDB/internal/models"
	"WeatherMetrics.influxDB/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Ingest(ctx context.Context, reading models.Reading) error {
	args := m.Called(ctx, reading)
	return args.Error(0)
}

func (m *MockService) Query(ctx context.Context, req models.QueryRequest) (models.QueryResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(models.QueryResponse), args.Error(1)
}

func (m *MockService) ListSensors(ctx context.Context) []string {
	args := m.Called(ctx)
	return args.Get(0).([]string)
}

func (m *MockService) ListMetrics() []models.Metric {
	return models.Metrics()
}

func (m *MockService) ListStatistics() []models.Statistic {
	return models.Statistics()
}

func (m *MockService) CheckHealth(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestController(svc *MockService) *WeatherController {
	c := NewWeatherController(svc, zap.NewNop())
	c.now = func() time.Time { return fixedNow }
	return c
}

func TestWeatherController_SubmitReading(t *testing.T) {
	svc := new(MockService)
	c := newTestController(svc)

	expected := models.Reading{
		SensorID:    "sensor_abc",
		Temperature: 23.5,
		Humidity:    32,
		WindSpeed:   10.2,
		Pressure:    1009,
		Timestamp:   fixedNow,
	}
	svc.On("Ingest", mock.Anything, expected).Return(nil)

	body := `{"sensor_id": "sensor_abc", "temperature": 23.5, "humidity": 32, "wind_speed": 10.2, "pressure": 1009}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/weather/data", strings.NewReader(body))
	w := httptest.NewRecorder()

	c.HandleSubmitReading(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp models.IngestResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "sensor_abc", resp.SensorID)
	assert.Equal(t, "Weather data stored successfully", resp.Message)
	assert.True(t, resp.Timestamp.Equal(fixedNow))
	svc.AssertExpectations(t)
}

func TestWeatherController_SubmitReading_MissingField(t *testing.T) {
	svc := new(MockService)
	c := newTestController(svc)

	body := `{"sensor_id": "sensor_abc", "humidity": 32, "wind_speed": 10.2, "pressure": 1009}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/weather/data", strings.NewReader(body))
	w := httptest.NewRecorder()

	c.HandleSubmitReading(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var apiErr map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
	assert.Equal(t, "missing_parameter", apiErr["code"])
	assert.Equal(t, "temperature", apiErr["details"].(map[string]interface{})["field"])
	svc.AssertNotCalled(t, "Ingest", mock.Anything, mock.Anything)
}

func TestWeatherController_SubmitReading_OutOfRange(t *testing.T) {
	svc := new(MockService)
	c := newTestController(svc)

	body := `{"sensor_id": "s1", "temperature": 23.5, "humidity": 150, "wind_speed": 10.2, "pressure": 1009}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/weather/data", strings.NewReader(body))
	w := httptest.NewRecorder()

	c.HandleSubmitReading(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var apiErr map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
	assert.Equal(t, "validation_failed", apiErr["code"])
	assert.Equal(t, "humidity", apiErr["details"].(map[string]interface{})["field"])
	svc.AssertNotCalled(t, "Ingest", mock.Anything, mock.Anything)
}

func TestWeatherController_SubmitReading_MalformedJSON(t *testing.T) {
	tests := []struct {
		name string
		body string
		code string
	}{
		{"truncated", `{"sensor_id":`, "invalid_format"},
		{"empty body", ``, "invalid_format"},
		{"not json", `sensor_id=s1`, "invalid_format"},
		{"wrong type", `{"sensor_id": "s1", "temperature": "warm"}`, "bad_request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			c := newTestController(svc)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/weather/data", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			c.HandleSubmitReading(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			var apiErr map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
			assert.Equal(t, tt.code, apiErr["code"])
			svc.AssertNotCalled(t, "Ingest", mock.Anything, mock.Anything)
		})
	}
}

func TestWeatherController_SubmitReading_ServiceErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{
			name:     "clock skew",
			err:      fmt.Errorf("%w: %w", service.ErrInvalidReading, models.ValidationError{Field: "timestamp", Reason: "too far ahead"}),
			expected: http.StatusUnprocessableEntity,
		},
		{
			name:     "store failure",
			err:      fmt.Errorf("%w: %w", service.ErrStoreUnavailable, errors.New("disk full")),
			expected: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			c := newTestController(svc)
			svc.On("Ingest", mock.Anything, mock.Anything).Return(tt.err)

			body := `{"sensor_id": "s1", "temperature": 1, "humidity": 1, "wind_speed": 1, "pressure": 1000}`
			req := httptest.NewRequest(http.MethodPost, "/api/v1/weather/data", strings.NewReader(body))
			w := httptest.NewRecorder()

			c.HandleSubmitReading(w, req)
			assert.Equal(t, tt.expected, w.Code)
		})
	}
}

func TestWeatherController_Query(t *testing.T) {
	svc := new(MockService)
	c := newTestController(svc)

	expectedReq := models.QueryRequest{
		SensorIDs: []string{"s1"},
		Metrics:   []models.Metric{models.MetricTemperature},
		Statistic: models.StatisticAverage,
	}
	svc.On("Query", mock.Anything, expectedReq).Return(models.QueryResponse{
		SensorID:  "s1",
		Metrics:   expectedReq.Metrics,
		Statistic: expectedReq.Statistic,
		Results:   []models.QueryResult{{SensorID: "s1", Metric: "temperature", Value: 23.5}},
		QueryTime: fixedNow,
		Status:    models.QueryStatusOK,
	}, nil)

	body := `{"sensor_ids": ["s1"], "metrics": ["temperature"], "statistic": "average"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/weather/query", strings.NewReader(body))
	w := httptest.NewRecorder()

	c.HandleQuery(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Header().Get(QueryStatusHeader))
	assert.JSONEq(t, `{
		"sensor_id": "s1",
		"metrics": ["temperature"],
		"statistic": "average",
		"results": [{"sensor_id": "s1", "metric": "temperature", "value": 23.5}],
		"query_time": "2025-03-01T12:00:00Z"
	}`, w.Body.String())
	svc.AssertExpectations(t)
}

func TestWeatherController_Query_Degraded(t *testing.T) {
	svc := new(MockService)
	c := newTestController(svc)

	svc.On("Query", mock.Anything, mock.Anything).Return(models.QueryResponse{
		SensorID:  "all",
		Metrics:   []models.Metric{models.MetricPressure},
		Statistic: models.StatisticMax,
		Results:   []models.QueryResult{},
		QueryTime: fixedNow,
		Status:    models.QueryStatusDegraded,
	}, nil)

	body := `{"metrics": ["pressure"], "statistic": "max"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/weather/query", strings.NewReader(body))
	w := httptest.NewRecorder()

	c.HandleQuery(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "degraded", w.Header().Get(QueryStatusHeader))
	assert.Contains(t, w.Body.String(), `"results":[]`)
}

func TestWeatherController_Query_Invalid(t *testing.T) {
	svc := new(MockService)
	c := newTestController(svc)

	svc.On("Query", mock.Anything, mock.Anything).Return(models.QueryResponse{},
		fmt.Errorf("%w: %w", service.ErrInvalidQuery, models.ValidationError{Field: "metrics", Reason: `invalid metric "rain"`}))

	body := `{"metrics": ["rain"], "statistic": "max"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/weather/query", strings.NewReader(body))
	w := httptest.NewRecorder()

	c.HandleQuery(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "rain")
}

func TestWeatherController_Listings(t *testing.T) {
	svc := new(MockService)
	c := newTestController(svc)
	svc.On("ListSensors", mock.Anything).Return([]string{"s1", "s2"})

	tests := []struct {
		name     string
		handler  http.HandlerFunc
		expected string
	}{
		{"sensors", c.HandleListSensors, `["s1","s2"]`},
		{"metrics", c.HandleListMetrics, `["temperature","humidity","wind_speed","pressure"]`},
		{"statistics", c.HandleListStatistics, `["min","max","sum","average"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.handler(w, httptest.NewRequest(http.MethodGet, "/api/v1/weather/"+tt.name, nil))

			assert.Equal(t, http.StatusOK, w.Code)
			assert.JSONEq(t, tt.expected, w.Body.String())
		})
	}
}

func TestWeatherController_Health(t *testing.T) {
	svc := new(MockService)
	c := newTestController(svc)
	svc.On("CheckHealth", mock.Anything).Return(nil).Once()
	svc.On("CheckHealth", mock.Anything).Return(errors.New("influx down")).Once()

	w := httptest.NewRecorder()
	c.HandleHealth(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")

	w = httptest.NewRecorder()
	c.HandleHealth(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
