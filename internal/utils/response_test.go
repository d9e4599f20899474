package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"WeatherMetrics.influxDB/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondWithError(t *testing.T) {
	w := httptest.NewRecorder()
	RespondWithError(w, models.NewAPIError(models.ErrorCodeValidationFailed, "bad humidity", map[string]string{"field": "humidity"}, http.StatusUnprocessableEntity))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "validation_failed", body["code"])
	assert.Equal(t, "bad humidity", body["message"])
	assert.Equal(t, map[string]interface{}{"field": "humidity"}, body["details"])
	assert.NotContains(t, body, "StatusCode")
}

func TestRespondWithJSON(t *testing.T) {
	w := httptest.NewRecorder()
	RespondWithJSON(w, http.StatusCreated, []string{"a", "b"})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `["a","b"]`, w.Body.String())
}
