package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_Ingest(t *testing.T) {
	var body map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/weather/data", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"message":"Weather data stored successfully","sensor_id":"s1","timestamp":"2025-03-01T12:00:00Z"}`))
	}))
	defer srv.Close()

	var out bytes.Buffer
	err := run([]string{"-url", srv.URL, "ingest", "-sensor", "s1", "-temperature", "0", "-humidity", "55"}, &out)

	require.NoError(t, err)
	assert.Contains(t, out.String(), `"sensor_id": "s1"`)
	assert.Equal(t, 0.0, body["temperature"])
	assert.Equal(t, 55.0, body["humidity"])
	assert.Nil(t, body["pressure"])
	assert.NotContains(t, body, "timestamp")
}

func TestRun_Query(t *testing.T) {
	var body map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Query-Status", "ok")
		_, _ = w.Write([]byte(`{"sensor_id":"multiple","metrics":["temperature","pressure"],"statistic":"min","results":[],"query_time":"2025-03-01T12:00:00Z"}`))
	}))
	defer srv.Close()

	var out bytes.Buffer
	err := run([]string{"-url", srv.URL, "query", "-sensors", "a, b", "-metrics", "temperature,pressure", "-statistic", "min", "-start", "2025-03-01T00:00:00Z"}, &out)

	require.NoError(t, err)
	assert.Equal(t, []interface{}{"a", "b"}, body["sensor_ids"])
	assert.Equal(t, []interface{}{"temperature", "pressure"}, body["metrics"])
	assert.Equal(t, "min", body["statistic"])
	assert.Equal(t, "2025-03-01T00:00:00Z", body["start_time"])
	assert.Contains(t, out.String(), `"sensor_id": "multiple"`)
}

func TestRun_Listing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/weather/statistics", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`["min","max","sum","average"]`))
	}))
	defer srv.Close()

	var out bytes.Buffer
	require.NoError(t, run([]string{"-url", srv.URL, "statistics"}, &out))
	assert.Contains(t, out.String(), `"average"`)
}

func TestRun_Usage(t *testing.T) {
	tests := [][]string{
		{},
		{"forecast"},
		{"query", "-start", "yesterday"},
		{"-bogus"},
	}
	for _, args := range tests {
		err := run(args, &bytes.Buffer{})
		assert.ErrorIs(t, err, errUsage, "args %v", args)
	}
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList(""))
	assert.Equal(t, []string{"a", "b"}, splitList(" a,,b ,"))
}
