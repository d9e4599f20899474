package client

import (
	"fmt"
	"time"

	"WeatherMetrics.influxDB/internal/models"

	"github.com/go-resty/resty/v2"
)

const (
	apiPrefix      = "/api/v1/weather"
	queryStatusKey = "X-Query-Status"
)

// Client talks to a running weather data service.
type Client struct {
	http *resty.Client
}

// New returns a client for baseURL. token is sent as a bearer token when set.
func New(baseURL, token string, timeout time.Duration) *Client {
	r := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if token != "" {
		r.SetAuthToken(token)
	}
	return &Client{http: r}
}

// SubmitReading posts one reading payload.
func (c *Client) SubmitReading(payload models.ReadingPayload) (models.IngestResponse, error) {
	var out models.IngestResponse
	var apiErr models.APIError
	resp, err := c.http.R().
		SetBody(payload).
		SetResult(&out).
		SetError(&apiErr).
		Post(apiPrefix + "/data")
	if err := check(resp, err, &apiErr); err != nil {
		return models.IngestResponse{}, err
	}
	return out, nil
}

// Query runs an aggregation query. The degraded flag comes from the
// X-Query-Status header.
func (c *Client) Query(req models.QueryRequest) (models.QueryResponse, error) {
	var out models.QueryResponse
	var apiErr models.APIError
	resp, err := c.http.R().
		SetBody(req).
		SetResult(&out).
		SetError(&apiErr).
		Post(apiPrefix + "/query")
	if err := check(resp, err, &apiErr); err != nil {
		return models.QueryResponse{}, err
	}
	out.Status = models.QueryStatus(resp.Header().Get(queryStatusKey))
	return out, nil
}

func (c *Client) Sensors() ([]string, error) {
	var out []string
	return out, c.get("/sensors", &out)
}

func (c *Client) Metrics() ([]models.Metric, error) {
	var out []models.Metric
	return out, c.get("/metrics", &out)
}

func (c *Client) Statistics() ([]models.Statistic, error) {
	var out []models.Statistic
	return out, c.get("/statistics", &out)
}

func (c *Client) get(path string, out interface{}) error {
	var apiErr models.APIError
	resp, err := c.http.R().
		SetResult(out).
		SetError(&apiErr).
		Get(apiPrefix + path)
	return check(resp, err, &apiErr)
}

func check(resp *resty.Response, err error, apiErr *models.APIError) error {
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	if resp.IsError() {
		apiErr.StatusCode = resp.StatusCode()
		if apiErr.Message == "" {
			apiErr.Message = resp.Status()
		}
		return *apiErr
	}
	return nil
}
