package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"WeatherMetrics.influxDB/internal/client"
	"WeatherMetrics.influxDB/internal/logger"
	"WeatherMetrics.influxDB/internal/models"

	"go.uber.org/zap"
)

const usage = `usage: weatherctl [-url URL] [-token TOKEN] <command> [flags]

commands:
  ingest      submit one reading
  query       run an aggregation query
  sensors     list sensors that reported recently
  metrics     list queryable metrics
  statistics  list supported statistics
`

var errUsage = errors.New("invalid usage")

func main() {
	log, err := logger.NewLogger(os.Getenv("LOG_LEVEL"))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, err)
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		log.Fatal("weatherctl failed", zap.Error(err))
	}
}

func run(args []string, out io.Writer) error {
	global := flag.NewFlagSet("weatherctl", flag.ContinueOnError)
	global.SetOutput(io.Discard)
	baseURL := global.String("url", envOr("WEATHER_API_URL", "http://localhost:8000"), "service base URL")
	token := global.String("token", os.Getenv("WEATHER_API_TOKEN"), "bearer token")
	timeout := global.Duration("timeout", 10*time.Second, "request timeout")
	if err := global.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if global.NArg() == 0 {
		return errUsage
	}

	c := client.New(*baseURL, *token, *timeout)
	cmd, rest := global.Arg(0), global.Args()[1:]

	var result interface{}
	var err error
	switch cmd {
	case "ingest":
		result, err = ingest(c, rest)
	case "query":
		result, err = query(c, rest)
	case "sensors":
		result, err = c.Sensors()
	case "metrics":
		result, err = c.Metrics()
	case "statistics":
		result, err = c.Statistics()
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func ingest(c *client.Client, args []string) (models.IngestResponse, error) {
	fs := flag.NewFlagSet("ingest", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	sensor := fs.String("sensor", "", "sensor id")
	temperature := fs.Float64("temperature", 0, "temperature in °C")
	humidity := fs.Float64("humidity", 0, "relative humidity in %")
	windSpeed := fs.Float64("wind-speed", 0, "wind speed in km/h")
	pressure := fs.Float64("pressure", 0, "pressure in hPa")
	timestamp := fs.String("timestamp", "", "RFC3339 observation time (default: now)")
	if err := fs.Parse(args); err != nil {
		return models.IngestResponse{}, fmt.Errorf("%w: %v", errUsage, err)
	}

	payload := models.ReadingPayload{SensorID: *sensor}
	// only flags given on the command line are sent, so the service can
	// report the missing ones
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "temperature":
			payload.Temperature = temperature
		case "humidity":
			payload.Humidity = humidity
		case "wind-speed":
			payload.WindSpeed = windSpeed
		case "pressure":
			payload.Pressure = pressure
		}
	})
	if *timestamp != "" {
		ts, err := time.Parse(time.RFC3339, *timestamp)
		if err != nil {
			return models.IngestResponse{}, fmt.Errorf("%w: bad timestamp: %v", errUsage, err)
		}
		payload.Timestamp = &ts
	}

	return c.SubmitReading(payload)
}

func query(c *client.Client, args []string) (models.QueryResponse, error) {
	fs := flag.NewFlagSet("query", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	sensors := fs.String("sensors", "", "comma separated sensor ids (default: all)")
	metrics := fs.String("metrics", "", "comma separated metrics")
	statistic := fs.String("statistic", string(models.StatisticAverage), "min, max, sum or average")
	start := fs.String("start", "", "RFC3339 range start")
	end := fs.String("end", "", "RFC3339 range end")
	if err := fs.Parse(args); err != nil {
		return models.QueryResponse{}, fmt.Errorf("%w: %v", errUsage, err)
	}

	req := models.QueryRequest{
		SensorIDs: splitList(*sensors),
		Statistic: models.Statistic(*statistic),
	}
	for _, m := range splitList(*metrics) {
		req.Metrics = append(req.Metrics, models.Metric(m))
	}

	var err error
	if req.StartTime, err = parseOptionalTime(*start); err != nil {
		return models.QueryResponse{}, err
	}
	if req.EndTime, err = parseOptionalTime(*end); err != nil {
		return models.QueryResponse{}, err
	}

	resp, err := c.Query(req)
	if err != nil {
		return models.QueryResponse{}, err
	}
	if resp.Degraded() {
		fmt.Fprintln(os.Stderr, "warning: the store could not answer, results are empty")
	}
	return resp, nil
}

func parseOptionalTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, fmt.Errorf("%w: bad time %q: %v", errUsage, s, err)
	}
	return &t, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
