package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application's configuration.
type Config struct {
	InfluxDB InfluxDBConfig
	Auth     AuthConfig
	MQTT     MQTTConfig

	Port               string
	LogLevel           string
	QueryDefaultWindow time.Duration
	SensorListWindow   time.Duration
	MaxClockSkew       time.Duration
	GatewayTimeout     time.Duration
	CORSAllowedOrigins []string
}

type InfluxDBConfig struct {
	URL          string
	Token        string
	Org          string
	Bucket       string
	Measurement  string
	CreateBucket bool
}

// AuthConfig enables JWT validation when both fields are set.
type AuthConfig struct {
	Issuer   string
	Audience string
}

func (a AuthConfig) Enabled() bool {
	return a.Issuer != "" && a.Audience != ""
}

// MQTTConfig enables the MQTT ingest subscriber when Broker is set.
type MQTTConfig struct {
	Broker   string
	Topic    string
	ClientID string
}

func (m MQTTConfig) Enabled() bool {
	return m.Broker != ""
}

// LoadConfig loads the configuration from a .env file, if any, and the environment.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on system environment variables")
	}
	return FromEnv()
}

// FromEnv builds the configuration from environment variables only.
func FromEnv() (Config, error) {
	cfg := Config{
		InfluxDB: InfluxDBConfig{
			URL:          os.Getenv("INFLUXDB_URL"),
			Token:        os.Getenv("INFLUXDB_TOKEN"),
			Org:          os.Getenv("INFLUXDB_ORG"),
			Bucket:       os.Getenv("INFLUXDB_BUCKET"),
			Measurement:  getEnv("INFLUXDB_MEASUREMENT", "weather_metrics"),
			CreateBucket: getEnvAsBool("INFLUXDB_CREATE_BUCKET", false),
		},
		Auth: AuthConfig{
			Issuer:   os.Getenv("AUTH0_ISSUER"),
			Audience: os.Getenv("AUTH0_AUDIENCE"),
		},
		MQTT: MQTTConfig{
			Broker:   os.Getenv("MQTT_BROKER"),
			Topic:    getEnv("MQTT_TOPIC", "weather/readings"),
			ClientID: getEnv("MQTT_CLIENT_ID", "weather-metrics"),
		},
		Port:               getEnv("PORT", "8000"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
	}

	durations := []struct {
		key      string
		fallback time.Duration
		dst      *time.Duration
	}{
		{"QUERY_DEFAULT_WINDOW", 24 * time.Hour, &cfg.QueryDefaultWindow},
		{"SENSOR_LIST_WINDOW", 30 * 24 * time.Hour, &cfg.SensorListWindow},
		{"MAX_CLOCK_SKEW", 5 * time.Minute, &cfg.MaxClockSkew},
		{"GATEWAY_TIMEOUT", 10 * time.Second, &cfg.GatewayTimeout},
	}
	for _, d := range durations {
		v, err := getEnvAsDuration(d.key, d.fallback)
		if err != nil {
			return Config{}, err
		}
		*d.dst = v
	}

	if cfg.InfluxDB.URL == "" || cfg.InfluxDB.Token == "" || cfg.InfluxDB.Org == "" || cfg.InfluxDB.Bucket == "" {
		return Config{}, fmt.Errorf("InfluxDB configuration is incomplete. Please set INFLUXDB_URL, INFLUXDB_TOKEN, INFLUXDB_ORG and INFLUXDB_BUCKET environment variables")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be positive", key, value)
	}
	return d, nil
}

func getEnvAsList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
