package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"WeatherMetrics.influxDB/internal/config"
	"WeatherMetrics.influxDB/internal/controller"
	"WeatherMetrics.influxDB/internal/logger"
	"WeatherMetrics.influxDB/internal/middleware"
	"WeatherMetrics.influxDB/internal/mqtt"
	"WeatherMetrics.influxDB/internal/repository"
	"WeatherMetrics.influxDB/internal/routes"
	"WeatherMetrics.influxDB/internal/service"

	"github.com/rs/cors"
	"go.uber.org/zap"
)

const (
	startupTimeout  = 30 * time.Second
	shutdownTimeout = 30 * time.Second
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	appLogger, err := logger.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() {
		_ = appLogger.Sync()
	}()
	zap.ReplaceGlobals(appLogger)

	appLogger.Info("Starting Weather Data Service", zap.String("version", controller.Version))

	// Initialize repository, service, and controller
	repo := repository.NewInfluxDBRepository(cfg.InfluxDB, cfg.GatewayTimeout, appLogger)
	startCtx, startCancel := context.WithTimeout(context.Background(), startupTimeout)
	err = repo.Initialize(startCtx)
	startCancel()
	if err != nil {
		appLogger.Fatal("Failed to initialize InfluxDB", zap.Error(err))
	}
	defer repo.Close()

	weatherService := service.NewWeatherService(repo, service.Options{
		Query:            repo.QueryOptions(cfg.QueryDefaultWindow),
		SensorListWindow: cfg.SensorListWindow,
		MaxClockSkew:     cfg.MaxClockSkew,
		GatewayTimeout:   cfg.GatewayTimeout,
	}, appLogger)
	weatherController := controller.NewWeatherController(weatherService, appLogger)

	var auth func(http.Handler) http.Handler
	if cfg.Auth.Enabled() {
		auth, err = middleware.NewJWTMiddleware(cfg.Auth.Issuer, cfg.Auth.Audience, appLogger)
		if err != nil {
			appLogger.Fatal("Failed to set up JWT authentication", zap.Error(err))
		}
		appLogger.Info("JWT authentication enabled", zap.String("issuer", cfg.Auth.Issuer))
	}

	router := routes.RegisterRoutes(weatherController, auth, appLogger)
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposedHeaders:   []string{controller.QueryStatusHeader, middleware.RequestIDHeader},
		AllowCredentials: false,
	}).Handler(router)

	if cfg.MQTT.Enabled() {
		subscriber := mqtt.NewSubscriber(cfg.MQTT, weatherService, appLogger)
		if err := subscriber.Start(); err != nil {
			appLogger.Fatal("Failed to start MQTT subscriber", zap.Error(err))
		}
		defer subscriber.Stop()
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           corsHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.Info("Listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP server shutdown failed", zap.Error(err))
	}

	appLogger.Info("Weather Data Service stopped")
}
