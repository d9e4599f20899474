package routes

import (
	"net/http"

	"WeatherMetrics.influxDB/internal/controller"
	"WeatherMetrics.influxDB/internal/middleware"
	"WeatherMetrics.influxDB/internal/models"
	"WeatherMetrics.influxDB/internal/utils"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const apiPrefix = "/api/v1/weather"

// RegisterRoutes builds the application router. auth guards the /api/v1
// routes and may be nil.
func RegisterRoutes(c *controller.WeatherController, auth func(http.Handler) http.Handler, logger *zap.Logger) *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Metrics)
	router.Use(middleware.Logging(logger))

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		utils.RespondWithError(w, models.NewAPIError(models.ErrorCodeNotFound,
			"Resource not found", nil, http.StatusNotFound))
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		utils.RespondWithError(w, models.NewAPIError(models.ErrorCodeMethodNotAllowed,
			"Method not allowed", nil, http.StatusMethodNotAllowed))
	})

	router.HandleFunc("/", c.HandleRoot).Methods(http.MethodGet)
	router.HandleFunc("/health", c.HandleHealth).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	// API routes live on the root router: a wrong method must yield 405.
	guard := func(h http.HandlerFunc) http.Handler {
		if auth == nil {
			return h
		}
		return auth(h)
	}
	router.Handle(apiPrefix+"/data", guard(c.HandleSubmitReading)).Methods(http.MethodPost)
	router.Handle(apiPrefix+"/query", guard(c.HandleQuery)).Methods(http.MethodPost)
	router.Handle(apiPrefix+"/sensors", guard(c.HandleListSensors)).Methods(http.MethodGet)
	router.Handle(apiPrefix+"/metrics", guard(c.HandleListMetrics)).Methods(http.MethodGet)
	router.Handle(apiPrefix+"/statistics", guard(c.HandleListStatistics)).Methods(http.MethodGet)

	return router
}
