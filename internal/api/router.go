package api

import (
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/alexivanou/placematch-api/internal/config"
	"github.com/alexivanou/placematch-api/internal/service"
	"github.com/alexivanou/placematch-api/internal/stats"
)

// RouterConfig holds what the router needs besides the service
type RouterConfig struct {
	Name    string
	Version string
	Policy  config.Policy
	// Stats is optional; /api/v1/stats is not mounted without it.
	Stats *stats.Collector
}

// NewRouter creates a new HTTP router
func NewRouter(service service.ServiceInterface, cfg RouterConfig, logger *zap.Logger) *mux.Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	handler := NewHandler(service, cfg.Name, cfg.Version, logger)

	router := mux.NewRouter()
	router.Use(
		RequestIDMiddleware,
		LoggingMiddleware(logger),
		RecoveryMiddleware(logger),
		CORSMiddleware(cfg.Policy.AllowedOrigins),
	)

	router.HandleFunc("/health", handler.HealthCheck).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Match endpoint dispatches on method itself
	router.HandleFunc("/api/like", handler.Match)

	v1 := router.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/match", handler.Match)
	if cfg.Stats != nil {
		v1.HandleFunc("/stats", NewStatsHandler(cfg.Stats, logger).GetStats).Methods("GET")
	}

	return router
}
