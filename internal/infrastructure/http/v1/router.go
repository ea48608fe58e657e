// Package v1 provides HTTP API version 1.
package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"registracion/internal/infrastructure/http/v1/dto"
	"registracion/internal/infrastructure/http/v1/handlers"
	"registracion/internal/infrastructure/http/v1/middleware"
	"registracion/pkg/logger"
	"registracion/pkg/metrics"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	// Weighing serves the /pesaje routes
	Weighing handlers.WeighingService

	// Operations serves the /registracion routes
	Operations handlers.OperationService

	// DB is pinged by the readiness probe
	DB handlers.Pinger

	// Metrics is optional. MetricsHandler is mounted at MetricsPath when set.
	Metrics        *metrics.Metrics
	MetricsHandler http.Handler
	MetricsPath    string
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	dto.RegisterValidators()

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	if cfg.Metrics != nil {
		router.Use(middleware.Metrics(cfg.Metrics))
	}
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.DB)
	router.GET("/health", healthHandler.Live)
	router.GET("/ready", healthHandler.Ready)

	if cfg.MetricsHandler != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		router.GET(path, gin.WrapH(cfg.MetricsHandler))
	}

	api := router.Group("/api")
	api.Use(middleware.Auth(cfg.JWTValidator))
	{
		base := handlers.NewBaseHandler()

		weighingHandler := handlers.NewWeighingHandler(base, cfg.Weighing, cfg.Metrics)
		weighingHandler.RegisterRoutes(api.Group("/pesaje"))

		operationHandler := handlers.NewOperationHandler(base, cfg.Operations)
		operationHandler.RegisterRoutes(api.Group("/registracion"))
	}

	return router
}
