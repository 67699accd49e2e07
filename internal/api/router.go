// Package api provides the HTTP API serving IRCEL - CELINE air quality data.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/breatheroute/irceline/internal/airquality"
	"github.com/breatheroute/irceline/internal/api/handler"
	"github.com/breatheroute/irceline/internal/api/middleware"
	"github.com/breatheroute/irceline/internal/provider/resilience"
)

// RioSource serves RIO measurements and their capabilities.
type RioSource interface {
	airquality.MeasurementProvider
	handler.CapabilitiesProvider
}

// RioIfdmSource serves RIO-IFDM probes and their capabilities.
type RioIfdmSource interface {
	handler.RioIfdmProvider
	handler.CapabilitiesProvider
}

// ForecastSource serves forecasts and their capabilities.
type ForecastSource interface {
	airquality.ForecastProvider
	handler.CapabilitiesProvider
}

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics
	RequireTLS  bool
	Registry    *resilience.Registry
	Index       handler.IndexService
	Rio         RioSource
	RioIfdm     RioIfdmSource
	Forecast    ForecastSource
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Set default service name if not provided
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "irceline-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))         // Structured logging
	r.Use(middleware.Recovery(cfg.Logger))       // Panic recovery
	r.Use(chimiddleware.RealIP)                  // Real IP extraction
	r.Use(middleware.SecurityHeaders)            // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS(cfg.RequireTLS)) // TLS enforcement
	r.Use(middleware.ContentTypeJSON)            // JSON content type

	var files handler.FileCache
	if fc, ok := cfg.Forecast.(handler.FileCache); ok {
		files = fc
	}

	capabilities := make(map[airquality.Source]handler.CapabilitiesProvider)
	featuresCfg := handler.FeaturesConfig{Logger: cfg.Logger}
	if cfg.Rio != nil {
		capabilities[airquality.SourceRio] = cfg.Rio
		featuresCfg.Rio = cfg.Rio
	}
	if cfg.RioIfdm != nil {
		capabilities[airquality.SourceRioIfdm] = cfg.RioIfdm
		featuresCfg.RioIfdm = cfg.RioIfdm
	}
	if cfg.Forecast != nil {
		capabilities[airquality.SourceForecast] = cfg.Forecast
		featuresCfg.Forecast = cfg.Forecast
	}

	// Initialize handlers
	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.Registry, files)
	featureHandler := handler.NewFeatureHandler(featuresCfg)
	capabilitiesHandler := handler.NewCapabilitiesHandler(capabilities, cfg.Logger)

	// Create rate limit middleware for different endpoint categories
	upstreamRateLimit := middleware.RateLimitByIP(middleware.UpstreamRateLimit) // 30 req/min
	indexRateLimit := middleware.RateLimitByIP(middleware.IndexRateLimit)       // 60 req/min
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit) // 100 req/min

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.With(standardRateLimit).Get("/status", opsHandler.SystemStatus)
		})

		// Index endpoints
		if cfg.Index != nil {
			belaqiHandler := handler.NewBelAQIHandler(cfg.Index, cfg.Logger)
			r.Route("/belaqi", func(r chi.Router) {
				r.Use(indexRateLimit)
				r.Get("/current", belaqiHandler.Current)
				r.Get("/daily", belaqiHandler.Daily)
				// Forecasts fan out to one upstream request per feature and day
				r.With(upstreamRateLimit).Get("/forecast", belaqiHandler.Forecast)
			})
		}

		// Raw feature values
		r.With(upstreamRateLimit).Get("/features/{source}", featureHandler.GetFeatures)

		r.With(standardRateLimit).Get("/capabilities/{source}", capabilitiesHandler.GetCapabilities)
	})

	return r
}
