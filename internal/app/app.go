// Package app assembles the IRCEL - CELINE clients and the index service
// from the loaded configuration. It is shared by the API and worker binaries.
package app

import (
	"context"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/breatheroute/irceline/internal/airquality"
	"github.com/breatheroute/irceline/internal/airquality/irceline"
	"github.com/breatheroute/irceline/internal/config"
	"github.com/breatheroute/irceline/internal/provider/resilience"
	"github.com/breatheroute/irceline/internal/telemetry"
)

// Forecast sources accepted by FORECAST_SOURCE.
const (
	ForecastSourceWMS   = "wms"
	ForecastSourceFiles = "files"
)

// ForecastProvider is a forecast client that also lists its capabilities.
type ForecastProvider interface {
	airquality.ForecastProvider
	Capabilities(ctx context.Context) ([]string, error)
}

// Clients holds the IRCEL - CELINE clients of one process.
type Clients struct {
	Rio     *irceline.RioClient
	RioIfdm *irceline.RioIfdmClient

	// Forecast is the client selected by the forecast source.
	Forecast ForecastProvider

	// Files is the file client when the forecast source is "files", nil
	// otherwise.
	Files *irceline.ForecastFileClient

	Registry *resilience.Registry
}

// NewLogger builds the root logger of a process. An unknown level falls
// back to info.
func NewLogger(serviceName, version, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	return zerolog.New(os.Stdout).
		Level(lvl).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", version).
		Logger()
}

// NewClients creates the clients configured by cfg. Every client registers
// its circuit breaker in a shared registry. metrics may be nil.
func NewClients(cfg config.Config, logger zerolog.Logger, metrics *telemetry.UpstreamMetrics) *Clients {
	registry := resilience.NewRegistry()

	base := func(url string) irceline.ClientConfig {
		return irceline.ClientConfig{
			BaseURL:     url,
			Timeout:     cfg.Irceline.Timeout,
			UserAgent:   cfg.Irceline.UserAgent,
			Concurrency: cfg.Irceline.Concurrency,
			Logger:      logger,
			Metrics:     metrics,
			Registry:    registry,
		}
	}

	clients := &Clients{
		Rio:      irceline.NewRioClient(irceline.RioClientConfig{ClientConfig: base(cfg.Irceline.WFSURL)}),
		RioIfdm:  irceline.NewRioIfdmClient(base(cfg.Irceline.RioIfdmWMSURL)),
		Registry: registry,
	}

	if cfg.Forecast.Source == ForecastSourceFiles {
		clients.Files = irceline.NewForecastFileClient(irceline.ForecastFileClientConfig{
			ClientConfig:    base(cfg.Irceline.ForecastFilesURL),
			CacheSize:       cfg.Irceline.CacheSize,
			CapabilitiesURL: cfg.Irceline.ForecastWMSURL,
		})
		clients.Forecast = clients.Files
	} else {
		clients.Forecast = irceline.NewForecastClient(base(cfg.Irceline.ForecastWMSURL))
	}

	logger.Info().
		Str("forecast_source", cfg.Forecast.Source).
		Int("providers", registry.ProviderCount()).
		Msg("IRCEL - CELINE clients initialized")

	return clients
}

// NewService creates the index service over clients.
func NewService(cfg config.Config, clients *Clients, logger zerolog.Logger) *airquality.Service {
	return airquality.NewService(airquality.ServiceConfig{
		Measurements: clients.Rio,
		Forecasts:    clients.Forecast,
		Basis:        airquality.ForecastBasis(cfg.Forecast.Basis),
		Logger:       logger.With().Str("component", "belaqi").Logger(),
	})
}
