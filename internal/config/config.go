// Package config loads the service configuration from the environment.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Config is the configuration shared by the API server and the worker.
type Config struct {
	Environment string `envconfig:"APP_ENV" default:"development" validate:"oneof=development test staging production"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=trace debug info warn error"`

	Server    ServerConfig
	Telemetry TelemetryConfig
	Irceline  IrcelineConfig
	Forecast  ForecastConfig
	Worker    WorkerConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port       string `envconfig:"APP_PORT" default:"8080" validate:"required,numeric"`
	RequireTLS bool   `envconfig:"REQUIRE_TLS" default:"false"`
}

// TelemetryConfig holds OpenTelemetry settings.
type TelemetryConfig struct {
	Enabled     bool    `envconfig:"OTEL_ENABLED" default:"false"`
	Endpoint    string  `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT" default:"localhost:4317"`
	SampleRatio float64 `envconfig:"OTEL_SAMPLE_RATIO" default:"1" validate:"gte=0,lte=1"`
}

// IrcelineConfig holds the IRCEL - CELINE endpoints and client settings.
type IrcelineConfig struct {
	WFSURL           string        `envconfig:"IRCELINE_WFS_URL" default:"https://geo.irceline.be/wfs" validate:"required,url"`
	RioIfdmWMSURL    string        `envconfig:"IRCELINE_RIOIFDM_WMS_URL" default:"https://geobelair.irceline.be/rioifdm/wms" validate:"required,url"`
	ForecastWMSURL   string        `envconfig:"IRCELINE_FORECAST_WMS_URL" default:"https://geo.irceline.be/forecast/wms" validate:"required,url"`
	ForecastFilesURL string        `envconfig:"IRCELINE_FORECAST_FILES_URL" default:"http://ftp.irceline.be/forecast" validate:"required,url"`
	Timeout          time.Duration `envconfig:"IRCELINE_TIMEOUT" default:"60s" validate:"gt=0"`
	CacheSize        int           `envconfig:"IRCELINE_CACHE_SIZE" default:"20" validate:"gte=1"`
	Concurrency      int           `envconfig:"IRCELINE_CONCURRENCY" default:"8" validate:"gte=1"`
	UserAgent        string        `envconfig:"IRCELINE_USER_AGENT" default:"github.com/breatheroute/irceline" validate:"required"`
}

// ForecastConfig selects how forecasts are retrieved and indexed.
type ForecastConfig struct {
	// Source is "wms" for the map service or "files" for the published CSV files.
	Source string `envconfig:"FORECAST_SOURCE" default:"wms" validate:"oneof=wms files"`

	// Basis is "maxhourly" (ratio converted) or "direct".
	Basis string `envconfig:"FORECAST_BASIS" default:"maxhourly" validate:"oneof=maxhourly direct"`
}

// WorkerConfig holds settings for the refresh worker.
type WorkerConfig struct {
	Interval           time.Duration `envconfig:"WORKER_INTERVAL" default:"15m" validate:"gt=0"`
	Concurrency        int           `envconfig:"WORKER_CONCURRENCY" default:"4" validate:"gte=1"`
	Points             Points        `envconfig:"WORKER_POINTS"`
	PubSubProjectID    string        `envconfig:"PUBSUB_PROJECT_ID"`
	PubSubSubscription string        `envconfig:"PUBSUB_SUBSCRIPTION" validate:"required_with=PubSubProjectID"`
}

// Point is a named location refreshed by the worker.
type Point struct {
	Name string
	Lat  float64
	Lon  float64
}

// Points is a list of points written as "name@lat,lon" entries separated by
// semicolons, e.g. "brussels@50.8503,4.3517;gent@51.0543,3.7174".
type Points []Point

// Decode implements envconfig.Decoder.
func (p *Points) Decode(value string) error {
	var points Points
	for _, entry := range strings.Split(value, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		name, coords, ok := strings.Cut(entry, "@")
		if !ok || name == "" {
			return fmt.Errorf("point %q: expected name@lat,lon", entry)
		}
		latStr, lonStr, ok := strings.Cut(coords, ",")
		if !ok {
			return fmt.Errorf("point %q: expected name@lat,lon", entry)
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
		if err != nil {
			return fmt.Errorf("point %q: latitude: %w", entry, err)
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
		if err != nil {
			return fmt.Errorf("point %q: longitude: %w", entry, err)
		}
		points = append(points, Point{Name: strings.TrimSpace(name), Lat: lat, Lon: lon})
	}
	*p = points
	return nil
}

// ErrorType categorizes configuration loading failures.
type ErrorType string

const (
	// ErrParsing indicates a value that could not be decoded into its field.
	ErrParsing ErrorType = "PARSING_FAILED"
	// ErrValidation indicates the configuration failed validation rules.
	ErrValidation ErrorType = "VALIDATION_FAILED"
)
