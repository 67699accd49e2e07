package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/breatheroute/irceline/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.False(t, cfg.Server.RequireTLS)
	assert.False(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "https://geo.irceline.be/wfs", cfg.Irceline.WFSURL)
	assert.Equal(t, "http://ftp.irceline.be/forecast", cfg.Irceline.ForecastFilesURL)
	assert.Equal(t, 60*time.Second, cfg.Irceline.Timeout)
	assert.Equal(t, 20, cfg.Irceline.CacheSize)
	assert.Equal(t, "wms", cfg.Forecast.Source)
	assert.Equal(t, "maxhourly", cfg.Forecast.Basis)
	assert.Equal(t, 15*time.Minute, cfg.Worker.Interval)
	assert.Empty(t, cfg.Worker.Points)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("APP_PORT", "9090")
	t.Setenv("REQUIRE_TLS", "true")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("IRCELINE_TIMEOUT", "5s")
	t.Setenv("IRCELINE_CACHE_SIZE", "50")
	t.Setenv("IRCELINE_USER_AGENT", "breatheroute/2.0")
	t.Setenv("FORECAST_SOURCE", "files")
	t.Setenv("FORECAST_BASIS", "direct")
	t.Setenv("WORKER_POINTS", "brussels@50.8503,4.3517; gent@51.0543,3.7174")
	t.Setenv("PUBSUB_PROJECT_ID", "breatheroute")
	t.Setenv("PUBSUB_SUBSCRIPTION", "irceline-refresh")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.True(t, cfg.Server.RequireTLS)
	assert.Equal(t, 5*time.Second, cfg.Irceline.Timeout)
	assert.Equal(t, 50, cfg.Irceline.CacheSize)
	assert.Equal(t, "breatheroute/2.0", cfg.Irceline.UserAgent)
	assert.Equal(t, "files", cfg.Forecast.Source)
	assert.Equal(t, "direct", cfg.Forecast.Basis)
	assert.Equal(t, config.Points{
		{Name: "brussels", Lat: 50.8503, Lon: 4.3517},
		{Name: "gent", Lat: 51.0543, Lon: 3.7174},
	}, cfg.Worker.Points)
	assert.Equal(t, "irceline-refresh", cfg.Worker.PubSubSubscription)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want config.ErrorType
	}{
		{name: "bad duration", env: map[string]string{"IRCELINE_TIMEOUT": "soon"}, want: config.ErrParsing},
		{name: "bad point", env: map[string]string{"WORKER_POINTS": "brussels"}, want: config.ErrParsing},
		{name: "unknown forecast source", env: map[string]string{"FORECAST_SOURCE": "ftp"}, want: config.ErrValidation},
		{name: "unknown basis", env: map[string]string{"FORECAST_BASIS": "hourly"}, want: config.ErrValidation},
		{name: "empty cache", env: map[string]string{"IRCELINE_CACHE_SIZE": "0"}, want: config.ErrValidation},
		{name: "invalid url", env: map[string]string{"IRCELINE_WFS_URL": "not a url"}, want: config.ErrValidation},
		{name: "project without subscription", env: map[string]string{"PUBSUB_PROJECT_ID": "breatheroute"}, want: config.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := config.Load()
			require.Error(t, err)

			var cfgErr *config.ConfigError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.want, cfgErr.Type)
		})
	}
}

func TestPoints_Decode(t *testing.T) {
	var points config.Points
	require.NoError(t, points.Decode("liege@50.6326,5.5797;;namur@50.4674,4.8720"))
	require.Len(t, points, 2)
	assert.Equal(t, "liege", points[0].Name)
	assert.Equal(t, 4.8720, points[1].Lon)

	assert.Error(t, points.Decode("@50.6,5.5"))
	assert.Error(t, points.Decode("liege@x,5.5"))
	assert.Error(t, points.Decode("liege@50.6"))
}
