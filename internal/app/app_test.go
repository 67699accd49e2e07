package app_test

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/breatheroute/irceline/internal/airquality"
	"github.com/breatheroute/irceline/internal/airquality/irceline"
	"github.com/breatheroute/irceline/internal/app"
	"github.com/breatheroute/irceline/internal/config"
)

func loadConfig(t *testing.T, env map[string]string) config.Config {
	t.Helper()
	for k, v := range env {
		t.Setenv(k, v)
	}
	cfg, err := config.Load()
	require.NoError(t, err)
	return *cfg
}

func TestNewClients_WMSForecast(t *testing.T) {
	cfg := loadConfig(t, nil)

	clients := app.NewClients(cfg, zerolog.Nop(), nil)

	require.NotNil(t, clients.Rio)
	require.NotNil(t, clients.RioIfdm)
	assert.Nil(t, clients.Files)
	assert.IsType(t, &irceline.ForecastClient{}, clients.Forecast)
	assert.Equal(t, []string{
		irceline.ProviderForecast,
		irceline.ProviderRio,
		irceline.ProviderRioIfdm,
	}, clients.Registry.GetProviderNames())
}

func TestNewClients_FileForecast(t *testing.T) {
	cfg := loadConfig(t, map[string]string{
		"FORECAST_SOURCE":     "files",
		"IRCELINE_CACHE_SIZE": "5",
	})

	clients := app.NewClients(cfg, zerolog.Nop(), nil)

	require.NotNil(t, clients.Files)
	assert.Same(t, clients.Files, clients.Forecast)
	assert.Empty(t, clients.Files.CachedFiles())
	assert.Contains(t, clients.Registry.GetProviderNames(), irceline.ProviderForecastFiles)
}

func TestNewService_Basis(t *testing.T) {
	cfg := loadConfig(t, map[string]string{"FORECAST_BASIS": "direct"})

	svc := app.NewService(cfg, app.NewClients(cfg, zerolog.Nop(), nil), zerolog.Nop())

	assert.Equal(t, airquality.BasisDirect, svc.Basis())
	assert.Contains(t, svc.ForecastFeatures(), airquality.ForecastO3Max8hMean)
}

func TestNewLogger_Level(t *testing.T) {
	tests := []struct {
		level string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"WARN", zerolog.WarnLevel},
		{"", zerolog.InfoLevel},
		{"verbose", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger := app.NewLogger("irceline-test", "dev", tt.level)
			assert.Equal(t, tt.want, logger.GetLevel())
		})
	}
}
