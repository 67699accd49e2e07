package resilience_test

import (
	"errors"
	"testing"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/breatheroute/irceline/internal/provider/resilience"
)

func registeredClient(registry *resilience.Registry, name string) *resilience.Client {
	cfg := resilience.DefaultClientConfig(name)
	cfg.Registry = registry
	return resilience.NewClient(cfg)
}

func TestRegistry_RegisterAndGetHealth(t *testing.T) {
	registry := resilience.NewRegistry()
	client := registeredClient(registry, "irceline-wfs")

	assert.Equal(t, 1, registry.ProviderCount())
	assert.Equal(t, "irceline-wfs", client.Name())

	health := registry.GetHealth("irceline-wfs")
	require.NotNil(t, health)
	assert.Equal(t, "irceline-wfs", health.Name)
	assert.Equal(t, gobreaker.StateClosed, health.CircuitState)
	assert.Equal(t, resilience.StatusHealthy, health.Status())
	assert.Nil(t, health.LastSuccessAt)
	assert.Nil(t, health.LastFailureAt)
}

func TestRegistry_Unregister(t *testing.T) {
	registry := resilience.NewRegistry()
	registeredClient(registry, "irceline-wfs")

	registry.Unregister("irceline-wfs")

	assert.Equal(t, 0, registry.ProviderCount())
	assert.Nil(t, registry.GetHealth("irceline-wfs"))
}

func TestRegistry_Observe(t *testing.T) {
	registry := resilience.NewRegistry()
	registeredClient(registry, "irceline-forecast")

	registry.Observe("irceline-forecast", nil)
	health := registry.GetHealth("irceline-forecast")
	require.NotNil(t, health.LastSuccessAt)
	assert.Nil(t, health.LastFailureAt)

	registry.Observe("irceline-forecast", errors.New("status 503"))
	health = registry.GetHealth("irceline-forecast")
	require.NotNil(t, health.LastFailureAt)
	assert.Equal(t, "status 503", health.LastError)
}

func TestRegistry_UnknownProviderIsIgnored(t *testing.T) {
	registry := resilience.NewRegistry()

	registry.RecordSuccess("nonexistent")
	registry.RecordFailure("nonexistent", assert.AnError)

	assert.Nil(t, registry.GetHealth("nonexistent"))
	assert.Equal(t, 0, registry.ProviderCount())
}

func TestRegistry_GetAllHealthSorted(t *testing.T) {
	registry := resilience.NewRegistry()
	registeredClient(registry, "irceline-wfs")
	registeredClient(registry, "irceline-forecast")
	registeredClient(registry, "irceline-rioifdm")

	health := registry.GetAllHealth()
	require.Len(t, health, 3)
	assert.Equal(t, "irceline-forecast", health[0].Name)
	assert.Equal(t, "irceline-rioifdm", health[1].Name)
	assert.Equal(t, "irceline-wfs", health[2].Name)

	assert.Equal(t, []string{"irceline-forecast", "irceline-rioifdm", "irceline-wfs"}, registry.GetProviderNames())
}

func TestProviderHealth_Status(t *testing.T) {
	tests := []struct {
		state  gobreaker.State
		status string
	}{
		{gobreaker.StateClosed, resilience.StatusHealthy},
		{gobreaker.StateHalfOpen, resilience.StatusDegraded},
		{gobreaker.StateOpen, resilience.StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			h := &resilience.ProviderHealth{CircuitState: tt.state}
			assert.Equal(t, tt.status, h.Status())
		})
	}
}
