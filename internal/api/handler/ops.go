// Package handler provides HTTP handlers for the air quality API.
package handler

import (
	"net/http"
	"time"

	"github.com/breatheroute/irceline/internal/api/models"
	"github.com/breatheroute/irceline/internal/api/response"
	"github.com/breatheroute/irceline/internal/provider/resilience"
)

// FileCache exposes the forecast files held for conditional fetches.
type FileCache interface {
	CachedFiles() []string
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	registry  *resilience.Registry
	files     FileCache
}

// NewOpsHandler creates a new OpsHandler. registry and files may be nil.
func NewOpsHandler(version, buildTime string, registry *resilience.Registry, files FileCache) *OpsHandler {
	return &OpsHandler{
		version:   version,
		buildTime: buildTime,
		registry:  registry,
		files:     files,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready - readiness check. The service is
// not ready when every upstream provider has an open circuit.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	status := h.overallStatus(h.providerStatuses())

	code := http.StatusOK
	if status == models.HealthStatusFail {
		code = http.StatusServiceUnavailable
	}
	response.JSON(w, r, code, models.Health{
		Status: status,
		Time:   models.Timestamp(time.Now()),
	})
}

// SystemStatus handles GET /v1/ops/status - upstream provider status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	providers := h.providerStatuses()

	status := models.SystemStatus{
		Status:    h.overallStatus(providers),
		Time:      models.Timestamp(time.Now()),
		Providers: providers,
	}
	if h.files != nil {
		status.CachedFiles = h.files.CachedFiles()
	}
	response.JSON(w, r, http.StatusOK, status)
}

func (h *OpsHandler) providerStatuses() []models.ProviderStatus {
	if h.registry == nil {
		return []models.ProviderStatus{}
	}

	all := h.registry.GetAllHealth()
	statuses := make([]models.ProviderStatus, 0, len(all))
	for _, p := range all {
		ps := models.ProviderStatus{
			Provider:            p.Name,
			Status:              healthStatus(p.Status()),
			CircuitState:        p.CircuitState.String(),
			Requests:            p.Counts.Requests,
			ConsecutiveFailures: p.Counts.ConsecutiveFailures,
			LastSuccessAt:       models.NewTimestamp(p.LastSuccessAt),
			LastFailureAt:       models.NewTimestamp(p.LastFailureAt),
		}
		if p.LastError != "" {
			msg := p.LastError
			ps.Message = &msg
		}
		statuses = append(statuses, ps)
	}
	return statuses
}

// overallStatus is FAIL when every provider fails, DEGRADED when any is not
// OK and OK otherwise.
func (h *OpsHandler) overallStatus(providers []models.ProviderStatus) models.HealthStatus {
	failed, degraded := 0, 0
	for _, p := range providers {
		switch p.Status {
		case models.HealthStatusFail:
			failed++
		case models.HealthStatusDegraded:
			degraded++
		}
	}

	switch {
	case len(providers) > 0 && failed == len(providers):
		return models.HealthStatusFail
	case failed > 0 || degraded > 0:
		return models.HealthStatusDegraded
	}
	return models.HealthStatusOK
}

func healthStatus(s string) models.HealthStatus {
	switch s {
	case resilience.StatusHealthy:
		return models.HealthStatusOK
	case resilience.StatusDegraded:
		return models.HealthStatusDegraded
	}
	return models.HealthStatusFail
}
