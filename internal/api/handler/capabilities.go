package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/breatheroute/irceline/internal/airquality"
	"github.com/breatheroute/irceline/internal/api/models"
	"github.com/breatheroute/irceline/internal/api/response"
)

// CapabilitiesProvider lists the features an upstream service advertises.
type CapabilitiesProvider interface {
	Capabilities(ctx context.Context) ([]string, error)
}

// CapabilitiesHandler handles capabilities queries.
type CapabilitiesHandler struct {
	providers map[airquality.Source]CapabilitiesProvider
	logger    zerolog.Logger
}

// NewCapabilitiesHandler creates a new CapabilitiesHandler. Sources without
// a provider answer 404.
func NewCapabilitiesHandler(providers map[airquality.Source]CapabilitiesProvider, logger zerolog.Logger) *CapabilitiesHandler {
	return &CapabilitiesHandler{
		providers: providers,
		logger:    logger,
	}
}

// GetCapabilities handles GET /v1/capabilities/{source}.
func (h *CapabilitiesHandler) GetCapabilities(w http.ResponseWriter, r *http.Request) {
	source := airquality.Source(chi.URLParam(r, "source"))
	provider, ok := h.providers[source]
	if !ok || provider == nil {
		response.NotFound(w, r, "Unknown source "+string(source))
		return
	}

	features, err := provider.Capabilities(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if features == nil {
		features = []string{}
	}

	response.JSON(w, r, http.StatusOK, models.Capabilities{
		Source:   string(source),
		Features: features,
	})
}
