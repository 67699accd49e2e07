package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"cloud.google.com/go/civil"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/breatheroute/irceline/internal/airquality"
	"github.com/breatheroute/irceline/internal/api/models"
	"github.com/breatheroute/irceline/internal/api/response"
)

// RioIfdmProvider probes the RIO-IFDM fine grid.
type RioIfdmProvider interface {
	FetchValues(ctx context.Context, features []airquality.RioIfdmFeature, pos airquality.Position) (map[airquality.RioIfdmFeature]airquality.FeatureValue, error)
}

// FeaturesConfig holds the providers queried by FeatureHandler. A nil
// provider disables its source.
type FeaturesConfig struct {
	Rio      airquality.MeasurementProvider
	RioIfdm  RioIfdmProvider
	Forecast airquality.ForecastProvider
	Logger   zerolog.Logger
}

// FeatureHandler handles raw feature queries.
type FeatureHandler struct {
	rio      airquality.MeasurementProvider
	rioIfdm  RioIfdmProvider
	forecast airquality.ForecastProvider
	logger   zerolog.Logger
	now      func() time.Time
}

// NewFeatureHandler creates a new FeatureHandler.
func NewFeatureHandler(cfg FeaturesConfig) *FeatureHandler {
	return &FeatureHandler{
		rio:      cfg.Rio,
		rioIfdm:  cfg.RioIfdm,
		forecast: cfg.Forecast,
		logger:   cfg.Logger,
		now:      time.Now,
	}
}

// GetFeatures handles GET /v1/features/{source} - latest feature values at a point.
func (h *FeatureHandler) GetFeatures(w http.ResponseWriter, r *http.Request) {
	source := airquality.Source(chi.URLParam(r, "source"))

	switch {
	case source == airquality.SourceRio && h.rio != nil:
		h.rioFeatures(w, r)
	case source == airquality.SourceRioIfdm && h.rioIfdm != nil:
		h.rioIfdmFeatures(w, r)
	case source == airquality.SourceForecast && h.forecast != nil:
		h.forecastFeatures(w, r)
	default:
		response.NotFound(w, r, "Unknown source "+string(source))
	}
}

func (h *FeatureHandler) rioFeatures(w http.ResponseWriter, r *http.Request) {
	pos, errs := parsePosition(r)
	features, ferrs := parseFeatures(r, airquality.ParseRioFeature, airquality.CurrentFeatures)
	errs = append(errs, ferrs...)
	at, fe := parseInstant(r, "at")
	if fe != nil {
		errs = append(errs, *fe)
	}
	day, fe := parseDate(r, "day")
	if fe != nil {
		errs = append(errs, *fe)
	}
	if len(errs) > 0 {
		response.BadRequest(w, r, "Invalid query parameters", errs)
		return
	}

	window := airquality.AtInstant(at)
	if day.IsValid() {
		window = airquality.OnDay(day)
	}

	values, err := h.rio.FetchMeasurements(r.Context(), features, pos, window)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	out := make([]models.FeatureValue, 0, len(values))
	for f, v := range values {
		out = append(out, featureValue(string(f), v))
	}
	writeFeatures(w, r, airquality.SourceRio, pos, out)
}

func (h *FeatureHandler) rioIfdmFeatures(w http.ResponseWriter, r *http.Request) {
	pos, errs := parsePosition(r)
	features, ferrs := parseFeatures(r, airquality.ParseRioIfdmFeature, airquality.RioIfdmFeatures())
	errs = append(errs, ferrs...)
	if len(errs) > 0 {
		response.BadRequest(w, r, "Invalid query parameters", errs)
		return
	}

	values, err := h.rioIfdm.FetchValues(r.Context(), features, pos)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	out := make([]models.FeatureValue, 0, len(values))
	for f, v := range values {
		out = append(out, featureValue(string(f), v))
	}
	writeFeatures(w, r, airquality.SourceRioIfdm, pos, out)
}

func (h *FeatureHandler) forecastFeatures(w http.ResponseWriter, r *http.Request) {
	pos, errs := parsePosition(r)
	features, ferrs := parseFeatures(r, airquality.ParseForecastFeature, airquality.ForecastFeatures())
	errs = append(errs, ferrs...)
	issued, fe := parseDate(r, "issued")
	if fe != nil {
		errs = append(errs, *fe)
	}
	if len(errs) > 0 {
		response.BadRequest(w, r, "Invalid query parameters", errs)
		return
	}
	if !issued.IsValid() {
		issued = civil.DateOf(h.now())
	}

	values, err := h.forecast.FetchForecast(r.Context(), features, pos, issued)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	out := make([]models.FeatureValue, 0, len(values))
	for k, v := range values {
		fv := featureValue(string(k.Feature), v)
		fv.Day = k.Day.String()
		out = append(out, fv)
	}
	writeFeatures(w, r, airquality.SourceForecast, pos, out)
}

func writeFeatures(w http.ResponseWriter, r *http.Request, source airquality.Source, pos airquality.Position, values []models.FeatureValue) {
	sort.Slice(values, func(i, j int) bool {
		if values[i].Feature != values[j].Feature {
			return values[i].Feature < values[j].Feature
		}
		return values[i].Day < values[j].Day
	})

	response.JSON(w, r, http.StatusOK, models.Features{
		Source:   string(source),
		Position: point(pos),
		Values:   values,
	})
}
