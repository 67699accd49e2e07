package handler

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"time"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"

	"github.com/breatheroute/irceline/internal/airquality"
	"github.com/breatheroute/irceline/internal/api/models"
	"github.com/breatheroute/irceline/internal/api/response"
)

// IndexService computes BelAQI indices.
type IndexService interface {
	CurrentComponents(ctx context.Context, pos airquality.Position, at time.Time) (map[airquality.RioFeature]airquality.FeatureValue, error)
	DailyIndex(ctx context.Context, pos airquality.Position, day civil.Date) (airquality.Index, error)
	ForecastIndex(ctx context.Context, pos airquality.Position, issued civil.Date) (map[civil.Date]airquality.Index, error)
	Basis() airquality.ForecastBasis
}

// BelAQIHandler handles the index endpoints.
type BelAQIHandler struct {
	service IndexService
	logger  zerolog.Logger
	now     func() time.Time
}

// NewBelAQIHandler creates a new BelAQIHandler.
func NewBelAQIHandler(service IndexService, logger zerolog.Logger) *BelAQIHandler {
	return &BelAQIHandler{
		service: service,
		logger:  logger,
		now:     time.Now,
	}
}

// Current handles GET /v1/belaqi/current - instantaneous index at a point.
func (h *BelAQIHandler) Current(w http.ResponseWriter, r *http.Request) {
	pos, errs := parsePosition(r)
	at, fe := parseInstant(r, "at")
	if fe != nil {
		errs = append(errs, *fe)
	}
	if len(errs) > 0 {
		response.BadRequest(w, r, "Invalid query parameters", errs)
		return
	}
	if at.IsZero() {
		at = h.now()
	}

	components, err := h.service.CurrentComponents(r.Context(), pos, at)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	idx, err := airquality.CurrentIndexOf(components)
	if err != nil && !errors.Is(err, airquality.ErrInvalidInput) {
		writeError(w, r, h.logger, err)
		return
	}

	values := make(map[string]models.FeatureValue, len(components))
	for f, v := range components {
		values[string(f)] = featureValue(string(f), v)
	}

	response.JSON(w, r, http.StatusOK, models.CurrentIndex{
		Position:   point(pos),
		At:         models.Timestamp(at.UTC()),
		IndexLevel: indexLevel(idx),
		Components: values,
	})
}

// Daily handles GET /v1/belaqi/daily - index of a day from the daily means.
func (h *BelAQIHandler) Daily(w http.ResponseWriter, r *http.Request) {
	pos, errs := parsePosition(r)
	day, fe := parseDate(r, "day")
	if fe != nil {
		errs = append(errs, *fe)
	}
	if len(errs) > 0 {
		response.BadRequest(w, r, "Invalid query parameters", errs)
		return
	}
	if !day.IsValid() {
		day = civil.DateOf(h.now())
	}

	idx, err := h.service.DailyIndex(r.Context(), pos, day)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	response.JSON(w, r, http.StatusOK, models.DailyIndex{
		Position:   point(pos),
		Day:        day.String(),
		IndexLevel: indexLevel(idx),
	})
}

// Forecast handles GET /v1/belaqi/forecast - index for the issue day and the
// four following days.
func (h *BelAQIHandler) Forecast(w http.ResponseWriter, r *http.Request) {
	pos, errs := parsePosition(r)
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

	indices, err := h.service.ForecastIndex(r.Context(), pos, issued)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	days := make([]models.ForecastDay, 0, len(indices))
	for day, idx := range indices {
		days = append(days, models.ForecastDay{Day: day.String(), IndexLevel: indexLevel(idx)})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Day < days[j].Day })

	response.JSON(w, r, http.StatusOK, models.ForecastIndex{
		Position: point(pos),
		Issued:   issued.String(),
		Basis:    string(h.service.Basis()),
		Days:     days,
	})
}

func indexLevel(idx airquality.Index) models.IndexLevel {
	level := models.IndexLevel{Level: idx.String()}
	if idx.Valid() {
		v := int(idx)
		level.Index = &v
	}
	return level
}

func point(pos airquality.Position) models.Point {
	return models.Point{Lat: pos.Lat, Lon: pos.Lon}
}

func featureValue(name string, v airquality.FeatureValue) models.FeatureValue {
	fv := models.FeatureValue{
		Feature:   name,
		Value:     v.Value,
		Timestamp: models.NewTimestamp(v.Time),
	}
	if v.Date != nil {
		fv.Date = v.Date.String()
	}
	return fv
}
