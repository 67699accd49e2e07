package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/go-playground/validator/v10"

	"github.com/breatheroute/irceline/internal/airquality"
	"github.com/breatheroute/irceline/internal/api/models"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// positionQuery holds the coordinates of a point query.
type positionQuery struct {
	Lat float64 `validate:"gte=-90,lte=90"`
	Lon float64 `validate:"gte=-180,lte=180"`
}

// parsePosition reads the lat and lon query parameters.
func parsePosition(r *http.Request) (airquality.Position, []models.FieldError) {
	var (
		q    positionQuery
		errs []models.FieldError
	)

	q.Lat, errs = parseFloatParam(r, "lat", errs)
	q.Lon, errs = parseFloatParam(r, "lon", errs)
	if len(errs) > 0 {
		return airquality.Position{}, errs
	}

	if err := validate.Struct(q); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				errs = append(errs, models.FieldError{
					Field:   strings.ToLower(fe.Field()),
					Message: "out of range",
					Code:    fe.Tag(),
				})
			}
		}
		return airquality.Position{}, errs
	}

	return airquality.Position{Lat: q.Lat, Lon: q.Lon}, nil
}

func parseFloatParam(r *http.Request, name string, errs []models.FieldError) (float64, []models.FieldError) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, append(errs, models.FieldError{Field: name, Message: "is required", Code: "required"})
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, append(errs, models.FieldError{Field: name, Message: "must be a number", Code: "number"})
	}
	return v, errs
}

// parseInstant reads an optional RFC 3339 instant.
func parseInstant(r *http.Request, name string) (time.Time, *models.FieldError) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, &models.FieldError{Field: name, Message: "must be an RFC 3339 timestamp", Code: "datetime"}
	}
	return t, nil
}

// parseDate reads an optional YYYY-MM-DD date.
func parseDate(r *http.Request, name string) (civil.Date, *models.FieldError) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return civil.Date{}, nil
	}
	d, err := civil.ParseDate(raw)
	if err != nil {
		return civil.Date{}, &models.FieldError{Field: name, Message: "must be a YYYY-MM-DD date", Code: "date"}
	}
	return d, nil
}

// parseFeatures resolves the comma separated features parameter, returning
// defaults when it is absent.
func parseFeatures[F ~string](r *http.Request, parse func(string) (F, bool), defaults []F) ([]F, []models.FieldError) {
	raw := r.URL.Query().Get("features")
	if raw == "" {
		return defaults, nil
	}

	var (
		features []F
		errs     []models.FieldError
	)
	for _, name := range strings.Split(raw, ",") {
		f, ok := parse(name)
		if !ok {
			errs = append(errs, models.FieldError{
				Field:   "features",
				Message: "unknown feature " + strconv.Quote(strings.TrimSpace(name)),
				Code:    "oneof",
			})
			continue
		}
		features = append(features, f)
	}
	return features, errs
}
