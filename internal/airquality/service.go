package airquality

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"
)

// MeasurementProvider fetches interpolated measurements from the RIO service.
type MeasurementProvider interface {
	FetchMeasurements(ctx context.Context, features []RioFeature, pos Position, w Window) (map[RioFeature]FeatureValue, error)
}

// ForecastProvider fetches forecasts issued on a day for that day and the
// following ForecastDays-1 days.
type ForecastProvider interface {
	FetchForecast(ctx context.Context, features []ForecastFeature, pos Position, issued civil.Date) (map[ForecastKey]FeatureValue, error)
}

// ForecastBasis selects the forecast features fed to the daily index.
type ForecastBasis string

const (
	// BasisMaxHourly uses the maximum hourly O3 and NO2 forecasts converted
	// with the published ratios.
	BasisMaxHourly ForecastBasis = "maxhourly"
	// BasisDirect uses the maximum 8-hour O3 and daily NO2 forecasts as is.
	BasisDirect ForecastBasis = "direct"
)

// Features required by the instantaneous and daily indices, in
// PM10, PM2.5, O3, NO2 order.
var (
	CurrentFeatures = []RioFeature{RioPM1024hMean, RioPM2524hMean, RioO3HMean, RioNO2HMean}
	DailyFeatures   = []RioFeature{RioPM10DMean, RioPM25DMean, RioO3Max8hMean, RioNO2DMean}

	maxHourlyForecastFeatures = []ForecastFeature{ForecastPM10DMean, ForecastPM25DMean, ForecastO3MaxHMean, ForecastNO2MaxHMean}
	directForecastFeatures    = []ForecastFeature{ForecastPM10DMean, ForecastPM25DMean, ForecastO3Max8hMean, ForecastNO2DMean}
)

// ServiceConfig holds configuration for the index service.
type ServiceConfig struct {
	// Measurements provides RIO measurements for the current and daily index.
	Measurements MeasurementProvider

	// Forecasts provides forecasts for the forecast index.
	Forecasts ForecastProvider

	// Basis selects the forecast features (default: BasisMaxHourly).
	Basis ForecastBasis

	// Logger for service operations.
	Logger zerolog.Logger

	// Now returns the current time (default: time.Now).
	Now func() time.Time
}

// Service computes BelAQI indices from IRCEL - CELINE data.
type Service struct {
	measurements MeasurementProvider
	forecasts    ForecastProvider
	basis        ForecastBasis
	logger       zerolog.Logger
	now          func() time.Time
}

// NewService creates a new index service.
func NewService(cfg ServiceConfig) *Service {
	basis := cfg.Basis
	if basis == "" {
		basis = BasisMaxHourly
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		measurements: cfg.Measurements,
		forecasts:    cfg.Forecasts,
		basis:        basis,
		logger:       cfg.Logger,
		now:          now,
	}
}

// Basis returns the configured forecast basis.
func (s *Service) Basis() ForecastBasis {
	return s.basis
}

// CurrentComponents fetches the components of the instantaneous index at
// the given instant (now when zero).
func (s *Service) CurrentComponents(ctx context.Context, pos Position, at time.Time) (map[RioFeature]FeatureValue, error) {
	if err := pos.Validate(); err != nil {
		return nil, err
	}
	if at.IsZero() {
		at = s.now()
	}

	components, err := s.measurements.FetchMeasurements(ctx, CurrentFeatures, pos, AtInstant(at.UTC()))
	if err != nil {
		return nil, fmt.Errorf("fetch current components: %w", err)
	}
	return components, nil
}

// CurrentIndex computes the instantaneous index at pos. A component that
// could not be fetched yields ErrInvalidInput, the same error as a
// negative concentration.
func (s *Service) CurrentIndex(ctx context.Context, pos Position, at time.Time) (Index, error) {
	components, err := s.CurrentComponents(ctx, pos, at)
	if err != nil {
		return IndexUnknown, err
	}

	idx, err := CurrentIndexOf(components)
	if err != nil {
		s.logger.Debug().Err(err).Str("position", pos.String()).Msg("current index unavailable")
		return IndexUnknown, err
	}

	s.logger.Debug().
		Str("position", pos.String()).
		Stringer("index", idx).
		Msg("computed current index")
	return idx, nil
}

// CurrentIndexOf computes the instantaneous index from components fetched
// for CurrentFeatures.
func CurrentIndexOf(components map[RioFeature]FeatureValue) (Index, error) {
	return HourlyIndex(
		components[RioPM1024hMean].Float(),
		components[RioPM2524hMean].Float(),
		components[RioO3HMean].Float(),
		components[RioNO2HMean].Float(),
	)
}

// DailyIndex computes the daily index at pos from the RIO daily means of day
// (today when zero).
func (s *Service) DailyIndex(ctx context.Context, pos Position, day civil.Date) (Index, error) {
	if err := pos.Validate(); err != nil {
		return IndexUnknown, err
	}
	if !day.IsValid() {
		day = civil.DateOf(s.now())
	}

	components, err := s.measurements.FetchMeasurements(ctx, DailyFeatures, pos, OnDay(day))
	if err != nil {
		return IndexUnknown, fmt.Errorf("fetch daily components: %w", err)
	}

	return DailyIndex(
		components[RioPM10DMean].Float(),
		components[RioPM25DMean].Float(),
		components[RioO3Max8hMean].Float(),
		components[RioNO2DMean].Float(),
	)
}

// ForecastFeatures returns the forecast features used by the configured basis.
func (s *Service) ForecastFeatures() []ForecastFeature {
	if s.basis == BasisDirect {
		return append([]ForecastFeature(nil), directForecastFeatures...)
	}
	return append([]ForecastFeature(nil), maxHourlyForecastFeatures...)
}

// ForecastIndex computes the daily index for the issue day (today when zero)
// and the four following days. The result always holds ForecastDays entries;
// a day whose components are incomplete maps to IndexUnknown.
func (s *Service) ForecastIndex(ctx context.Context, pos Position, issued civil.Date) (map[civil.Date]Index, error) {
	if err := pos.Validate(); err != nil {
		return nil, err
	}
	if !issued.IsValid() {
		issued = civil.DateOf(s.now())
	}

	features := s.ForecastFeatures()
	components, err := s.forecasts.FetchForecast(ctx, features, pos, issued)
	if err != nil {
		return nil, fmt.Errorf("fetch forecast components: %w", err)
	}

	result := make(map[civil.Date]Index, ForecastDays)
	unavailable := 0
	for d := 0; d < ForecastDays; d++ {
		day := issued.AddDays(d)
		idx, err := s.forecastDay(components, features, day)
		if err != nil {
			unavailable++
			s.logger.Debug().Err(err).Str("day", day.String()).Msg("forecast index unavailable")
		}
		result[day] = idx
	}

	s.logger.Info().
		Str("position", pos.String()).
		Str("issued", issued.String()).
		Int("unavailable_days", unavailable).
		Msg("computed forecast index")

	return result, nil
}

func (s *Service) forecastDay(components map[ForecastKey]FeatureValue, features []ForecastFeature, day civil.Date) (Index, error) {
	get := func(f ForecastFeature) FeatureValue {
		return components[ForecastKey{Feature: f, Day: day}]
	}

	pm10, pm25, o3, no2 := get(features[0]), get(features[1]), get(features[2]), get(features[3])
	for _, v := range []FeatureValue{pm10, pm25, o3, no2} {
		if !v.HasValue() {
			return IndexUnknown, fmt.Errorf("%w: component missing for %s", ErrInvalidInput, day)
		}
	}

	o3v, no2v := o3.Float(), no2.Float()
	if s.basis != BasisDirect {
		o3v *= O3MaxHourlyToMax8Hourly
		no2v *= NO2MaxHourlyToDailyMean
	}

	return DailyIndex(pm10.Float(), pm25.Float(), o3v, no2v)
}
