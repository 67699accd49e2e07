// Package airquality models IRCEL - CELINE air quality data and derives the
// Belgian air quality index (BelAQI) from pollutant concentrations.
package airquality

import (
	"errors"
	"fmt"
	"math"
	"time"

	"cloud.google.com/go/civil"
)

// Errors surfaced by clients and calculators.
var (
	ErrCommunication    = errors.New("air quality provider communication failed")
	ErrInvalidParameter = errors.New("invalid air quality request parameter")
	ErrInvalidInput     = errors.New("invalid index input")
)

// Pollutant represents an air quality pollutant type.
type Pollutant string

const (
	PollutantNO2  Pollutant = "NO2"
	PollutantPM25 Pollutant = "PM25"
	PollutantPM10 Pollutant = "PM10"
	PollutantO3   Pollutant = "O3"
)

// Source identifies an IRCEL - CELINE data family. Feature identifiers are
// qualified with their source, e.g. "rio:no2_hmean".
type Source string

const (
	SourceRio      Source = "rio"
	SourceRioIfdm  Source = "rioifdm"
	SourceForecast Source = "forecast"
)

// Sources lists every known source.
func Sources() []Source {
	return []Source{SourceRio, SourceRioIfdm, SourceForecast}
}

// Valid reports whether s is a known source.
func (s Source) Valid() bool {
	switch s {
	case SourceRio, SourceRioIfdm, SourceForecast:
		return true
	}
	return false
}

// Position is a WGS84 coordinate in decimal degrees.
type Position struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Validate checks that the position is a finite coordinate on the globe.
func (p Position) Validate() error {
	if math.IsNaN(p.Lat) || math.IsInf(p.Lat, 0) || p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("%w: latitude %v out of range", ErrInvalidParameter, p.Lat)
	}
	if math.IsNaN(p.Lon) || math.IsInf(p.Lon, 0) || p.Lon < -180 || p.Lon > 180 {
		return fmt.Errorf("%w: longitude %v out of range", ErrInvalidParameter, p.Lon)
	}
	return nil
}

func (p Position) String() string {
	return fmt.Sprintf("%.5f,%.5f", p.Lat, p.Lon)
}

// FeatureValue is the most recent known value of one feature.
//
// A nil Value means the value could not be retrieved. A value is stamped
// either with an instant (Time), a calendar date (Date) or nothing at all
// when the source carries no temporal metadata.
type FeatureValue struct {
	Value *float64    `json:"value"`
	Time  *time.Time  `json:"timestamp,omitempty"`
	Date  *civil.Date `json:"date,omitempty"`
}

// Measured returns a value stamped with an instant.
func Measured(v float64, t time.Time) FeatureValue {
	return FeatureValue{Value: &v, Time: &t}
}

// MeasuredOn returns a value stamped with a calendar date.
func MeasuredOn(v float64, d civil.Date) FeatureValue {
	return FeatureValue{Value: &v, Date: &d}
}

// Undated returns a value without temporal metadata.
func Undated(v float64) FeatureValue {
	return FeatureValue{Value: &v}
}

// MissingAt returns an absent value stamped with the given instant.
func MissingAt(t time.Time) FeatureValue {
	return FeatureValue{Time: &t}
}

// MissingOn returns an absent value stamped with the given date.
func MissingOn(d civil.Date) FeatureValue {
	return FeatureValue{Date: &d}
}

// HasValue reports whether a value is present.
func (v FeatureValue) HasValue() bool {
	return v.Value != nil
}

// Float returns the value, or -1 when absent. The calculators reject
// negative input, so an absent value fails their precondition.
func (v FeatureValue) Float() float64 {
	if v.Value == nil {
		return -1
	}
	return *v.Value
}

// Stamp returns the temporal stamp as an instant. Dates map to midnight UTC.
func (v FeatureValue) Stamp() (time.Time, bool) {
	switch {
	case v.Time != nil:
		return *v.Time, true
	case v.Date != nil:
		return v.Date.In(time.UTC), true
	}
	return time.Time{}, false
}

// After reports whether v is stamped strictly later than other.
func (v FeatureValue) After(other FeatureValue) bool {
	a, ok := v.Stamp()
	if !ok {
		return false
	}
	b, ok := other.Stamp()
	if !ok {
		return true
	}
	return a.After(b)
}

// Window is the temporal scope of a measurement query: either an instant
// (hour-granular data) or a calendar day (day-granular data).
type Window struct {
	At  time.Time
	Day civil.Date
}

// AtInstant returns an hour-granular window.
func AtInstant(t time.Time) Window {
	return Window{At: t}
}

// OnDay returns a day-granular window.
func OnDay(d civil.Date) Window {
	return Window{Day: d}
}

// Daily reports whether the window is day-granular.
func (w Window) Daily() bool {
	return w.Day.IsValid()
}

// ForecastDays is the number of forecast days published per issue, the
// issue day included.
const ForecastDays = 5

// ForecastKey identifies one forecast value: a feature for a calendar day.
type ForecastKey struct {
	Feature ForecastFeature
	Day     civil.Date
}

func (k ForecastKey) String() string {
	return string(k.Feature) + "@" + k.Day.String()
}
