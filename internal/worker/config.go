// Package worker refreshes air quality indices for a set of Belgian points
// on a schedule or when triggered through Pub/Sub.
package worker

import (
	"time"

	"github.com/breatheroute/irceline/internal/airquality"
)

// Point is a named location to refresh.
type Point struct {
	Name string
	Lat  float64
	Lon  float64
}

// Position returns the point as an airquality position.
func (p Point) Position() airquality.Position {
	return airquality.Position{Lat: p.Lat, Lon: p.Lon}
}

// RefreshConfig holds configuration for the refresh job.
type RefreshConfig struct {
	// Points are the locations to refresh.
	// If empty, uses DefaultPoints.
	Points []Point

	// Concurrency is the number of points refreshed in parallel.
	// Default: 4
	Concurrency int

	// Timeout bounds the refresh of one point.
	// Default: 2 minutes
	Timeout time.Duration

	// RefreshCurrent enables the instantaneous index.
	// Default: true
	RefreshCurrent bool

	// RefreshForecast enables the forecast index.
	// Default: true
	RefreshForecast bool
}

// DefaultRefreshConfig returns the default refresh configuration.
func DefaultRefreshConfig() RefreshConfig {
	return RefreshConfig{
		Points:          DefaultPoints(),
		Concurrency:     4,
		Timeout:         2 * time.Minute,
		RefreshCurrent:  true,
		RefreshForecast: true,
	}
}

// DefaultPoints returns the city centres of the Belgian provincial capitals
// and Brussels.
func DefaultPoints() []Point {
	return []Point{
		{Name: "Brussels", Lat: 50.8466, Lon: 4.3528},
		{Name: "Antwerpen", Lat: 51.2194, Lon: 4.4025},
		{Name: "Gent", Lat: 51.0543, Lon: 3.7174},
		{Name: "Brugge", Lat: 51.2093, Lon: 3.2247},
		{Name: "Leuven", Lat: 50.8798, Lon: 4.7005},
		{Name: "Hasselt", Lat: 50.9307, Lon: 5.3325},
		{Name: "Wavre", Lat: 50.7170, Lon: 4.6014},
		{Name: "Mons", Lat: 50.4542, Lon: 3.9567},
		{Name: "Namur", Lat: 50.4674, Lon: 4.8720},
		{Name: "Liege", Lat: 50.6326, Lon: 5.5797},
		{Name: "Arlon", Lat: 49.6833, Lon: 5.8167},
	}
}

// withDefaults fills zero fields from DefaultRefreshConfig.
func (c RefreshConfig) withDefaults() RefreshConfig {
	def := DefaultRefreshConfig()
	if len(c.Points) == 0 {
		c.Points = def.Points
	}
	if c.Concurrency <= 0 {
		c.Concurrency = def.Concurrency
	}
	if c.Timeout <= 0 {
		c.Timeout = def.Timeout
	}
	if !c.RefreshCurrent && !c.RefreshForecast {
		c.RefreshCurrent = true
		c.RefreshForecast = true
	}
	return c
}
