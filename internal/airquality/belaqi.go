package airquality

import (
	"fmt"
	"math"
)

// Index is a BelAQI category, from 1 (excellent) to 10 (horrible).
// The zero value means the index could not be computed.
type Index int

const (
	IndexUnknown Index = iota
	IndexExcellent
	IndexVeryGood
	IndexGood
	IndexFairlyGood
	IndexModerate
	IndexPoor
	IndexVeryPoor
	IndexBad
	IndexVeryBad
	IndexHorrible
)

var indexNames = [...]string{
	IndexUnknown:    "unknown",
	IndexExcellent:  "excellent",
	IndexVeryGood:   "very_good",
	IndexGood:       "good",
	IndexFairlyGood: "fairly_good",
	IndexModerate:   "moderate",
	IndexPoor:       "poor",
	IndexVeryPoor:   "very_poor",
	IndexBad:        "bad",
	IndexVeryBad:    "very_bad",
	IndexHorrible:   "horrible",
}

func (i Index) String() string {
	if i < IndexUnknown || i > IndexHorrible {
		return fmt.Sprintf("Index(%d)", int(i))
	}
	return indexNames[i]
}

// Valid reports whether i is one of the ten categories.
func (i Index) Valid() bool {
	return i >= IndexExcellent && i <= IndexHorrible
}

// Ratios converting forecast maximum hourly means to the basis of the
// daily table (Figure 2 of the IRCEL - CELINE November 2022 index notice).
const (
	NO2MaxHourlyToDailyMean = 1.51
	O3MaxHourlyToMax8Hourly = 1.10
)

// breakpoint holds the concentrations (µg/m³) above which a category applies.
type breakpoint struct {
	index               Index
	pm10, pm25, o3, no2 float64
}

// hourlyBreakpoints is Table 2 of the index notice, worst category first.
var hourlyBreakpoints = []breakpoint{
	{IndexHorrible, 140, 75, 240, 75},
	{IndexVeryBad, 110, 60, 210, 60},
	{IndexBad, 95, 50, 180, 50},
	{IndexVeryPoor, 80, 35, 150, 45},
	{IndexPoor, 60, 20, 110, 40},
	{IndexModerate, 45, 15, 90, 30},
	{IndexFairlyGood, 35, 10, 75, 20},
	{IndexGood, 20, 7.5, 65, 15},
	{IndexVeryGood, 10, 3.5, 30, 10},
}

// dailyBreakpoints is Table 1 of the index notice, worst category first.
var dailyBreakpoints = []breakpoint{
	{IndexHorrible, 100, 50, 220, 50},
	{IndexVeryBad, 80, 40, 190, 40},
	{IndexBad, 70, 35, 160, 35},
	{IndexVeryPoor, 60, 25, 130, 30},
	{IndexPoor, 45, 15, 100, 25},
	{IndexModerate, 35, 10, 80, 20},
	{IndexFairlyGood, 25, 7.5, 70, 15},
	{IndexGood, 15, 5, 60, 10},
	{IndexVeryGood, 5, 2.5, 30, 5},
}

// HourlyIndex computes the instantaneous BelAQI index from the running
// 24-hour PM10 and PM2.5 means and the hourly O3 and NO2 means (µg/m³).
func HourlyIndex(pm10, pm25, o3, no2 float64) (Index, error) {
	return classify(hourlyBreakpoints, pm10, pm25, o3, no2)
}

// DailyIndex computes the daily BelAQI index from the daily PM10, PM2.5 and
// NO2 means and the maximum running 8-hour O3 mean (µg/m³).
func DailyIndex(pm10, pm25, o3, no2 float64) (Index, error) {
	return classify(dailyBreakpoints, pm10, pm25, o3, no2)
}

// classify returns the worst category for which any component exceeds its
// break point.
func classify(table []breakpoint, pm10, pm25, o3, no2 float64) (Index, error) {
	if err := checkConcentrations(pm10, pm25, o3, no2); err != nil {
		return IndexUnknown, err
	}

	for _, bp := range table {
		if pm10 > bp.pm10 || pm25 > bp.pm25 || o3 > bp.o3 || no2 > bp.no2 {
			return bp.index, nil
		}
	}
	return IndexExcellent, nil
}

func checkConcentrations(pm10, pm25, o3, no2 float64) error {
	for _, c := range []struct {
		name  Pollutant
		value float64
	}{
		{PollutantPM10, pm10},
		{PollutantPM25, pm25},
		{PollutantO3, o3},
		{PollutantNO2, no2},
	} {
		if math.IsNaN(c.value) || math.IsInf(c.value, 0) || c.value < 0 {
			return fmt.Errorf("%w: %s concentration %v is missing or negative", ErrInvalidInput, c.name, c.value)
		}
	}
	return nil
}
