package airquality_test

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/breatheroute/irceline/internal/airquality"
)

type indexCase struct {
	pm10, pm25, o3, no2 float64
	want                airquality.Index
}

func TestHourlyIndex(t *testing.T) {
	tests := []indexCase{
		{5, 2, 25, 5, airquality.IndexExcellent},
		{15, 5, 50, 12, airquality.IndexVeryGood},
		{30, 9, 70, 18, airquality.IndexGood},
		{40, 13, 80, 25, airquality.IndexFairlyGood},
		{55, 18, 100, 35, airquality.IndexModerate},
		{70, 25, 130, 43, airquality.IndexPoor},
		{90, 45, 160, 48, airquality.IndexVeryPoor},
		{100, 55, 200, 55, airquality.IndexBad},
		{130, 70, 230, 70, airquality.IndexVeryBad},
		{150, 80, 250, 80, airquality.IndexHorrible},
		{150, 80, 300, 80, airquality.IndexHorrible},
		{95, 5, 25, 5, airquality.IndexVeryPoor},
		{145, 5, 25, 5, airquality.IndexHorrible},
		{5, 55, 25, 5, airquality.IndexBad},
		{5, 85, 25, 5, airquality.IndexHorrible},
		{5, 5, 190, 5, airquality.IndexBad},
		{5, 5, 260, 5, airquality.IndexHorrible},
		{5, 5, 25, 65, airquality.IndexVeryBad},
		{5, 5, 25, 85, airquality.IndexHorrible},
		{45, 15, 150, 10, airquality.IndexPoor},
		{20, 25, 180, 15, airquality.IndexVeryPoor},
		{10, 7, 250, 70, airquality.IndexHorrible},
		{110, 3, 30, 25, airquality.IndexBad},
		{5, 0, 0, 0, airquality.IndexExcellent},
		{15, 0, 0, 0, airquality.IndexVeryGood},
		{30, 0, 0, 0, airquality.IndexGood},
		{40, 0, 0, 0, airquality.IndexFairlyGood},
		{55, 0, 0, 0, airquality.IndexModerate},
		{70, 0, 0, 0, airquality.IndexPoor},
		{90, 0, 0, 0, airquality.IndexVeryPoor},
		{100, 0, 0, 0, airquality.IndexBad},
		{130, 0, 0, 0, airquality.IndexVeryBad},
		{150, 0, 0, 0, airquality.IndexHorrible},
		{0, 2, 0, 0, airquality.IndexExcellent},
		{0, 5, 0, 0, airquality.IndexVeryGood},
		{0, 9, 0, 0, airquality.IndexGood},
		{0, 13, 0, 0, airquality.IndexFairlyGood},
		{0, 18, 0, 0, airquality.IndexModerate},
		{0, 25, 0, 0, airquality.IndexPoor},
		{0, 45, 0, 0, airquality.IndexVeryPoor},
		{0, 55, 0, 0, airquality.IndexBad},
		{0, 70, 0, 0, airquality.IndexVeryBad},
		{0, 80, 0, 0, airquality.IndexHorrible},
		{0, 0, 25, 0, airquality.IndexExcellent},
		{0, 0, 50, 0, airquality.IndexVeryGood},
		{0, 0, 70, 0, airquality.IndexGood},
		{0, 0, 80, 0, airquality.IndexFairlyGood},
		{0, 0, 100, 0, airquality.IndexModerate},
		{0, 0, 130, 0, airquality.IndexPoor},
		{0, 0, 160, 0, airquality.IndexVeryPoor},
		{0, 0, 200, 0, airquality.IndexBad},
		{0, 0, 230, 0, airquality.IndexVeryBad},
		{0, 0, 250, 0, airquality.IndexHorrible},
		{0, 0, 0, 5, airquality.IndexExcellent},
		{0, 0, 0, 12, airquality.IndexVeryGood},
		{0, 0, 0, 18, airquality.IndexGood},
		{0, 0, 0, 25, airquality.IndexFairlyGood},
		{0, 0, 0, 35, airquality.IndexModerate},
		{0, 0, 0, 43, airquality.IndexPoor},
		{0, 0, 0, 48, airquality.IndexVeryPoor},
		{0, 0, 0, 55, airquality.IndexBad},
		{0, 0, 0, 70, airquality.IndexVeryBad},
		{0, 0, 0, 80, airquality.IndexHorrible},
	}

	for _, tt := range tests {
		name := fmt.Sprintf("%v_%v_%v_%v", tt.pm10, tt.pm25, tt.o3, tt.no2)
		t.Run(name, func(t *testing.T) {
			got, err := airquality.HourlyIndex(tt.pm10, tt.pm25, tt.o3, tt.no2)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDailyIndex(t *testing.T) {
	tests := []indexCase{
		{5, 0, 0, 0, airquality.IndexExcellent},
		{15, 0, 0, 0, airquality.IndexVeryGood},
		{25, 0, 0, 0, airquality.IndexGood},
		{35, 0, 0, 0, airquality.IndexFairlyGood},
		{45, 0, 0, 0, airquality.IndexModerate},
		{60, 0, 0, 0, airquality.IndexPoor},
		{70, 0, 0, 0, airquality.IndexVeryPoor},
		{80, 0, 0, 0, airquality.IndexBad},
		{100, 0, 0, 0, airquality.IndexVeryBad},
		{101, 0, 0, 0, airquality.IndexHorrible},
		{0, 2.5, 0, 0, airquality.IndexExcellent},
		{0, 5, 0, 0, airquality.IndexVeryGood},
		{0, 7.5, 0, 0, airquality.IndexGood},
		{0, 10, 0, 0, airquality.IndexFairlyGood},
		{0, 15, 0, 0, airquality.IndexModerate},
		{0, 25, 0, 0, airquality.IndexPoor},
		{0, 35, 0, 0, airquality.IndexVeryPoor},
		{0, 40, 0, 0, airquality.IndexBad},
		{0, 50, 0, 0, airquality.IndexVeryBad},
		{0, 51, 0, 0, airquality.IndexHorrible},
		{0, 0, 30, 0, airquality.IndexExcellent},
		{0, 0, 60, 0, airquality.IndexVeryGood},
		{0, 0, 70, 0, airquality.IndexGood},
		{0, 0, 80, 0, airquality.IndexFairlyGood},
		{0, 0, 100, 0, airquality.IndexModerate},
		{0, 0, 130, 0, airquality.IndexPoor},
		{0, 0, 160, 0, airquality.IndexVeryPoor},
		{0, 0, 190, 0, airquality.IndexBad},
		{0, 0, 220, 0, airquality.IndexVeryBad},
		{0, 0, 221, 0, airquality.IndexHorrible},
		{0, 0, 0, 5, airquality.IndexExcellent},
		{0, 0, 0, 10, airquality.IndexVeryGood},
		{0, 0, 0, 15, airquality.IndexGood},
		{0, 0, 0, 20, airquality.IndexFairlyGood},
		{0, 0, 0, 25, airquality.IndexModerate},
		{0, 0, 0, 30, airquality.IndexPoor},
		{0, 0, 0, 35, airquality.IndexVeryPoor},
		{0, 0, 0, 40, airquality.IndexBad},
		{0, 0, 0, 50, airquality.IndexVeryBad},
		{0, 0, 0, 51, airquality.IndexHorrible},
		{3, 1, 20, 4, airquality.IndexExcellent},
		{10, 3, 50, 8, airquality.IndexVeryGood},
		{20, 6, 65, 12, airquality.IndexGood},
		{30, 8, 75, 18, airquality.IndexFairlyGood},
		{40, 12, 90, 22, airquality.IndexModerate},
		{50, 20, 110, 28, airquality.IndexPoor},
		{65, 30, 140, 33, airquality.IndexVeryPoor},
		{75, 38, 180, 38, airquality.IndexBad},
		{90, 45, 200, 45, airquality.IndexVeryBad},
		{110, 55, 230, 55, airquality.IndexHorrible},
		{3, 30, 20, 8, airquality.IndexVeryPoor},
		{110, 6, 65, 12, airquality.IndexHorrible},
		{3, 6, 230, 12, airquality.IndexHorrible},
		{3, 6, 65, 55, airquality.IndexHorrible},
		{50, 5, 65, 12, airquality.IndexPoor},
		{10, 20, 65, 12, airquality.IndexPoor},
		{10, 5, 110, 12, airquality.IndexPoor},
		{10, 5, 65, 28, airquality.IndexPoor},
		{75, 5, 30, 8, airquality.IndexBad},
		{10, 38, 30, 8, airquality.IndexBad},
		{10, 5, 180, 8, airquality.IndexBad},
		{10, 5, 30, 38, airquality.IndexBad},
		{65, 3, 20, 22, airquality.IndexVeryPoor},
		{3, 30, 20, 22, airquality.IndexVeryPoor},
		{3, 3, 140, 22, airquality.IndexVeryPoor},
		{3, 3, 20, 33, airquality.IndexVeryPoor},
		{90, 6, 20, 22, airquality.IndexVeryBad},
		{10, 45, 20, 22, airquality.IndexVeryBad},
		{10, 6, 200, 22, airquality.IndexVeryBad},
		{10, 6, 20, 45, airquality.IndexVeryBad},
		{3, 30, 20, 4, airquality.IndexVeryPoor},
		{110, 1, 20, 4, airquality.IndexHorrible},
		{3, 1, 230, 4, airquality.IndexHorrible},
		{3, 1, 20, 55, airquality.IndexHorrible},
		{50, 3, 20, 4, airquality.IndexPoor},
		{3, 20, 20, 4, airquality.IndexPoor},
		{3, 1, 110, 4, airquality.IndexPoor},
		{3, 1, 20, 28, airquality.IndexPoor},
	}

	for _, tt := range tests {
		name := fmt.Sprintf("%v_%v_%v_%v", tt.pm10, tt.pm25, tt.o3, tt.no2)
		t.Run(name, func(t *testing.T) {
			got, err := airquality.DailyIndex(tt.pm10, tt.pm25, tt.o3, tt.no2)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIndex_RejectsInvalidComponents(t *testing.T) {
	calculators := map[string]func(pm10, pm25, o3, no2 float64) (airquality.Index, error){
		"hourly": airquality.HourlyIndex,
		"daily":  airquality.DailyIndex,
	}

	invalid := map[string]float64{
		"negative": -1,
		"sentinel": -8888,
		"nan":      math.NaN(),
		"inf":      math.Inf(1),
	}

	for calcName, calc := range calculators {
		for position := 0; position < 4; position++ {
			for invalidName, bad := range invalid {
				args := []float64{1, 0, 12, 8}
				args[position] = bad
				t.Run(fmt.Sprintf("%s/arg%d/%s", calcName, position, invalidName), func(t *testing.T) {
					idx, err := calc(args[0], args[1], args[2], args[3])
					require.Error(t, err)
					assert.ErrorIs(t, err, airquality.ErrInvalidInput)
					assert.Equal(t, airquality.IndexUnknown, idx)
				})
			}
		}
	}
}

func TestIndex_BreakpointsAreExclusive(t *testing.T) {
	idx, err := airquality.DailyIndex(100, 0, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, airquality.IndexVeryBad, idx)

	idx, err = airquality.DailyIndex(100.01, 0, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, airquality.IndexHorrible, idx)

	idx, err = airquality.HourlyIndex(0, 0, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, airquality.IndexExcellent, idx)
}

func TestIndex_String(t *testing.T) {
	assert.Equal(t, "excellent", airquality.IndexExcellent.String())
	assert.Equal(t, "fairly_good", airquality.IndexFairlyGood.String())
	assert.Equal(t, "horrible", airquality.IndexHorrible.String())
	assert.Equal(t, "unknown", airquality.IndexUnknown.String())
	assert.Equal(t, "Index(42)", airquality.Index(42).String())

	assert.False(t, airquality.IndexUnknown.Valid())
	assert.True(t, airquality.IndexHorrible.Valid())
	assert.Equal(t, 10, int(airquality.IndexHorrible))
}
