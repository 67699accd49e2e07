package airquality

import "strings"

// RioFeature is a feature of the RIO interpolated measurement service.
type RioFeature string

const (
	RioBC24hMean   RioFeature = "rio:bc_24hmean"
	RioBCDMean     RioFeature = "rio:bc_dmean"
	RioBCHMean     RioFeature = "rio:bc_hmean"
	RioNO2AnMean   RioFeature = "rio:no2_anmean"
	RioNO2DMean    RioFeature = "rio:no2_dmean"
	RioNO2HMean    RioFeature = "rio:no2_hmean"
	RioO38hMean    RioFeature = "rio:o3_8hmean"
	RioO3AnMean    RioFeature = "rio:o3_anmean"
	RioO3HMean     RioFeature = "rio:o3_hmean"
	RioO3Max8hMean RioFeature = "rio:o3_max8hmean"
	RioO3MaxHMean  RioFeature = "rio:o3_maxhmean"
	RioPM1024hMean RioFeature = "rio:pm10_24hmean"
	RioPM10AnMean  RioFeature = "rio:pm10_anmean"
	RioPM10DMean   RioFeature = "rio:pm10_dmean"
	RioPM10HMean   RioFeature = "rio:pm10_hmean"
	RioPM2524hMean RioFeature = "rio:pm25_24hmean"
	RioPM25AnMean  RioFeature = "rio:pm25_anmean"
	RioPM25DMean   RioFeature = "rio:pm25_dmean"
	RioPM25HMean   RioFeature = "rio:pm25_hmean"
	RioSO2HMean    RioFeature = "rio:so2_hmean"
)

var rioFeatures = []RioFeature{
	RioBC24hMean, RioBCDMean, RioBCHMean,
	RioNO2AnMean, RioNO2DMean, RioNO2HMean,
	RioO38hMean, RioO3AnMean, RioO3HMean, RioO3Max8hMean, RioO3MaxHMean,
	RioPM1024hMean, RioPM10AnMean, RioPM10DMean, RioPM10HMean,
	RioPM2524hMean, RioPM25AnMean, RioPM25DMean, RioPM25HMean,
	RioSO2HMean,
}

// RioFeatures lists every RIO feature.
func RioFeatures() []RioFeature {
	return append([]RioFeature(nil), rioFeatures...)
}

func (f RioFeature) Valid() bool { return contains(rioFeatures, f) }

// Name returns the feature name without its source prefix.
func (f RioFeature) Name() string { return unqualified(string(f)) }

// RioIfdmFeature is a feature of the RIO-IFDM fine-grid map service.
type RioIfdmFeature string

const (
	RioIfdmPM25HMean RioIfdmFeature = "rioifdm:pm25_hmean"
	RioIfdmNO2HMean  RioIfdmFeature = "rioifdm:no2_hmean"
	RioIfdmPM10HMean RioIfdmFeature = "rioifdm:pm10_hmean"
	RioIfdmO3HMean   RioIfdmFeature = "rioifdm:o3_hmean"
	RioIfdmBelAQI    RioIfdmFeature = "rioifdm:belaqi"
)

var rioIfdmFeatures = []RioIfdmFeature{
	RioIfdmPM25HMean, RioIfdmNO2HMean, RioIfdmPM10HMean, RioIfdmO3HMean, RioIfdmBelAQI,
}

// RioIfdmFeatures lists every RIO-IFDM feature.
func RioIfdmFeatures() []RioIfdmFeature {
	return append([]RioIfdmFeature(nil), rioIfdmFeatures...)
}

func (f RioIfdmFeature) Valid() bool { return contains(rioIfdmFeatures, f) }

// Name returns the feature name without its source prefix.
func (f RioIfdmFeature) Name() string { return unqualified(string(f)) }

// ForecastFeature is a feature of the forecast services.
type ForecastFeature string

const (
	ForecastNO2MaxHMean ForecastFeature = "forecast:no2_maxhmean"
	ForecastNO2DMean    ForecastFeature = "forecast:no2_dmean"
	ForecastO3MaxHMean  ForecastFeature = "forecast:o3_maxhmean"
	ForecastO3Max8hMean ForecastFeature = "forecast:o3_max8hmean"
	ForecastPM10DMean   ForecastFeature = "forecast:pm10_dmean"
	ForecastPM25DMean   ForecastFeature = "forecast:pm25_dmean"
	ForecastBelAQI      ForecastFeature = "forecast:belaqi"
)

var forecastFeatures = []ForecastFeature{
	ForecastNO2MaxHMean, ForecastNO2DMean, ForecastO3MaxHMean, ForecastO3Max8hMean,
	ForecastPM10DMean, ForecastPM25DMean, ForecastBelAQI,
}

// ForecastFeatures lists every forecast feature.
func ForecastFeatures() []ForecastFeature {
	return append([]ForecastFeature(nil), forecastFeatures...)
}

func (f ForecastFeature) Valid() bool { return contains(forecastFeatures, f) }

// Name returns the feature name without its source prefix.
func (f ForecastFeature) Name() string { return unqualified(string(f)) }

// ParseRioFeature resolves a qualified ("rio:no2_hmean") or bare
// ("no2_hmean") name.
func ParseRioFeature(s string) (RioFeature, bool) {
	return parseFeature[RioFeature](SourceRio, s)
}

// ParseRioIfdmFeature resolves a qualified or bare RIO-IFDM feature name.
func ParseRioIfdmFeature(s string) (RioIfdmFeature, bool) {
	return parseFeature[RioIfdmFeature](SourceRioIfdm, s)
}

// ParseForecastFeature resolves a qualified or bare forecast feature name.
func ParseForecastFeature(s string) (ForecastFeature, bool) {
	return parseFeature[ForecastFeature](SourceForecast, s)
}

type feature interface {
	~string
	Valid() bool
}

func parseFeature[F feature](src Source, s string) (F, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if !strings.Contains(s, ":") {
		s = string(src) + ":" + s
	}
	f := F(s)
	return f, f.Valid()
}

func unqualified(s string) string {
	if i := strings.IndexByte(s, ':'); i >= 0 {
		return s[i+1:]
	}
	return s
}

func contains[F comparable](list []F, f F) bool {
	for _, v := range list {
		if v == f {
			return true
		}
	}
	return false
}
