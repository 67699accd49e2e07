package models

// IndexLevel is the BelAQI category of a computed index.
type IndexLevel struct {
	// Index is the category from 1 (excellent) to 10 (horrible), nil when
	// it could not be computed.
	Index *int   `json:"index"`
	Level string `json:"level"`
}

// CurrentIndex is the instantaneous BelAQI at a position.
type CurrentIndex struct {
	Position   Point                   `json:"position"`
	At         Timestamp               `json:"at"`
	IndexLevel
	Components map[string]FeatureValue `json:"components,omitempty"`
}

// DailyIndex is the BelAQI of one day from the RIO daily means.
type DailyIndex struct {
	Position Point  `json:"position"`
	Day      string `json:"day"`
	IndexLevel
}

// ForecastIndex is the BelAQI forecast issued on a day for that day and the
// four following days.
type ForecastIndex struct {
	Position Point         `json:"position"`
	Issued   string        `json:"issued"`
	Basis    string        `json:"basis"`
	Days     []ForecastDay `json:"days"`
}

// ForecastDay is the forecast index of one day.
type ForecastDay struct {
	Day string `json:"day"`
	IndexLevel
}
