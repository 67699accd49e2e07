package models

// FeatureValue is the latest known value of one feature.
type FeatureValue struct {
	Feature   string     `json:"feature"`
	Value     *float64   `json:"value"`
	Timestamp *Timestamp `json:"timestamp,omitempty"`
	Date      string     `json:"date,omitempty"`
	// Day is the forecast target day, set for forecast features only.
	Day string `json:"day,omitempty"`
}

// Features is the response of a feature query.
type Features struct {
	Source   string         `json:"source"`
	Position Point          `json:"position"`
	Values   []FeatureValue `json:"values"`
}

// Capabilities lists the features advertised by an upstream service.
type Capabilities struct {
	Source   string   `json:"source"`
	Features []string `json:"features"`
}
