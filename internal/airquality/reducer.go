package airquality

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

type featureCollection struct {
	Type     string          `json:"type"`
	Features json.RawMessage `json:"features"`
}

type featureRecord struct {
	ID         json.RawMessage            `json:"id"`
	Properties map[string]json.RawMessage `json:"properties"`
}

// ReduceFeatureCollection extracts the latest value per requested feature
// from a GeoJSON feature collection returned by a feature service.
//
// Record identifiers such as "no2_hmean.1234" are cut at the first dot and
// qualified with prefix before being matched against requested. Records with
// a missing or malformed identifier, value or temporal field are skipped.
// When several records map to the same feature, the strictly latest one
// wins. A payload that is not a feature collection yields an empty map.
func ReduceFeatureCollection[F ~string](prefix string, data []byte, requested []F) map[F]FeatureValue {
	result := make(map[F]FeatureValue)

	var fc featureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return result
	}
	if fc.Type != "FeatureCollection" || !isJSONArray(fc.Features) {
		return result
	}

	var records []json.RawMessage
	if err := json.Unmarshal(fc.Features, &records); err != nil {
		return result
	}

	wanted := make(map[string]F, len(requested))
	for _, f := range requested {
		wanted[string(f)] = f
	}

	for _, raw := range records {
		var rec featureRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			continue
		}

		var id string
		if err := json.Unmarshal(rec.ID, &id); err != nil || id == "" {
			continue
		}

		fv, ok := parseRecord(rec.Properties)
		if !ok {
			continue
		}

		base, _, _ := strings.Cut(id, ".")
		f, ok := wanted[prefix+":"+base]
		if !ok {
			continue
		}

		if prev, seen := result[f]; !seen || fv.After(prev) {
			result[f] = fv
		}
	}

	return result
}

func parseRecord(props map[string]json.RawMessage) (FeatureValue, bool) {
	value, ok := ParseNumber(props["value"])
	if !ok {
		return FeatureValue{}, false
	}

	if raw, present := props["timestamp"]; present {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return FeatureValue{}, false
		}
		t, err := ParseTimestamp(s)
		if err != nil {
			return FeatureValue{}, false
		}
		return Measured(value, t), true
	}

	var s string
	if err := json.Unmarshal(props["date"], &s); err != nil || s == "" {
		return FeatureValue{}, false
	}
	// Dates are published as "2024-06-15Z".
	d, err := civil.ParseDate(s[:len(s)-1])
	if err != nil {
		return FeatureValue{}, false
	}
	return MeasuredOn(value, d), true
}

// ParseNumber decodes a finite number from a JSON number or numeric string.
func ParseNumber(raw json.RawMessage) (float64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, false
	}

	var v float64
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, false
		}
		v = f
	} else if err := json.Unmarshal(raw, &v); err != nil {
		return 0, false
	}

	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

// ParseTimestamp parses an ISO 8601 timestamp. Timestamps without an offset
// are taken as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var err error
	for _, layout := range timestampLayouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

func isJSONArray(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '['
}
