package irceline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/breatheroute/irceline/internal/airquality"
)

// probeEpsilon is the size in degrees of the one pixel bounding box probed
// around a position.
const probeEpsilon = 0.00001

var errMalformedProbe = errors.New("malformed feature info payload")

// featureInfo is the JSON payload of a GetFeatureInfo request.
type featureInfo struct {
	Features []struct {
		Properties map[string]json.RawMessage `json:"properties"`
	} `json:"features"`
	TimeStamp *string `json:"timeStamp"`
}

// probeParams builds a GetFeatureInfo query for the pixel at pos.
func probeParams(layer string, pos airquality.Position) url.Values {
	coord := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	bbox := coord(pos.Lon) + "," + coord(pos.Lat) + "," +
		coord(pos.Lon+probeEpsilon) + "," + coord(pos.Lat+probeEpsilon)

	return url.Values{
		"service":      {"WMS"},
		"version":      {"1.1.1"},
		"request":      {"GetFeatureInfo"},
		"layers":       {layer},
		"query_layers": {layer},
		"info_format":  {"application/json"},
		"width":        {"1"},
		"height":       {"1"},
		"srs":          {"EPSG:4326"},
		"bbox":         {bbox},
		"X":            {"1"},
		"Y":            {"1"},
	}
}

// decodeProbe reads the value and optional timestamp of a GetFeatureInfo
// response. An empty feature list or a missing GRAY_INDEX gives an absent
// value; a payload that cannot be decoded at all is an error.
func decodeProbe(body []byte) (airquality.FeatureValue, error) {
	var info featureInfo
	if err := json.Unmarshal(bytes.TrimSpace(body), &info); err != nil {
		return airquality.FeatureValue{}, fmt.Errorf("%w: %w", errMalformedProbe, err)
	}

	var fv airquality.FeatureValue
	if info.TimeStamp != nil {
		if t, err := airquality.ParseTimestamp(*info.TimeStamp); err == nil {
			fv.Time = &t
		}
	}
	if len(info.Features) > 0 {
		if v, ok := airquality.ParseNumber(info.Features[0].Properties["GRAY_INDEX"]); ok {
			fv.Value = &v
		}
	}
	return fv, nil
}

// probe issues one GetFeatureInfo request against layer. Extra parameters
// such as the WMS time dimension are merged into the query.
func (b *base) probe(ctx context.Context, layer string, pos airquality.Position, extra url.Values) (airquality.FeatureValue, error) {
	params := probeParams(layer, pos)
	for k, v := range extra {
		params[k] = v
	}

	resp, err := b.get(ctx, "GetFeatureInfo", b.baseURL, params, nil)
	if err != nil {
		return airquality.FeatureValue{}, err
	}
	return decodeProbe(resp.body)
}

// wmsCapabilities fetches and parses the layer list of a WMS service.
func (b *base) wmsCapabilities(ctx context.Context, rawURL string) ([]string, error) {
	params := url.Values{
		"service": {"WMS"},
		"version": {"1.1.1"},
		"request": {"GetCapabilities"},
	}
	resp, err := b.get(ctx, "GetCapabilities", rawURL, params, nil)
	if err != nil {
		return nil, err
	}
	return ParseWMSCapabilities(bytes.NewReader(resp.body)), nil
}
