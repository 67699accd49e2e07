package irceline

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/breatheroute/irceline/internal/airquality"
)

// RioClient queries the RIO interpolated measurements through the WFS
// service. All requested features are fetched in a single round trip.
type RioClient struct {
	base
	projector airquality.Projector
}

// RioClientConfig holds configuration for the RIO client.
type RioClientConfig struct {
	ClientConfig

	// Projector maps positions to the service grid (default: Lambert 72).
	Projector airquality.Projector
}

// NewRioClient creates a new RIO WFS client.
func NewRioClient(cfg RioClientConfig) *RioClient {
	projector := cfg.Projector
	if projector == nil {
		projector = airquality.NewLambert72()
	}
	return &RioClient{
		base:      newBase(ProviderRio, DefaultWFSURL, cfg.ClientConfig),
		projector: projector,
	}
}

// FetchMeasurements returns the latest value of each feature at pos. The
// window selects hourly (instant) or daily (date) data; a zero window means
// the current hour.
func (c *RioClient) FetchMeasurements(ctx context.Context, features []airquality.RioFeature, pos airquality.Position, w airquality.Window) (map[airquality.RioFeature]airquality.FeatureValue, error) {
	const op = "GetFeature"

	if len(features) == 0 {
		return nil, invalidParameter(c.provider, op, "no features requested")
	}
	names := make([]string, len(features))
	for i, f := range features {
		if !f.Valid() {
			return nil, invalidParameter(c.provider, op, "unknown feature %q", f)
		}
		names[i] = string(f)
	}
	if err := pos.Validate(); err != nil {
		return nil, invalidParameter(c.provider, op, "%w", err)
	}
	if !w.Daily() && w.At.IsZero() {
		w = airquality.AtInstant(c.now())
	}

	x, y := c.projector.Project(pos)
	params := url.Values{
		"service":      {"WFS"},
		"version":      {"1.3.0"},
		"request":      {"GetFeature"},
		"outputFormat": {"application/json"},
		"typeName":     {strings.Join(names, ",")},
		"cql_filter":   {CQLFilter(w, x, y)},
	}

	resp, err := c.get(ctx, op, c.baseURL, params, nil)
	if err != nil {
		return nil, err
	}

	result := airquality.ReduceFeatureCollection(string(airquality.SourceRio), resp.body, features)
	c.logger.Debug().
		Int("requested", len(features)).
		Int("found", len(result)).
		Str("position", pos.String()).
		Msg("fetched rio measurements")
	return result, nil
}

// CQLFilter builds the temporal and spatial predicate of a RIO query. The
// lower bound is the window truncated to its hour (or day) minus one more
// hour (or day), as the latest period is often not yet published. Instants
// are truncated in their own zone, which matters for offsets that are not
// whole hours.
func CQLFilter(w airquality.Window, x, y float64) string {
	var key, bound string
	if w.Daily() {
		key, bound = "date", w.Day.AddDays(-1).String()
	} else {
		key = "timestamp"
		at := w.At
		hour := time.Date(at.Year(), at.Month(), at.Day(), at.Hour(), 0, 0, 0, at.Location())
		bound = hour.Add(-time.Hour).UTC().Format(time.RFC3339)
	}
	return fmt.Sprintf("%s>='%s' AND INTERSECTS(the_geom, POINT (%d %d))",
		key, bound, int64(math.Round(x)), int64(math.Round(y)))
}

// Capabilities returns the feature types offered by the WFS service.
func (c *RioClient) Capabilities(ctx context.Context) ([]string, error) {
	params := url.Values{
		"service": {"WFS"},
		"version": {"1.3.0"},
		"request": {"GetCapabilities"},
	}
	resp, err := c.get(ctx, "GetCapabilities", c.baseURL, params, nil)
	if err != nil {
		return nil, err
	}
	return ParseWFSCapabilities(bytes.NewReader(resp.body)), nil
}
