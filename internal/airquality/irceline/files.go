package irceline

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/breatheroute/irceline/internal/airquality"
	"github.com/breatheroute/irceline/internal/cache"
	"github.com/breatheroute/irceline/internal/telemetry"
)

// GridStep is the resolution in degrees of the published forecast files.
const GridStep = 0.05

// ErrNotCached is returned when the server answers 304 Not Modified for a
// file that is no longer in the cache.
var ErrNotCached = errors.New("not modified but no cached copy")

// cachedFile is a forecast file body with its entity tag.
type cachedFile struct {
	etag string
	body []byte
}

// ForecastFileClient reads the forecast CSV files published by IRCEL -
// CELINE. Files are cached by URL and revalidated with their ETag.
type ForecastFileClient struct {
	base
	cache           *cache.LRU[string, cachedFile]
	capabilitiesURL string
}

// ForecastFileClientConfig holds configuration for the forecast file client.
type ForecastFileClientConfig struct {
	ClientConfig

	// CacheSize is the number of files kept for conditional fetches
	// (default: 20).
	CacheSize int

	// CapabilitiesURL is the WMS service listing the forecast features
	// (default: DefaultForecastWMSURL).
	CapabilitiesURL string
}

// NewForecastFileClient creates a new forecast file client.
func NewForecastFileClient(cfg ForecastFileClientConfig) *ForecastFileClient {
	size := cfg.CacheSize
	if size <= 0 {
		size = DefaultCacheSize
	}
	capabilitiesURL := cfg.CapabilitiesURL
	if capabilitiesURL == "" {
		capabilitiesURL = DefaultForecastWMSURL
	}

	c := &ForecastFileClient{
		base:            newBase(ProviderForecastFiles, DefaultForecastFilesURL, cfg.ClientConfig),
		capabilitiesURL: strings.TrimSuffix(capabilitiesURL, "/"),
	}
	c.cache = cache.NewLRU(size, cache.WithEvictCallback(func(url string, _ cachedFile) {
		c.logger.Debug().Str("url", url).Msg("forecast file evicted")
	}))
	return c
}

// FetchForecast returns the forecasts issued on issued for that day and the
// following four, read from the published files. A position outside the
// file grid yields absent values.
func (c *ForecastFileClient) FetchForecast(ctx context.Context, features []airquality.ForecastFeature, pos airquality.Position, issued civil.Date) (map[airquality.ForecastKey]airquality.FeatureValue, error) {
	if err := validateForecast(c.provider, "GetFile", features, pos, issued); err != nil {
		return nil, err
	}

	lat, lon := snap(pos.Lat), snap(pos.Lon)
	fetch := func(ctx context.Context, f airquality.ForecastFeature, issue civil.Date, offset int) (airquality.FeatureValue, error) {
		body, err := c.fetchFile(ctx, FileURL(c.baseURL, f, issue, offset))
		if err != nil {
			return airquality.FeatureValue{}, err
		}
		if v, ok := ValueAt(bytes.NewReader(body), lat, lon); ok {
			return airquality.MeasuredOn(v, issue), nil
		}
		return airquality.MissingOn(issue), nil
	}
	return fetchForecastDays(ctx, &c.base, features, issued, fetch), nil
}

// Capabilities returns the layers offered by the forecast WMS service, which
// are the features published as files.
func (c *ForecastFileClient) Capabilities(ctx context.Context) ([]string, error) {
	return c.wmsCapabilities(ctx, c.capabilitiesURL)
}

// CachedFiles returns the URLs of the cached files, most recently used
// first.
func (c *ForecastFileClient) CachedFiles() []string {
	return c.cache.Keys()
}

// fetchFile downloads rawURL, revalidating a cached copy with If-None-Match.
// A response without ETag is not cached.
func (c *ForecastFileClient) fetchFile(ctx context.Context, rawURL string) ([]byte, error) {
	const op = "GetFile"

	var header http.Header
	if c.cache.Contains(rawURL) {
		if cached, ok := c.cache.Get(rawURL); ok {
			header = http.Header{"If-None-Match": {cached.etag}}
		}
	}

	resp, err := c.get(ctx, op, rawURL, nil, header)
	if err != nil {
		return nil, err
	}

	if resp.status == http.StatusNotModified {
		cached, ok := c.cache.Get(rawURL)
		if !ok {
			c.metrics.RecordCacheLookup(ctx, c.provider, telemetry.CacheMiss)
			return nil, &APIError{Provider: c.provider, Op: op, URL: rawURL, Kind: KindNetwork, Err: ErrNotCached}
		}
		c.metrics.RecordCacheLookup(ctx, c.provider, telemetry.CacheHit)
		return cached.body, nil
	}

	outcome := telemetry.CacheMiss
	if header != nil {
		outcome = telemetry.CacheStale
	}
	if etag := resp.header.Get("ETag"); etag != "" {
		c.cache.Put(rawURL, cachedFile{etag: etag, body: resp.body})
	} else {
		outcome = telemetry.CacheBypass
	}
	c.metrics.RecordCacheLookup(ctx, c.provider, outcome)
	return resp.body, nil
}

// FileURL returns the location of the file holding feature f forecast on
// issue for offset days later.
func FileURL(baseURL string, f airquality.ForecastFeature, issue civil.Date, offset int) string {
	date := issue.In(time.UTC).Format("20060102")
	return strings.TrimSuffix(baseURL, "/") + "/BE_" + f.Name() + "_" + date + "_d" + strconv.Itoa(offset) + ".csv"
}

// ValueAt scans a forecast file for the row at (lat, lon), both already
// snapped to the grid. Rows are id;lat;lon;value; malformed rows, such as
// the header or a cell without a numeric value, are skipped.
func ValueAt(r io.Reader, lat, lon float64) (float64, bool) {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return 0, false
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			continue
		}
		if err != nil {
			return 0, false
		}
		if len(row) < 4 {
			continue
		}

		rowLat, err1 := strconv.ParseFloat(strings.TrimSpace(row[1]), 64)
		rowLon, err2 := strconv.ParseFloat(strings.TrimSpace(row[2]), 64)
		if err1 != nil || err2 != nil {
			continue
		}
		if !sameCell(snap(rowLat), lat) || !sameCell(snap(rowLon), lon) {
			continue
		}

		v, err := strconv.ParseFloat(strings.TrimSpace(row[3]), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		return v, true
	}
}

// snap rounds a coordinate to the nearest grid cell.
func snap(v float64) float64 {
	return math.Round(v/GridStep) * GridStep
}

func sameCell(a, b float64) bool {
	return math.Abs(a-b) < GridStep/100
}
