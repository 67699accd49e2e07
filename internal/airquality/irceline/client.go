// Package irceline provides clients for the IRCEL - CELINE open data
// services: the RIO interpolated measurements (WFS), the RIO-IFDM fine grid
// (WMS), the forecast maps (WMS) and the published forecast files (CSV).
package irceline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/breatheroute/irceline/internal/provider/resilience"
	"github.com/breatheroute/irceline/internal/telemetry"
)

const (
	// DefaultWFSURL is the RIO feature service.
	DefaultWFSURL = "https://geo.irceline.be/wfs"

	// DefaultRioIfdmWMSURL is the RIO-IFDM map service.
	DefaultRioIfdmWMSURL = "https://geobelair.irceline.be/rioifdm/wms"

	// DefaultForecastWMSURL is the forecast map service.
	DefaultForecastWMSURL = "https://geo.irceline.be/forecast/wms"

	// DefaultForecastFilesURL hosts the published forecast files. There is
	// no HTTPS version of this endpoint.
	DefaultForecastFilesURL = "http://ftp.irceline.be/forecast"

	// DefaultUserAgent identifies this client to IRCEL - CELINE.
	DefaultUserAgent = "github.com/breatheroute/irceline"

	// DefaultTimeout bounds each individual round trip.
	DefaultTimeout = 60 * time.Second

	// DefaultCacheSize is the number of forecast files kept for conditional fetches.
	DefaultCacheSize = 20

	// DefaultConcurrency bounds parallel probes of one fetch.
	DefaultConcurrency = 8

	maxBodySize = 64 << 20
)

// Provider names used for circuit breakers, metrics and health reporting.
const (
	ProviderRio           = "irceline-rio"
	ProviderRioIfdm       = "irceline-rioifdm"
	ProviderForecast      = "irceline-forecast"
	ProviderForecastFiles = "irceline-forecast-files"
)

// HTTPDoer abstracts HTTP request execution.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration shared by all IRCEL - CELINE clients.
type ClientConfig struct {
	// BaseURL is the service URL (defaults per client).
	BaseURL string

	// HTTPClient executes requests. If nil, a resilient client without
	// retries is created.
	HTTPClient HTTPDoer

	// Timeout bounds each round trip (default: 60s).
	Timeout time.Duration

	// UserAgent is sent with every request (default: DefaultUserAgent).
	UserAgent string

	// Concurrency bounds parallel probes (default: 8).
	Concurrency int

	// Logger for client operations.
	Logger zerolog.Logger

	// Metrics records upstream requests. Optional.
	Metrics *telemetry.UpstreamMetrics

	// Registry tracks provider health. Optional.
	Registry *resilience.Registry

	// Now returns the current time (default: time.Now).
	Now func() time.Time
}

// response is a fully read upstream response.
type response struct {
	status int
	header http.Header
	body   []byte
}

// base implements the request plumbing shared by the clients.
type base struct {
	provider    string
	baseURL     string
	userAgent   string
	timeout     time.Duration
	concurrency int
	httpClient  HTTPDoer
	logger      zerolog.Logger
	metrics     *telemetry.UpstreamMetrics
	registry    *resilience.Registry
	now         func() time.Time
}

func newBase(provider, defaultURL string, cfg ClientConfig) base {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultURL
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	logger := cfg.Logger.With().Str("provider", provider).Logger()

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		cb := resilience.DefaultCircuitBreakerConfig(provider)
		cb.OnStateChange = resilience.LogStateChanges(logger)
		httpClient = resilience.NewClient(resilience.ClientConfig{
			Name:           provider,
			Timeout:        timeout,
			UserAgent:      userAgent,
			DisableRetries: true,
			CircuitBreaker: &cb,
			Registry:       cfg.Registry,
		})
	}

	return base{
		provider:    provider,
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		userAgent:   userAgent,
		timeout:     timeout,
		concurrency: concurrency,
		httpClient:  httpClient,
		logger:      logger,
		metrics:     cfg.Metrics,
		registry:    cfg.Registry,
		now:         now,
	}
}

// get performs one GET round trip bounded by the per-call timeout and reads
// the whole body. Statuses of 400 and above fail with an APIError; 304 is
// returned to the caller.
func (b *base) get(ctx context.Context, op, rawURL string, params url.Values, header http.Header) (*response, error) {
	if len(params) > 0 {
		rawURL += "?" + params.Encode()
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	ctx, span := telemetry.StartUpstreamSpan(ctx, b.provider, op, rawURL)
	start := time.Now()

	resp, err := b.roundTrip(ctx, op, rawURL, header)

	status := 0
	if resp != nil {
		status = resp.status
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode > 0 {
		status = apiErr.StatusCode
	}

	telemetry.EndSpan(span, status, err)
	b.metrics.RecordRequest(ctx, b.provider, op, status, time.Since(start), err)
	if b.registry != nil {
		b.registry.Observe(b.provider, err)
	}

	logger := b.logger
	if id := telemetry.RequestID(ctx); id != "" {
		logger = logger.With().Str("request_id", id).Logger()
	}

	if err != nil {
		logger.Debug().Err(err).Str("op", op).Str("url", rawURL).Msg("upstream request failed")
		return nil, err
	}

	logger.Debug().
		Str("op", op).
		Str("url", rawURL).
		Int("status", status).
		Dur("duration", time.Since(start)).
		Msg("upstream request")
	return resp, nil
}

func (b *base) roundTrip(ctx context.Context, op, rawURL string, header http.Header) (*response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, invalidParameter(b.provider, op, "create request: %w", err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	req.Header.Set("User-Agent", b.userAgent)

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, b.transportError(ctx, op, rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &APIError{
			Provider:   b.provider,
			Op:         op,
			URL:        rawURL,
			Kind:       KindStatus,
			StatusCode: resp.StatusCode,
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, b.transportError(ctx, op, rawURL, fmt.Errorf("read body: %w", err))
	}

	return &response{status: resp.StatusCode, header: resp.Header, body: body}, nil
}

func (b *base) transportError(ctx context.Context, op, rawURL string, err error) error {
	kind := KindNetwork
	var netErr net.Error
	switch {
	case errors.Is(err, resilience.ErrCircuitOpen):
		kind = KindCircuitOpen
	case errors.Is(err, context.DeadlineExceeded), errors.Is(ctx.Err(), context.DeadlineExceeded):
		kind = KindTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		kind = KindTimeout
	}
	return &APIError{Provider: b.provider, Op: op, URL: rawURL, Kind: kind, Err: err}
}
