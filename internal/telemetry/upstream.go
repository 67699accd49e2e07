package telemetry

import (
	"context"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/breatheroute/irceline/internal/telemetry"

// Cache outcomes of a conditional fetch.
const (
	CacheHit    = "hit"    // validator matched, cached payload served
	CacheMiss   = "miss"   // no cached entry, full download
	CacheStale  = "stale"  // validator sent but payload changed
	CacheBypass = "bypass" // response carried no validator
)

// UpstreamMetrics holds metrics for calls to upstream data services.
type UpstreamMetrics struct {
	requestDuration metric.Float64Histogram
	requestTotal    metric.Int64Counter
	cacheLookups    metric.Int64Counter
}

// NewUpstreamMetrics creates metrics for monitoring upstream calls.
func NewUpstreamMetrics() (*UpstreamMetrics, error) {
	meter := otel.Meter(instrumentationName)

	requestDuration, err := meter.Float64Histogram(
		"upstream.request.duration",
		metric.WithDescription("Duration of upstream requests in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	requestTotal, err := meter.Int64Counter(
		"upstream.request.total",
		metric.WithDescription("Total number of upstream requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	cacheLookups, err := meter.Int64Counter(
		"upstream.cache.lookups",
		metric.WithDescription("Conditional fetch outcomes by result"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	return &UpstreamMetrics{
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLookups:    cacheLookups,
	}, nil
}

// RecordRequest records one upstream round trip. A nil receiver is a no-op.
func (m *UpstreamMetrics) RecordRequest(ctx context.Context, provider, operation string, status int, duration time.Duration, err error) {
	if m == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("provider.name", provider),
		attribute.String("provider.operation", operation),
	}
	if status > 0 {
		attrs = append(attrs, attribute.String("http.status_code", strconv.Itoa(status)))
	}
	if err != nil {
		attrs = append(attrs, attribute.Bool("error", true))
	}

	// Detached from ctx so that cancellation does not drop the data point
	mctx := context.WithoutCancel(ctx)
	m.requestDuration.Record(mctx, duration.Seconds(), metric.WithAttributes(attrs...))
	m.requestTotal.Add(mctx, 1, metric.WithAttributes(attrs...))
}

// RecordCacheLookup records the outcome of a conditional fetch.
func (m *UpstreamMetrics) RecordCacheLookup(ctx context.Context, provider, outcome string) {
	if m == nil {
		return
	}
	m.cacheLookups.Add(context.WithoutCancel(ctx), 1, metric.WithAttributes(
		attribute.String("provider.name", provider),
		attribute.String("cache.result", outcome),
	))
}

// StartUpstreamSpan starts a client span for an upstream call. The span is
// tagged with the request ID carried by ctx, if any.
func StartUpstreamSpan(ctx context.Context, provider, operation, url string) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("provider.name", provider),
		attribute.String("provider.operation", operation),
		attribute.String("url.full", url),
	}
	if id := RequestID(ctx); id != "" {
		attrs = append(attrs, attribute.String("request.id", id))
	}
	return otel.Tracer(instrumentationName).Start(ctx, provider+" "+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
}

// EndSpan records err on span, if any, and ends it.
func EndSpan(span trace.Span, status int, err error) {
	if status > 0 {
		span.SetAttributes(attribute.Int("http.response.status_code", status))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
