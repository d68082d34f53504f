package observe

import (
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.39.0"
	"go.opentelemetry.io/otel/trace"
)

// transport instruments outgoing provider HTTP requests.
type transport struct {
	base     http.RoundTripper
	metrics  *Metrics
	provider string
	prop     propagation.TextMapPropagator
}

// Transport returns an [http.RoundTripper] that wraps base (or
// [http.DefaultTransport] when nil) and, for every request:
//
//  1. Starts a client span named after the method and host.
//  2. Injects W3C Trace Context into the outgoing request headers.
//  3. Records the round trip to [Metrics.HTTPClientDuration].
//  4. Counts transport failures and 5xx responses in [Metrics.ProviderErrors].
//  5. Logs the response status and duration at debug level.
func Transport(m *Metrics, base http.RoundTripper, provider string) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &transport{
		base:     base,
		metrics:  m,
		provider: provider,
		prop:     propagation.TraceContext{},
	}
}

// RoundTrip implements [http.RoundTripper].
func (t *transport) RoundTrip(r *http.Request) (*http.Response, error) {
	start := time.Now()

	ctx, span := StartSpan(r.Context(), "HTTP "+r.Method+" "+r.URL.Host,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			semconv.HTTPRequestMethodKey.String(r.Method),
			semconv.URLPath(r.URL.Path),
			attribute.String("provider", t.provider),
		),
	)

	// RoundTrippers must not modify the caller's request.
	r = r.Clone(ctx)
	t.prop.Inject(ctx, propagation.HeaderCarrier(r.Header))

	resp, err := t.base.RoundTrip(r)
	duration := time.Since(start)

	t.metrics.HTTPClientDuration.Record(ctx, duration.Seconds(),
		metric.WithAttributes(
			attribute.String("provider", t.provider),
			attribute.String("method", r.Method),
		),
	)

	if err != nil {
		t.metrics.RecordProviderError(ctx, t.provider, "transport")
		EndSpan(span, err)
		return nil, err
	}

	span.SetAttributes(semconv.HTTPResponseStatusCode(resp.StatusCode))
	if resp.StatusCode >= http.StatusInternalServerError {
		t.metrics.RecordProviderError(ctx, t.provider, "http")
	}
	span.End()

	Logger(ctx).LogAttrs(ctx, slog.LevelDebug, "provider request completed",
		slog.String("provider", t.provider),
		slog.String("method", r.Method),
		slog.String("url", r.URL.Redacted()),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", duration),
	)
	return resp, nil
}
