// Package observe provides application-wide observability primitives for
// phonoscore: OpenTelemetry metrics, distributed tracing, structured logging,
// and an HTTP client transport that ties them together for provider calls.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider]; because phonoscore runs
// as a short-lived CLI, the collected metrics are written to a node-exporter
// textfile rather than served. A package-level default [Metrics] instance
// ([DefaultMetrics]) is provided for convenience; tests should use
// [NewMetrics] with a custom [metric.MeterProvider] to avoid cross-test
// pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all phonoscore metrics.
const meterName = "github.com/MrWong99/phonoscore"

// Status values for the status attribute.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms ---

	// STTDuration tracks speech-to-text transcription latency.
	STTDuration metric.Float64Histogram

	// ScoringDuration tracks the latency of one alignment-and-scoring run.
	ScoringDuration metric.Float64Histogram

	// HTTPClientDuration tracks outgoing provider HTTP request latency. Use
	// with attributes:
	//   attribute.String("provider", ...), attribute.String("method", ...)
	HTTPClientDuration metric.Float64Histogram

	// --- Score distribution ---

	// ScoringAccuracy records the overall accuracy percentage of each scored
	// attempt. Use with attribute:
	//   attribute.String("language", ...)
	ScoringAccuracy metric.Float64Histogram

	// --- Counters ---

	// ScoringRequests counts scoring runs. Use with attributes:
	//   attribute.String("language", ...), attribute.String("status", ...)
	ScoringRequests metric.Int64Counter

	// AlignmentFallbacks counts alignments that consulted the fallback
	// strategy.
	AlignmentFallbacks metric.Int64Counter

	// AlignmentDegraded counts alignments where a strategy failed and was
	// replaced by gaps.
	AlignmentDegraded metric.Int64Counter

	// DegradedPairs counts word pairs scored with the worst-case mismatch
	// count after an edit distance failure.
	DegradedPairs metric.Int64Counter

	// ProviderRequests counts provider calls. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("kind", ...), attribute.String("status", ...)
	ProviderRequests metric.Int64Counter

	// --- Error counters ---

	// ProviderErrors counts provider errors. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("kind", ...)
	ProviderErrors metric.Int64Counter
}

// latencyBuckets defines histogram bucket boundaries (in seconds) covering
// sub-millisecond scoring runs up to slow hosted transcription.
var latencyBuckets = []float64{
	0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30,
}

// accuracyBuckets are percentage boundaries aligned with the default
// category anchors.
var accuracyBuckets = []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.STTDuration, err = m.Float64Histogram("phonoscore.stt.duration",
		metric.WithDescription("Latency of speech-to-text transcription."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ScoringDuration, err = m.Float64Histogram("phonoscore.scoring.duration",
		metric.WithDescription("Latency of alignment and pronunciation scoring."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.HTTPClientDuration, err = m.Float64Histogram("phonoscore.http.client.duration",
		metric.WithDescription("Latency of outgoing provider HTTP requests."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ScoringAccuracy, err = m.Float64Histogram("phonoscore.scoring.accuracy",
		metric.WithDescription("Overall pronunciation accuracy of scored attempts."),
		metric.WithUnit("%"),
		metric.WithExplicitBucketBoundaries(accuracyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.ScoringRequests, err = m.Int64Counter("phonoscore.scoring.requests",
		metric.WithDescription("Total scoring runs by language and status."),
	); err != nil {
		return nil, err
	}
	if met.AlignmentFallbacks, err = m.Int64Counter("phonoscore.alignment.fallbacks",
		metric.WithDescription("Total alignments that used the fallback strategy."),
	); err != nil {
		return nil, err
	}
	if met.AlignmentDegraded, err = m.Int64Counter("phonoscore.alignment.degraded",
		metric.WithDescription("Total alignments degraded to gaps after a strategy failure."),
	); err != nil {
		return nil, err
	}
	if met.DegradedPairs, err = m.Int64Counter("phonoscore.scoring.degraded_pairs",
		metric.WithDescription("Total word pairs scored as full mismatches after a distance failure."),
	); err != nil {
		return nil, err
	}
	if met.ProviderRequests, err = m.Int64Counter("phonoscore.provider.requests",
		metric.WithDescription("Total provider requests by provider, kind, and status."),
	); err != nil {
		return nil, err
	}

	// Error counters.
	if met.ProviderErrors, err = m.Int64Counter("phonoscore.provider.errors",
		metric.WithDescription("Total provider errors by provider and kind."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
//
// The global provider is captured on first use, so [InitProvider] must run
// before anything calls DefaultMetrics.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordScoringRequest records a scoring run counter increment.
func (m *Metrics) RecordScoringRequest(ctx context.Context, language, status string) {
	m.ScoringRequests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("language", language),
			attribute.String("status", status),
		),
	)
}

// RecordProviderRequest is a convenience method that records a provider
// request counter increment with the standard attribute set.
func (m *Metrics) RecordProviderRequest(ctx context.Context, provider, kind, status string) {
	m.ProviderRequests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("kind", kind),
			attribute.String("status", status),
		),
	)
}

// RecordProviderError is a convenience method that records a provider error
// counter increment.
func (m *Metrics) RecordProviderError(ctx context.Context, provider, kind string) {
	m.ProviderErrors.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("kind", kind),
		),
	)
}
