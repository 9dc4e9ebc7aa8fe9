// Package observe provides application-wide observability primitives for
// CampusBuddy: OpenTelemetry metrics, tracing, structured logging helpers,
// and HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all CampusBuddy metrics.
const meterName = "github.com/campusbuddy/campusbuddy"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms ---

	// ChatRunDuration tracks the wall-clock time of one full conversation
	// run (all model round-trips plus tool executions).
	ChatRunDuration metric.Float64Histogram

	// ModelCallDuration tracks the latency of a single LLM completion call.
	ModelCallDuration metric.Float64Histogram

	// ToolExecutionDuration tracks tool handler execution latency.
	ToolExecutionDuration metric.Float64Histogram

	// HTTPRequestDuration tracks HTTP request processing time. Use with
	// attributes: attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram

	// --- Counters ---

	// ChatRuns counts conversation runs. Use with attributes:
	//   attribute.String("mode", ...), attribute.String("status", ...)
	ChatRuns metric.Int64Counter

	// ToolCalls counts tool invocations. Use with attributes:
	//   attribute.String("tool", ...), attribute.String("status", ...)
	ToolCalls metric.Int64Counter

	// ModelErrors counts failed LLM completion calls.
	ModelErrors metric.Int64Counter

	// --- Gauges ---

	// ActiveRuns tracks the number of conversation runs currently in flight.
	ActiveRuns metric.Int64UpDownCounter
}

// latencyBuckets defines histogram bucket boundaries (in seconds). Chat runs
// span several model round-trips, so the upper buckets reach a minute.
var latencyBuckets = []float64{
	0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.ChatRunDuration, err = m.Float64Histogram("campusbuddy.chat.run.duration",
		metric.WithDescription("Wall-clock duration of a full conversation run."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ModelCallDuration, err = m.Float64Histogram("campusbuddy.model.call.duration",
		metric.WithDescription("Latency of a single LLM completion call."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ToolExecutionDuration, err = m.Float64Histogram("campusbuddy.tool.duration",
		metric.WithDescription("Latency of tool handler execution."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("campusbuddy.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.ChatRuns, err = m.Int64Counter("campusbuddy.chat.runs",
		metric.WithDescription("Total conversation runs by mode and outcome."),
	); err != nil {
		return nil, err
	}
	if met.ToolCalls, err = m.Int64Counter("campusbuddy.tool.calls",
		metric.WithDescription("Total tool invocations by tool name and status."),
	); err != nil {
		return nil, err
	}
	if met.ModelErrors, err = m.Int64Counter("campusbuddy.model.errors",
		metric.WithDescription("Total failed LLM completion calls."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActiveRuns, err = m.Int64UpDownCounter("campusbuddy.chat.active_runs",
		metric.WithDescription("Number of conversation runs currently in flight."),
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

// RecordToolCall increments the tool-call counter with the standard
// attribute set.
func (m *Metrics) RecordToolCall(ctx context.Context, tool, status string) {
	m.ToolCalls.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("tool", tool),
			attribute.String("status", status),
		))
}

// RecordToolDuration records one tool execution latency sample.
func (m *Metrics) RecordToolDuration(ctx context.Context, tool string, seconds float64) {
	m.ToolExecutionDuration.Record(ctx, seconds,
		metric.WithAttributes(attribute.String("tool", tool)))
}

// RecordChatRun increments the run counter with the standard attribute set.
func (m *Metrics) RecordChatRun(ctx context.Context, mode, status string) {
	m.ChatRuns.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("mode", mode),
			attribute.String("status", status),
		))
}

// RecordModelCall records one model-call latency sample, incrementing the
// error counter when the call failed.
func (m *Metrics) RecordModelCall(ctx context.Context, seconds float64, failed bool) {
	m.ModelCallDuration.Record(ctx, seconds)
	if failed {
		m.ModelErrors.Add(ctx, 1)
	}
}
