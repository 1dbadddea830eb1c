package otel

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "hostshot"

// Metrics holds all OTEL metric instruments for hostshot.
// All counters are cumulative (monotonic) and safe for concurrent use.
type Metrics struct {
	// Capture attempts, partitioned by method and outcome
	// (success, unavailable, failed, timeout).
	CaptureAttempts metric.Int64Counter
	// Capture duration per attempt in milliseconds.
	CaptureDuration metric.Float64Histogram

	// Capture requests, partitioned by variant and result (image, fallback, failure).
	CaptureRequests metric.Int64Counter

	// Multiplexer fallback reports, partitioned by multiplexer and outcome.
	FallbackReports metric.Int64Counter

	// Bot commands, partitioned by command and authorization.
	Commands metric.Int64Counter
}

// NewMetrics creates all metric instruments. Returns no-op instruments
// when no MeterProvider is registered (safe to call unconditionally).
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.CaptureAttempts, err = meter.Int64Counter("capture.attempts",
		metric.WithDescription("Screen capture attempts partitioned by method and outcome"))
	if err != nil {
		return nil, err
	}

	m.CaptureDuration, err = meter.Float64Histogram("capture.duration",
		metric.WithDescription("Wall-clock time of a single capture attempt"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}

	m.CaptureRequests, err = meter.Int64Counter("capture.requests",
		metric.WithDescription("Capture requests partitioned by variant and result (image, fallback, failure)"))
	if err != nil {
		return nil, err
	}

	m.FallbackReports, err = meter.Int64Counter("fallback.reports",
		metric.WithDescription("Multiplexer fallback reports partitioned by outcome"))
	if err != nil {
		return nil, err
	}

	m.Commands, err = meter.Int64Counter("commands.total",
		metric.WithDescription("Bot commands received partitioned by command and authorization"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RecordAttempt records one capture method attempt.
func (m *Metrics) RecordAttempt(ctx context.Context, method, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("capture.method", method),
		attribute.String("capture.outcome", outcome),
	)
	m.CaptureAttempts.Add(ctx, 1, attrs)
	if outcome != "unavailable" {
		m.CaptureDuration.Record(ctx, float64(d.Microseconds())/1000, attrs)
	}
}

// RecordRequest records a handled capture request.
func (m *Metrics) RecordRequest(ctx context.Context, variant, result string) {
	if m == nil {
		return
	}
	m.CaptureRequests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("capture.variant", variant),
		attribute.String("capture.result", result),
	))
}

// RecordFallback records a multiplexer fallback report attempt.
func (m *Metrics) RecordFallback(ctx context.Context, multiplexer, outcome string) {
	if m == nil {
		return
	}
	m.FallbackReports.Add(ctx, 1, metric.WithAttributes(
		attribute.String("fallback.multiplexer", multiplexer),
		attribute.String("fallback.outcome", outcome),
	))
}

// RecordCommand records a received bot command.
func (m *Metrics) RecordCommand(ctx context.Context, command string, authorized bool) {
	if m == nil {
		return
	}
	m.Commands.Add(ctx, 1, metric.WithAttributes(
		attribute.String("command", command),
		attribute.Bool("authorized", authorized),
	))
}
