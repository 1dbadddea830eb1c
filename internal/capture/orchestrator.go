package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/timvw/hostshot/internal/model"
	telem "github.com/timvw/hostshot/internal/otel"
)

var tracer = otel.Tracer(telem.ServiceName)

// DefaultTimeout bounds a single method attempt.
const DefaultTimeout = 10 * time.Second

// Outcome is how one method attempt ended.
type Outcome string

const (
	OutcomeSuccess     Outcome = "success"
	OutcomeUnavailable Outcome = "unavailable"
	OutcomeFailed      Outcome = "failed"
	OutcomeTimeout     Outcome = "timeout"
)

// Attempt records one method tried by the orchestrator.
type Attempt struct {
	Method   string
	Outcome  Outcome
	Err      error
	Duration time.Duration
}

// Result is a successful capture.
type Result struct {
	Method      string
	Data        []byte
	ContentType string
	Attempts    []Attempt
}

// Orchestrator runs the capture chain for one request.
type Orchestrator struct {
	Registry  *Registry
	Artifacts *ArtifactManager
	// Timeout bounds each method; 0 means DefaultTimeout.
	Timeout time.Duration
	Metrics *telem.Metrics // nil-safe
	Logger  *slog.Logger
}

// Capture tries each applicable method in priority order and returns the
// first image produced. Every artifact is released before Capture returns.
// When all methods are exhausted the error is a *NoCaptureError.
func (o *Orchestrator) Capture(ctx context.Context, c model.Classification, v model.Variant) (*Result, error) {
	methods := o.Registry.Select(c, v)
	log := o.logger().With("variant", v.String(), "os", c.OS, "context", c.Context.String(), "display", c.Display.String())

	var attempts []Attempt
	for _, m := range methods {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("capture cancelled: %w", err)
		}

		if !m.Available(ctx) {
			log.Debug("capture method unavailable", "method", m.Name())
			attempts = append(attempts, Attempt{
				Method:  m.Name(),
				Outcome: OutcomeUnavailable,
				Err:     fmt.Errorf("%s: %w", m.Name(), ErrMethodUnavailable),
			})
			o.Metrics.RecordAttempt(ctx, m.Name(), string(OutcomeUnavailable), 0)
			continue
		}

		data, attempt := o.attempt(ctx, m)
		attempts = append(attempts, attempt)
		o.Metrics.RecordAttempt(ctx, m.Name(), string(attempt.Outcome), attempt.Duration)
		if attempt.Outcome == OutcomeSuccess {
			log.Info("screen captured", "method", m.Name(), "bytes", len(data), "duration", attempt.Duration)
			return &Result{
				Method:      m.Name(),
				Data:        data,
				ContentType: http.DetectContentType(data),
				Attempts:    attempts,
			}, nil
		}
		log.Warn("capture method failed", "method", m.Name(), "outcome", attempt.Outcome, "error", attempt.Err)
	}

	log.Info("no capture method succeeded", "tried", len(attempts))
	return nil, &NoCaptureError{Attempts: attempts}
}

// attempt runs a single method under the per-method timeout. The artifact
// is released on every path.
func (o *Orchestrator) attempt(ctx context.Context, m Method) ([]byte, Attempt) {
	ctx, span := tracer.Start(ctx, "capture.attempt",
		trace.WithAttributes(attribute.String("capture.method", m.Name())))
	defer span.End()

	timeout := o.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	a := o.Artifacts.Acquire()
	defer o.Artifacts.Release(a)

	start := time.Now()
	err := m.Capture(ctx, a)
	var data []byte
	if err == nil {
		data, err = os.ReadFile(a.Path)
		if err == nil && len(data) == 0 {
			err = &CaptureError{Method: m.Name(), Reason: "output file is empty"}
		}
	}
	res := Attempt{Method: m.Name(), Duration: time.Since(start)}

	switch {
	case err == nil:
		res.Outcome = OutcomeSuccess
		span.SetAttributes(attribute.Int("capture.bytes", len(data)))
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		res.Outcome = OutcomeTimeout
		res.Err = &CaptureError{Method: m.Name(), Reason: fmt.Sprintf("timed out after %s", timeout), Err: err}
	default:
		res.Outcome = OutcomeFailed
		res.Err = asCaptureError(m.Name(), err)
	}
	span.SetAttributes(attribute.String("capture.outcome", string(res.Outcome)))
	if res.Err != nil {
		span.RecordError(res.Err)
		span.SetStatus(codes.Error, string(res.Outcome))
		return nil, res
	}
	return data, res
}

func asCaptureError(method string, err error) error {
	var ce *CaptureError
	if errors.As(err, &ce) {
		return err
	}
	return &CaptureError{Method: method, Reason: "capture failed", Err: err}
}

func (o *Orchestrator) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}
