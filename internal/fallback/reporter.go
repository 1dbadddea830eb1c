// Package fallback builds a textual picture of the terminal when no
// screenshot could be taken: the multiplexer sessions and the tail of the
// most relevant panes.
package fallback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/timvw/hostshot/internal/model"
	"github.com/timvw/hostshot/internal/mux"
	telem "github.com/timvw/hostshot/internal/otel"
)

var tracer = otel.Tracer(telem.ServiceName)

// ErrFallbackUnavailable means no multiplexer was found or it could not be
// queried.
var ErrFallbackUnavailable = errors.New("terminal multiplexer fallback unavailable")

const (
	DefaultMaxPanes = 3
	DefaultLines    = 15
	DefaultTimeout  = 10 * time.Second
)

// Reporter snapshots multiplexer state.
type Reporter struct {
	// Detect finds the multiplexer to query; nil means mux.Detect.
	Detect func(ctx context.Context) (mux.Multiplexer, error)
	// MaxPanes caps how many panes are captured; active panes come first.
	MaxPanes int
	// Lines is how many trailing lines of each pane are kept.
	Lines int
	// Timeout bounds the whole report, detection included.
	Timeout time.Duration
	Metrics *telem.Metrics // nil-safe
	Logger  *slog.Logger
	Now     func() time.Time
}

// NewReporter returns a Reporter using auto-detection and default limits.
func NewReporter() *Reporter {
	return &Reporter{
		Detect:   mux.Detect,
		MaxPanes: DefaultMaxPanes,
		Lines:    DefaultLines,
		Timeout:  DefaultTimeout,
	}
}

// Report detects the multiplexer and snapshots its sessions. Errors always
// wrap ErrFallbackUnavailable.
func (r *Reporter) Report(ctx context.Context) (*model.FallbackReport, error) {
	ctx, span := tracer.Start(ctx, "fallback.report")
	defer span.End()

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	detect := r.Detect
	if detect == nil {
		detect = mux.Detect
	}
	m, err := detect(ctx)
	if err != nil {
		r.Metrics.RecordFallback(ctx, "none", "unavailable")
		return nil, fmt.Errorf("%w: %v", ErrFallbackUnavailable, err)
	}
	span.SetAttributes(attribute.String("fallback.multiplexer", m.Name()))

	panes, err := m.ListPanes(ctx, "")
	if err != nil {
		r.Metrics.RecordFallback(ctx, m.Name(), "unavailable")
		return nil, fmt.Errorf("%w: %v", ErrFallbackUnavailable, err)
	}
	if err := ctx.Err(); err != nil {
		r.Metrics.RecordFallback(ctx, m.Name(), "unavailable")
		return nil, fmt.Errorf("%w: %v", ErrFallbackUnavailable, err)
	}
	if len(panes) == 0 {
		r.Metrics.RecordFallback(ctx, m.Name(), "unavailable")
		return nil, fmt.Errorf("%w: %s has no sessions", ErrFallbackUnavailable, m.Name())
	}

	report := &model.FallbackReport{
		Multiplexer: m.Name(),
		Sessions:    sessionNames(panes),
		CapturedAt:  r.now(),
	}

	for _, p := range r.pick(panes) {
		excerpt := model.PaneExcerpt{Pane: p}
		content, err := m.CapturePane(ctx, p.Target)
		if err != nil {
			r.logger().WarnContext(ctx, "pane capture failed", "multiplexer", m.Name(), "target", p.Target, "error", err)
			excerpt.Error = err.Error()
		} else {
			excerpt.Lines = tailLines(content, r.lines())
		}
		report.Excerpts = append(report.Excerpts, excerpt)
	}

	span.SetAttributes(
		attribute.Int("fallback.sessions", len(report.Sessions)),
		attribute.Int("fallback.excerpts", len(report.Excerpts)),
	)
	r.Metrics.RecordFallback(ctx, m.Name(), "ok")
	r.logger().InfoContext(ctx, "multiplexer fallback report built",
		"multiplexer", m.Name(), "sessions", len(report.Sessions), "excerpts", len(report.Excerpts))
	return report, nil
}

// pick orders panes active-first (stable otherwise) and caps the count.
func (r *Reporter) pick(panes []model.Pane) []model.Pane {
	ordered := slices.Clone(panes)
	slices.SortStableFunc(ordered, func(a, b model.Pane) int {
		switch {
		case a.Active && !b.Active:
			return -1
		case !a.Active && b.Active:
			return 1
		}
		return 0
	})
	limit := r.MaxPanes
	if limit <= 0 {
		limit = DefaultMaxPanes
	}
	if len(ordered) > limit {
		ordered = ordered[:limit]
	}
	return ordered
}

// sessionNames returns the distinct session names in first-seen order.
func sessionNames(panes []model.Pane) []string {
	var names []string
	for _, p := range panes {
		if !slices.Contains(names, p.Session) {
			names = append(names, p.Session)
		}
	}
	return names
}

// tailLines returns the last n lines of content after dropping trailing
// blank lines and trailing whitespace.
func tailLines(content string, n int) []string {
	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " \t")
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines
}

func (r *Reporter) lines() int {
	if r.Lines <= 0 {
		return DefaultLines
	}
	return r.Lines
}

func (r *Reporter) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *Reporter) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}
