// Package handler turns a screenshot request into a single delivery action:
// an image when any capture method works, the multiplexer report when none
// does, and an explanatory message when neither is possible.
package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/timvw/hostshot/internal/capture"
	"github.com/timvw/hostshot/internal/env"
	"github.com/timvw/hostshot/internal/model"
	telem "github.com/timvw/hostshot/internal/otel"
)

var tracer = otel.Tracer(telem.ServiceName)

// DefaultMaxTextChars keeps fallback text under the messaging channel limit.
const DefaultMaxTextChars = 3500

// Capturer runs the capture chain.
type Capturer interface {
	Capture(ctx context.Context, c model.Classification, v model.Variant) (*capture.Result, error)
}

// Reporter produces the multiplexer fallback report.
type Reporter interface {
	Report(ctx context.Context) (*model.FallbackReport, error)
}

// Request is one screenshot command.
type Request struct {
	ChatID  int64
	Variant model.Variant
}

// Handler handles screenshot requests. Handle never returns an error.
type Handler struct {
	Probe        env.Probe
	Capturer     Capturer
	Fallback     Reporter
	MaxTextChars int
	Metrics      *telem.Metrics // nil-safe
	Logger       *slog.Logger
	Now          func() time.Time
}

// Handle probes the environment once, runs the capture chain and falls
// back to the multiplexer report. A panic anywhere below is turned into the
// generic failure message.
func (h *Handler) Handle(ctx context.Context, req Request) (action model.DeliveryAction) {
	ctx, span := tracer.Start(ctx, "handle",
		trace.WithAttributes(attribute.String("capture.variant", req.Variant.String())))
	defer span.End()

	result := "failure"
	defer func() {
		if p := recover(); p != nil {
			h.logger().ErrorContext(ctx, "screenshot handler panicked", "panic", p)
			action = model.TextAction(req.ChatID, failureText(model.Classification{}, req.Variant, nil))
			result = "failure"
		}
		span.SetAttributes(attribute.String("capture.result", result))
		h.Metrics.RecordRequest(ctx, req.Variant.String(), result)
	}()

	cls := h.Probe.Classify(ctx)
	span.SetAttributes(
		attribute.String("env.os", cls.OS),
		attribute.String("env.context", cls.Context.String()),
		attribute.String("env.display", cls.Display.String()),
	)

	res, err := h.Capturer.Capture(ctx, cls, req.Variant)
	if err == nil {
		result = "image"
		return h.imageAction(req.ChatID, res)
	}

	var nce *capture.NoCaptureError
	errors.As(err, &nce)
	if ctx.Err() != nil {
		h.logger().WarnContext(ctx, "screenshot request cancelled", "error", err)
		return model.TextAction(req.ChatID, failureText(cls, req.Variant, nce))
	}

	report, ferr := h.Fallback.Report(ctx)
	if ferr != nil {
		h.logger().InfoContext(ctx, "no fallback available", "capture_error", err, "fallback_error", ferr)
		return model.TextAction(req.ChatID, failureText(cls, req.Variant, nce))
	}

	result = "fallback"
	limit := h.MaxTextChars
	if limit <= 0 {
		limit = DefaultMaxTextChars
	}
	return model.TextAction(req.ChatID, report.Text(limit))
}

func (h *Handler) imageAction(chatID int64, res *capture.Result) model.DeliveryAction {
	ext := ".png"
	if res.ContentType == "image/jpeg" {
		ext = ".jpg"
	}
	kind := model.SendPhoto
	if !strings.HasPrefix(res.ContentType, "image/") {
		kind = model.SendDocument
	}
	return model.DeliveryAction{
		Kind:        kind,
		ChatID:      chatID,
		Caption:     fmt.Sprintf("📸 Screenshot captured (%s)", res.Method),
		Filename:    "screenshot-" + h.now().Format("20060102-150405") + ext,
		ContentType: res.ContentType,
		Data:        res.Data,
	}
}

// failureText explains why nothing could be captured and what to check.
func failureText(cls model.Classification, v model.Variant, nce *capture.NoCaptureError) string {
	var b strings.Builder
	b.WriteString("❌ Could not capture the screen.\n")
	if cls.OS != "" {
		fmt.Fprintf(&b, "\nEnvironment: %s\n", cls)
	}
	if nce != nil && len(nce.Attempts) > 0 {
		b.WriteString("\nTried:\n")
		for _, a := range nce.Attempts {
			fmt.Fprintf(&b, "• %s: %s\n", a.Method, a.Outcome)
		}
	}
	b.WriteString("\nCheck that:\n")
	if v == model.VariantCompat {
		b.WriteString("• the agent runs inside WSL (or wsl.exe is installed on Windows)\n")
		b.WriteString("• Windows interop is enabled (wslpath and powershell.exe are reachable)\n")
		b.WriteString("• or an X11/Wayland session and a capture tool are reachable inside WSL\n")
	} else {
		b.WriteString("• the agent runs inside WSL if you want the Windows screen\n")
		b.WriteString("• an X11 or Wayland session is reachable (DISPLAY or WAYLAND_DISPLAY)\n")
		b.WriteString("• a capture tool is installed (scrot, gnome-screenshot, ImageMagick, grim)\n")
	}
	b.WriteString("• the Windows session is not locked\n")
	b.WriteString("• a tmux or zellij session is running for a text fallback")
	return b.String()
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h *Handler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}
