package bot

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/timvw/hostshot/internal/capture"
	"github.com/timvw/hostshot/internal/env"
	"github.com/timvw/hostshot/internal/handler"
	"github.com/timvw/hostshot/internal/logtail"
	"github.com/timvw/hostshot/internal/model"
	"github.com/timvw/hostshot/internal/sysinfo"
)

const helpText = `🤖 hostshot commands

/ping - check that the agent is alive
/status - host, memory, disk and network summary
/screenshot - capture the screen
/wsl_screenshot - capture the Windows screen across WSL
/probe - show the detected environment and capture tools
/logs - tail the newest log files
/help - this message`

// Command is one parsed bot command from an authorized chat.
type Command struct {
	ChatID int64
	Name   string // without the leading slash or @botname
	Args   string
	From   string
}

// ScreenshotHandler turns a screenshot request into a delivery action.
type ScreenshotHandler interface {
	Handle(ctx context.Context, req handler.Request) model.DeliveryAction
}

// Router maps commands to replies.
type Router struct {
	Sender      Sender
	Screenshots ScreenshotHandler
	Probe       env.Probe
	Registry    *capture.Registry
	// Status renders the /status reply; nil collects the live host summary.
	Status   func() string
	Logs     *logtail.Tailer
	MaxChars int
	Logger   *slog.Logger
}

// Dispatch runs cmd and delivers its replies. The returned error is a
// delivery failure; command failures are reported to the chat instead.
func (r *Router) Dispatch(ctx context.Context, cmd Command) error {
	ctx, span := tracer.Start(ctx, "command",
		trace.WithAttributes(attribute.String("command", cmd.Name)))
	defer span.End()

	r.logger().InfoContext(ctx, "command received", "command", cmd.Name, "chat_id", cmd.ChatID, "from", cmd.From)

	switch cmd.Name {
	case "ping":
		return r.text(ctx, cmd.ChatID, "Pong! 🏓")
	case "status":
		return r.text(ctx, cmd.ChatID, r.status())
	case "screenshot":
		return r.screenshot(ctx, cmd.ChatID, model.VariantScreen, "📸 Capturing screenshot...")
	case "wsl_screenshot":
		return r.screenshot(ctx, cmd.ChatID, model.VariantCompat, "🐧 Capturing screenshot through WSL...")
	case "probe":
		c := r.Probe.Classify(ctx)
		return r.text(ctx, cmd.ChatID, capture.CapabilityText(c, r.Registry.Inspect(ctx, c)))
	case "logs":
		return r.logs(ctx, cmd.ChatID)
	case "help", "start":
		return r.text(ctx, cmd.ChatID, helpText)
	default:
		return r.text(ctx, cmd.ChatID, fmt.Sprintf("❓ Unknown command /%s\n\n%s", cmd.Name, helpText))
	}
}

func (r *Router) screenshot(ctx context.Context, chatID int64, v model.Variant, ack string) error {
	if err := r.text(ctx, chatID, ack); err != nil {
		return err
	}
	action := r.Screenshots.Handle(ctx, handler.Request{ChatID: chatID, Variant: v})
	return r.Sender.Deliver(ctx, action)
}

func (r *Router) logs(ctx context.Context, chatID int64) error {
	if r.Logs == nil || len(r.Logs.Dirs) == 0 {
		return r.text(ctx, chatID, "⚠️ No log directories configured. Set log_dirs in the config file.")
	}
	for _, msg := range logtail.Messages(r.Logs.Tail(), r.maxChars()) {
		if err := r.text(ctx, chatID, msg); err != nil {
			return err
		}
	}
	return nil
}

func (r *Router) status() string {
	if r.Status != nil {
		return r.Status()
	}
	return sysinfo.Report(sysinfo.Collect())
}

func (r *Router) text(ctx context.Context, chatID int64, text string) error {
	return r.Sender.Deliver(ctx, model.TextAction(chatID, text))
}

func (r *Router) maxChars() int {
	if r.MaxChars <= 0 {
		return MaxMessageChars
	}
	return r.MaxChars
}

func (r *Router) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}
