package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"

	"github.com/timvw/hostshot/internal/bot"
	"github.com/timvw/hostshot/internal/logtail"
	telem "github.com/timvw/hostshot/internal/otel"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Telegram bot",
	Long: `Connect to Telegram and answer commands from the allowed chats until
interrupted.

Commands: /ping, /status, /screenshot, /wsl_screenshot, /probe, /logs, /help.
Messages from other chats are logged and ignored.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.ValidateBot(); err != nil {
			return fmt.Errorf("config: %w", err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		tel := initTelemetry(ctx)
		defer shutdownTelemetry(tel)

		a, err := newAgent(cfg, tel.Metrics)
		if err != nil {
			return err
		}

		api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
		if err != nil {
			return fmt.Errorf("telegram: %w", err)
		}

		b := &bot.Bot{
			Router: &bot.Router{
				Sender:      bot.NewTelegramSender(api),
				Screenshots: a.handler,
				Probe:       a.probe,
				Registry:    a.registry,
				Logs:        &logtail.Tailer{Dirs: cfg.LogDirs, Lines: cfg.LogLines},
			},
			Allowed: cfg.IsAllowedChat,
			Workers: cfg.Workers,
			Metrics: tel.Metrics,
		}
		slog.Info("serving chats", "allowed", len(cfg.AllowedChats), "classification", a.probe.Classify(ctx).String())
		return b.Run(ctx, api)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// initTelemetry starts OTEL export when an endpoint is configured. A failed
// setup is logged and replaced by no-op telemetry.
func initTelemetry(ctx context.Context) *telem.Telemetry {
	tel, err := telem.Init(ctx, telem.OTELConfig{
		Endpoint: cfg.OTELEndpoint,
		Headers:  cfg.OTELHeaders,
	})
	if err == nil {
		return tel
	}
	slog.Warn("otel init failed, telemetry disabled", "error", err)
	tel, err = telem.Init(ctx, telem.OTELConfig{})
	if err != nil {
		return &telem.Telemetry{}
	}
	return tel
}

func shutdownTelemetry(tel *telem.Telemetry) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := tel.Shutdown(ctx); err != nil {
		slog.Warn("otel shutdown", "error", err)
	}
}
