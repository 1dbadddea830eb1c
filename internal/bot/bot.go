// Package bot connects the agent to Telegram: it long-polls for commands,
// drops those from chats outside the allow-list, and hands the rest to a
// Router on a bounded pool of workers.
package bot

import (
	"context"
	"log/slog"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.opentelemetry.io/otel"

	telem "github.com/timvw/hostshot/internal/otel"
)

var tracer = otel.Tracer(telem.ServiceName)

// Bot serves commands from authorized chats.
type Bot struct {
	Router *Router
	// Allowed reports whether a chat may issue commands.
	Allowed func(chatID int64) bool
	// Workers bounds how many commands run at once; 0 means 1.
	Workers int
	Metrics *telem.Metrics // nil-safe
	Logger  *slog.Logger
}

// Run long-polls api until ctx is cancelled.
func (b *Bot) Run(ctx context.Context, api *tgbotapi.BotAPI) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := api.GetUpdatesChan(u)
	defer api.StopReceivingUpdates()

	b.logger().InfoContext(ctx, "bot started", "username", api.Self.UserName, "workers", b.workers())
	return b.Serve(ctx, updates)
}

// Serve handles updates until ctx is cancelled or the channel closes, then
// waits for in-flight commands to finish.
func (b *Bot) Serve(ctx context.Context, updates <-chan tgbotapi.Update) error {
	var wg sync.WaitGroup
	sem := make(chan struct{}, b.workers())
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			b.logger().Info("bot stopping", "reason", ctx.Err())
			return nil
		case upd, ok := <-updates:
			if !ok {
				return nil
			}
			cmd, ok := b.accept(ctx, upd)
			if !ok {
				continue
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				sem <- struct{}{}
				defer func() { <-sem }()
				if err := b.Router.Dispatch(ctx, cmd); err != nil {
					b.logger().ErrorContext(ctx, "reply not delivered", "command", cmd.Name, "chat_id", cmd.ChatID, "error", err)
				}
			}()
		}
	}
}

// accept turns an update into a command if it is one and its chat is allowed.
func (b *Bot) accept(ctx context.Context, upd tgbotapi.Update) (Command, bool) {
	msg := upd.Message
	if msg == nil || msg.Chat == nil {
		return Command{}, false
	}
	chatID := msg.Chat.ID
	from := ""
	if msg.From != nil {
		from = msg.From.UserName
	}
	allowed := b.Allowed != nil && b.Allowed(chatID)

	if !msg.IsCommand() {
		if allowed {
			b.logger().InfoContext(ctx, "message received", "chat_id", chatID, "from", from, "text", msg.Text)
		}
		return Command{}, false
	}

	cmd := Command{ChatID: chatID, Name: msg.Command(), Args: msg.CommandArguments(), From: from}
	b.Metrics.RecordCommand(ctx, cmd.Name, allowed)
	if !allowed {
		b.logger().WarnContext(ctx, "command from unauthorized chat ignored", "command", cmd.Name, "chat_id", chatID, "from", from)
		return Command{}, false
	}
	return cmd, true
}

func (b *Bot) workers() int {
	if b.Workers <= 0 {
		return 1
	}
	return b.Workers
}

func (b *Bot) logger() *slog.Logger {
	if b.Logger != nil {
		return b.Logger
	}
	return slog.Default()
}
