package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/timvw/hostshot/internal/model"
)

// MaxMessageChars stays under Telegram's 4096 character message limit.
const MaxMessageChars = 4000

// Sender delivers actions to the messaging channel.
type Sender interface {
	Deliver(ctx context.Context, a model.DeliveryAction) error
}

// botAPI is the part of *tgbotapi.BotAPI the sender uses.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramSender implements Sender on the Telegram Bot API.
type TelegramSender struct {
	API        botAPI
	ChunkChars int // 0 means MaxMessageChars
	Logger     *slog.Logger
}

// NewTelegramSender wraps an authenticated bot.
func NewTelegramSender(api *tgbotapi.BotAPI) *TelegramSender {
	return &TelegramSender{API: api}
}

// Deliver sends a. Long text is split into several messages; a photo the
// API rejects is retried as a document.
func (s *TelegramSender) Deliver(ctx context.Context, a model.DeliveryAction) error {
	switch a.Kind {
	case model.SendText:
		for _, chunk := range splitText(a.Text, s.chunkChars()) {
			if _, err := s.API.Send(tgbotapi.NewMessage(a.ChatID, chunk)); err != nil {
				return fmt.Errorf("sending message: %w", err)
			}
		}
		return nil

	case model.SendPhoto:
		photo := tgbotapi.NewPhoto(a.ChatID, tgbotapi.FileBytes{Name: a.Filename, Bytes: a.Data})
		photo.Caption = a.Caption
		_, err := s.API.Send(photo)
		if err == nil {
			return nil
		}
		s.logger().WarnContext(ctx, "photo upload rejected, sending as document",
			"chat_id", a.ChatID, "bytes", len(a.Data), "error", err)
		return s.sendDocument(a)

	case model.SendDocument:
		return s.sendDocument(a)

	default:
		return fmt.Errorf("unknown delivery kind %d", a.Kind)
	}
}

func (s *TelegramSender) sendDocument(a model.DeliveryAction) error {
	doc := tgbotapi.NewDocument(a.ChatID, tgbotapi.FileBytes{Name: a.Filename, Bytes: a.Data})
	doc.Caption = a.Caption
	if _, err := s.API.Send(doc); err != nil {
		return fmt.Errorf("sending document: %w", err)
	}
	return nil
}

func (s *TelegramSender) chunkChars() int {
	if s.ChunkChars <= 0 {
		return MaxMessageChars
	}
	return s.ChunkChars
}

func (s *TelegramSender) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// splitText cuts text into chunks of at most limit runes, preferring line
// boundaries. Blank chunks are dropped since Telegram rejects them.
func splitText(text string, limit int) []string {
	var chunks []string
	rest := []rune(strings.Trim(text, "\n"))
	for len(rest) > limit {
		cut := limit
		for i := limit; i > limit/2; i-- {
			if rest[i-1] == '\n' {
				cut = i
				break
			}
		}
		if chunk := strings.Trim(string(rest[:cut]), "\n"); strings.TrimSpace(chunk) != "" {
			chunks = append(chunks, chunk)
		}
		rest = rest[cut:]
	}
	if chunk := strings.Trim(string(rest), "\n"); strings.TrimSpace(chunk) != "" {
		chunks = append(chunks, chunk)
	}
	return chunks
}
