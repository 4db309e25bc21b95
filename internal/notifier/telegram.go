// internal/notifier/telegram.go
package notifier

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender is the part of *tgbotapi.BotAPI used for outgoing messages.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramMessenger delivers messages through the Telegram Bot API.
// Destinations are numeric chat IDs or "@channelusername".
type TelegramMessenger struct {
	api Sender
}

func NewTelegramMessenger(api Sender) *TelegramMessenger {
	return &TelegramMessenger{api: api}
}

func (m *TelegramMessenger) SendMessage(ctx context.Context, destination, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg, err := NewTelegramMessage(destination, text)
	if err != nil {
		return err
	}
	_, err = m.api.Send(msg)
	return err
}

// NewTelegramMessage builds a plain-text message for destination with link previews disabled.
func NewTelegramMessage(destination, text string) (tgbotapi.MessageConfig, error) {
	destination = strings.TrimSpace(destination)
	var msg tgbotapi.MessageConfig
	switch {
	case strings.HasPrefix(destination, "@"):
		msg = tgbotapi.NewMessageToChannel(destination, text)
	default:
		chatID, err := strconv.ParseInt(destination, 10, 64)
		if err != nil {
			return tgbotapi.MessageConfig{}, fmt.Errorf("invalid telegram chat id %q: %w", destination, err)
		}
		msg = tgbotapi.NewMessage(chatID, text)
	}
	msg.DisableWebPagePreview = true
	return msg, nil
}
