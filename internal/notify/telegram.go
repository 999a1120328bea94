package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// telegramLimit is Telegram's maximum message length in characters.
const telegramLimit = 4096

// TelegramAPI is the part of *tgbotapi.BotAPI the sender uses.
type TelegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramSender mirrors notifications as plain text into one chat.
type TelegramSender struct {
	api    TelegramAPI
	chatID int64
}

func NewTelegramSender(api TelegramAPI, chatID int64) *TelegramSender {
	return &TelegramSender{api: api, chatID: chatID}
}

func (s *TelegramSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	text := msg.Subject + "\n\n" + msg.Text
	if runes := []rune(text); len(runes) > telegramLimit {
		text = string(runes[:telegramLimit-3]) + "..."
	}
	out := tgbotapi.NewMessage(s.chatID, text)
	out.DisableWebPagePreview = true
	if _, err := s.api.Send(out); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}
