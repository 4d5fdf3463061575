package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/hray3182/MedTrack/internal/format"
)

// TelegramSender is the part of *tgbotapi.BotAPI the dispatcher needs.
type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram delivers notifications as chat messages to linked patients.
type Telegram struct {
	api TelegramSender
}

func NewTelegram(api TelegramSender) *Telegram {
	return &Telegram{api: api}
}

func (t *Telegram) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}
	if !msg.Recipient.HasTelegram() {
		return fmt.Errorf("%w: %s has no linked chat", ErrNoRecipient, msg.Recipient.Username)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var b format.Builder
	b.Text(icon(msg.Metadata)).Bold(msg.Title).Line().Line().Text(msg.Body)

	if _, err := t.api.Send(b.Build().Chattable(msg.Recipient.TelegramChatID)); err != nil {
		return fmt.Errorf("%w: telegram: %v", ErrDispatch, err)
	}
	return nil
}

func icon(metadata map[string]any) string {
	switch metadata["type"] {
	case TypeMedicineReminder:
		return "💊 "
	case TypePatientWelcome, TypeDoctorWelcome:
		return "👋 "
	default:
		return "🔔 "
	}
}
