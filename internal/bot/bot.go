package bot

import (
	"context"

	"github.com/charmbracelet/log"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/hray3182/MedTrack/internal/bot/handlers"
	"github.com/hray3182/MedTrack/internal/logger"
)

type Bot struct {
	api      *tgbotapi.BotAPI
	handlers *handlers.Handlers
	log      *log.Logger
}

// New wraps an authorised API client. The same client also backs the
// Telegram dispatcher.
func New(api *tgbotapi.BotAPI, deps handlers.Deps) *Bot {
	return &Bot{
		api:      api,
		handlers: handlers.New(api, deps),
		log:      logger.With("bot"),
	}
}

var commands = []tgbotapi.BotCommand{
	{Command: "start", Description: "Link this chat and start reminders"},
	{Command: "stop", Description: "Stop reminders"},
	{Command: "today", Description: "List today's doses"},
	{Command: "taken", Description: "Mark a dose as taken"},
	{Command: "untake", Description: "Mark a dose as not taken"},
	{Command: "help", Description: "Show the commands"},
}

// Start polls for updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	b.log.Info("Authorized on account", "account", b.api.Self.UserName)

	if _, err := b.api.Request(tgbotapi.NewSetMyCommands(commands...)); err != nil {
		b.log.Warn("Failed to register commands", "err", err)
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message == nil {
		return
	}

	if update.Message.IsCommand() {
		b.handlers.HandleCommand(ctx, update.Message)
		return
	}

	b.handlers.HandleMessage(ctx, update.Message)
}
