package handlers

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/hray3182/MedTrack/internal/format"
	"github.com/hray3182/MedTrack/internal/logger"
	"github.com/hray3182/MedTrack/internal/models"
	"github.com/hray3182/MedTrack/internal/reminder"
	"github.com/hray3182/MedTrack/internal/repository"
)

// Sender is the part of *tgbotapi.BotAPI the handlers use.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Users interface {
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	LinkTelegram(ctx context.Context, username string, chatID int64) error
	UsernameByChat(ctx context.Context, chatID int64) (string, error)
}

type Doses interface {
	ListDueDoses(ctx context.Context, patient, date string) ([]models.DoseRecord, error)
	MarkTaken(ctx context.Context, patient, medicineID string, doseIndex int, taken bool) error
}

// Sessions is the scheduler surface driven from chat.
type Sessions interface {
	Start(ctx context.Context, patient string)
	Stop(patient string)
	Refresh(ctx context.Context, patient string)
	Active(patient string) bool
	Status(patient string) reminder.Status
}

type Welcomer interface {
	WelcomePatient(ctx context.Context, patient string) error
	WelcomeDoctor(ctx context.Context, doctor string) error
}

type Deps struct {
	Users    Users
	Doses    Doses
	Sessions Sessions
	Welcome  Welcomer
	Clock    reminder.Clock
}

type Handlers struct {
	api  Sender
	deps Deps
	log  *log.Logger
}

func New(api Sender, deps Deps) *Handlers {
	if deps.Clock == nil {
		deps.Clock = reminder.SystemClock(nil)
	}
	return &Handlers{
		api:  api,
		deps: deps,
		log:  logger.With("bot"),
	}
}

func (h *Handlers) HandleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		h.handleStart(ctx, msg)
	case "stop":
		h.handleStop(ctx, msg)
	case "today":
		h.handleToday(ctx, msg)
	case "taken":
		h.handleTaken(ctx, msg, true)
	case "untake":
		h.handleTaken(ctx, msg, false)
	case "help":
		h.handleHelp(ctx, msg)
	default:
		h.sendText(msg.Chat.ID, "Unknown command, use /help to see what I can do.")
	}
}

// HandleMessage answers plain text; the bot only understands commands.
func (h *Handlers) HandleMessage(ctx context.Context, msg *tgbotapi.Message) {
	h.sendText(msg.Chat.ID, "Send /help to see the available commands.")
}

func (h *Handlers) sendText(chatID int64, text string) {
	var b format.Builder
	h.send(chatID, b.Text(text))
}

func (h *Handlers) send(chatID int64, b *format.Builder) {
	if _, err := h.api.Send(b.Build().Chattable(chatID)); err != nil {
		h.log.Warn("Failed to send message", "chat", chatID, "err", err)
	}
}

// linkedPatient resolves the user linked to the chat, replying when the
// chat was never linked.
func (h *Handlers) linkedPatient(ctx context.Context, msg *tgbotapi.Message) (string, bool) {
	username, err := h.deps.Users.UsernameByChat(ctx, msg.Chat.ID)
	if errors.Is(err, repository.ErrNotFound) {
		h.sendText(msg.Chat.ID, "This chat is not linked yet. Use /start <username> first.")
		return "", false
	}
	if err != nil {
		h.log.Error("Failed to resolve chat", "chat", msg.Chat.ID, "err", err)
		h.sendText(msg.Chat.ID, "Something went wrong, please try again later.")
		return "", false
	}
	return username, true
}

func (h *Handlers) handleHelp(ctx context.Context, msg *tgbotapi.Message) {
	var b format.Builder
	b.Text("📖 ").Bold("Commands").Line().Line().
		Code("/start <username>").Text(" - link this chat and start reminders").Line().
		Code("/stop").Text(" - stop reminders").Line().
		Code("/today").Text(" - list today's doses").Line().
		Code("/taken <medicine> <index>").Text(" - mark a dose as taken").Line().
		Code("/untake <medicine> <index>").Text(" - mark a dose as not taken").Line().
		Code("/help").Text(" - show this message")
	h.send(msg.Chat.ID, &b)
}
