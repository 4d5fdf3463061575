package handlers

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/hray3182/MedTrack/internal/format"
	"github.com/hray3182/MedTrack/internal/models"
	"github.com/hray3182/MedTrack/internal/repository"
)

func (h *Handlers) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	username := strings.TrimSpace(msg.CommandArguments())
	if username == "" {
		h.sendText(msg.Chat.ID, "Please tell me who you are.\nUsage: /start <username>")
		return
	}

	user, err := h.deps.Users.GetByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		h.sendText(msg.Chat.ID, "I don't know "+username+". Sign in to the app once, then try again.")
		return
	}
	if err != nil {
		h.log.Error("Failed to load user", "username", username, "err", err)
		h.sendText(msg.Chat.ID, "Something went wrong, please try again later.")
		return
	}

	if err := h.deps.Users.LinkTelegram(ctx, username, msg.Chat.ID); err != nil {
		h.log.Error("Failed to link chat", "username", username, "chat", msg.Chat.ID, "err", err)
		h.sendText(msg.Chat.ID, "Could not link this chat, please try again later.")
		return
	}
	h.log.Info("Chat linked", "username", username, "chat", msg.Chat.ID)

	if user.Role == models.RoleDoctor {
		if err := h.deps.Welcome.WelcomeDoctor(ctx, username); err != nil {
			h.log.Warn("Doctor welcome failed", "doctor", username, "err", err)
		}
		h.sendText(msg.Chat.ID, "👋 Linked, Dr. "+username+". Your daily summary goes to this chat.")
		return
	}

	if !h.deps.Sessions.Active(username) {
		if err := h.deps.Welcome.WelcomePatient(ctx, username); err != nil {
			h.log.Warn("Patient welcome failed", "patient", username, "err", err)
		}
	}
	h.deps.Sessions.Start(ctx, username)

	var b format.Builder
	b.Text("👋 Linked as ").Bold(username).Text(".").Line()
	h.writeStatus(&b, username)
	h.send(msg.Chat.ID, &b)
}

func (h *Handlers) handleStop(ctx context.Context, msg *tgbotapi.Message) {
	username, ok := h.linkedPatient(ctx, msg)
	if !ok {
		return
	}
	h.deps.Sessions.Stop(username)
	h.sendText(msg.Chat.ID, "🔕 Reminders stopped. Use /start "+username+" to resume.")
}

func (h *Handlers) writeStatus(b *format.Builder, patient string) {
	st := h.deps.Sessions.Status(patient)
	if st.FireAt == "" {
		b.Text("No more doses to remind you about today.")
		return
	}
	b.Text("⏰ Next reminder at ").Bold(st.FireAt).Text(".")
}
