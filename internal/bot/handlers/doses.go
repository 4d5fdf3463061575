package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/hray3182/MedTrack/internal/format"
	"github.com/hray3182/MedTrack/internal/models"
	"github.com/hray3182/MedTrack/internal/repository"
)

func (h *Handlers) handleToday(ctx context.Context, msg *tgbotapi.Message) {
	patient, ok := h.linkedPatient(ctx, msg)
	if !ok {
		return
	}

	today := models.DateKey(h.deps.Clock.Now())
	records, err := h.deps.Doses.ListDueDoses(ctx, patient, today)
	if err != nil {
		h.log.Error("Failed to list doses", "patient", patient, "err", err)
		h.sendText(msg.Chat.ID, "Could not load today's doses, please try again later.")
		return
	}
	if len(records) == 0 {
		h.sendText(msg.Chat.ID, "💊 No doses scheduled for today.")
		return
	}

	var b format.Builder
	b.Text("💊 ").Bold("Doses for " + today).Line().Line()
	for _, r := range records {
		status := "⬜ "
		if r.Taken {
			status = "✅ "
		}
		b.Text(status).Code(r.ScheduledTime).Text(" ").Text(r.DisplayName()).
			Text(" (").Code(r.MedicineID + " " + strconv.Itoa(r.DoseIndex)).Text(")").Line()
	}
	h.send(msg.Chat.ID, &b)
}

func (h *Handlers) handleTaken(ctx context.Context, msg *tgbotapi.Message, taken bool) {
	patient, ok := h.linkedPatient(ctx, msg)
	if !ok {
		return
	}

	medicine, index, err := parseDoseArgs(msg.CommandArguments())
	if err != nil {
		h.sendText(msg.Chat.ID, "Usage: /"+msg.Command()+" <medicine> <index>\nSee /today for the ids.")
		return
	}

	err = h.deps.Doses.MarkTaken(ctx, patient, medicine, index, taken)
	if errors.Is(err, repository.ErrNotFound) {
		h.sendText(msg.Chat.ID, "No such dose. See /today for the ids.")
		return
	}
	if err != nil {
		h.log.Error("Failed to mark dose", "patient", patient, "medicine", medicine, "dose", index, "err", err)
		h.sendText(msg.Chat.ID, "Could not update the dose, please try again later.")
		return
	}

	h.deps.Sessions.Refresh(ctx, patient)

	var b format.Builder
	if taken {
		b.Text("✅ Marked ")
	} else {
		b.Text("↩️ Unmarked ")
	}
	b.Code(medicine + " " + strconv.Itoa(index)).Text(".")
	if h.deps.Sessions.Active(patient) {
		b.Line()
		h.writeStatus(&b, patient)
	}
	h.send(msg.Chat.ID, &b)
}

func parseDoseArgs(args string) (string, int, error) {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return "", 0, errors.New("want <medicine> <index>")
	}
	index, err := strconv.Atoi(fields[1])
	if err != nil || index < 0 {
		return "", 0, errors.New("index must be a non-negative integer")
	}
	return fields[0], index, nil
}
