package reminder

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/hray3182/MedTrack/internal/logger"
	"github.com/hray3182/MedTrack/internal/models"
	"github.com/hray3182/MedTrack/internal/notify"
)

// Roster answers the doctor-side counts used by the doctor summary.
type Roster interface {
	PatientsOfDoctor(ctx context.Context, doctor string) ([]string, error)
	CountAppointments(ctx context.Context, doctor, date string) (int, error)
}

// WelcomeNotifier sends the one-off summary at session start. It shares
// no state with the Scheduler.
type WelcomeNotifier struct {
	query        *Query
	recipients   RecipientResolver
	roster       Roster
	dispatcher   notify.Dispatcher
	clock        Clock
	graceMinutes int
	log          *log.Logger
}

func NewWelcomeNotifier(query *Query, recipients RecipientResolver, roster Roster, dispatcher notify.Dispatcher, clock Clock, graceMinutes int) *WelcomeNotifier {
	if clock == nil {
		clock = SystemClock(nil)
	}
	return &WelcomeNotifier{
		query:        query,
		recipients:   recipients,
		roster:       roster,
		dispatcher:   dispatcher,
		clock:        clock,
		graceMinutes: graceMinutes,
		log:          logger.With("welcome"),
	}
}

// WelcomePatient tells the patient how many doses are scheduled today.
func (w *WelcomeNotifier) WelcomePatient(ctx context.Context, patient string) error {
	recipient, err := w.recipients.Recipient(ctx, patient)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", patient, err)
	}

	today := models.DateKey(w.clock.Now())
	count, err := w.query.TodayCount(ctx, patient, today)
	if err != nil {
		// an unreadable store reads as an empty day, like a reminder cycle
		w.log.Warn("Failed to count today's doses", "patient", patient, "err", err)
		count = 0
	}

	if err := w.dispatcher.Send(ctx, patientWelcomeMessage(*recipient, count)); err != nil {
		return fmt.Errorf("failed to send patient welcome: %w", err)
	}
	w.log.Info("Sent patient welcome", "patient", patient, "today_doses", count)
	return nil
}

// WelcomeDoctor summarises today's appointments and the doses the
// doctor's patients are late on.
func (w *WelcomeNotifier) WelcomeDoctor(ctx context.Context, doctor string) error {
	recipient, err := w.recipients.Recipient(ctx, doctor)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", doctor, err)
	}

	now := w.clock.Now()
	today := models.DateKey(now)
	nowMinutes := models.MinutesOfDay(now)

	appointments, err := w.roster.CountAppointments(ctx, doctor, today)
	if err != nil {
		w.log.Warn("Failed to count appointments", "doctor", doctor, "err", err)
		appointments = 0
	}

	missed := w.missedDoses(ctx, doctor, today, nowMinutes)

	if err := w.dispatcher.Send(ctx, doctorWelcomeMessage(*recipient, appointments, missed)); err != nil {
		return fmt.Errorf("failed to send doctor welcome: %w", err)
	}
	w.log.Info("Sent doctor welcome", "doctor", doctor, "appointments", appointments, "missed", missed)
	return nil
}

func (w *WelcomeNotifier) missedDoses(ctx context.Context, doctor, today string, nowMinutes int) int {
	patients, err := w.roster.PatientsOfDoctor(ctx, doctor)
	if err != nil {
		w.log.Warn("Failed to list patients", "doctor", doctor, "err", err)
		return 0
	}

	total := 0
	for _, patient := range patients {
		n, err := w.query.MissedCount(ctx, patient, today, nowMinutes, w.graceMinutes)
		if err != nil {
			w.log.Warn("Failed to count missed doses", "patient", patient, "err", err)
			continue
		}
		total += n
	}
	return total
}
