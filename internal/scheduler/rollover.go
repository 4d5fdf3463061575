package scheduler

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/hray3182/MedTrack/internal/logger"
	"github.com/hray3182/MedTrack/internal/models"
)

// Sessions is the part of reminder.Scheduler the rollover drives.
type Sessions interface {
	Patients() []string
	Start(ctx context.Context, patient string)
}

// Rollover restarts every open reminder session when the local date
// changes. A session only ever arms doses of the day it was evaluated on,
// so without it a long-lived session goes quiet after its first day.
type Rollover struct {
	sessions      Sessions
	now           func() time.Time
	checkInterval time.Duration
	lastDate      string
	log           *log.Logger
}

func New(sessions Sessions, now func() time.Time) *Rollover {
	if now == nil {
		now = time.Now
	}
	return &Rollover{
		sessions:      sessions,
		now:           now,
		checkInterval: 1 * time.Minute,
		lastDate:      models.DateKey(now()),
		log:           logger.With("rollover"),
	}
}

func (r *Rollover) Start(ctx context.Context) {
	r.log.Info("Rollover started", "date", r.lastDate)
	ticker := time.NewTicker(r.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info("Rollover stopped")
			return
		case <-ticker.C:
			r.check(ctx)
		}
	}
}

func (r *Rollover) check(ctx context.Context) {
	today := models.DateKey(r.now())
	if today == r.lastDate {
		return
	}
	r.lastDate = today

	patients := r.sessions.Patients()
	for _, patient := range patients {
		r.sessions.Start(ctx, patient)
	}
	r.log.Info("New day, sessions restarted", "date", today, "sessions", len(patients))
}
