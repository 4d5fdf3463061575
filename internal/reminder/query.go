package reminder

import (
	"context"
	"fmt"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/hray3182/MedTrack/internal/logger"
	"github.com/hray3182/MedTrack/internal/models"
)

// DoseStore lists a patient's doses for one calendar date.
type DoseStore interface {
	ListDueDoses(ctx context.Context, patient, date string) ([]models.DoseRecord, error)
}

// DueDose is a not-taken dose of today together with its parsed time.
type DueDose struct {
	MedicineID    string `json:"medicine_id"`
	MedicineName  string `json:"medicine_name"`
	DoseIndex     int    `json:"dose_index"`
	ScheduledTime string `json:"scheduled_time"`
	Minutes       int    `json:"minutes"`
}

// Query is the read side of the reminder core. It holds no state and
// performs no writes.
type Query struct {
	store DoseStore
	log   *log.Logger
}

func NewQuery(store DoseStore) *Query {
	return &Query{store: store, log: logger.With("query")}
}

// PendingDueNow returns today's not-taken doses whose time is at or before
// nowMinutes, sorted by medicine id then dose index.
func (q *Query) PendingDueNow(ctx context.Context, patient, today string, nowMinutes int) ([]DueDose, error) {
	pending, err := q.pending(ctx, patient, today)
	if err != nil {
		return nil, err
	}

	var due []DueDose
	for _, d := range pending {
		if d.Minutes <= nowMinutes {
			due = append(due, d)
		}
	}
	return due, nil
}

// NextPendingMinutes returns the earliest time strictly after nowMinutes
// at which a not-taken dose of today is scheduled. ok is false when no
// such dose exists.
func (q *Query) NextPendingMinutes(ctx context.Context, patient, today string, nowMinutes int) (next int, ok bool, err error) {
	pending, err := q.pending(ctx, patient, today)
	if err != nil {
		return 0, false, err
	}

	for _, d := range pending {
		if d.Minutes > nowMinutes && (!ok || d.Minutes < next) {
			next, ok = d.Minutes, true
		}
	}
	return next, ok, nil
}

// TodayCount returns how many doses are scheduled today, taken or not.
func (q *Query) TodayCount(ctx context.Context, patient, today string) (int, error) {
	records, err := q.store.ListDueDoses(ctx, patient, today)
	if err != nil {
		return 0, fmt.Errorf("failed to list doses of %s: %w", patient, err)
	}

	count := 0
	for _, r := range records {
		if r.ScheduledDate == today {
			count++
		}
	}
	return count, nil
}

// MissedCount returns how many of today's doses are not taken and more
// than graceMinutes late.
func (q *Query) MissedCount(ctx context.Context, patient, today string, nowMinutes, graceMinutes int) (int, error) {
	pending, err := q.pending(ctx, patient, today)
	if err != nil {
		return 0, err
	}

	missed := 0
	for _, d := range pending {
		if nowMinutes-d.Minutes > graceMinutes {
			missed++
		}
	}
	return missed, nil
}

func (q *Query) pending(ctx context.Context, patient, today string) ([]DueDose, error) {
	records, err := q.store.ListDueDoses(ctx, patient, today)
	if err != nil {
		return nil, fmt.Errorf("failed to list doses of %s: %w", patient, err)
	}

	var pending []DueDose
	for _, r := range records {
		if r.ScheduledDate != today || r.Taken {
			continue
		}
		minutes, err := models.ClockMinutes(r.ScheduledTime)
		if err != nil {
			q.log.Warn("Skipping malformed dose", "patient", patient, "medicine", r.MedicineID, "dose", r.DoseIndex, "err", err)
			continue
		}
		pending = append(pending, DueDose{
			MedicineID:    r.MedicineID,
			MedicineName:  r.MedicineName,
			DoseIndex:     r.DoseIndex,
			ScheduledTime: r.ScheduledTime,
			Minutes:       minutes,
		})
	}

	sort.Slice(pending, func(i, j int) bool {
		if pending[i].MedicineID != pending[j].MedicineID {
			return pending[i].MedicineID < pending[j].MedicineID
		}
		return pending[i].DoseIndex < pending[j].DoseIndex
	})
	return pending, nil
}

// DisplayName returns the medicine name, falling back to its id.
func (d DueDose) DisplayName() string {
	if d.MedicineName != "" {
		return d.MedicineName
	}
	return d.MedicineID
}
