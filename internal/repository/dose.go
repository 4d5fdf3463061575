package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/hray3182/MedTrack/internal/database"
	"github.com/hray3182/MedTrack/internal/models"
)

type DoseRepository struct {
	db *database.DB
}

func NewDoseRepository(db *database.DB) *DoseRepository {
	return &DoseRepository{db: db}
}

// ListDueDoses returns every dose of the patient scheduled on date, ordered
// by medicine id and dose index.
func (r *DoseRepository) ListDueDoses(ctx context.Context, patient, date string) ([]models.DoseRecord, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT d.medicine_id, m.medicine_name, d.dose_index, d.scheduled_date, d.scheduled_time, d.taken
		 FROM doses d
		 JOIN prescribed_medicines m ON m.patient = d.patient AND m.medicine_id = d.medicine_id
		 WHERE d.patient = $1 AND d.scheduled_date = $2
		 ORDER BY d.medicine_id ASC, d.dose_index ASC`,
		patient, date,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list doses: %w", err)
	}
	defer rows.Close()

	var doses []models.DoseRecord
	for rows.Next() {
		var d models.DoseRecord
		if err := rows.Scan(&d.MedicineID, &d.MedicineName, &d.DoseIndex, &d.ScheduledDate, &d.ScheduledTime, &d.Taken); err != nil {
			return nil, fmt.Errorf("failed to scan dose: %w", err)
		}
		doses = append(doses, d)
	}
	return doses, rows.Err()
}

// MarkTaken writes the taken flag of a single dose.
func (r *DoseRepository) MarkTaken(ctx context.Context, patient, medicineID string, doseIndex int, taken bool) error {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE doses SET taken = $1 WHERE patient = $2 AND medicine_id = $3 AND dose_index = $4`,
		taken, patient, medicineID, doseIndex,
	)
	if err != nil {
		return fmt.Errorf("failed to mark dose: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Prescribe stores the medicine and all of its doses in one transaction.
// An existing prescription for the same medicine is replaced. A patient
// without a device registration yet gets a bare roster row.
func (r *DoseRepository) Prescribe(ctx context.Context, med *models.PrescribedMedicine) error {
	return pgx.BeginFunc(ctx, r.db.Pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO users (username, role) VALUES ($1, $2) ON CONFLICT (username) DO NOTHING`,
			med.Patient, models.RolePatient,
		)
		if err != nil {
			return fmt.Errorf("failed to ensure user: %w", err)
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO patients (username) VALUES ($1) ON CONFLICT (username) DO NOTHING`,
			med.Patient,
		)
		if err != nil {
			return fmt.Errorf("failed to ensure patient: %w", err)
		}

		_, err = tx.Exec(ctx,
			`DELETE FROM prescribed_medicines WHERE patient = $1 AND medicine_id = $2`,
			med.Patient, med.MedicineID,
		)
		if err != nil {
			return fmt.Errorf("failed to clear previous prescription: %w", err)
		}

		err = tx.QueryRow(ctx,
			`INSERT INTO prescribed_medicines (patient, medicine_id, medicine_name, start_date, end_date, dose_count)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 RETURNING created_at`,
			med.Patient, med.MedicineID, med.MedicineName, med.StartDate, med.EndDate, med.DoseCount,
		).Scan(&med.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert prescription: %w", err)
		}

		batch := &pgx.Batch{}
		for _, d := range med.Doses {
			batch.Queue(
				`INSERT INTO doses (patient, medicine_id, dose_index, scheduled_date, scheduled_time, taken)
				 VALUES ($1, $2, $3, $4, $5, $6)`,
				med.Patient, med.MedicineID, d.Index, d.ScheduledDate, d.ScheduledTime, d.Taken,
			)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to insert doses: %w", err)
		}
		return nil
	})
}

// DeleteMedicine removes a prescription; its doses cascade.
func (r *DoseRepository) DeleteMedicine(ctx context.Context, patient, medicineID string) error {
	tag, err := r.db.Pool.Exec(ctx,
		`DELETE FROM prescribed_medicines WHERE patient = $1 AND medicine_id = $2`,
		patient, medicineID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete prescription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
