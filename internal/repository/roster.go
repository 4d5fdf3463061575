package repository

import (
	"context"
	"fmt"

	"github.com/hray3182/MedTrack/internal/database"
)

// RosterRepository answers the doctor-side questions: which patients a
// doctor follows and how many appointments they have on a day.
type RosterRepository struct {
	db *database.DB
}

func NewRosterRepository(db *database.DB) *RosterRepository {
	return &RosterRepository{db: db}
}

func (r *RosterRepository) PatientsOfDoctor(ctx context.Context, doctor string) ([]string, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT username FROM patients WHERE doctor = $1 ORDER BY username ASC`,
		doctor,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	defer rows.Close()

	var patients []string
	for rows.Next() {
		var username string
		if err := rows.Scan(&username); err != nil {
			return nil, fmt.Errorf("failed to scan patient: %w", err)
		}
		patients = append(patients, username)
	}
	return patients, rows.Err()
}

func (r *RosterRepository) CountAppointments(ctx context.Context, doctor, date string) (int, error) {
	var count int
	err := r.db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM appointments WHERE doctor = $1 AND date = $2`,
		doctor, date,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count appointments: %w", err)
	}
	return count, nil
}
