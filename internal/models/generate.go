package models

import (
	"fmt"
	"time"
)

// GenerateDoses lays out count doses starting from midnight of start's day,
// one every intervalHours. The first dose falls intervalHours after
// midnight. Times are truncated to the hour.
func GenerateDoses(start time.Time, count, intervalHours int) ([]Dose, error) {
	if count <= 0 {
		return nil, fmt.Errorf("dose count must be positive, got %d", count)
	}
	if intervalHours <= 0 {
		return nil, fmt.Errorf("dose interval must be positive, got %d hours", intervalHours)
	}

	cursor := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	doses := make([]Dose, count)
	for i := range doses {
		cursor = cursor.Add(time.Duration(intervalHours) * time.Hour)
		doses[i] = Dose{
			Index:         i,
			ScheduledDate: DateKey(cursor),
			ScheduledTime: HourClock(cursor.Hour()),
		}
	}
	return doses, nil
}

// NewPrescribedMedicine builds the medicine record and its generated doses.
func NewPrescribedMedicine(patient string, p Prescription) (*PrescribedMedicine, error) {
	if p.MedicineID == "" {
		return nil, fmt.Errorf("medicine id is required")
	}
	doses, err := GenerateDoses(p.Start, p.DoseCount, p.IntervalHours)
	if err != nil {
		return nil, err
	}

	endDate := p.EndDate
	if endDate == "" {
		endDate = doses[len(doses)-1].ScheduledDate
	}

	return &PrescribedMedicine{
		Patient:      patient,
		MedicineID:   p.MedicineID,
		MedicineName: p.MedicineName,
		StartDate:    DateKey(p.Start),
		EndDate:      endDate,
		DoseCount:    p.DoseCount,
		Doses:        doses,
	}, nil
}
