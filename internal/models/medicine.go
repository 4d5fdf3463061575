package models

import "time"

type PrescribedMedicine struct {
	Patient      string    `json:"patient"`
	MedicineID   string    `json:"medicine_id"`
	MedicineName string    `json:"medicine_name"`
	StartDate    string    `json:"start_date"` // DD-MM-YYYY
	EndDate      string    `json:"end_date"`   // DD-MM-YYYY
	DoseCount    int       `json:"dose_count"`
	Doses        []Dose    `json:"doses,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Dose is one scheduled administration. Index is contiguous from 0 within
// its medicine and never renumbered.
type Dose struct {
	Index         int    `json:"index"`
	ScheduledDate string `json:"scheduled_date"` // DD-MM-YYYY
	ScheduledTime string `json:"scheduled_time"` // HH:00, "24:00" aliases "00:00"
	Taken         bool   `json:"taken"`
}

// DoseRecord is a dose as listed for a patient and date, flattened with
// the medicine that owns it.
type DoseRecord struct {
	MedicineID    string `json:"medicine_id"`
	MedicineName  string `json:"medicine_name"`
	DoseIndex     int    `json:"dose_index"`
	ScheduledDate string `json:"scheduled_date"`
	ScheduledTime string `json:"scheduled_time"`
	Taken         bool   `json:"taken"`
}

// DisplayName returns the medicine name, falling back to its id.
func (d *DoseRecord) DisplayName() string {
	if d.MedicineName != "" {
		return d.MedicineName
	}
	return d.MedicineID
}

// Prescription is the input used to create a PrescribedMedicine and its doses.
type Prescription struct {
	MedicineID    string    `json:"medicine_id"`
	MedicineName  string    `json:"medicine_name"`
	DoseCount     int       `json:"dose_count"`
	IntervalHours int       `json:"interval_hours"`
	Start         time.Time `json:"start"`
	EndDate       string    `json:"end_date"`
}
