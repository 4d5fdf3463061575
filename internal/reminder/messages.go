package reminder

import (
	"fmt"

	"github.com/hray3182/MedTrack/internal/models"
	"github.com/hray3182/MedTrack/internal/notify"
)

func reminderMessage(r models.Recipient, d DueDose) notify.Message {
	return notify.Message{
		Recipient: r,
		Title:     "Time to take your medicine!",
		Body:      fmt.Sprintf("It's time to take %s (scheduled at %s).", d.DisplayName(), d.ScheduledTime),
		Metadata: map[string]any{
			"type":        notify.TypeMedicineReminder,
			"medicine_id": d.MedicineID,
			"dose_index":  d.DoseIndex,
			"time":        d.ScheduledTime,
		},
	}
}

func patientWelcomeMessage(r models.Recipient, todayDoses int) notify.Message {
	body := fmt.Sprintf("Welcome %s! ", r.Username)
	if todayDoses > 0 {
		body += fmt.Sprintf("You have %d dose(s) to take today.", todayDoses)
	} else {
		body += "No medicine scheduled for today."
	}
	return notify.Message{
		Recipient: r,
		Title:     "Medicine reminder",
		Body:      body,
		Metadata: map[string]any{
			"type":        notify.TypePatientWelcome,
			"today_doses": todayDoses,
		},
	}
}

func doctorWelcomeMessage(r models.Recipient, appointments, missed int) notify.Message {
	body := fmt.Sprintf("Welcome Dr. %s! ", r.Username)
	if appointments > 0 {
		body += fmt.Sprintf("You have %d appointment(s) today. ", appointments)
	}
	if missed > 0 {
		body += fmt.Sprintf("Your patients have missed %d dose(s).", missed)
	}
	if appointments == 0 && missed == 0 {
		body += "Everything is under control today!"
	}
	return notify.Message{
		Recipient: r,
		Title:     "Daily summary",
		Body:      body,
		Metadata: map[string]any{
			"type":         notify.TypeDoctorWelcome,
			"appointments": appointments,
			"missed_doses": missed,
		},
	}
}
