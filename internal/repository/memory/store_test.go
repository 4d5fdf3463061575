package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hray3182/MedTrack/internal/models"
	"github.com/hray3182/MedTrack/internal/repository"
)

func prescribe(t *testing.T, s *Store, patient, medicine string, count, interval int) {
	t.Helper()
	med, err := models.NewPrescribedMedicine(patient, models.Prescription{
		MedicineID:    medicine,
		MedicineName:  medicine + " 500mg",
		DoseCount:     count,
		IntervalHours: interval,
		Start:         time.Date(2026, time.June, 10, 7, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.NoError(t, s.Prescribe(context.Background(), med))
}

func TestListDueDosesFiltersAndSorts(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	prescribe(t, s, "mario", "zinc", 2, 12)
	prescribe(t, s, "mario", "aspirin", 4, 6)
	prescribe(t, s, "luigi", "aspirin", 4, 6)

	doses, err := s.ListDueDoses(ctx, "mario", "10-06-2026")
	require.NoError(t, err)

	var got []string
	for _, d := range doses {
		got = append(got, d.MedicineID+"/"+d.ScheduledTime)
	}
	// zinc: 12:00 on the 10th, 00:00 on the 11th; aspirin: 06,12,18 then 00 on the 11th
	assert.Equal(t, []string{"aspirin/06:00", "aspirin/12:00", "aspirin/18:00", "zinc/12:00"}, got)
	assert.Equal(t, "aspirin 500mg", doses[0].MedicineName)
}

func TestMarkTaken(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	prescribe(t, s, "mario", "aspirin", 2, 6)

	require.NoError(t, s.MarkTaken(ctx, "mario", "aspirin", 1, true))
	doses, err := s.ListDueDoses(ctx, "mario", "10-06-2026")
	require.NoError(t, err)
	assert.False(t, doses[0].Taken)
	assert.True(t, doses[1].Taken)

	require.NoError(t, s.MarkTaken(ctx, "mario", "aspirin", 1, false))
	doses, _ = s.ListDueDoses(ctx, "mario", "10-06-2026")
	assert.False(t, doses[1].Taken)

	assert.ErrorIs(t, s.MarkTaken(ctx, "mario", "aspirin", 2, true), repository.ErrNotFound)
	assert.ErrorIs(t, s.MarkTaken(ctx, "mario", "ibuprofen", 0, true), repository.ErrNotFound)
}

func TestDeleteMedicineCascades(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	prescribe(t, s, "mario", "aspirin", 2, 6)

	require.NoError(t, s.DeleteMedicine(ctx, "mario", "aspirin"))
	doses, err := s.ListDueDoses(ctx, "mario", "10-06-2026")
	require.NoError(t, err)
	assert.Empty(t, doses)
	assert.ErrorIs(t, s.DeleteMedicine(ctx, "mario", "aspirin"), repository.ErrNotFound)
}

func TestRegistrationAndTelegramLink(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	require.NoError(t, s.RegisterDevice(ctx, models.Registration{Username: "house", Role: models.RoleDoctor}))
	require.NoError(t, s.RegisterDevice(ctx, models.Registration{
		Username: "mario", Role: models.RolePatient, Doctor: "house",
		OneSignalID: "os-1", SubscriptionID: "sub-1",
	}))

	r, err := s.Recipient(ctx, "mario")
	require.NoError(t, err)
	assert.True(t, r.HasPush())
	assert.False(t, r.HasTelegram())

	require.NoError(t, s.LinkTelegram(ctx, "mario", 77))
	name, err := s.UsernameByChat(ctx, 77)
	require.NoError(t, err)
	assert.Equal(t, "mario", name)

	// relinking the chat moves it to the new user
	require.NoError(t, s.LinkTelegram(ctx, "house", 77))
	name, _ = s.UsernameByChat(ctx, 77)
	assert.Equal(t, "house", name)
	r, _ = s.Recipient(ctx, "mario")
	assert.False(t, r.HasTelegram())

	assert.ErrorIs(t, s.LinkTelegram(ctx, "nobody", 1), repository.ErrNotFound)
	_, err = s.UsernameByChat(ctx, 999)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	patients, err := s.PatientsOfDoctor(ctx, "house")
	require.NoError(t, err)
	assert.Equal(t, []string{"mario"}, patients)
}

func TestCountAppointments(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	s.AddAppointment(models.Appointment{Doctor: "house", Patient: "mario", Date: "10-06-2026", Time: "09:00"})
	s.AddAppointment(models.Appointment{Doctor: "house", Patient: "luigi", Date: "10-06-2026", Time: "10:00"})
	s.AddAppointment(models.Appointment{Doctor: "house", Patient: "mario", Date: "11-06-2026", Time: "09:00"})

	n, err := s.CountAppointments(ctx, "house", "10-06-2026")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
