package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClockMinutes(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"00:00", 0},
		{"24:00", 0},
		{"08:00", 480},
		{"8:00", 480},
		{"12:30", 750},
		{"23:59", 1439},
		{" 20:00 ", 1200},
	}
	for _, tt := range tests {
		got, err := ClockMinutes(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestClockMinutesMalformed(t *testing.T) {
	for _, in := range []string{"", "noon", "25:00", "24:30", "12:60", "12"} {
		_, err := ClockMinutes(in)
		assert.True(t, errors.Is(err, ErrMalformedTime), in)
	}
}

func TestDateKeyRoundTrip(t *testing.T) {
	loc := time.FixedZone("test", 3600)
	day := time.Date(2026, time.March, 7, 15, 4, 0, 0, loc)

	assert.Equal(t, "07-03-2026", DateKey(day))

	parsed, err := ParseDate("07-03-2026", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, time.March, 7, 0, 0, 0, 0, loc), parsed)
	assert.Equal(t, 904, MinutesOfDay(day))
	assert.Equal(t, "15:04", FormatMinutes(904))
}

func TestGenerateDoses(t *testing.T) {
	start := time.Date(2026, time.January, 31, 17, 45, 0, 0, time.UTC)

	doses, err := GenerateDoses(start, 4, 8)
	require.NoError(t, err)
	require.Len(t, doses, 4)

	want := []Dose{
		{Index: 0, ScheduledDate: "31-01-2026", ScheduledTime: "08:00"},
		{Index: 1, ScheduledDate: "31-01-2026", ScheduledTime: "16:00"},
		{Index: 2, ScheduledDate: "01-02-2026", ScheduledTime: "00:00"},
		{Index: 3, ScheduledDate: "01-02-2026", ScheduledTime: "08:00"},
	}
	assert.Equal(t, want, doses)
}

func TestGenerateDosesRejectsBadInput(t *testing.T) {
	_, err := GenerateDoses(time.Now(), 0, 8)
	assert.Error(t, err)
	_, err = GenerateDoses(time.Now(), 3, 0)
	assert.Error(t, err)
}

func TestNewPrescribedMedicineDefaultsEndDate(t *testing.T) {
	start := time.Date(2026, time.May, 1, 9, 0, 0, 0, time.UTC)

	med, err := NewPrescribedMedicine("mario", Prescription{
		MedicineID:    "amoxicillin",
		DoseCount:     3,
		IntervalHours: 12,
		Start:         start,
	})
	require.NoError(t, err)

	assert.Equal(t, "01-05-2026", med.StartDate)
	assert.Equal(t, "02-05-2026", med.EndDate)
	assert.Equal(t, 3, med.DoseCount)
	assert.Len(t, med.Doses, 3)

	_, err = NewPrescribedMedicine("mario", Prescription{DoseCount: 1, IntervalHours: 1, Start: start})
	assert.Error(t, err)
}

func TestRecipient(t *testing.T) {
	chat := int64(42)
	u := &User{Username: "mario", OneSignalID: "os", SubscriptionID: "sub", TelegramChatID: &chat}

	r := u.Recipient()
	assert.True(t, r.HasPush())
	assert.True(t, r.HasTelegram())

	bare := (&User{Username: "luigi"}).Recipient()
	assert.False(t, bare.HasPush())
	assert.False(t, bare.HasTelegram())
}

func TestRegistrationValidate(t *testing.T) {
	reg := Registration{Username: "anna"}
	require.NoError(t, reg.Validate())
	assert.Equal(t, RolePatient, reg.Role, "role defaults to patient")

	doctor := Registration{Username: "house", Role: RoleDoctor}
	assert.NoError(t, doctor.Validate())

	assert.Error(t, (&Registration{Role: RolePatient}).Validate())
	assert.Error(t, (&Registration{Username: "anna", Role: "nurse"}).Validate())
}
