package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hray3182/MedTrack/internal/models"
	"github.com/hray3182/MedTrack/internal/repository"
)

type medicineKey struct {
	patient    string
	medicineID string
}

// Store keeps users, prescriptions and appointments in process memory. It
// satisfies the same method sets as the Postgres repositories and is used
// when no database is configured.
type Store struct {
	mu           sync.RWMutex
	users        map[string]models.User
	doctorOf     map[string]string
	medicines    map[medicineKey]*models.PrescribedMedicine
	appointments []models.Appointment
}

func NewStore() *Store {
	return &Store{
		users:     make(map[string]models.User),
		doctorOf:  make(map[string]string),
		medicines: make(map[medicineKey]*models.PrescribedMedicine),
	}
}

func (s *Store) ListDueDoses(ctx context.Context, patient, date string) ([]models.DoseRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.DoseRecord
	for key, med := range s.medicines {
		if key.patient != patient {
			continue
		}
		for _, d := range med.Doses {
			if d.ScheduledDate != date {
				continue
			}
			out = append(out, models.DoseRecord{
				MedicineID:    med.MedicineID,
				MedicineName:  med.MedicineName,
				DoseIndex:     d.Index,
				ScheduledDate: d.ScheduledDate,
				ScheduledTime: d.ScheduledTime,
				Taken:         d.Taken,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MedicineID != out[j].MedicineID {
			return out[i].MedicineID < out[j].MedicineID
		}
		return out[i].DoseIndex < out[j].DoseIndex
	})
	return out, nil
}

func (s *Store) MarkTaken(ctx context.Context, patient, medicineID string, doseIndex int, taken bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	med, ok := s.medicines[medicineKey{patient, medicineID}]
	if !ok || doseIndex < 0 || doseIndex >= len(med.Doses) {
		return repository.ErrNotFound
	}
	med.Doses[doseIndex].Taken = taken
	return nil
}

func (s *Store) Prescribe(ctx context.Context, med *models.PrescribedMedicine) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *med
	cp.Doses = append([]models.Dose(nil), med.Doses...)
	cp.CreatedAt = time.Now()
	med.CreatedAt = cp.CreatedAt
	s.medicines[medicineKey{med.Patient, med.MedicineID}] = &cp
	return nil
}

func (s *Store) DeleteMedicine(ctx context.Context, patient, medicineID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := medicineKey{patient, medicineID}
	if _, ok := s.medicines[key]; !ok {
		return repository.ErrNotFound
	}
	delete(s.medicines, key)
	return nil
}

func (s *Store) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[username]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (s *Store) Recipient(ctx context.Context, username string) (*models.Recipient, error) {
	u, err := s.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return u.Recipient(), nil
}

func (s *Store) RegisterDevice(ctx context.Context, reg models.Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[reg.Username]
	if !ok {
		u = models.User{Username: reg.Username, CreatedAt: time.Now()}
	}
	u.Role = reg.Role
	u.OneSignalID = reg.OneSignalID
	u.SubscriptionID = reg.SubscriptionID
	s.users[reg.Username] = u

	if reg.Role == models.RolePatient && reg.Doctor != "" {
		s.doctorOf[reg.Username] = reg.Doctor
	}
	return nil
}

func (s *Store) LinkTelegram(ctx context.Context, username string, chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[username]
	if !ok {
		return repository.ErrNotFound
	}
	for name, other := range s.users {
		if name != username && other.TelegramChatID != nil && *other.TelegramChatID == chatID {
			other.TelegramChatID = nil
			s.users[name] = other
		}
	}
	id := chatID
	u.TelegramChatID = &id
	s.users[username] = u
	return nil
}

func (s *Store) UsernameByChat(ctx context.Context, chatID int64) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for name, u := range s.users {
		if u.TelegramChatID != nil && *u.TelegramChatID == chatID {
			return name, nil
		}
	}
	return "", repository.ErrNotFound
}

func (s *Store) PatientsOfDoctor(ctx context.Context, doctor string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var patients []string
	for patient, d := range s.doctorOf {
		if d == doctor {
			patients = append(patients, patient)
		}
	}
	sort.Strings(patients)
	return patients, nil
}

func (s *Store) CountAppointments(ctx context.Context, doctor, date string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, a := range s.appointments {
		if a.Doctor == doctor && a.Date == date {
			count++
		}
	}
	return count, nil
}

// AddAppointment records an appointment. Booking itself happens elsewhere;
// the store only needs the rows to count them.
func (s *Store) AddAppointment(a models.Appointment) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a.AppointmentID = len(s.appointments) + 1
	s.appointments = append(s.appointments, a)
}
