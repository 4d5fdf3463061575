package reminder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hray3182/MedTrack/internal/models"
	"github.com/hray3182/MedTrack/internal/notify"
)

const testToday = "19-10-2026"

func at(hour, minute int) time.Time {
	return time.Date(2026, time.October, 19, hour, minute, 0, 0, time.UTC)
}

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves time forward and runs every timer that came due, including
// timers armed by those callbacks.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		var due *fakeTimer
		for _, t := range c.timers {
			if !t.stopped && !t.fired && !t.at.After(c.now) {
				due = t
				break
			}
		}
		if due != nil {
			due.fired = true
		}
		c.mu.Unlock()

		if due == nil {
			return
		}
		due.f()
	}
}

// pending returns the fire times of timers neither stopped nor fired.
func (c *fakeClock) pending() []time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []time.Time
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			out = append(out, t.at)
		}
	}
	return out
}

type fakeStore struct {
	mu      sync.Mutex
	records map[string][]models.DoseRecord
	err     error
	reads   int

	// afterRead runs once, after the next read has taken its snapshot.
	afterRead func()
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[string][]models.DoseRecord)}
}

func (s *fakeStore) add(patient, medicine string, index int, date, clock string, taken bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[patient] = append(s.records[patient], models.DoseRecord{
		MedicineID:    medicine,
		DoseIndex:     index,
		ScheduledDate: date,
		ScheduledTime: clock,
		Taken:         taken,
	})
}

func (s *fakeStore) setTaken(patient, medicine string, index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.records[patient] {
		if r.MedicineID == medicine && r.DoseIndex == index {
			s.records[patient][i].Taken = true
		}
	}
}

func (s *fakeStore) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *fakeStore) ListDueDoses(ctx context.Context, patient, date string) ([]models.DoseRecord, error) {
	s.mu.Lock()
	s.reads++
	err := s.err
	records := append([]models.DoseRecord(nil), s.records[patient]...)
	hook := s.afterRead
	s.afterRead = nil
	s.mu.Unlock()

	if hook != nil {
		hook()
	}
	if err != nil {
		return nil, err
	}
	return records, nil
}

type fakeRecipients struct {
	missing map[string]bool
}

func (f *fakeRecipients) Recipient(ctx context.Context, username string) (*models.Recipient, error) {
	if f.missing[username] {
		return nil, errors.New("no such user")
	}
	return &models.Recipient{Username: username, OneSignalID: "os-" + username, SubscriptionID: "sub-" + username}, nil
}

type fakeDispatcher struct {
	mu     sync.Mutex
	sent   []notify.Message
	failOn map[string]bool // keyed by "medicine/index"
	onSend func(notify.Message)
}

func (d *fakeDispatcher) Send(ctx context.Context, msg notify.Message) error {
	if d.onSend != nil {
		d.onSend(msg)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, msg)
	if d.failOn[doseKey(msg)] {
		return notify.ErrDispatch
	}
	return nil
}

func (d *fakeDispatcher) keys() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []string
	for _, m := range d.sent {
		out = append(out, doseKey(m))
	}
	return out
}

func doseKey(msg notify.Message) string {
	medicine, _ := msg.Metadata["medicine_id"].(string)
	index, _ := msg.Metadata["dose_index"].(int)
	return fmt.Sprintf("%s/%d", medicine, index)
}

type fakeGuard struct {
	claim bool
	err   error
	calls int
}

func (g *fakeGuard) Claim(ctx context.Context, patient, date string, minute int) (bool, error) {
	g.calls++
	return g.claim, g.err
}
