package reminder

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/hray3182/MedTrack/internal/logger"
	"github.com/hray3182/MedTrack/internal/models"
	"github.com/hray3182/MedTrack/internal/notify"
)

type State int

const (
	StateIdle State = iota
	StateArmed
	StateFiring
)

func (s State) String() string {
	switch s {
	case StateArmed:
		return "armed"
	case StateFiring:
		return "firing"
	default:
		return "idle"
	}
}

// RecipientResolver looks up where a patient's notifications go.
type RecipientResolver interface {
	Recipient(ctx context.Context, username string) (*models.Recipient, error)
}

// FireGuard coordinates fires of the same patient across processes.
// Claim reports whether the caller should dispatch the fire at minute of
// date. Without a guard every session dispatches on its own.
type FireGuard interface {
	Claim(ctx context.Context, patient, date string, minute int) (bool, error)
}

type Options struct {
	Clock       Clock
	Guard       FireGuard
	FireTimeout time.Duration
}

// Scheduler keeps one single-slot timer per patient session. A session is
// Idle, Armed for a minute of today, or Firing while it dispatches the
// doses due at that minute.
type Scheduler struct {
	ctx         context.Context
	query       *Query
	recipients  RecipientResolver
	dispatcher  notify.Dispatcher
	clock       Clock
	guard       FireGuard
	fireTimeout time.Duration
	log         *log.Logger

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	patient string
	state   State
	date    string
	fireAt  int
	timer   Timer

	// gen changes on every Stop; work started under an older gen must
	// not transition the session.
	gen        uint64
	evaluating bool
	// stale marks doses changed while evaluating; arm reads them again.
	stale bool
}

// Status is a snapshot of one session.
type Status struct {
	Patient string `json:"patient"`
	State   string `json:"state"`
	Date    string `json:"date,omitempty"`
	FireAt  string `json:"fire_at,omitempty"`
}

// NewScheduler builds a scheduler. ctx bounds every timer-driven fire;
// cancel it and call Close on shutdown.
func NewScheduler(ctx context.Context, query *Query, recipients RecipientResolver, dispatcher notify.Dispatcher, opts Options) *Scheduler {
	if opts.Clock == nil {
		opts.Clock = SystemClock(time.Local)
	}
	if opts.FireTimeout <= 0 {
		opts.FireTimeout = 2 * time.Minute
	}
	return &Scheduler{
		ctx:         ctx,
		query:       query,
		recipients:  recipients,
		dispatcher:  dispatcher,
		clock:       opts.Clock,
		guard:       opts.Guard,
		fireTimeout: opts.FireTimeout,
		log:         logger.With("scheduler"),
		sessions:    make(map[string]*session),
	}
}

// Start evaluates the patient's doses and arms the timer for the next
// pending minute of today. It is a no-op while the session is already
// armed, firing or being evaluated.
func (s *Scheduler) Start(ctx context.Context, patient string) {
	sess, gen, ok := s.claim(patient)
	if !ok {
		s.log.Debug("Start ignored, session busy", "patient", patient)
		return
	}
	s.arm(ctx, sess, gen)
}

// Stop cancels the patient's timer and disposes of the session. A fire
// already in flight completes its dispatch but does not re-arm.
func (s *Scheduler) Stop(patient string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[patient]
	if !ok {
		return
	}
	s.cancelLocked(sess)
	delete(s.sessions, patient)
	s.log.Info("Session stopped", "patient", patient)
}

// Fire runs the armed fire of the patient immediately instead of waiting
// for the timer, and reports whether it did. Only armed sessions fire.
func (s *Scheduler) Fire(ctx context.Context, patient string) bool {
	s.mu.Lock()
	sess, ok := s.sessions[patient]
	if !ok || sess.state != StateArmed {
		s.mu.Unlock()
		return false
	}
	if sess.timer != nil {
		sess.timer.Stop()
	}
	gen := sess.gen
	s.mu.Unlock()

	return s.fire(ctx, sess, gen)
}

// Refresh re-evaluates an existing session after its doses changed, so a
// dose added before the armed minute gets its own fire. A firing session
// re-reads on its own re-arm; one being evaluated is marked stale and
// re-read before it arms. Unknown sessions are left alone.
func (s *Scheduler) Refresh(ctx context.Context, patient string) {
	s.mu.Lock()
	sess, ok := s.sessions[patient]
	if !ok || sess.state == StateFiring {
		s.mu.Unlock()
		return
	}
	if sess.evaluating {
		sess.stale = true
		s.mu.Unlock()
		return
	}
	if sess.state == StateArmed {
		s.cancelLocked(sess)
	}
	s.mu.Unlock()

	s.Start(ctx, patient)
}

// Status reports the session state of patient; unknown patients are idle.
func (s *Scheduler) Status(patient string) Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{Patient: patient, State: StateIdle.String()}
	if sess, ok := s.sessions[patient]; ok {
		st.State = sess.state.String()
		if sess.state != StateIdle {
			st.Date = sess.date
			st.FireAt = models.FormatMinutes(sess.fireAt)
		}
	}
	return st
}

// Active reports whether a session exists for patient.
func (s *Scheduler) Active(patient string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[patient]
	return ok
}

// Patients lists the patients with an open session, sorted.
func (s *Scheduler) Patients() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	patients := make([]string, 0, len(s.sessions))
	for patient := range s.sessions {
		patients = append(patients, patient)
	}
	sort.Strings(patients)
	return patients
}

// Close stops every session.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for patient, sess := range s.sessions {
		s.cancelLocked(sess)
		delete(s.sessions, patient)
	}
	s.log.Info("Scheduler closed")
}

func (s *Scheduler) cancelLocked(sess *session) {
	sess.gen++
	if sess.timer != nil {
		sess.timer.Stop()
		sess.timer = nil
	}
	sess.state = StateIdle
	sess.evaluating = false
	sess.stale = false
}

// claim is the reentry guard: only an idle session not already being
// evaluated may be armed.
func (s *Scheduler) claim(patient string) (*session, uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[patient]
	if !ok {
		sess = &session{patient: patient}
		s.sessions[patient] = sess
	}
	if sess.state != StateIdle || sess.evaluating {
		return nil, 0, false
	}
	sess.evaluating = true
	return sess, sess.gen, true
}

func (s *Scheduler) arm(ctx context.Context, sess *session, gen uint64) {
	var (
		now        time.Time
		today      string
		nowMinutes int
		next       int
		found      bool
	)
	for {
		now = s.clock.Now()
		today = models.DateKey(now)
		nowMinutes = models.MinutesOfDay(now)

		var err error
		next, found, err = s.query.NextPendingMinutes(ctx, sess.patient, today, nowMinutes)
		if err != nil {
			s.log.Warn("Failed to read doses, staying idle", "patient", sess.patient, "err", err)
			found = false
		}

		s.mu.Lock()
		if sess.gen == gen && sess.stale {
			sess.stale = false
			s.mu.Unlock()
			s.log.Debug("Doses changed while evaluating, reading again", "patient", sess.patient)
			continue
		}
		break
	}
	defer s.mu.Unlock()

	sess.evaluating = false
	if sess.gen != gen {
		return
	}
	if !found {
		sess.state = StateIdle
		s.log.Debug("No pending doses left today", "patient", sess.patient, "date", today)
		return
	}

	delay := time.Duration(next-nowMinutes) * time.Minute
	sess.state = StateArmed
	sess.date = today
	sess.fireAt = next
	sess.timer = s.clock.AfterFunc(delay, func() {
		fireCtx, cancel := context.WithTimeout(s.ctx, s.fireTimeout)
		defer cancel()
		s.fire(fireCtx, sess, gen)
	})
	s.log.Info("Reminder armed", "patient", sess.patient, "at", models.FormatMinutes(next), "in", delay)
}

func (s *Scheduler) fire(ctx context.Context, sess *session, gen uint64) bool {
	s.mu.Lock()
	if sess.gen != gen || sess.state != StateArmed {
		s.mu.Unlock()
		return false
	}
	sess.state = StateFiring
	sess.timer = nil
	s.mu.Unlock()

	s.dispatchDue(ctx, sess.patient)

	s.mu.Lock()
	stopped := sess.gen != gen
	if !stopped {
		sess.state = StateIdle
	}
	s.mu.Unlock()

	if stopped {
		s.log.Debug("Session stopped during fire, not re-arming", "patient", sess.patient)
		return true
	}
	s.Start(ctx, sess.patient)
	return true
}

// dispatchDue sends one reminder per dose due now. Failures are logged and
// never retried here.
func (s *Scheduler) dispatchDue(ctx context.Context, patient string) {
	now := s.clock.Now()
	today := models.DateKey(now)
	nowMinutes := models.MinutesOfDay(now)

	due, err := s.query.PendingDueNow(ctx, patient, today, nowMinutes)
	if err != nil {
		s.log.Warn("Failed to read due doses", "patient", patient, "err", err)
		return
	}
	if len(due) == 0 {
		return
	}

	if s.guard != nil {
		claimed, err := s.guard.Claim(ctx, patient, today, nowMinutes)
		if err != nil {
			s.log.Warn("Fire guard unavailable, dispatching anyway", "patient", patient, "err", err)
		} else if !claimed {
			s.log.Info("Fire claimed by another session", "patient", patient, "minute", models.FormatMinutes(nowMinutes))
			return
		}
	}

	recipient, err := s.recipients.Recipient(ctx, patient)
	if err != nil {
		s.log.Warn("Failed to resolve recipient", "patient", patient, "err", err)
		return
	}

	for _, d := range due {
		if err := s.dispatcher.Send(ctx, reminderMessage(*recipient, d)); err != nil {
			s.log.Warn("Failed to send reminder", "patient", patient, "medicine", d.MedicineID, "dose", d.DoseIndex, "err", err)
			continue
		}
		s.log.Info("Sent reminder", "patient", patient, "medicine", d.MedicineID, "dose", d.DoseIndex, "time", d.ScheduledTime)
	}
}
