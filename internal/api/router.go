package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/hray3182/MedTrack/internal/logger"
	"github.com/hray3182/MedTrack/internal/models"
	"github.com/hray3182/MedTrack/internal/pushrelay"
	"github.com/hray3182/MedTrack/internal/reminder"
)

// DoseStore is the read/write dose surface the API needs.
type DoseStore interface {
	reminder.DoseStore
	MarkTaken(ctx context.Context, patient, medicineID string, doseIndex int, taken bool) error
	Prescribe(ctx context.Context, med *models.PrescribedMedicine) error
	DeleteMedicine(ctx context.Context, patient, medicineID string) error
}

type UserStore interface {
	RegisterDevice(ctx context.Context, reg models.Registration) error
}

type Options struct {
	Doses     DoseStore
	Users     UserStore
	Query     *reminder.Query
	Scheduler *reminder.Scheduler
	Welcome   *reminder.WelcomeNotifier
	Clock     reminder.Clock

	// Relay is mounted at /notifica when set.
	Relay *pushrelay.Handler
}

func NewRouter(opts Options) http.Handler {
	if opts.Clock == nil {
		opts.Clock = reminder.SystemClock(nil)
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger)
	r.Use(chimw.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	h := &handlers{opts: opts, log: logger.With("api")}

	r.Put("/users/{username}/device", h.registerDevice)

	r.Route("/sessions/{patient}", func(sr chi.Router) {
		sr.Post("/", h.startSession)
		sr.Get("/", h.sessionStatus)
		sr.Delete("/", h.stopSession)
		sr.Post("/fire", h.fireSession)
	})

	r.Route("/patients/{patient}", func(pr chi.Router) {
		pr.Get("/doses/today", h.todayDoses)
		pr.Post("/medicines", h.prescribe)
		pr.Delete("/medicines/{medicine}", h.deleteMedicine)
		pr.Put("/medicines/{medicine}/doses/{index}/taken", h.markTaken)
	})

	r.Post("/doctors/{doctor}/welcome", h.welcomeDoctor)

	if opts.Relay != nil {
		pushrelay.RegisterRoutes(r, opts.Relay)
	}

	return r
}

func requestLogger(next http.Handler) http.Handler {
	log := logger.With("http")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Debug("Request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", chimw.GetReqID(r.Context()),
		)
	})
}
