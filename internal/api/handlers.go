package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"github.com/hray3182/MedTrack/internal/models"
	"github.com/hray3182/MedTrack/internal/reminder"
	"github.com/hray3182/MedTrack/internal/repository"
)

type handlers struct {
	opts Options
	log  *log.Logger
}

type deviceRequest struct {
	Role           models.Role `json:"role"`
	Doctor         string      `json:"doctor"`
	OneSignalID    string      `json:"onesignal_id"`
	SubscriptionID string      `json:"subscription_id"`
}

type takenRequest struct {
	Taken *bool `json:"taken"`
}

type prescribeRequest struct {
	MedicineID    string `json:"medicine_id"`
	MedicineName  string `json:"medicine_name"`
	DoseCount     int    `json:"dose_count"`
	IntervalHours int    `json:"interval_hours"`
	EndDate       string `json:"end_date"` // DD-MM-YYYY, optional
}

type todayResponse struct {
	Date  string              `json:"date"`
	Now   string              `json:"now"`
	Doses []models.DoseRecord `json:"doses"`
	Due   []reminder.DueDose  `json:"due"`
	Next  string              `json:"next,omitempty"`
}

func (h *handlers) registerDevice(w http.ResponseWriter, r *http.Request) {
	var req deviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	reg := models.Registration{
		Username:       chi.URLParam(r, "username"),
		Role:           req.Role,
		Doctor:         strings.TrimSpace(req.Doctor),
		OneSignalID:    strings.TrimSpace(req.OneSignalID),
		SubscriptionID: strings.TrimSpace(req.SubscriptionID),
	}
	if err := reg.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.opts.Users.RegisterDevice(r.Context(), reg); err != nil {
		h.log.Error("Failed to register device", "username", reg.Username, "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// startSession arms the patient's reminders. The welcome goes out only
// when the session is new, and its failure does not block the start.
func (h *handlers) startSession(w http.ResponseWriter, r *http.Request) {
	patient := chi.URLParam(r, "patient")

	if !h.opts.Scheduler.Active(patient) && h.opts.Welcome != nil {
		if err := h.opts.Welcome.WelcomePatient(r.Context(), patient); err != nil {
			h.log.Warn("Patient welcome failed", "patient", patient, "err", err)
		}
	}

	h.opts.Scheduler.Start(r.Context(), patient)
	writeJSON(w, http.StatusAccepted, h.opts.Scheduler.Status(patient))
}

func (h *handlers) sessionStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.opts.Scheduler.Status(chi.URLParam(r, "patient")))
}

func (h *handlers) stopSession(w http.ResponseWriter, r *http.Request) {
	h.opts.Scheduler.Stop(chi.URLParam(r, "patient"))
	w.WriteHeader(http.StatusNoContent)
}

// fireSession sends the armed reminder now instead of at its minute.
func (h *handlers) fireSession(w http.ResponseWriter, r *http.Request) {
	patient := chi.URLParam(r, "patient")
	if !h.opts.Scheduler.Fire(r.Context(), patient) {
		http.Error(w, "session not armed", http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusOK, h.opts.Scheduler.Status(patient))
}

func (h *handlers) todayDoses(w http.ResponseWriter, r *http.Request) {
	patient := chi.URLParam(r, "patient")
	now := h.opts.Clock.Now()
	today := models.DateKey(now)
	nowMinutes := models.MinutesOfDay(now)

	records, err := h.opts.Doses.ListDueDoses(r.Context(), patient, today)
	if err != nil {
		h.log.Error("Failed to list doses", "patient", patient, "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	due, err := h.opts.Query.PendingDueNow(r.Context(), patient, today, nowMinutes)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	next, ok, err := h.opts.Query.NextPendingMinutes(r.Context(), patient, today, nowMinutes)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	resp := todayResponse{
		Date:  today,
		Now:   models.FormatMinutes(nowMinutes),
		Doses: records,
		Due:   due,
	}
	if resp.Doses == nil {
		resp.Doses = []models.DoseRecord{}
	}
	if resp.Due == nil {
		resp.Due = []reminder.DueDose{}
	}
	if ok {
		resp.Next = models.FormatMinutes(next)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) markTaken(w http.ResponseWriter, r *http.Request) {
	patient := chi.URLParam(r, "patient")
	medicine := chi.URLParam(r, "medicine")
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 0 {
		http.Error(w, "dose index must be a non-negative integer", http.StatusBadRequest)
		return
	}

	var req takenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Taken == nil {
		http.Error(w, "body must be {\"taken\": bool}", http.StatusBadRequest)
		return
	}

	err = h.opts.Doses.MarkTaken(r.Context(), patient, medicine, index, *req.Taken)
	if errors.Is(err, repository.ErrNotFound) {
		http.Error(w, "dose not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.log.Error("Failed to mark dose", "patient", patient, "medicine", medicine, "dose", index, "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	h.refresh(r, patient)
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) prescribe(w http.ResponseWriter, r *http.Request) {
	patient := chi.URLParam(r, "patient")

	var req prescribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.EndDate != "" {
		if _, err := models.ParseDate(req.EndDate, time.UTC); err != nil {
			http.Error(w, "end_date must be DD-MM-YYYY", http.StatusBadRequest)
			return
		}
	}

	med, err := models.NewPrescribedMedicine(patient, models.Prescription{
		MedicineID:    strings.TrimSpace(req.MedicineID),
		MedicineName:  strings.TrimSpace(req.MedicineName),
		DoseCount:     req.DoseCount,
		IntervalHours: req.IntervalHours,
		Start:         h.opts.Clock.Now(),
		EndDate:       req.EndDate,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.opts.Doses.Prescribe(r.Context(), med); err != nil {
		h.log.Error("Failed to prescribe", "patient", patient, "medicine", med.MedicineID, "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	h.refresh(r, patient)
	writeJSON(w, http.StatusCreated, med)
}

func (h *handlers) deleteMedicine(w http.ResponseWriter, r *http.Request) {
	patient := chi.URLParam(r, "patient")
	medicine := chi.URLParam(r, "medicine")

	err := h.opts.Doses.DeleteMedicine(r.Context(), patient, medicine)
	if errors.Is(err, repository.ErrNotFound) {
		http.Error(w, "medicine not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.log.Error("Failed to delete medicine", "patient", patient, "medicine", medicine, "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	h.refresh(r, patient)
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) welcomeDoctor(w http.ResponseWriter, r *http.Request) {
	doctor := chi.URLParam(r, "doctor")
	if h.opts.Welcome == nil {
		http.Error(w, "notifications disabled", http.StatusServiceUnavailable)
		return
	}
	if err := h.opts.Welcome.WelcomeDoctor(r.Context(), doctor); err != nil {
		h.log.Warn("Doctor welcome failed", "doctor", doctor, "err", err)
		http.Error(w, "welcome not delivered", http.StatusBadGateway)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *handlers) refresh(r *http.Request, patient string) {
	h.opts.Scheduler.Refresh(r.Context(), patient)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
