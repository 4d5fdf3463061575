package pushrelay

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"github.com/hray3182/MedTrack/internal/logger"
	"github.com/hray3182/MedTrack/internal/notify"
)

// Notifier is the provider call the relay forwards to.
type Notifier interface {
	Notify(ctx context.Context, subscriptionID, title, body string, data map[string]any) (string, error)
}

type Handler struct {
	notifier Notifier
	log      *log.Logger
}

func NewHandler(notifier Notifier) *Handler {
	return &Handler{notifier: notifier, log: logger.With("pushrelay")}
}

// RegisterRoutes mounts POST /notifica.
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/notifica", h.Send)
}

// Send forwards one notification to the provider on behalf of a client
// that holds no provider credentials.
func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	var req notify.RelayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	sub := strings.TrimSpace(req.Subscription())
	if sub == "" {
		http.Error(w, "Missing subscriptionId", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.OneSignalID) == "" {
		http.Error(w, "Missing oneSignalId", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Message) == "" {
		http.Error(w, "Missing titolo or messaggio", http.StatusBadRequest)
		return
	}

	result, err := h.notifier.Notify(r.Context(), sub, req.Title, req.Message, req.Data)
	if err != nil {
		h.log.Error("Push relay failed", "onesignal_id", req.OneSignalID, "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	h.log.Debug("Push relayed", "onesignal_id", req.OneSignalID)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(result))
}
