package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hray3182/MedTrack/internal/models"
)

var (
	// ErrNoRecipient is returned before any I/O when a message lacks the
	// token, title or body the channel needs.
	ErrNoRecipient = errors.New("incomplete notification")

	// ErrDispatch wraps provider-side failures.
	ErrDispatch = errors.New("dispatch failed")
)

// Metadata type values carried in Message.Metadata["type"].
const (
	TypeMedicineReminder = "medicine_reminder"
	TypePatientWelcome   = "patient_welcome"
	TypeDoctorWelcome    = "doctor_welcome"
)

type Message struct {
	Recipient models.Recipient
	Title     string
	Body      string
	Metadata  map[string]any
}

// Dispatcher delivers a message to one recipient. A nil error means the
// provider accepted it.
type Dispatcher interface {
	Send(ctx context.Context, msg Message) error
}

func (m *Message) validate() error {
	if strings.TrimSpace(m.Title) == "" || strings.TrimSpace(m.Body) == "" {
		return fmt.Errorf("%w: missing title or body", ErrNoRecipient)
	}
	return nil
}

func (m *Message) validatePush() error {
	if err := m.validate(); err != nil {
		return err
	}
	if m.Recipient.OneSignalID == "" || m.Recipient.SubscriptionID == "" {
		return fmt.Errorf("%w: %s has no push registration", ErrNoRecipient, m.Recipient.Username)
	}
	return nil
}
