package models

import (
	"fmt"
	"time"
)

type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
)

type User struct {
	Username       string    `json:"username"`
	Role           Role      `json:"role"`
	OneSignalID    string    `json:"onesignal_id"`    // OneSignal external id of the device owner
	SubscriptionID string    `json:"subscription_id"` // OneSignal push subscription of the device
	TelegramChatID *int64    `json:"telegram_chat_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// Registration is what a client submits when a device signs in.
type Registration struct {
	Username       string `json:"username"`
	Role           Role   `json:"role"`
	Doctor         string `json:"doctor,omitempty"`
	OneSignalID    string `json:"onesignal_id"`
	SubscriptionID string `json:"subscription_id"`
}

// Validate checks the fields every registration needs.
func (r *Registration) Validate() error {
	if r.Username == "" {
		return fmt.Errorf("username is required")
	}
	switch r.Role {
	case RolePatient, RoleDoctor:
	case "":
		r.Role = RolePatient
	default:
		return fmt.Errorf("unknown role %q", r.Role)
	}
	return nil
}

// Recipient is the push registration resolved for a user at send time.
type Recipient struct {
	Username       string `json:"username"`
	OneSignalID    string `json:"onesignal_id"`
	SubscriptionID string `json:"subscription_id"`
	TelegramChatID int64  `json:"telegram_chat_id"`
}

// Recipient returns the push registration of the user.
func (u *User) Recipient() *Recipient {
	r := &Recipient{
		Username:       u.Username,
		OneSignalID:    u.OneSignalID,
		SubscriptionID: u.SubscriptionID,
	}
	if u.TelegramChatID != nil {
		r.TelegramChatID = *u.TelegramChatID
	}
	return r
}

// HasPush reports whether the recipient can be reached through OneSignal.
func (r *Recipient) HasPush() bool {
	return r.OneSignalID != "" && r.SubscriptionID != ""
}

// HasTelegram reports whether the recipient linked a Telegram chat.
func (r *Recipient) HasTelegram() bool {
	return r.TelegramChatID != 0
}

type Appointment struct {
	AppointmentID int       `json:"appointment_id"`
	Doctor        string    `json:"doctor"`
	Patient       string    `json:"patient"`
	Date          string    `json:"date"` // DD-MM-YYYY
	Time          string    `json:"time"` // HH:MM
	CreatedAt     time.Time `json:"created_at"`
}
