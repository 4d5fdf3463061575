package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/hray3182/MedTrack/internal/database"
	"github.com/hray3182/MedTrack/internal/models"
)

type UserRepository struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	user := &models.User{}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT username, role, onesignal_id, subscription_id, telegram_chat_id, created_at
		 FROM users WHERE username = $1`,
		username,
	).Scan(&user.Username, &user.Role, &user.OneSignalID, &user.SubscriptionID, &user.TelegramChatID, &user.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// Recipient resolves the push registration of a user.
func (r *UserRepository) Recipient(ctx context.Context, username string) (*models.Recipient, error) {
	user, err := r.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return user.Recipient(), nil
}

// RegisterDevice creates or updates the user with the device push
// registration. Patients also get their roster row, linked to Doctor when
// one is given.
func (r *UserRepository) RegisterDevice(ctx context.Context, reg models.Registration) error {
	return pgx.BeginFunc(ctx, r.db.Pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO users (username, role, onesignal_id, subscription_id)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (username) DO UPDATE
			 SET role = EXCLUDED.role, onesignal_id = EXCLUDED.onesignal_id, subscription_id = EXCLUDED.subscription_id`,
			reg.Username, reg.Role, reg.OneSignalID, reg.SubscriptionID,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert user: %w", err)
		}
		if reg.Role != models.RolePatient {
			return nil
		}

		var doctor *string
		if reg.Doctor != "" {
			doctor = &reg.Doctor
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO patients (username, doctor) VALUES ($1, $2)
			 ON CONFLICT (username) DO UPDATE SET doctor = COALESCE(EXCLUDED.doctor, patients.doctor)`,
			reg.Username, doctor,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert patient: %w", err)
		}
		return nil
	})
}

// LinkTelegram binds a Telegram chat to the user, detaching it from any
// other user first.
func (r *UserRepository) LinkTelegram(ctx context.Context, username string, chatID int64) error {
	return pgx.BeginFunc(ctx, r.db.Pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`UPDATE users SET telegram_chat_id = NULL WHERE telegram_chat_id = $1 AND username <> $2`,
			chatID, username,
		); err != nil {
			return fmt.Errorf("failed to unlink chat: %w", err)
		}
		tag, err := tx.Exec(ctx,
			`UPDATE users SET telegram_chat_id = $1 WHERE username = $2`,
			chatID, username,
		)
		if err != nil {
			return fmt.Errorf("failed to link chat: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// UsernameByChat returns the user linked to a Telegram chat.
func (r *UserRepository) UsernameByChat(ctx context.Context, chatID int64) (string, error) {
	var username string
	err := r.db.Pool.QueryRow(ctx,
		`SELECT username FROM users WHERE telegram_chat_id = $1`,
		chatID,
	).Scan(&username)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get user by chat: %w", err)
	}
	return username, nil
}
