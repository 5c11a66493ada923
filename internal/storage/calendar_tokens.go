package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	apperrors "github.com/lueurxax/proactive-notifier/internal/core/errors"
)

// CalendarToken is a stored Google OAuth token.
type CalendarToken struct {
	UserID       int64
	AccessToken  string
	RefreshToken string
	TokenType    string
	Expiry       time.Time
}

// HasActiveCalendar reports whether the user has an active calendar connection.
func (db *DB) HasActiveCalendar(ctx context.Context, userID int64) (bool, error) {
	var exists bool

	err := db.Pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM google_calendar_tokens WHERE user_id = $1 AND active)
	`, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check calendar connection: %w", err)
	}

	return exists, nil
}

// GetCalendarToken returns the user's active token or errors.ErrNotFound.
func (db *DB) GetCalendarToken(ctx context.Context, userID int64) (*CalendarToken, error) {
	var (
		t      CalendarToken
		expiry pgtype.Timestamptz
	)

	err := db.Pool.QueryRow(ctx, `
		SELECT user_id, access_token, refresh_token, token_type, expiry
		FROM google_calendar_tokens
		WHERE user_id = $1 AND active
	`, userID).Scan(&t.UserID, &t.AccessToken, &t.RefreshToken, &t.TokenType, &expiry)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("get calendar token: %w", err)
	}

	t.Expiry = fromTimestamptz(expiry)

	return &t, nil
}

// SaveCalendarToken persists a refreshed token.
func (db *DB) SaveCalendarToken(ctx context.Context, t CalendarToken) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO google_calendar_tokens (user_id, access_token, refresh_token, token_type, expiry, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (user_id) DO UPDATE SET
			access_token = EXCLUDED.access_token,
			refresh_token = CASE WHEN EXCLUDED.refresh_token <> '' THEN EXCLUDED.refresh_token ELSE google_calendar_tokens.refresh_token END,
			token_type = EXCLUDED.token_type,
			expiry = EXCLUDED.expiry,
			updated_at = now()
	`, t.UserID, t.AccessToken, t.RefreshToken, t.TokenType, toTimestamptz(t.Expiry))
	if err != nil {
		return fmt.Errorf("save calendar token: %w", err)
	}

	return nil
}
