package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/lueurxax/proactive-notifier/internal/core/domain"
	apperrors "github.com/lueurxax/proactive-notifier/internal/core/errors"
)

const userSettingsColumns = `
	user_id, phone_number, matrix_user_id, timezone, notification_type,
	critical_enabled, action_on_critical_message, call_notify, proactive_agent_on,
	subscription_active, morning_digest, day_digest, evening_digest`

func scanUserSettings(row pgx.Row) (*domain.UserSettings, error) {
	var s domain.UserSettings

	var timezone, notiType, critical, act, morning, day, evening pgtype.Text

	if err := row.Scan(
		&s.UserID, &s.PhoneNumber, &s.MatrixUserID, &timezone, &notiType,
		&critical, &act, &s.CallNotify, &s.ProactiveAgentOn,
		&s.SubscriptionActive, &morning, &day, &evening,
	); err != nil {
		return nil, err
	}

	s.Timezone = fromText(timezone)
	s.NotificationType = fromText(notiType)
	s.CriticalEnabled = fromText(critical)
	s.ActionOnCriticalMessage = fromText(act)
	s.Digest = domain.DigestSettings{
		Morning: fromText(morning),
		Day:     fromText(day),
		Evening: fromText(evening),
	}

	return &s, nil
}

// GetUserSettings returns the preferences of one user.
func (db *DB) GetUserSettings(ctx context.Context, userID int64) (*domain.UserSettings, error) {
	row := db.Pool.QueryRow(ctx, `SELECT `+userSettingsColumns+` FROM user_settings WHERE user_id = $1`, userID)

	s, err := scanUserSettings(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrUserNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("get user settings: %w", err)
	}

	return s, nil
}

// ListDigestUsers returns users with at least one digest slot configured.
func (db *DB) ListDigestUsers(ctx context.Context) ([]domain.UserSettings, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT `+userSettingsColumns+`
		FROM user_settings
		WHERE COALESCE(morning_digest, '') <> ''
		   OR COALESCE(day_digest, '') <> ''
		   OR COALESCE(evening_digest, '') <> ''
		ORDER BY user_id
	`)
	if err != nil {
		return nil, fmt.Errorf("list digest users: %w", err)
	}
	defer rows.Close()

	var users []domain.UserSettings

	for rows.Next() {
		s, err := scanUserSettings(rows)
		if err != nil {
			return nil, fmt.Errorf(errFmtScanRow, "user settings", err)
		}

		users = append(users, *s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user settings rows: %w", err)
	}

	return users, nil
}
