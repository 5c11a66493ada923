package db

import (
	"context"
	"fmt"
	"time"

	"github.com/lueurxax/proactive-notifier/internal/core/domain"
)

// LogNotification appends one row to the notification usage log.
func (db *DB) LogNotification(ctx context.Context, rec domain.NotificationRecord) error {
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := db.Pool.Exec(ctx, `
		INSERT INTO notification_usage (user_id, external_ref, content_type, channel, success, status, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, rec.UserID, toText(rec.ExternalRef), rec.ContentType, rec.Channel, rec.Success, rec.Status,
		toText(rec.Reason), toTimestamptz(createdAt))
	if err != nil {
		return fmt.Errorf("log notification: %w", err)
	}

	return nil
}

// HasRecentNotification reports whether a notification of contentType was
// attempted within window. Failed attempts count toward the cooldown.
func (db *DB) HasRecentNotification(ctx context.Context, userID int64, contentType string, window time.Duration) (bool, error) {
	var exists bool

	err := db.Pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM notification_usage
			WHERE user_id = $1 AND content_type = $2 AND created_at > $3
		)
	`, userID, contentType, time.Now().Add(-window)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check recent notification: %w", err)
	}

	return exists, nil
}

// AppendHistory stores a message in the user's conversation history.
func (db *DB) AppendHistory(ctx context.Context, entry domain.HistoryEntry) error {
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := db.Pool.Exec(ctx, `
		INSERT INTO message_history (user_id, role, content, created_at)
		VALUES ($1, $2, $3, $4)
	`, entry.UserID, entry.Role, SanitizeUTF8(entry.Content), createdAt)
	if err != nil {
		return fmt.Errorf("append history: %w", err)
	}

	return nil
}
