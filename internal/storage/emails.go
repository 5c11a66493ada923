package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/lueurxax/proactive-notifier/internal/core/domain"
)

// HasEmailConnection reports whether the user has an active mailbox connection.
func (db *DB) HasEmailConnection(ctx context.Context, userID int64) (bool, error) {
	var exists bool

	err := db.Pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM email_connections WHERE user_id = $1 AND active)
	`, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check email connection: %w", err)
	}

	return exists, nil
}

// SaveEmail mirrors one inbox message. Duplicates are ignored.
func (db *DB) SaveEmail(ctx context.Context, email domain.Email) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO emails (user_id, message_id, sender, subject, snippet, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, message_id) DO NOTHING
	`, email.UserID, email.MessageID, SanitizeUTF8(email.From), SanitizeUTF8(email.Subject),
		SanitizeUTF8(email.Snippet), toTimestamptz(email.Date))
	if err != nil {
		return fmt.Errorf("save email: %w", err)
	}

	return nil
}

// RecentEmails returns the newest mirrored emails.
func (db *DB) RecentEmails(ctx context.Context, userID int64, limit int) ([]domain.Email, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT user_id, message_id, sender, subject, snippet, sent_at
		FROM emails
		WHERE user_id = $1
		ORDER BY sent_at DESC NULLS LAST, created_at DESC
		LIMIT $2
	`, userID, safeIntToInt32(limit))
	if err != nil {
		return nil, fmt.Errorf("get recent emails: %w", err)
	}
	defer rows.Close()

	var emails []domain.Email

	for rows.Next() {
		var (
			e      domain.Email
			sentAt pgtype.Timestamptz
		)

		if err := rows.Scan(&e.UserID, &e.MessageID, &e.From, &e.Subject, &e.Snippet, &sentAt); err != nil {
			return nil, fmt.Errorf(errFmtScanRow, "email", err)
		}

		e.Date = fromTimestamptz(sentAt)
		emails = append(emails, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate email rows: %w", err)
	}

	return emails, nil
}
