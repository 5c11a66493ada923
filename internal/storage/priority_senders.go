package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/lueurxax/proactive-notifier/internal/core/domain"
)

// ListPrioritySenders returns the user's priority contacts for one service.
func (db *DB) ListPrioritySenders(ctx context.Context, userID int64, service string) ([]domain.PrioritySender, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id, user_id, sender, service_type, noti_type, noti_mode
		FROM priority_senders
		WHERE user_id = $1 AND service_type = $2
		ORDER BY id
	`, userID, service)
	if err != nil {
		return nil, fmt.Errorf("list priority senders: %w", err)
	}
	defer rows.Close()

	var senders []domain.PrioritySender

	for rows.Next() {
		var (
			p        domain.PrioritySender
			notiType pgtype.Text
		)

		if err := rows.Scan(&p.ID, &p.UserID, &p.Sender, &p.ServiceType, &notiType, &p.NotiMode); err != nil {
			return nil, fmt.Errorf(errFmtScanRow, "priority sender", err)
		}

		p.NotiType = fromText(notiType)
		senders = append(senders, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate priority sender rows: %w", err)
	}

	return senders, nil
}
