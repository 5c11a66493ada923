package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/lueurxax/proactive-notifier/internal/core/domain"
)

// ListWaitingChecks returns the user's checks scoped to any of serviceTypes.
// With no serviceTypes every check is returned.
func (db *DB) ListWaitingChecks(ctx context.Context, userID int64, serviceTypes ...string) ([]domain.WaitingCheck, error) {
	if serviceTypes == nil {
		serviceTypes = []string{}
	}

	rows, err := db.Pool.Query(ctx, `
		SELECT id, user_id, content, service_type, noti_type
		FROM waiting_checks
		WHERE user_id = $1
		  AND (cardinality($2::text[]) = 0 OR service_type = ANY($2::text[]))
		ORDER BY id
	`, userID, serviceTypes)
	if err != nil {
		return nil, fmt.Errorf("list waiting checks: %w", err)
	}
	defer rows.Close()

	var checks []domain.WaitingCheck

	for rows.Next() {
		var (
			c        domain.WaitingCheck
			notiType pgtype.Text
		)

		if err := rows.Scan(&c.ID, &c.UserID, &c.Content, &c.ServiceType, &notiType); err != nil {
			return nil, fmt.Errorf(errFmtScanRow, "waiting check", err)
		}

		c.NotiType = fromText(notiType)
		checks = append(checks, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate waiting check rows: %w", err)
	}

	return checks, nil
}

// CreateWaitingCheck stores a new check and returns its id.
func (db *DB) CreateWaitingCheck(ctx context.Context, check domain.WaitingCheck) (int64, error) {
	var id int64

	err := db.Pool.QueryRow(ctx, `
		INSERT INTO waiting_checks (user_id, content, service_type, noti_type)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, check.UserID, SanitizeUTF8(check.Content), check.ServiceType, toText(check.NotiType)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create waiting check: %w", err)
	}

	return id, nil
}

// DeleteWaitingCheck removes a check. Only the caller whose delete removed the
// row gets true, so concurrent matches consume a check once.
func (db *DB) DeleteWaitingCheck(ctx context.Context, userID, checkID int64) (bool, error) {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM waiting_checks WHERE id = $1 AND user_id = $2`, checkID, userID)
	if err != nil {
		return false, fmt.Errorf("delete waiting check: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}
