package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/lueurxax/proactive-notifier/internal/core/domain"
	apperrors "github.com/lueurxax/proactive-notifier/internal/core/errors"
)

const bridgeColumns = `id, user_id, bridge_type, status, room_id, last_seen_online, created_at`

func scanBridge(row pgx.Row) (*domain.Bridge, error) {
	var (
		b        domain.Bridge
		roomID   pgtype.Text
		lastSeen pgtype.Int8
	)

	if err := row.Scan(&b.ID, &b.UserID, &b.BridgeType, &b.Status, &roomID, &lastSeen, &b.CreatedAt); err != nil {
		return nil, err
	}

	b.RoomID = fromText(roomID)
	b.LastSeenOnline = fromUnixInt8(lastSeen)

	return &b, nil
}

// GetBridge returns the user's bridge for one service.
func (db *DB) GetBridge(ctx context.Context, userID int64, service domain.Service) (*domain.Bridge, error) {
	row := db.Pool.QueryRow(ctx, `
		SELECT `+bridgeColumns+`
		FROM bridges
		WHERE user_id = $1 AND bridge_type = $2
	`, userID, string(service))

	b, err := scanBridge(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrBridgeNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("get bridge: %w", err)
	}

	return b, nil
}

// ListBridges returns every bridge of a user.
func (db *DB) ListBridges(ctx context.Context, userID int64) ([]domain.Bridge, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT `+bridgeColumns+`
		FROM bridges
		WHERE user_id = $1
		ORDER BY bridge_type
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list bridges: %w", err)
	}
	defer rows.Close()

	var bridges []domain.Bridge

	for rows.Next() {
		b, err := scanBridge(rows)
		if err != nil {
			return nil, fmt.Errorf(errFmtScanRow, "bridge", err)
		}

		bridges = append(bridges, *b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bridge rows: %w", err)
	}

	return bridges, nil
}

// UpdateBridgeLastSeen stores the watermark. Concurrent writers race and the last one wins.
func (db *DB) UpdateBridgeLastSeen(ctx context.Context, userID int64, service domain.Service, seen time.Time) error {
	_, err := db.Pool.Exec(ctx, `
		UPDATE bridges SET last_seen_online = $3
		WHERE user_id = $1 AND bridge_type = $2
	`, userID, string(service), seen.Unix())
	if err != nil {
		return fmt.Errorf("update bridge last seen: %w", err)
	}

	return nil
}

// DeleteBridge removes the user's bridge for one service.
func (db *DB) DeleteBridge(ctx context.Context, userID int64, service domain.Service) error {
	_, err := db.Pool.Exec(ctx, `DELETE FROM bridges WHERE user_id = $1 AND bridge_type = $2`, userID, string(service))
	if err != nil {
		return fmt.Errorf("delete bridge: %w", err)
	}

	return nil
}
