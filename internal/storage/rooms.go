package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/lueurxax/proactive-notifier/internal/core/domain"
)

// IsRoomMuted reports whether the user muted the room. Unknown rooms are not muted.
func (db *DB) IsRoomMuted(ctx context.Context, userID int64, roomID string) (bool, error) {
	var muted bool

	err := db.Pool.QueryRow(ctx, `
		SELECT muted FROM bridge_rooms WHERE user_id = $1 AND room_id = $2
	`, userID, roomID).Scan(&muted)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("get room mute state: %w", err)
	}

	return muted, nil
}

// UpsertRoom stores room metadata pushed by the sync loop.
func (db *DB) UpsertRoom(ctx context.Context, room domain.BridgeRoom) error {
	activity := room.LastActivity
	if activity.IsZero() {
		activity = time.Now()
	}

	_, err := db.Pool.Exec(ctx, `
		INSERT INTO bridge_rooms (user_id, room_id, display_name, service, muted, last_activity)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, room_id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			service = EXCLUDED.service,
			muted = EXCLUDED.muted,
			last_activity = GREATEST(bridge_rooms.last_activity, EXCLUDED.last_activity)
	`, room.UserID, room.RoomID, SanitizeUTF8(room.DisplayName), string(room.Service), room.Muted, activity)
	if err != nil {
		return fmt.Errorf("upsert bridge room: %w", err)
	}

	return nil
}
