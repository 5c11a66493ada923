package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/lueurxax/proactive-notifier/internal/core/domain"
)

const bridgeEventColumns = `
	event_id, user_id, room_id, room_name, service, sender, sender_display_name,
	is_own, msgtype, body, formatted_body, ts, member_count, mentions_user, is_management_room`

func scanBridgeEvent(row pgx.Row) (domain.BridgeEvent, error) {
	var (
		ev      domain.BridgeEvent
		service string
	)

	err := row.Scan(
		&ev.EventID, &ev.UserID, &ev.RoomID, &ev.RoomName, &service, &ev.Sender, &ev.SenderDisplayName,
		&ev.IsOwn, &ev.MsgType, &ev.Body, &ev.FormattedBody, &ev.Timestamp, &ev.MemberCount,
		&ev.MentionsUser, &ev.IsManagementRoom,
	)
	if err != nil {
		return domain.BridgeEvent{}, err
	}

	ev.Service = domain.Service(service)

	return ev, nil
}

func collectBridgeEvents(rows pgx.Rows) ([]domain.BridgeEvent, error) {
	defer rows.Close()

	var events []domain.BridgeEvent

	for rows.Next() {
		ev, err := scanBridgeEvent(rows)
		if err != nil {
			return nil, fmt.Errorf(errFmtScanRow, "bridge event", err)
		}

		events = append(events, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bridge event rows: %w", err)
	}

	return events, nil
}

// SaveBridgeEvent mirrors one timeline event and bumps the room's activity.
// It reports false when the event was already stored.
func (db *DB) SaveBridgeEvent(ctx context.Context, ev domain.BridgeEvent, needsTriage bool) (bool, error) {
	var inserted bool

	err := pgx.BeginFunc(ctx, db.Pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			INSERT INTO bridge_events (`+bridgeEventColumns+`, needs_triage)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
			ON CONFLICT (event_id) DO NOTHING
		`,
			ev.EventID, ev.UserID, ev.RoomID, SanitizeUTF8(ev.RoomName), string(ev.Service), ev.Sender,
			SanitizeUTF8(ev.SenderDisplayName), ev.IsOwn, ev.MsgType, SanitizeUTF8(ev.Body),
			SanitizeUTF8(ev.FormattedBody), ev.Timestamp, safeIntToInt32(ev.MemberCount), ev.MentionsUser,
			ev.IsManagementRoom, needsTriage,
		)
		if err != nil {
			return fmt.Errorf("insert bridge event: %w", err)
		}

		inserted = tag.RowsAffected() > 0
		if !inserted || ev.IsManagementRoom || ev.Service == "" {
			return nil
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO bridge_rooms (user_id, room_id, display_name, service, last_activity)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (user_id, room_id) DO UPDATE SET
				display_name = CASE WHEN EXCLUDED.display_name <> '' THEN EXCLUDED.display_name ELSE bridge_rooms.display_name END,
				last_activity = GREATEST(bridge_rooms.last_activity, EXCLUDED.last_activity)
		`, ev.UserID, ev.RoomID, SanitizeUTF8(ev.RoomName), string(ev.Service), ev.Timestamp)
		if err != nil {
			return fmt.Errorf("touch bridge room: %w", err)
		}

		return nil
	})
	if err != nil {
		return false, fmt.Errorf("save bridge event: %w", err)
	}

	return inserted, nil
}

// UpsertReadReceipt keeps the newest receipt per room.
func (db *DB) UpsertReadReceipt(ctx context.Context, userID int64, roomID string, receipt domain.ReadReceipt) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO read_receipts (user_id, room_id, event_id, ts)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, room_id) DO UPDATE SET
			event_id = EXCLUDED.event_id,
			ts = EXCLUDED.ts
		WHERE read_receipts.ts <= EXCLUDED.ts
	`, userID, roomID, receipt.EventID, receipt.Timestamp)
	if err != nil {
		return fmt.Errorf("upsert read receipt: %w", err)
	}

	return nil
}

// ReadReceipt returns the user's receipt in a room, or nil when there is none.
func (db *DB) ReadReceipt(ctx context.Context, userID int64, roomID string) (*domain.ReadReceipt, error) {
	var r domain.ReadReceipt

	err := db.Pool.QueryRow(ctx, `
		SELECT event_id, ts FROM read_receipts WHERE user_id = $1 AND room_id = $2
	`, userID, roomID).Scan(&r.EventID, &r.Timestamp)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil //nolint:nilnil // absence of a receipt is not an error
	}

	if err != nil {
		return nil, fmt.Errorf("get read receipt: %w", err)
	}

	return &r, nil
}

// RecentRoomEvents returns the newest events of a room, newest first.
func (db *DB) RecentRoomEvents(ctx context.Context, userID int64, roomID string, limit int) ([]domain.BridgeEvent, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT `+bridgeEventColumns+`
		FROM bridge_events
		WHERE user_id = $1 AND room_id = $2
		ORDER BY ts DESC
		LIMIT $3
	`, userID, roomID, safeIntToInt32(limit))
	if err != nil {
		return nil, fmt.Errorf("get recent room events: %w", err)
	}

	return collectBridgeEvents(rows)
}

// RecentUnreadEvents returns incoming events after since and after the room's
// read receipt, from the most active non-muted rooms of the service.
func (db *DB) RecentUnreadEvents(ctx context.Context, userID int64, service domain.Service, since time.Time) ([]domain.BridgeEvent, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT e.event_id, e.user_id, e.room_id, e.room_name, e.service, e.sender, e.sender_display_name,
		       e.is_own, e.msgtype, e.body, e.formatted_body, e.ts, e.member_count, e.mentions_user,
		       e.is_management_room
		FROM (
			SELECT room_id, last_activity
			FROM bridge_rooms
			WHERE user_id = $1 AND service = $2 AND NOT muted
			ORDER BY last_activity DESC
			LIMIT $4
		) r
		LEFT JOIN read_receipts rr ON rr.user_id = $1 AND rr.room_id = r.room_id
		CROSS JOIN LATERAL (
			SELECT be.*
			FROM bridge_events be
			WHERE be.user_id = $1
			  AND be.room_id = r.room_id
			  AND be.ts >= $3
			  AND NOT be.is_own
			  AND (rr.ts IS NULL OR be.ts > rr.ts)
			ORDER BY be.ts DESC
			LIMIT $5
		) e
		ORDER BY r.last_activity DESC, e.room_id, e.ts DESC
	`, userID, string(service), since, digestRoomLimit, digestRoomScan)
	if err != nil {
		return nil, fmt.Errorf("get recent unread events: %w", err)
	}

	return collectBridgeEvents(rows)
}

// ClaimPendingEvents marks up to limit untriaged events as claimed and returns them.
// Concurrent workers never receive the same event.
func (db *DB) ClaimPendingEvents(ctx context.Context, limit int) ([]domain.BridgeEvent, error) {
	rows, err := db.Pool.Query(ctx, `
		UPDATE bridge_events SET claimed_at = now()
		WHERE event_id IN (
			SELECT event_id FROM bridge_events
			WHERE needs_triage AND processed_at IS NULL AND claimed_at IS NULL
			ORDER BY created_at
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING `+bridgeEventColumns,
		safeIntToInt32(limit))
	if err != nil {
		return nil, fmt.Errorf("claim pending events: %w", err)
	}

	return collectBridgeEvents(rows)
}

// MarkEventProcessed records the triage outcome of an event.
func (db *DB) MarkEventProcessed(ctx context.Context, eventID, outcome string) error {
	_, err := db.Pool.Exec(ctx, `
		UPDATE bridge_events SET processed_at = now(), outcome = $2
		WHERE event_id = $1
	`, eventID, outcome)
	if err != nil {
		return fmt.Errorf("mark event processed: %w", err)
	}

	return nil
}

// ReleaseStaleClaims returns claims older than olderThan to the queue, for
// pipelines lost to a crash or restart.
func (db *DB) ReleaseStaleClaims(ctx context.Context, olderThan time.Duration) (int64, error) {
	tag, err := db.Pool.Exec(ctx, `
		UPDATE bridge_events SET claimed_at = NULL
		WHERE processed_at IS NULL AND claimed_at < $1
	`, time.Now().Add(-olderThan))
	if err != nil {
		return 0, fmt.Errorf("release stale claims: %w", err)
	}

	return tag.RowsAffected(), nil
}
