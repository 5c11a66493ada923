package mocks

import (
	"context"
	"sort"
	"time"

	"github.com/lueurxax/proactive-notifier/internal/core/domain"
)

const (
	unreadRoomLimit = 5
	unreadRoomScan  = 50
)

// AddEvent appends an event to the mirrored timeline without queueing it.
func (s *Store) AddEvent(ev domain.BridgeEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.addEventLocked(ev)
}

func (s *Store) addEventLocked(ev domain.BridgeEvent) bool {
	if _, ok := s.events[ev.EventID]; ok {
		return false
	}

	s.events[ev.EventID] = ev
	s.eventOrder = append(s.eventOrder, ev.EventID)

	if ev.IsManagementRoom || ev.Service == "" {
		return true
	}

	k := roomKey{ev.UserID, ev.RoomID}
	room := s.rooms[k]
	room.UserID, room.RoomID, room.Service = ev.UserID, ev.RoomID, ev.Service

	if ev.RoomName != "" {
		room.DisplayName = ev.RoomName
	}

	if ev.Timestamp.After(room.LastActivity) {
		room.LastActivity = ev.Timestamp
	}

	s.rooms[k] = room

	return true
}

// SetReceipt stores a read receipt directly.
func (s *Store) SetReceipt(userID int64, roomID string, r domain.ReadReceipt) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.receipts[roomKey{userID, roomID}] = r
}

// SaveBridgeEvent implements ports.EventQueue.
func (s *Store) SaveBridgeEvent(_ context.Context, ev domain.BridgeEvent, needsTriage bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.addEventLocked(ev) {
		return false, nil
	}

	if needsTriage {
		s.pending[ev.EventID] = true
	}

	return true, nil
}

// UpsertReadReceipt implements ports.EventQueue.
func (s *Store) UpsertReadReceipt(_ context.Context, userID int64, roomID string, receipt domain.ReadReceipt) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := roomKey{userID, roomID}
	if cur, ok := s.receipts[k]; ok && cur.Timestamp.After(receipt.Timestamp) {
		return nil
	}

	s.receipts[k] = receipt

	return nil
}

// ClaimPendingEvents implements ports.EventQueue.
func (s *Store) ClaimPendingEvents(_ context.Context, limit int) ([]domain.BridgeEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.BridgeEvent

	for _, id := range s.eventOrder {
		if len(out) >= limit {
			break
		}

		if !s.pending[id] {
			continue
		}

		if _, claimed := s.claimed[id]; claimed {
			continue
		}

		s.claimed[id] = s.now()
		out = append(out, s.events[id])
	}

	return out, nil
}

// MarkEventProcessed implements ports.EventQueue.
func (s *Store) MarkEventProcessed(_ context.Context, eventID, outcome string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.pending, eventID)
	delete(s.claimed, eventID)
	s.outcomes[eventID] = outcome

	return nil
}

// ReleaseStaleClaims implements ports.EventQueue.
func (s *Store) ReleaseStaleClaims(_ context.Context, olderThan time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-olderThan)

	var released int64

	for id, at := range s.claimed {
		if at.Before(cutoff) {
			delete(s.claimed, id)

			released++
		}
	}

	return released, nil
}

// Outcome returns the recorded triage outcome of an event.
func (s *Store) Outcome(eventID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.outcomes[eventID]

	return o, ok
}

// PendingCount returns how many events still wait for triage.
func (s *Store) PendingCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.pending)
}

// ReadReceipt implements ports.TimelineSource.
func (s *Store) ReadReceipt(ctx context.Context, userID int64, roomID string) (*domain.ReadReceipt, error) {
	if s.ReadReceiptFn != nil {
		return s.ReadReceiptFn(ctx, userID, roomID)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.receipts[roomKey{userID, roomID}]
	if !ok {
		return nil, nil //nolint:nilnil // absence of a receipt is not an error
	}

	return &r, nil
}

// RecentRoomEvents implements ports.TimelineSource.
func (s *Store) RecentRoomEvents(ctx context.Context, userID int64, roomID string, limit int) ([]domain.BridgeEvent, error) {
	if s.RecentRoomEventsFn != nil {
		return s.RecentRoomEventsFn(ctx, userID, roomID, limit)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.BridgeEvent

	for _, id := range s.eventOrder {
		ev := s.events[id]
		if ev.UserID == userID && ev.RoomID == roomID {
			out = append(out, ev)
		}
	}

	sortNewestFirst(out)

	if len(out) > limit {
		out = out[:limit]
	}

	return out, nil
}

// RecentUnreadEvents implements ports.BridgeMessageSource.
func (s *Store) RecentUnreadEvents(ctx context.Context, userID int64, service domain.Service, since time.Time) ([]domain.BridgeEvent, error) {
	if s.RecentUnreadEventsFn != nil {
		return s.RecentUnreadEventsFn(ctx, userID, service, since)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var rooms []domain.BridgeRoom

	for k, r := range s.rooms {
		if k.userID == userID && r.Service == service && !r.Muted {
			rooms = append(rooms, r)
		}
	}

	sort.Slice(rooms, func(i, j int) bool { return rooms[i].LastActivity.After(rooms[j].LastActivity) })

	if len(rooms) > unreadRoomLimit {
		rooms = rooms[:unreadRoomLimit]
	}

	var out []domain.BridgeEvent

	for _, room := range rooms {
		receipt, hasReceipt := s.receipts[roomKey{userID, room.RoomID}]

		var roomEvents []domain.BridgeEvent

		for _, id := range s.eventOrder {
			ev := s.events[id]
			if ev.UserID != userID || ev.RoomID != room.RoomID || ev.IsOwn || ev.Timestamp.Before(since) {
				continue
			}

			if hasReceipt && !ev.Timestamp.After(receipt.Timestamp) {
				continue
			}

			roomEvents = append(roomEvents, ev)
		}

		sortNewestFirst(roomEvents)

		if len(roomEvents) > unreadRoomScan {
			roomEvents = roomEvents[:unreadRoomScan]
		}

		out = append(out, roomEvents...)
	}

	return out, nil
}

func sortNewestFirst(events []domain.BridgeEvent) {
	sort.SliceStable(events, func(i, j int) bool { return events[i].Timestamp.After(events[j].Timestamp) })
}
