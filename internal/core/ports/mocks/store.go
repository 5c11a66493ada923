package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/lueurxax/proactive-notifier/internal/core/domain"
	apperrors "github.com/lueurxax/proactive-notifier/internal/core/errors"
)

type roomKey struct {
	userID int64
	roomID string
}

type bridgeKey struct {
	userID  int64
	service domain.Service
}

// Store is a thread-safe in-memory implementation of the persistence ports.
type Store struct {
	mu sync.RWMutex

	users         map[int64]domain.UserSettings
	bridges       map[bridgeKey]domain.Bridge
	rooms         map[roomKey]domain.BridgeRoom
	events        map[string]domain.BridgeEvent
	eventOrder    []string
	pending       map[string]bool
	claimed       map[string]time.Time
	outcomes      map[string]string
	receipts      map[roomKey]domain.ReadReceipt
	waitingChecks map[int64]domain.WaitingCheck
	nextCheckID   int64
	priority      []domain.PrioritySender
	notifications []domain.NotificationRecord
	history       []domain.HistoryEntry
	credits       map[int64]float64
	emailUsers    map[int64]bool
	emails        []domain.Email
	locks         map[int64]bool

	// Now is the clock used for cooldown windows. Defaults to time.Now.
	Now func() time.Time

	// GetUserSettingsFn allows overriding GetUserSettings behavior.
	GetUserSettingsFn func(ctx context.Context, userID int64) (*domain.UserSettings, error)

	// GetBridgeFn allows overriding GetBridge behavior.
	GetBridgeFn func(ctx context.Context, userID int64, service domain.Service) (*domain.Bridge, error)

	// ReadReceiptFn allows overriding ReadReceipt behavior.
	ReadReceiptFn func(ctx context.Context, userID int64, roomID string) (*domain.ReadReceipt, error)

	// RecentRoomEventsFn allows overriding RecentRoomEvents behavior.
	RecentRoomEventsFn func(ctx context.Context, userID int64, roomID string, limit int) ([]domain.BridgeEvent, error)

	// RecentUnreadEventsFn allows overriding RecentUnreadEvents behavior.
	RecentUnreadEventsFn func(ctx context.Context, userID int64, service domain.Service, since time.Time) ([]domain.BridgeEvent, error)

	// DeleteWaitingCheckFn allows overriding DeleteWaitingCheck behavior.
	DeleteWaitingCheckFn func(ctx context.Context, userID, checkID int64) (bool, error)

	// RecentEmailsFn allows overriding RecentEmails behavior.
	RecentEmailsFn func(ctx context.Context, userID int64, limit int) ([]domain.Email, error)
}

// NewStore creates an empty mock store.
func NewStore() *Store {
	return &Store{
		users:         make(map[int64]domain.UserSettings),
		bridges:       make(map[bridgeKey]domain.Bridge),
		rooms:         make(map[roomKey]domain.BridgeRoom),
		events:        make(map[string]domain.BridgeEvent),
		pending:       make(map[string]bool),
		claimed:       make(map[string]time.Time),
		outcomes:      make(map[string]string),
		receipts:      make(map[roomKey]domain.ReadReceipt),
		waitingChecks: make(map[int64]domain.WaitingCheck),
		credits:       make(map[int64]float64),
		emailUsers:    make(map[int64]bool),
		locks:         make(map[int64]bool),
	}
}

func (s *Store) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}

	return time.Now()
}

// PutUser stores user settings.
func (s *Store) PutUser(u domain.UserSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users[u.UserID] = u
}

// GetUserSettings implements ports.UserStore.
func (s *Store) GetUserSettings(ctx context.Context, userID int64) (*domain.UserSettings, error) {
	if s.GetUserSettingsFn != nil {
		return s.GetUserSettingsFn(ctx, userID)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}

	return &u, nil
}

// ListDigestUsers implements ports.UserStore.
func (s *Store) ListDigestUsers(_ context.Context) ([]domain.UserSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.UserSettings

	for _, u := range s.users {
		if u.Digest.AnyEnabled() {
			out = append(out, u)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })

	return out, nil
}

// PutBridge stores a bridge.
func (s *Store) PutBridge(b domain.Bridge) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.bridges[bridgeKey{b.UserID, domain.Service(b.BridgeType)}] = b
}

// GetBridge implements ports.BridgeStore.
func (s *Store) GetBridge(ctx context.Context, userID int64, service domain.Service) (*domain.Bridge, error) {
	if s.GetBridgeFn != nil {
		return s.GetBridgeFn(ctx, userID, service)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.bridges[bridgeKey{userID, service}]
	if !ok {
		return nil, apperrors.ErrBridgeNotFound
	}

	return &b, nil
}

// ListBridges implements ports.BridgeStore.
func (s *Store) ListBridges(_ context.Context, userID int64) ([]domain.Bridge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Bridge

	for k, b := range s.bridges {
		if k.userID == userID {
			out = append(out, b)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].BridgeType < out[j].BridgeType })

	return out, nil
}

// UpdateBridgeLastSeen implements ports.BridgeStore.
func (s *Store) UpdateBridgeLastSeen(_ context.Context, userID int64, service domain.Service, seen time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := bridgeKey{userID, service}

	b, ok := s.bridges[k]
	if !ok {
		return nil
	}

	seen = time.Unix(seen.Unix(), 0).UTC()
	b.LastSeenOnline = &seen
	s.bridges[k] = b

	return nil
}

// DeleteBridge implements ports.BridgeStore.
func (s *Store) DeleteBridge(_ context.Context, userID int64, service domain.Service) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.bridges, bridgeKey{userID, service})

	return nil
}

// LastSeen returns the stored watermark of a bridge.
func (s *Store) LastSeen(userID int64, service domain.Service) *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.bridges[bridgeKey{userID, service}]
	if !ok {
		return nil
	}

	return b.LastSeenOnline
}

// IsRoomMuted implements ports.RoomStore.
func (s *Store) IsRoomMuted(_ context.Context, userID int64, roomID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.rooms[roomKey{userID, roomID}].Muted, nil
}

// UpsertRoom implements ports.RoomStore.
func (s *Store) UpsertRoom(_ context.Context, room domain.BridgeRoom) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rooms[roomKey{room.UserID, room.RoomID}] = room

	return nil
}

// TryAcquireAdvisoryLock implements ports.LockStore.
func (s *Store) TryAcquireAdvisoryLock(_ context.Context, lockID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.locks[lockID] {
		return false, nil
	}

	s.locks[lockID] = true

	return true, nil
}

// ReleaseAdvisoryLock implements ports.LockStore.
func (s *Store) ReleaseAdvisoryLock(_ context.Context, lockID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.locks, lockID)

	return nil
}
