package mocks

import (
	"context"
	"time"

	"github.com/lueurxax/proactive-notifier/internal/core/domain"
)

// LogNotification implements ports.NotificationLog.
func (s *Store) LogNotification(_ context.Context, rec domain.NotificationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}

	s.notifications = append(s.notifications, rec)

	return nil
}

// HasRecentNotification implements ports.NotificationLog.
func (s *Store) HasRecentNotification(_ context.Context, userID int64, contentType string, window time.Duration) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cutoff := s.now().Add(-window)

	for _, rec := range s.notifications {
		if rec.UserID == userID && rec.ContentType == contentType && rec.CreatedAt.After(cutoff) {
			return true, nil
		}
	}

	return false, nil
}

// Notifications returns a copy of the usage log.
func (s *Store) Notifications() []domain.NotificationRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]domain.NotificationRecord(nil), s.notifications...)
}

// AppendHistory implements ports.HistoryStore.
func (s *Store) AppendHistory(_ context.Context, entry domain.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = append(s.history, entry)

	return nil
}

// History returns a copy of the stored history.
func (s *Store) History() []domain.HistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]domain.HistoryEntry(nil), s.history...)
}

// SetCredits sets a user's balance.
func (s *Store) SetCredits(userID int64, balance float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.credits[userID] = balance
}

// Credits returns a user's balance.
func (s *Store) Credits(userID int64) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.credits[userID]
}

// HasCredits implements ports.CreditStore.
func (s *Store) HasCredits(_ context.Context, userID int64, amount float64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.credits[userID] >= amount, nil
}

// DeductCredits implements ports.CreditStore.
func (s *Store) DeductCredits(_ context.Context, userID int64, amount float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.credits[userID] -= amount
	if s.credits[userID] < 0 {
		s.credits[userID] = 0
	}

	return nil
}

// SetEmailConnected toggles the user's mailbox connection.
func (s *Store) SetEmailConnected(userID int64, connected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.emailUsers[userID] = connected
}

// HasEmailConnection implements ports.EmailSource.
func (s *Store) HasEmailConnection(_ context.Context, userID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.emailUsers[userID], nil
}

// SaveEmail implements ports.EmailSource.
func (s *Store) SaveEmail(_ context.Context, email domain.Email) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.emails {
		if e.UserID == email.UserID && e.MessageID == email.MessageID {
			return nil
		}
	}

	s.emails = append(s.emails, email)

	return nil
}

// RecentEmails implements ports.EmailSource.
func (s *Store) RecentEmails(ctx context.Context, userID int64, limit int) ([]domain.Email, error) {
	if s.RecentEmailsFn != nil {
		return s.RecentEmailsFn(ctx, userID, limit)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Email

	for i := len(s.emails) - 1; i >= 0 && len(out) < limit; i-- {
		if s.emails[i].UserID == userID {
			out = append(out, s.emails[i])
		}
	}

	return out, nil
}
