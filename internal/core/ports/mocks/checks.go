package mocks

import (
	"context"
	"sort"

	"github.com/lueurxax/proactive-notifier/internal/core/domain"
)

// AddWaitingCheck stores a check and returns its id.
func (s *Store) AddWaitingCheck(c domain.WaitingCheck) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.createCheckLocked(c)
}

func (s *Store) createCheckLocked(c domain.WaitingCheck) int64 {
	if c.ID == 0 {
		s.nextCheckID++
		c.ID = s.nextCheckID
	} else if c.ID > s.nextCheckID {
		s.nextCheckID = c.ID
	}

	s.waitingChecks[c.ID] = c

	return c.ID
}

// WaitingCheckCount returns how many checks are stored.
func (s *Store) WaitingCheckCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.waitingChecks)
}

// ListWaitingChecks implements ports.WaitingCheckStore.
func (s *Store) ListWaitingChecks(_ context.Context, userID int64, serviceTypes ...string) ([]domain.WaitingCheck, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	allowed := make(map[string]bool, len(serviceTypes))
	for _, st := range serviceTypes {
		allowed[st] = true
	}

	var out []domain.WaitingCheck

	for _, c := range s.waitingChecks {
		if c.UserID != userID {
			continue
		}

		if len(allowed) > 0 && !allowed[c.ServiceType] {
			continue
		}

		out = append(out, c)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}

// CreateWaitingCheck implements ports.WaitingCheckStore.
func (s *Store) CreateWaitingCheck(_ context.Context, check domain.WaitingCheck) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	check.ID = 0

	return s.createCheckLocked(check), nil
}

// DeleteWaitingCheck implements ports.WaitingCheckStore.
func (s *Store) DeleteWaitingCheck(ctx context.Context, userID, checkID int64) (bool, error) {
	if s.DeleteWaitingCheckFn != nil {
		return s.DeleteWaitingCheckFn(ctx, userID, checkID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.waitingChecks[checkID]
	if !ok || c.UserID != userID {
		return false, nil
	}

	delete(s.waitingChecks, checkID)

	return true, nil
}

// AddPrioritySender stores a priority contact.
func (s *Store) AddPrioritySender(p domain.PrioritySender) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == 0 {
		p.ID = int64(len(s.priority) + 1)
	}

	s.priority = append(s.priority, p)
}

// ListPrioritySenders implements ports.PrioritySenderStore.
func (s *Store) ListPrioritySenders(_ context.Context, userID int64, service string) ([]domain.PrioritySender, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.PrioritySender

	for _, p := range s.priority {
		if p.UserID == userID && p.ServiceType == service {
			out = append(out, p)
		}
	}

	return out, nil
}
