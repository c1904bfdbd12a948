// Package memory is a process-local ledger used in dev and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/baharkarakas/resumeforge/internal/models"
	"github.com/google/uuid"
)

type Store struct {
	mu      sync.Mutex
	ledgers map[string]*models.Ledger
	entries map[string][]models.Entry
	events  map[string]struct{}
	now     func() time.Time
}

func New() *Store {
	return &Store{
		ledgers: make(map[string]*models.Ledger),
		entries: make(map[string][]models.Entry),
		events:  make(map[string]struct{}),
		now:     time.Now,
	}
}

// ledger must be called with mu held.
func (s *Store) ledger(userID string) *models.Ledger {
	l, ok := s.ledgers[userID]
	if !ok {
		l = &models.Ledger{UserID: userID, UpdatedAt: s.now()}
		s.ledgers[userID] = l
	}
	return l
}

// apply must be called with mu held.
func (s *Store) apply(l *models.Ledger, kind models.EntryKind, delta int64, eventID *string) {
	l.Balance += delta
	l.UpdatedAt = models.NextUpdatedAt(l.UpdatedAt, s.now())

	amount := delta
	if amount < 0 {
		amount = -amount
	}
	s.entries[l.UserID] = append(s.entries[l.UserID], models.Entry{
		ID:           uuid.NewString(),
		UserID:       l.UserID,
		Kind:         kind,
		Amount:       amount,
		BalanceAfter: l.Balance,
		EventID:      eventID,
		CreatedAt:    l.UpdatedAt,
	})
}

func (s *Store) Balance(_ context.Context, userID string) (models.Ledger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.ledger(userID), nil
}

func (s *Store) TryDebit(_ context.Context, userID string, cost int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := s.ledger(userID)
	if l.Balance < cost {
		return false, nil
	}
	s.apply(l, models.EntryDebit, -cost, nil)
	return true, nil
}

func (s *Store) Credit(_ context.Context, userID string, amount int64, kind models.EntryKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.apply(s.ledger(userID), kind, amount, nil)
	return nil
}

func (s *Store) CreditOnce(_ context.Context, userID string, amount int64, eventID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, seen := s.events[eventID]; seen {
		return false, nil
	}
	s.events[eventID] = struct{}{}
	id := eventID
	s.apply(s.ledger(userID), models.EntryPurchase, amount, &id)
	return true, nil
}

func (s *Store) ListByUser(_ context.Context, userID string, limit, offset int) ([]models.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := append([]models.Entry(nil), s.entries[userID]...)
	sort.SliceStable(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	if offset > len(all) {
		offset = len(all)
	}
	end := offset + limit
	if limit <= 0 || end > len(all) {
		end = len(all)
	}
	return append([]models.Entry{}, all[offset:end]...), nil
}
