package services

import (
	"context"
	"fmt"
	"math"

	"github.com/baharkarakas/resumeforge/internal/api/validate"
	"github.com/baharkarakas/resumeforge/internal/apperr"
	"github.com/baharkarakas/resumeforge/internal/events"
	"github.com/baharkarakas/resumeforge/internal/metrics"
	"github.com/baharkarakas/resumeforge/internal/models"
	repo "github.com/baharkarakas/resumeforge/internal/repository"
)

const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
)

type BalanceService struct {
	store  repo.Store
	notify Notifier
	bundle int64
}

// NewBalanceService reads balances and history. bundle is the credit count
// of one purchase, used by the development grant.
func NewBalanceService(s repo.Store, n Notifier, bundle int64) *BalanceService {
	return &BalanceService{store: s, notify: orNop(n), bundle: bundle}
}

func (s *BalanceService) Current(ctx context.Context, userID string) (models.Ledger, error) {
	return s.store.Balance(ctx, userID)
}

// History pages the journal newest first. A zero limit means the default.
func (s *BalanceService) History(ctx context.Context, userID string, limit, offset int) ([]models.Entry, error) {
	if limit == 0 {
		limit = DefaultHistoryLimit
	}
	var errs validate.Errs
	errs = errs.Add(
		validate.Range("limit", limit, 1, MaxHistoryLimit),
		validate.Range("offset", offset, 0, math.MaxInt32),
	)
	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", apperr.ErrInvalidInput, errs)
	}
	return s.store.ListByUser(ctx, userID, limit, offset)
}

// Grant simulates a purchase of one bundle. Routed only outside production.
func (s *BalanceService) Grant(ctx context.Context, userID string) (models.Ledger, error) {
	if err := s.store.Credit(ctx, userID, s.bundle, models.EntryGrant); err != nil {
		return models.Ledger{}, err
	}
	metrics.LedgerMutationsTotal.WithLabelValues(string(models.EntryGrant)).Inc()
	s.notify.Notify(ctx, events.LedgerEvent{Kind: events.KindGranted, UserID: userID, Amount: s.bundle})
	return s.store.Balance(ctx, userID)
}
