package repository

import (
	"context"

	"github.com/baharkarakas/resumeforge/internal/models"
)

// Ledger is the only place balances are mutated. Every implementation must
// serialize mutations per user: a debit is a single check-and-decrement, and
// CreditOnce checks and records the event id in the same atomic unit as the
// credit. Backend failures are wrapped in apperr.ErrStorageUnavailable.
type Ledger interface {
	// Balance returns the user's ledger, creating it with balance 0 on first read.
	Balance(ctx context.Context, userID string) (models.Ledger, error)
	// TryDebit decrements by cost when balance >= cost and reports whether it did.
	TryDebit(ctx context.Context, userID string, cost int64) (bool, error)
	// Credit increments unconditionally. kind labels the journal entry.
	Credit(ctx context.Context, userID string, amount int64, kind models.EntryKind) error
	// CreditOnce applies a purchase keyed by eventID. applied is false when
	// the event had already been applied.
	CreditOnce(ctx context.Context, userID string, amount int64, eventID string) (applied bool, err error)
}

type History interface {
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Entry, error)
}

// Store bundles what a ledger backend provides.
type Store interface {
	Ledger
	History
}
