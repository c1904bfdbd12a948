// Package services holds the request-level workflows on top of the ledger
// store: the debit-and-generate coordinator, the payment webhook reconciler,
// balance reads, checkout and anonymous sessions.
package services

import (
	"context"

	"github.com/baharkarakas/resumeforge/internal/events"
	"github.com/baharkarakas/resumeforge/internal/models"
)

// Generator produces tailored resume text. generator.Client implements it.
type Generator interface {
	Tailor(ctx context.Context, req models.GenerationRequest) (models.GenerationResult, error)
}

// Notifier receives ledger events after a mutation has been applied.
type Notifier interface {
	Notify(ctx context.Context, evt events.LedgerEvent)
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, events.LedgerEvent) {}

func orNop(n Notifier) Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}
