package services

import (
	"context"
	"errors"
	"sync"

	"github.com/baharkarakas/resumeforge/internal/apperr"
	"github.com/baharkarakas/resumeforge/internal/events"
	"github.com/baharkarakas/resumeforge/internal/models"
	"github.com/baharkarakas/resumeforge/internal/repository/memory"
)

var errDBDown = errors.New("connection refused")

// flakyLedger wraps the memory store and fails selected operations.
type flakyLedger struct {
	*memory.Store
	debitErr  error
	creditErr error
	onceErr   error
}

func newFlakyLedger() *flakyLedger { return &flakyLedger{Store: memory.New()} }

func (f *flakyLedger) TryDebit(ctx context.Context, userID string, cost int64) (bool, error) {
	if f.debitErr != nil {
		return false, apperr.Storage("try debit", f.debitErr)
	}
	return f.Store.TryDebit(ctx, userID, cost)
}

func (f *flakyLedger) Credit(ctx context.Context, userID string, amount int64, kind models.EntryKind) error {
	if f.creditErr != nil {
		return apperr.Storage("credit", f.creditErr)
	}
	return f.Store.Credit(ctx, userID, amount, kind)
}

func (f *flakyLedger) CreditOnce(ctx context.Context, userID string, amount int64, eventID string) (bool, error) {
	if f.onceErr != nil {
		return false, apperr.Storage("credit once", f.onceErr)
	}
	return f.Store.CreditOnce(ctx, userID, amount, eventID)
}

type fakeGenerator struct {
	mu    sync.Mutex
	res   models.GenerationResult
	err   error
	calls int
	block bool
}

func (g *fakeGenerator) Tailor(ctx context.Context, _ models.GenerationRequest) (models.GenerationResult, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()
	if g.block {
		<-ctx.Done()
		return models.GenerationResult{}, ctx.Err()
	}
	return g.res, g.err
}

func (g *fakeGenerator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []events.LedgerEvent
}

func (n *recordingNotifier) Notify(_ context.Context, evt events.LedgerEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, evt)
}

func (n *recordingNotifier) kinds() []events.Kind {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]events.Kind, 0, len(n.events))
	for _, e := range n.events {
		out = append(out, e.Kind)
	}
	return out
}

type fakeVerifier struct {
	evt       models.PaymentEvent
	completed bool
	err       error
}

func (v fakeVerifier) Verify([]byte, string) (models.PaymentEvent, bool, error) {
	return v.evt, v.completed, v.err
}

func seed(t interface{ Fatal(...any) }, l *flakyLedger, userID string, amount int64) {
	if amount == 0 {
		return
	}
	if err := l.Store.Credit(context.Background(), userID, amount, models.EntryGrant); err != nil {
		t.Fatal(err)
	}
}

func balance(t interface{ Fatal(...any) }, l *flakyLedger, userID string) int64 {
	b, err := l.Store.Balance(context.Background(), userID)
	if err != nil {
		t.Fatal(err)
	}
	return b.Balance
}
