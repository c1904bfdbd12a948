package services

import (
	"context"
	"errors"
	"testing"

	"github.com/baharkarakas/resumeforge/internal/apperr"
	"github.com/baharkarakas/resumeforge/internal/models"
)

func TestBalanceCurrentMissingUser(t *testing.T) {
	svc := NewBalanceService(newFlakyLedger(), nil, 5)
	got, err := svc.Current(context.Background(), "new-user")
	if err != nil {
		t.Fatal(err)
	}
	if got.Balance != 0 || got.UserID != "new-user" {
		t.Errorf("unexpected ledger: %+v", got)
	}
}

func TestGrantAndHistory(t *testing.T) {
	l := newFlakyLedger()
	svc := NewBalanceService(l, nil, 5)
	ctx := context.Background()

	led, err := svc.Grant(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if led.Balance != 5 {
		t.Errorf("balance after grant = %d", led.Balance)
	}
	if _, err := l.TryDebit(ctx, "u1", 1); err != nil {
		t.Fatal(err)
	}

	entries, err := svc.History(ctx, "u1", 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 || entries[0].Kind != models.EntryDebit || entries[1].Kind != models.EntryGrant {
		t.Errorf("unexpected history: %+v", entries)
	}

	for _, page := range []struct{ limit, offset int }{{10, -1}, {-1, 0}, {MaxHistoryLimit + 1, 0}} {
		if _, err := svc.History(ctx, "u1", page.limit, page.offset); !errors.Is(err, apperr.ErrInvalidInput) {
			t.Errorf("limit=%d offset=%d: got %v, want ErrInvalidInput", page.limit, page.offset, err)
		}
	}
	if entries, err := svc.History(ctx, "u1", MaxHistoryLimit, 1); err != nil || len(entries) != 1 {
		t.Errorf("max limit: entries=%v err=%v", entries, err)
	}
}
