// Package repotest holds behavior tests every ledger backend must pass.
package repotest

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/baharkarakas/resumeforge/internal/models"
	repo "github.com/baharkarakas/resumeforge/internal/repository"
	"github.com/google/uuid"
)

// RunLedgerSuite exercises the ledger contract against a fresh store per
// subtest. User and event ids are random so a shared database works.
func RunLedgerSuite(t *testing.T, newStore func(t *testing.T) repo.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing ledger reads as zero", func(t *testing.T) {
		s := newStore(t)
		uid := uuid.NewString()
		l, err := s.Balance(ctx, uid)
		if err != nil {
			t.Fatalf("Balance: %v", err)
		}
		if l.Balance != 0 || l.UserID != uid {
			t.Errorf("got %+v, want zero ledger for %s", l, uid)
		}
	})

	t.Run("debit rejected without write", func(t *testing.T) {
		s := newStore(t)
		uid := uuid.NewString()
		before, _ := s.Balance(ctx, uid)

		ok, err := s.TryDebit(ctx, uid, 1)
		if err != nil {
			t.Fatalf("TryDebit: %v", err)
		}
		if ok {
			t.Fatal("debit on empty ledger must fail")
		}
		after, _ := s.Balance(ctx, uid)
		if after.Balance != 0 || !after.UpdatedAt.Equal(before.UpdatedAt) {
			t.Errorf("rejected debit mutated ledger: before %+v after %+v", before, after)
		}
		entries, _ := s.ListByUser(ctx, uid, 10, 0)
		if len(entries) != 0 {
			t.Errorf("rejected debit wrote %d entries", len(entries))
		}
	})

	t.Run("credit then debit", func(t *testing.T) {
		s := newStore(t)
		uid := uuid.NewString()
		if err := s.Credit(ctx, uid, 2, models.EntryGrant); err != nil {
			t.Fatalf("Credit: %v", err)
		}
		first, _ := s.Balance(ctx, uid)

		ok, err := s.TryDebit(ctx, uid, 1)
		if err != nil || !ok {
			t.Fatalf("TryDebit: ok=%v err=%v", ok, err)
		}
		second, _ := s.Balance(ctx, uid)
		if second.Balance != 1 {
			t.Errorf("balance: got %d, want 1", second.Balance)
		}
		if !second.UpdatedAt.After(first.UpdatedAt) {
			t.Errorf("updatedAt must increase: %v then %v", first.UpdatedAt, second.UpdatedAt)
		}

		entries, err := s.ListByUser(ctx, uid, 10, 0)
		if err != nil {
			t.Fatalf("ListByUser: %v", err)
		}
		if len(entries) != 2 {
			t.Fatalf("entries: got %d, want 2", len(entries))
		}
		if entries[0].Kind != models.EntryDebit || entries[0].BalanceAfter != 1 {
			t.Errorf("newest entry: got %+v", entries[0])
		}
		if entries[1].Kind != models.EntryGrant || entries[1].Amount != 2 {
			t.Errorf("oldest entry: got %+v", entries[1])
		}
	})

	t.Run("credit once is idempotent", func(t *testing.T) {
		s := newStore(t)
		uid := uuid.NewString()
		evt := "evt_" + uuid.NewString()

		applied, err := s.CreditOnce(ctx, uid, 5, evt)
		if err != nil || !applied {
			t.Fatalf("first CreditOnce: applied=%v err=%v", applied, err)
		}
		applied, err = s.CreditOnce(ctx, uid, 5, evt)
		if err != nil {
			t.Fatalf("second CreditOnce: %v", err)
		}
		if applied {
			t.Error("redelivered event must not apply")
		}
		l, _ := s.Balance(ctx, uid)
		if l.Balance != 5 {
			t.Errorf("balance: got %d, want 5", l.Balance)
		}
		entries, _ := s.ListByUser(ctx, uid, 10, 0)
		if len(entries) != 1 || entries[0].EventID == nil || *entries[0].EventID != evt {
			t.Errorf("expected one purchase entry tagged with %s, got %+v", evt, entries)
		}
	})

	t.Run("concurrent debits never overdraw", func(t *testing.T) {
		s := newStore(t)
		uid := uuid.NewString()
		const balance, callers = 3, 20
		if err := s.Credit(ctx, uid, balance, models.EntryGrant); err != nil {
			t.Fatalf("Credit: %v", err)
		}

		var wins atomic.Int64
		var wg sync.WaitGroup
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ok, err := s.TryDebit(ctx, uid, 1)
				if err != nil {
					t.Errorf("TryDebit: %v", err)
					return
				}
				if ok {
					wins.Add(1)
				}
			}()
		}
		wg.Wait()

		if wins.Load() != balance {
			t.Errorf("successful debits: got %d, want %d", wins.Load(), balance)
		}
		l, _ := s.Balance(ctx, uid)
		if l.Balance != 0 {
			t.Errorf("balance: got %d, want 0", l.Balance)
		}
	})

	t.Run("concurrent mixed operations keep balance consistent", func(t *testing.T) {
		s := newStore(t)
		uid := uuid.NewString()
		evt := "evt_" + uuid.NewString()

		var debits, refunds atomic.Int64
		var wg sync.WaitGroup
		for i := 0; i < 30; i++ {
			wg.Add(3)
			go func() {
				defer wg.Done()
				if ok, err := s.TryDebit(ctx, uid, 1); err == nil && ok {
					debits.Add(1)
				}
			}()
			go func() {
				defer wg.Done()
				if err := s.Credit(ctx, uid, 1, models.EntryRefund); err == nil {
					refunds.Add(1)
				}
			}()
			go func() {
				defer wg.Done()
				_, _ = s.CreditOnce(ctx, uid, 4, evt)
			}()
		}
		wg.Wait()

		l, _ := s.Balance(ctx, uid)
		want := 4 + refunds.Load() - debits.Load()
		if l.Balance != want || l.Balance < 0 {
			t.Errorf("balance: got %d, want %d (non-negative)", l.Balance, want)
		}
	})

	t.Run("history paging", func(t *testing.T) {
		s := newStore(t)
		uid := uuid.NewString()
		for i := 0; i < 5; i++ {
			if err := s.Credit(ctx, uid, int64(i+1), models.EntryGrant); err != nil {
				t.Fatalf("Credit: %v", err)
			}
		}
		page, err := s.ListByUser(ctx, uid, 2, 1)
		if err != nil {
			t.Fatalf("ListByUser: %v", err)
		}
		if len(page) != 2 {
			t.Fatalf("page size: got %d, want 2", len(page))
		}
		if page[0].Amount != 4 || page[1].Amount != 3 {
			t.Errorf("page order: got amounts %d, %d; want 4, 3", page[0].Amount, page[1].Amount)
		}
	})
}
