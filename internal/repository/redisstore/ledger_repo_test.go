package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	repo "github.com/baharkarakas/resumeforge/internal/repository"
	"github.com/baharkarakas/resumeforge/internal/repository/repotest"
	"github.com/redis/go-redis/v9"
)

func newTestRepo(t *testing.T) *LedgerRepo {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewLedgerRepo(rdb)
}

func TestRedisLedger(t *testing.T) {
	repotest.RunLedgerSuite(t, func(t *testing.T) repo.Store { return newTestRepo(t) })
}

func TestUpdatedAtSurvivesClockSkew(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return fixed }

	if err := r.Credit(ctx, "u1", 1, "grant"); err != nil {
		t.Fatalf("Credit: %v", err)
	}
	first, _ := r.Balance(ctx, "u1")

	// Clock goes backwards.
	r.now = func() time.Time { return fixed.Add(-time.Hour) }
	if err := r.Credit(ctx, "u1", 1, "grant"); err != nil {
		t.Fatalf("Credit: %v", err)
	}
	second, _ := r.Balance(ctx, "u1")

	if !second.UpdatedAt.After(first.UpdatedAt) {
		t.Errorf("updatedAt went backwards: %v then %v", first.UpdatedAt, second.UpdatedAt)
	}
	if second.Balance != 2 {
		t.Errorf("balance: got %d, want 2", second.Balance)
	}
}
