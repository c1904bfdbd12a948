package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/baharkarakas/resumeforge/internal/db"
	"github.com/baharkarakas/resumeforge/internal/models"
	repo "github.com/baharkarakas/resumeforge/internal/repository"
	"github.com/baharkarakas/resumeforge/internal/repository/repotest"
	"github.com/google/uuid"
)

// Runs against a real database when TEST_DATABASE_URL is set.
func TestPostgresLedger(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	if err := db.RunMigrations(ctx, dsn, "up"); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	pool, err := db.NewPool(ctx, dsn)
	if err != nil {
		t.Fatalf("pool: %v", err)
	}
	t.Cleanup(pool.Close)

	repos := NewRepositories(pool)
	repotest.RunLedgerSuite(t, func(t *testing.T) repo.Store { return repos.Store() })
}

func TestPostgresBalanceReadDoesNotWrite(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	if err := db.RunMigrations(ctx, dsn, "up"); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	pool, err := db.NewPool(ctx, dsn)
	if err != nil {
		t.Fatalf("pool: %v", err)
	}
	t.Cleanup(pool.Close)

	r := NewLedgerRepo(pool)
	uid := uuid.NewString()
	if err := r.Credit(ctx, uid, 3, models.EntryGrant); err != nil {
		t.Fatalf("Credit: %v", err)
	}

	xmin := func() string {
		var v string
		if err := pool.QueryRow(ctx, `SELECT xmin::text FROM ledgers WHERE user_id = $1`, uid).Scan(&v); err != nil {
			t.Fatalf("xmin: %v", err)
		}
		return v
	}
	before := xmin()
	for range 3 {
		l, err := r.Balance(ctx, uid)
		if err != nil {
			t.Fatalf("Balance: %v", err)
		}
		if l.Balance != 3 {
			t.Fatalf("balance = %d, want 3", l.Balance)
		}
	}
	if after := xmin(); after != before {
		t.Errorf("row version changed by reads: %s -> %s", before, after)
	}
}
