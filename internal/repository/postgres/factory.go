package postgres

import (
	repo "github.com/baharkarakas/resumeforge/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repositories struct {
	Ledger  repo.Ledger
	History repo.History
}

func NewRepositories(pool *pgxpool.Pool) Repositories {
	l := NewLedgerRepo(pool)
	return Repositories{
		Ledger:  l,
		History: &entriesRepo{pool: pool},
	}
}

// Store returns a repository.Store backed by the same pool.
func (r Repositories) Store() repo.Store {
	return struct {
		repo.Ledger
		repo.History
	}{r.Ledger, r.History}
}
