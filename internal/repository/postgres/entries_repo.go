package postgres

import (
	"context"

	"github.com/baharkarakas/resumeforge/internal/apperr"
	"github.com/baharkarakas/resumeforge/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

type entriesRepo struct{ pool *pgxpool.Pool }

func (r *entriesRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Entry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id::text, user_id, kind, amount, balance_after, event_id, created_at
		   FROM ledger_entries
		  WHERE user_id = $1
		  ORDER BY created_at DESC
		  LIMIT $2 OFFSET $3`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, apperr.Storage("list entries", err)
	}
	defer rows.Close()

	out := []models.Entry{}
	for rows.Next() {
		var e models.Entry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Kind, &e.Amount, &e.BalanceAfter, &e.EventID, &e.CreatedAt); err != nil {
			return nil, apperr.Storage("scan entry", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage("list entries", err)
	}
	return out, nil
}
