package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/baharkarakas/resumeforge/internal/apperr"
	"github.com/baharkarakas/resumeforge/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type LedgerRepo struct{ pool *pgxpool.Pool }

func NewLedgerRepo(pool *pgxpool.Pool) *LedgerRepo { return &LedgerRepo{pool: pool} }

// updated_at never moves backwards even if the clock does.
const nextUpdatedAt = `GREATEST(now(), ledgers.updated_at + interval '1 microsecond')`

// Balance reads without writing; the ledger row is only inserted the first
// time a user is seen.
func (r *LedgerRepo) Balance(ctx context.Context, userID string) (models.Ledger, error) {
	l, err := r.selectLedger(ctx, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		if _, err = r.pool.Exec(ctx,
			`INSERT INTO ledgers(user_id, balance, updated_at)
			 VALUES($1, 0, now())
			 ON CONFLICT (user_id) DO NOTHING`,
			userID,
		); err == nil {
			l, err = r.selectLedger(ctx, userID)
		}
	}
	if err != nil {
		return models.Ledger{}, apperr.Storage("ledger balance", err)
	}
	return l, nil
}

func (r *LedgerRepo) selectLedger(ctx context.Context, userID string) (models.Ledger, error) {
	var l models.Ledger
	err := r.pool.QueryRow(ctx,
		`SELECT user_id, balance, updated_at FROM ledgers WHERE user_id = $1`,
		userID,
	).Scan(&l.UserID, &l.Balance, &l.UpdatedAt)
	return l, err
}

func (r *LedgerRepo) TryDebit(ctx context.Context, userID string, cost int64) (bool, error) {
	debited := false
	err := r.withTx(ctx, func(tx pgx.Tx) error {
		// The balance guard and the decrement are one statement; the row lock
		// serializes concurrent debits on the same user.
		var after balanceRow
		err := tx.QueryRow(ctx,
			`UPDATE ledgers
			    SET balance = balance - $2,
			        updated_at = `+nextUpdatedAt+`
			  WHERE user_id = $1 AND balance >= $2
			  RETURNING balance, updated_at`,
			userID, cost,
		).Scan(&after.balance, &after.at)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		debited = true
		return insertEntry(ctx, tx, userID, models.EntryDebit, cost, after, nil)
	})
	if err != nil {
		return false, apperr.Storage("ledger debit", err)
	}
	return debited, nil
}

func (r *LedgerRepo) Credit(ctx context.Context, userID string, amount int64, kind models.EntryKind) error {
	err := r.withTx(ctx, func(tx pgx.Tx) error {
		after, err := upsertCredit(ctx, tx, userID, amount)
		if err != nil {
			return err
		}
		return insertEntry(ctx, tx, userID, kind, amount, after, nil)
	})
	return apperr.Storage("ledger credit", err)
}

func (r *LedgerRepo) CreditOnce(ctx context.Context, userID string, amount int64, eventID string) (bool, error) {
	applied := false
	err := r.withTx(ctx, func(tx pgx.Tx) error {
		// A concurrent delivery of the same event blocks on the primary key
		// until this transaction finishes, then sees the conflict.
		tag, err := tx.Exec(ctx,
			`INSERT INTO payment_events(event_id, user_id, credits)
			 VALUES($1, $2, $3)
			 ON CONFLICT (event_id) DO NOTHING`,
			eventID, userID, amount,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return nil
		}
		after, err := upsertCredit(ctx, tx, userID, amount)
		if err != nil {
			return err
		}
		applied = true
		return insertEntry(ctx, tx, userID, models.EntryPurchase, amount, after, &eventID)
	})
	if err != nil {
		return false, apperr.Storage("ledger credit once", err)
	}
	return applied, nil
}

type balanceRow struct {
	balance int64
	at      time.Time
}

func upsertCredit(ctx context.Context, tx pgx.Tx, userID string, amount int64) (balanceRow, error) {
	var after balanceRow
	err := tx.QueryRow(ctx,
		`INSERT INTO ledgers(user_id, balance, updated_at)
		 VALUES($1, $2, now())
		 ON CONFLICT (user_id) DO UPDATE
		    SET balance = ledgers.balance + EXCLUDED.balance,
		        updated_at = `+nextUpdatedAt+`
		 RETURNING balance, updated_at`,
		userID, amount,
	).Scan(&after.balance, &after.at)
	return after, err
}

// insertEntry stamps the entry with the ledger's new updated_at so journal
// order matches mutation order per user.
func insertEntry(ctx context.Context, tx pgx.Tx, userID string, kind models.EntryKind, amount int64, after balanceRow, eventID *string) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO ledger_entries(id, user_id, kind, amount, balance_after, event_id, created_at)
		 VALUES($1, $2, $3, $4, $5, $6, $7)`,
		uuid.NewString(), userID, kind, amount, after.balance, eventID, after.at,
	)
	return err
}

// withTx runs fn in a read-committed transaction. Row locks taken by the
// guarded UPDATEs give per-user serialization without serialization retries.
func (r *LedgerRepo) withTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.ReadCommitted,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}
