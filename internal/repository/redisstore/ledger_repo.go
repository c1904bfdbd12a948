// Package redisstore keeps ledgers in Redis hashes. Every mutation is a Lua
// script, so Redis' single-threaded script execution serializes mutations
// per user and the idempotency check shares the credit's atomic unit.
package redisstore

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/baharkarakas/resumeforge/internal/apperr"
	"github.com/baharkarakas/resumeforge/internal/models"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	//go:embed debit.lua
	debitLua string
	//go:embed credit.lua
	creditLua string

	debitScript  = redis.NewScript(debitLua)
	creditScript = redis.NewScript(creditLua)
)

// historyCap bounds the per-user journal list.
const historyCap = 500

type LedgerRepo struct {
	rdb *redis.Client
	now func() time.Time
}

func NewLedgerRepo(rdb *redis.Client) *LedgerRepo {
	return &LedgerRepo{rdb: rdb, now: time.Now}
}

func ledgerKey(userID string) string  { return fmt.Sprintf("ledger:%s", userID) }
func entriesKey(userID string) string { return fmt.Sprintf("ledger:%s:entries", userID) }
func eventKey(eventID string) string  { return fmt.Sprintf("payment_event:%s", eventID) }

func (r *LedgerRepo) Balance(ctx context.Context, userID string) (models.Ledger, error) {
	key := ledgerKey(userID)
	// HSETNX keeps lazy creation race-free against concurrent mutations.
	pipe := r.rdb.TxPipeline()
	pipe.HSetNX(ctx, key, "balance", 0)
	pipe.HSetNX(ctx, key, "updated_at", r.now().UnixMilli())
	get := pipe.HMGet(ctx, key, "balance", "updated_at")
	if _, err := pipe.Exec(ctx); err != nil {
		return models.Ledger{}, apperr.Storage("ledger balance", err)
	}

	vals := get.Val()
	balance, err := strconv.ParseInt(fmt.Sprint(vals[0]), 10, 64)
	if err != nil {
		return models.Ledger{}, apperr.Storage("ledger balance", err)
	}
	millis, err := strconv.ParseInt(fmt.Sprint(vals[1]), 10, 64)
	if err != nil {
		return models.Ledger{}, apperr.Storage("ledger balance", err)
	}
	return models.Ledger{UserID: userID, Balance: balance, UpdatedAt: time.UnixMilli(millis).UTC()}, nil
}

func (r *LedgerRepo) TryDebit(ctx context.Context, userID string, cost int64) (bool, error) {
	res, err := debitScript.Run(ctx, r.rdb,
		[]string{ledgerKey(userID), entriesKey(userID)},
		cost, r.now().UnixMilli(), uuid.NewString(), historyCap,
	).Int64Slice()
	if err != nil {
		return false, apperr.Storage("ledger debit", err)
	}
	return res[0] == 1, nil
}

func (r *LedgerRepo) Credit(ctx context.Context, userID string, amount int64, kind models.EntryKind) error {
	_, err := r.credit(ctx, userID, amount, kind, "")
	return err
}

func (r *LedgerRepo) CreditOnce(ctx context.Context, userID string, amount int64, eventID string) (bool, error) {
	if eventID == "" {
		return false, fmt.Errorf("%w: empty event id", apperr.ErrInvalidInput)
	}
	return r.credit(ctx, userID, amount, models.EntryPurchase, eventID)
}

func (r *LedgerRepo) credit(ctx context.Context, userID string, amount int64, kind models.EntryKind, eventID string) (bool, error) {
	evtKey := ""
	if eventID != "" {
		evtKey = eventKey(eventID)
	}
	res, err := creditScript.Run(ctx, r.rdb,
		[]string{ledgerKey(userID), entriesKey(userID), evtKey},
		amount, r.now().UnixMilli(), uuid.NewString(), string(kind), eventID, historyCap,
	).Int64Slice()
	if err != nil {
		return false, apperr.Storage("ledger credit", err)
	}
	return res[0] == 1, nil
}

type storedEntry struct {
	ID           string `json:"id"`
	Kind         string `json:"kind"`
	Amount       int64  `json:"amount"`
	BalanceAfter int64  `json:"balance_after"`
	EventID      string `json:"event_id"`
	CreatedAt    int64  `json:"created_at"`
}

func (r *LedgerRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Entry, error) {
	if limit <= 0 {
		limit = historyCap
	}
	raw, err := r.rdb.LRange(ctx, entriesKey(userID), int64(offset), int64(offset+limit-1)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, apperr.Storage("list entries", err)
	}

	out := make([]models.Entry, 0, len(raw))
	for _, item := range raw {
		var se storedEntry
		if err := json.Unmarshal([]byte(item), &se); err != nil {
			return nil, apperr.Storage("decode entry", err)
		}
		e := models.Entry{
			ID:           se.ID,
			UserID:       userID,
			Kind:         models.EntryKind(se.Kind),
			Amount:       se.Amount,
			BalanceAfter: se.BalanceAfter,
			CreatedAt:    time.UnixMilli(se.CreatedAt).UTC(),
		}
		if se.EventID != "" {
			id := se.EventID
			e.EventID = &id
		}
		out = append(out, e)
	}
	return out, nil
}
