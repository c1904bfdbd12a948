package models

import "time"

// Ledger is the per-user credit balance. One credit pays for one generation.
type Ledger struct {
	UserID    string    `json:"userId"`
	Balance   int64     `json:"balance"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type EntryKind string

const (
	EntryDebit    EntryKind = "debit"
	EntryRefund   EntryKind = "refund"
	EntryPurchase EntryKind = "purchase"
	EntryGrant    EntryKind = "grant"
)

// Entry is one journal line written together with a balance mutation.
type Entry struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	Kind         EntryKind `json:"kind"`
	Amount       int64     `json:"amount"`
	BalanceAfter int64     `json:"balanceAfter"`
	EventID      *string   `json:"eventId,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// NextUpdatedAt returns a timestamp strictly after prev, using now when it
// already is.
func NextUpdatedAt(prev, now time.Time) time.Time {
	if now.After(prev) {
		return now
	}
	return prev.Add(time.Microsecond)
}
