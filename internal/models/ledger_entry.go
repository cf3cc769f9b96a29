package models

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// EntryType discriminates the two kinds of ledger entries.
type EntryType string

const (
	EntryExpense EntryType = "expense"
	EntryPayment EntryType = "payment"
)

// LedgerEntry is one record in the append-only ledger. The sequence number
// is assigned by sqlite at insert time and establishes the strict total
// order balances are folded in.
//
// The ledger is the source of truth: entries are never updated or deleted,
// and balances are always reconstructable by replaying them in sequence
// order. There is deliberately no DefaultModel here, the sequence number is
// the primary key.
type LedgerEntry struct {
	Sequence  uint64     `json:"sequence" gorm:"primaryKey;autoIncrement"`
	Type      EntryType  `json:"type" example:"expense"`
	GroupID   *uuid.UUID `json:"groupId" gorm:"index"` // Only set for expenses, payments are not group-scoped
	ExpenseID *uuid.UUID `json:"expenseId"`
	Expense   *Expense   `json:"expense,omitempty"`
	PaymentID *uuid.UUID `json:"paymentId"`
	Payment   *Payment   `json:"payment,omitempty"`

	// Append-only: entries only ever gain a CreatedAt, never an update
	// or a (soft) delete.
	CreatedAt time.Time `json:"createdAt"`
}

// NextSequence returns the sequence number the next appended entry will
// receive. Used by tests and by incremental balance snapshots.
func NextSequence() (uint64, error) {
	// On an empty ledger the aggregate is NULL
	var last sql.NullInt64
	err := DB.Model(&LedgerEntry{}).Select("MAX(sequence)").Row().Scan(&last)
	if err != nil {
		return 0, err
	}

	if !last.Valid {
		return 1, nil
	}

	return uint64(last.Int64) + 1, nil
}
