package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Expense is a group expense paid by one member and split across members.
//
// Expenses are immutable once recorded: there is no update or delete path.
// Corrections are new, offsetting entries.
type Expense struct {
	DefaultModel
	GroupID     uuid.UUID       `json:"groupId"`
	Group       Group           `json:"-"`
	PayerID     uuid.UUID       `json:"payerId"`
	Payer       User            `json:"-"`
	Total       decimal.Decimal `json:"total" gorm:"type:DECIMAL(20,8)" example:"100.00"`
	Description string          `json:"description" example:"Weekly groceries" default:""`
	CategoryID  *uuid.UUID      `json:"categoryId"`
	Category    Category        `json:"-"`
	Date        time.Time       `json:"date" example:"2024-03-12T18:43:00.271152Z"` // Time of day is currently only used for sorting
	SplitLines  []SplitLine     `json:"splitLines"`
}

// SplitLine is one participant's share of an expense.
type SplitLine struct {
	DefaultModel
	ExpenseID uuid.UUID       `json:"expenseId"`
	UserID    uuid.UUID       `json:"userId"`
	User      User            `json:"-"`
	Share     decimal.Decimal `json:"share" gorm:"type:DECIMAL(20,8)" example:"33.34"`
}

// BeforeSave normalizes the date and enforces the stored-expense
// invariants: the total is positive and the split lines sum to it exactly.
func (e *Expense) BeforeSave(_ *gorm.DB) error {
	e.Description = strings.TrimSpace(e.Description)

	// Ensure that the category ID is nil and not a pointer to a nil UUID
	if e.CategoryID != nil && *e.CategoryID == uuid.Nil {
		e.CategoryID = nil
	}

	if e.Date.IsZero() {
		e.Date = time.Now().In(time.UTC)
	} else {
		e.Date = e.Date.In(time.UTC)
	}

	if !e.Total.IsPositive() {
		return ErrInvalidAmount
	}

	if len(e.SplitLines) > 0 {
		sum := decimal.Zero
		for _, line := range e.SplitLines {
			if line.Share.IsNegative() {
				return ErrNegativeShare
			}
			sum = sum.Add(line.Share)
		}

		if !sum.Equal(e.Total) {
			return ErrSplitMismatch
		}
	}

	return nil
}

// AfterFind updates the timestamps to use UTC as
// timezone, not +0000. Yes, this is different.
//
// We already store them in UTC, but somehow reading
// them from the database returns them as +0000.
func (e *Expense) AfterFind(tx *gorm.DB) (err error) {
	err = e.DefaultModel.AfterFind(tx)
	if err != nil {
		return err
	}

	e.Date = e.Date.In(time.UTC)
	return
}
