package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/neverthesameagain/Splitzy-Pay/internal/types"
)

// Budget is the allocated amount for one user, category and period.
//
// Only the allocation is stored. The spent amount is always derived from
// the ledger so the two can never drift apart.
type Budget struct {
	DefaultModel
	UserID     uuid.UUID       `json:"userId" gorm:"uniqueIndex:budget_user_category_period"`
	User       User            `json:"-"`
	CategoryID uuid.UUID       `json:"categoryId" gorm:"uniqueIndex:budget_user_category_period"`
	Category   Category        `json:"-"`
	Period     types.Period    `json:"period" gorm:"uniqueIndex:budget_user_category_period" example:"2024-03-01T00:00:00.000000Z"`
	Allocated  decimal.Decimal `json:"allocated" gorm:"type:DECIMAL(20,8)" example:"300.00"`
}

func (b *Budget) BeforeSave(_ *gorm.DB) error {
	if b.Allocated.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}
