package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/neverthesameagain/Splitzy-Pay/internal/models"
	"github.com/neverthesameagain/Splitzy-Pay/internal/types"
)

// Progress is spend versus allocation for one user, category and period.
type Progress struct {
	Allocated decimal.Decimal `json:"allocated" example:"300.00"` // The amount allocated for the period
	Spent     decimal.Decimal `json:"spent" example:"120.50"`     // The user's expense shares in the period, derived from the ledger
	Remaining decimal.Decimal `json:"remaining" example:"179.50"` // Allocated minus spent
}

// Spend sums the user's split-line shares for expenses in the category
// within the period. The result is always derived from the ledger, never
// stored, so it cannot drift from the entries.
func (s *Service) Spend(userID, categoryID uuid.UUID, period types.Period) (decimal.Decimal, error) {
	var spent decimal.NullDecimal

	from, _ := period.Value()
	until, _ := period.Next().Value()

	err := models.DB.
		Select("SUM(split_lines.share)").
		Joins("JOIN expenses ON split_lines.expense_id = expenses.id AND expenses.deleted_at IS NULL").
		Where("split_lines.user_id = ?", userID).
		Where("expenses.category_id = ?", categoryID).
		Where("expenses.date >= date(?) AND expenses.date < date(?)", from, until).
		Table("split_lines").
		Find(&spent).
		Error
	if err != nil {
		return decimal.Zero, fmt.Errorf("summing expense shares failed: %w", err)
	}

	// If no split lines match, the sum is NULL
	if !spent.Valid {
		return decimal.Zero, nil
	}

	return spent.Decimal, nil
}

// BudgetProgress combines the stored allocation with the derived spend.
// A missing allocation counts as zero so that spend tracking works before
// a budget is set.
func (s *Service) BudgetProgress(userID, categoryID uuid.UUID, period types.Period) (Progress, error) {
	allocated := decimal.Zero

	var budget models.Budget
	err := models.DB.
		Where("user_id = ? AND category_id = ? AND period = ?", userID, categoryID, period).
		First(&budget).Error
	if err == nil {
		allocated = budget.Allocated
	} else if !errors.Is(err, models.ErrResourceNotFound) {
		return Progress{}, err
	}

	spent, err := s.Spend(userID, categoryID, period)
	if err != nil {
		return Progress{}, err
	}

	return Progress{
		Allocated: allocated,
		Spent:     spent,
		Remaining: allocated.Sub(spent),
	}, nil
}

// SetBudget upserts the allocation for one user, category and period.
func (s *Service) SetBudget(userID, categoryID uuid.UUID, period types.Period, allocated decimal.Decimal) (models.Budget, error) {
	if allocated.IsNegative() {
		return models.Budget{}, models.ErrInvalidAmount
	}

	var budget models.Budget
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.
			Where("user_id = ? AND category_id = ? AND period = ?", userID, categoryID, period).
			First(&budget).Error
		if errors.Is(err, models.ErrResourceNotFound) {
			budget = models.Budget{
				UserID:     userID,
				CategoryID: categoryID,
				Period:     period,
				Allocated:  allocated,
			}

			return tx.Create(&budget).Error
		}
		if err != nil {
			return err
		}

		budget.Allocated = allocated
		budget.UpdatedAt = time.Now().In(time.UTC)
		return tx.Save(&budget).Error
	})
	if err != nil {
		return models.Budget{}, err
	}

	return budget, nil
}
