package ledger_test

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/neverthesameagain/Splitzy-Pay/internal/ledger"
	"github.com/neverthesameagain/Splitzy-Pay/internal/models"
	"github.com/neverthesameagain/Splitzy-Pay/internal/split"
	"github.com/neverthesameagain/Splitzy-Pay/internal/types"
)

// recordCategorizedExpense appends an expense the payer carries alone, in
// the given category and on the given date.
func (suite *TestSuiteStandard) recordCategorizedExpense(group models.Group, payer models.User, category models.Category, total string, date time.Time) {
	_, err := suite.service().RecordExpense(ledger.ExpenseRecord{
		GroupID:      group.ID,
		PayerID:      payer.ID,
		Total:        decimal.RequireFromString(total),
		CategoryID:   &category.ID,
		Date:         date,
		Mode:         split.ModeEqual,
		Participants: []uuid.UUID{payer.ID},
	})
	suite.Require().NoError(err)
}

func (suite *TestSuiteStandard) TestSpend() {
	alice := suite.createTestUser("Alice")
	group := suite.createTestGroup("Solo", alice)
	groceries := suite.createTestCategory("Groceries")
	march := types.NewPeriod(2024, time.March)

	spent, err := suite.service().Spend(alice.ID, groceries.ID, march)
	suite.Require().NoError(err)
	suite.Assert().True(spent.IsZero())

	suite.recordCategorizedExpense(group, alice, groceries, "42.17", time.Date(2024, time.March, 12, 18, 43, 0, 0, time.UTC))
	suite.recordCategorizedExpense(group, alice, groceries, "10.00", time.Date(2024, time.March, 31, 23, 59, 0, 0, time.UTC))

	spent, err = suite.service().Spend(alice.ID, groceries.ID, march)
	suite.Require().NoError(err)
	suite.Assert().True(spent.Equal(decimal.RequireFromString("52.17")))
}

func (suite *TestSuiteStandard) TestSpendFiltersPeriod() {
	alice := suite.createTestUser("Alice")
	group := suite.createTestGroup("Solo", alice)
	groceries := suite.createTestCategory("Groceries")

	suite.recordCategorizedExpense(group, alice, groceries, "30.00", time.Date(2024, time.March, 12, 0, 0, 0, 0, time.UTC))
	suite.recordCategorizedExpense(group, alice, groceries, "99.00", time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC))

	spent, err := suite.service().Spend(alice.ID, groceries.ID, types.NewPeriod(2024, time.March))
	suite.Require().NoError(err)
	suite.Assert().True(spent.Equal(decimal.RequireFromString("30.00")))
}

func (suite *TestSuiteStandard) TestSpendFiltersCategoryAndUser() {
	alice := suite.createTestUser("Alice")
	bob := suite.createTestUser("Bob")
	group := suite.createTestGroup("Flat", alice, bob)
	groceries := suite.createTestCategory("Groceries")
	travel := suite.createTestCategory("Travel")
	march := types.NewPeriod(2024, time.March)

	suite.recordCategorizedExpense(group, alice, groceries, "30.00", time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC))
	suite.recordCategorizedExpense(group, alice, travel, "500.00", time.Date(2024, time.March, 6, 0, 0, 0, 0, time.UTC))
	suite.recordCategorizedExpense(group, bob, groceries, "12.00", time.Date(2024, time.March, 7, 0, 0, 0, 0, time.UTC))

	// Only Alice's own groceries shares count
	spent, err := suite.service().Spend(alice.ID, groceries.ID, march)
	suite.Require().NoError(err)
	suite.Assert().True(spent.Equal(decimal.RequireFromString("30.00")))
}

func (suite *TestSuiteStandard) TestSpendCountsShareNotTotal() {
	alice := suite.createTestUser("Alice")
	bob := suite.createTestUser("Bob")
	group := suite.createTestGroup("Flat", alice, bob)
	groceries := suite.createTestCategory("Groceries")
	march := types.NewPeriod(2024, time.March)

	// Alice pays 100, split equally. Her spend in the category is her
	// 50.00 share, not the full total.
	_, err := suite.service().RecordExpense(ledger.ExpenseRecord{
		GroupID:    group.ID,
		PayerID:    alice.ID,
		Total:      decimal.RequireFromString("100.00"),
		CategoryID: &groceries.ID,
		Date:       time.Date(2024, time.March, 2, 12, 0, 0, 0, time.UTC),
		Mode:       split.ModeEqual,
	})
	suite.Require().NoError(err)

	spent, err := suite.service().Spend(alice.ID, groceries.ID, march)
	suite.Require().NoError(err)
	suite.Assert().True(spent.Equal(decimal.RequireFromString("50.00")))
}

func (suite *TestSuiteStandard) TestBudgetProgress() {
	alice := suite.createTestUser("Alice")
	group := suite.createTestGroup("Solo", alice)
	groceries := suite.createTestCategory("Groceries")
	march := types.NewPeriod(2024, time.March)

	service := suite.service()

	_, err := service.SetBudget(alice.ID, groceries.ID, march, decimal.RequireFromString("300.00"))
	suite.Require().NoError(err)

	suite.recordCategorizedExpense(group, alice, groceries, "120.50", time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC))

	progress, err := service.BudgetProgress(alice.ID, groceries.ID, march)
	suite.Require().NoError(err)
	suite.Assert().True(progress.Allocated.Equal(decimal.RequireFromString("300.00")))
	suite.Assert().True(progress.Spent.Equal(decimal.RequireFromString("120.50")))
	suite.Assert().True(progress.Remaining.Equal(decimal.RequireFromString("179.50")))
}

func (suite *TestSuiteStandard) TestBudgetProgressWithoutAllocation() {
	alice := suite.createTestUser("Alice")
	group := suite.createTestGroup("Solo", alice)
	groceries := suite.createTestCategory("Groceries")
	march := types.NewPeriod(2024, time.March)

	suite.recordCategorizedExpense(group, alice, groceries, "20.00", time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC))

	// Spend tracking works before a budget is set, allocation counts as
	// zero
	progress, err := suite.service().BudgetProgress(alice.ID, groceries.ID, march)
	suite.Require().NoError(err)
	suite.Assert().True(progress.Allocated.IsZero())
	suite.Assert().True(progress.Spent.Equal(decimal.RequireFromString("20.00")))
	suite.Assert().True(progress.Remaining.Equal(decimal.RequireFromString("-20.00")))
}

func (suite *TestSuiteStandard) TestSetBudgetUpsert() {
	alice := suite.createTestUser("Alice")
	groceries := suite.createTestCategory("Groceries")
	march := types.NewPeriod(2024, time.March)

	service := suite.service()

	budget, err := service.SetBudget(alice.ID, groceries.ID, march, decimal.RequireFromString("200.00"))
	suite.Require().NoError(err)

	updated, err := service.SetBudget(alice.ID, groceries.ID, march, decimal.RequireFromString("250.00"))
	suite.Require().NoError(err)

	// The second call updates the existing row
	suite.Assert().Equal(budget.ID, updated.ID)
	suite.Assert().True(updated.Allocated.Equal(decimal.RequireFromString("250.00")))

	var count int64
	suite.Require().NoError(models.DB.Model(&models.Budget{}).Count(&count).Error)
	suite.Assert().Equal(int64(1), count)
}

func (suite *TestSuiteStandard) TestSetBudgetNegative() {
	alice := suite.createTestUser("Alice")
	groceries := suite.createTestCategory("Groceries")

	_, err := suite.service().SetBudget(alice.ID, groceries.ID, types.NewPeriod(2024, time.March), decimal.RequireFromString("-1.00"))
	suite.Assert().ErrorIs(err, models.ErrInvalidAmount)
}

func (suite *TestSuiteStandard) TestSetBudgetPerPeriod() {
	alice := suite.createTestUser("Alice")
	groceries := suite.createTestCategory("Groceries")

	service := suite.service()

	_, err := service.SetBudget(alice.ID, groceries.ID, types.NewPeriod(2024, time.March), decimal.RequireFromString("200.00"))
	suite.Require().NoError(err)

	_, err = service.SetBudget(alice.ID, groceries.ID, types.NewPeriod(2024, time.April), decimal.RequireFromString("210.00"))
	suite.Require().NoError(err)

	var count int64
	suite.Require().NoError(models.DB.Model(&models.Budget{}).Count(&count).Error)
	suite.Assert().Equal(int64(2), count)
}
