package ledger_test

import (
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/neverthesameagain/Splitzy-Pay/internal/ledger"
	"github.com/neverthesameagain/Splitzy-Pay/internal/models"
	"github.com/neverthesameagain/Splitzy-Pay/internal/split"
)

func (suite *TestSuiteStandard) service() *ledger.Service {
	return ledger.NewService(ledger.DefaultConfig())
}

func (suite *TestSuiteStandard) TestRecordExpenseEqual() {
	alice := suite.createTestUser("Alice")
	bob := suite.createTestUser("Bob")
	carol := suite.createTestUser("Carol")
	group := suite.createTestGroup("Flat", alice, bob, carol)

	service := suite.service()
	expense, err := service.RecordExpense(ledger.ExpenseRecord{
		GroupID:      group.ID,
		PayerID:      alice.ID,
		Total:        decimal.RequireFromString("100.00"),
		Description:  "Groceries",
		Mode:         split.ModeEqual,
		Participants: []uuid.UUID{alice.ID, bob.ID, carol.ID},
	})
	suite.Require().NoError(err)
	suite.Require().Len(expense.SplitLines, 3)

	suite.Assert().True(expense.SplitLines[0].Share.Equal(decimal.RequireFromString("33.33")))
	suite.Assert().True(expense.SplitLines[1].Share.Equal(decimal.RequireFromString("33.33")))
	suite.Assert().True(expense.SplitLines[2].Share.Equal(decimal.RequireFromString("33.34")))
	suite.Assert().Equal(carol.ID, expense.SplitLines[2].UserID)

	suite.Assert().Equal(int64(1), suite.sequenceCount())

	entries, err := service.ReadSince(0)
	suite.Require().NoError(err)
	suite.Require().Len(entries, 1)
	suite.Assert().Equal(models.EntryExpense, entries[0].Type)
	suite.Assert().Equal(uint64(1), entries[0].Sequence)
}

func (suite *TestSuiteStandard) TestRecordExpenseManualRenormalized() {
	alice := suite.createTestUser("Alice")
	bob := suite.createTestUser("Bob")
	group := suite.createTestGroup("Trip", alice, bob)

	service := suite.service()

	// The candidate is 0.03 short, which is within tolerance. The payer
	// absorbs the difference so the stored expense sums exactly.
	expense, err := service.RecordExpense(ledger.ExpenseRecord{
		GroupID:      group.ID,
		PayerID:      alice.ID,
		Total:        decimal.RequireFromString("100.00"),
		Mode:         split.ModeManual,
		Participants: []uuid.UUID{alice.ID, bob.ID},
		Shares: map[uuid.UUID]decimal.Decimal{
			alice.ID: decimal.RequireFromString("50.00"),
			bob.ID:   decimal.RequireFromString("49.97"),
		},
	})
	suite.Require().NoError(err)

	sum := decimal.Zero
	for _, line := range expense.SplitLines {
		sum = sum.Add(line.Share)

		if line.UserID == alice.ID {
			suite.Assert().True(line.Share.Equal(decimal.RequireFromString("50.03")))
		}
	}

	suite.Assert().True(sum.Equal(expense.Total))
}

func (suite *TestSuiteStandard) TestRecordExpenseSplitMismatch() {
	alice := suite.createTestUser("Alice")
	bob := suite.createTestUser("Bob")
	group := suite.createTestGroup("Trip", alice, bob)

	_, err := suite.service().RecordExpense(ledger.ExpenseRecord{
		GroupID:      group.ID,
		PayerID:      alice.ID,
		Total:        decimal.RequireFromString("100.00"),
		Mode:         split.ModeManual,
		Participants: []uuid.UUID{alice.ID, bob.ID},
		Shares: map[uuid.UUID]decimal.Decimal{
			alice.ID: decimal.RequireFromString("50.00"),
			bob.ID:   decimal.RequireFromString("49.90"),
		},
	})
	suite.Assert().ErrorIs(err, models.ErrSplitMismatch)

	// Nothing was appended
	suite.Assert().Equal(int64(0), suite.sequenceCount())
}

func (suite *TestSuiteStandard) TestRecordExpenseInvalidAmount() {
	alice := suite.createTestUser("Alice")
	group := suite.createTestGroup("Solo", alice)

	for _, total := range []string{"0", "-10.00", "10.001"} {
		_, err := suite.service().RecordExpense(ledger.ExpenseRecord{
			GroupID: group.ID,
			PayerID: alice.ID,
			Total:   decimal.RequireFromString(total),
			Mode:    split.ModeEqual,
		})
		suite.Assert().ErrorIs(err, models.ErrInvalidAmount, "total %s was accepted", total)
	}

	suite.Assert().Equal(int64(0), suite.sequenceCount())
}

func (suite *TestSuiteStandard) TestRecordExpenseUnknownParticipant() {
	alice := suite.createTestUser("Alice")
	stranger := suite.createTestUser("Stranger")
	group := suite.createTestGroup("Solo", alice)

	_, err := suite.service().RecordExpense(ledger.ExpenseRecord{
		GroupID:      group.ID,
		PayerID:      alice.ID,
		Total:        decimal.RequireFromString("10.00"),
		Mode:         split.ModeEqual,
		Participants: []uuid.UUID{alice.ID, stranger.ID},
	})
	suite.Assert().ErrorIs(err, models.ErrUnknownParticipant)

	// The rejection must not consume a sequence number
	suite.Assert().Equal(int64(0), suite.sequenceCount())
}

func (suite *TestSuiteStandard) TestRecordExpenseManualStrangerShare() {
	alice := suite.createTestUser("Alice")
	bob := suite.createTestUser("Bob")
	stranger := suite.createTestUser("Stranger")
	group := suite.createTestGroup("Flat", alice, bob)

	// The stranger's 20.00 must not end up on the payer's line via
	// renormalization
	_, err := suite.service().RecordExpense(ledger.ExpenseRecord{
		GroupID:      group.ID,
		PayerID:      alice.ID,
		Total:        decimal.RequireFromString("100.00"),
		Mode:         split.ModeManual,
		Participants: []uuid.UUID{alice.ID, bob.ID},
		Shares: map[uuid.UUID]decimal.Decimal{
			alice.ID:    decimal.RequireFromString("50.00"),
			bob.ID:      decimal.RequireFromString("30.00"),
			stranger.ID: decimal.RequireFromString("20.00"),
		},
	})
	suite.Assert().ErrorIs(err, models.ErrUnknownParticipant)
	suite.Assert().Equal(int64(0), suite.sequenceCount())
}

func (suite *TestSuiteStandard) TestRecordExpenseRemovedMember() {
	alice := suite.createTestUser("Alice")
	bob := suite.createTestUser("Bob")
	group := suite.createTestGroup("Flat", alice, bob)

	// Bob is removed after the caller formed its request
	suite.removeTestMember(group, bob)

	_, err := suite.service().RecordExpense(ledger.ExpenseRecord{
		GroupID:      group.ID,
		PayerID:      alice.ID,
		Total:        decimal.RequireFromString("10.00"),
		Mode:         split.ModeEqual,
		Participants: []uuid.UUID{alice.ID, bob.ID},
	})
	suite.Assert().ErrorIs(err, models.ErrMembershipChanged)
	suite.Assert().True(ledger.IsConflict(err))
	suite.Assert().Equal(int64(0), suite.sequenceCount())
}

func (suite *TestSuiteStandard) TestRecordExpenseDefaultParticipants() {
	alice := suite.createTestUser("Alice")
	bob := suite.createTestUser("Bob")
	group := suite.createTestGroup("Flat", alice, bob)

	// Without explicit participants, the current members in join order
	// are used
	expense, err := suite.service().RecordExpense(ledger.ExpenseRecord{
		GroupID: group.ID,
		PayerID: alice.ID,
		Total:   decimal.RequireFromString("10.01"),
		Mode:    split.ModeEqual,
	})
	suite.Require().NoError(err)
	suite.Require().Len(expense.SplitLines, 2)
	suite.Assert().Equal(alice.ID, expense.SplitLines[0].UserID)
	suite.Assert().Equal(bob.ID, expense.SplitLines[1].UserID)
	suite.Assert().True(expense.SplitLines[1].Share.Equal(decimal.RequireFromString("5.01")))
}

func (suite *TestSuiteStandard) TestRecordExpenseGroupNotFound() {
	alice := suite.createTestUser("Alice")

	_, err := suite.service().RecordExpense(ledger.ExpenseRecord{
		GroupID: uuid.New(),
		PayerID: alice.ID,
		Total:   decimal.RequireFromString("10.00"),
		Mode:    split.ModeEqual,
	})
	suite.Assert().ErrorIs(err, models.ErrResourceNotFound)
}

func (suite *TestSuiteStandard) TestRecordPayment() {
	alice := suite.createTestUser("Alice")
	bob := suite.createTestUser("Bob")

	payment, err := suite.service().RecordPayment(ledger.PaymentRecord{
		PayerID:     alice.ID,
		PayeeID:     bob.ID,
		Amount:      decimal.RequireFromString("25.00"),
		ExternalRef: "pay_MkzDEXBVGyqbyM",
	})
	suite.Require().NoError(err)
	suite.Assert().Equal(alice.ID, payment.PayerID)
	suite.Assert().Equal(int64(1), suite.sequenceCount())
}

func (suite *TestSuiteStandard) TestRecordPaymentRejections() {
	alice := suite.createTestUser("Alice")
	bob := suite.createTestUser("Bob")

	tests := []struct {
		name   string
		record ledger.PaymentRecord
		err    error
	}{
		{
			"same payer and payee",
			ledger.PaymentRecord{PayerID: alice.ID, PayeeID: alice.ID, Amount: decimal.RequireFromString("10.00"), ExternalRef: "pay_x"},
			models.ErrSamePayerPayee,
		},
		{
			"zero amount",
			ledger.PaymentRecord{PayerID: alice.ID, PayeeID: bob.ID, Amount: decimal.Zero, ExternalRef: "pay_x"},
			models.ErrInvalidAmount,
		},
		{
			"missing external reference",
			ledger.PaymentRecord{PayerID: alice.ID, PayeeID: bob.ID, Amount: decimal.RequireFromString("10.00")},
			models.ErrMissingExternalRef,
		},
		{
			"unknown payee",
			ledger.PaymentRecord{PayerID: alice.ID, PayeeID: uuid.New(), Amount: decimal.RequireFromString("10.00"), ExternalRef: "pay_x"},
			models.ErrResourceNotFound,
		},
	}

	for _, tt := range tests {
		_, err := suite.service().RecordPayment(tt.record)
		suite.Assert().ErrorIs(err, tt.err, tt.name)
	}

	suite.Assert().Equal(int64(0), suite.sequenceCount())
}

func (suite *TestSuiteStandard) TestReadSince() {
	alice := suite.createTestUser("Alice")
	bob := suite.createTestUser("Bob")
	group := suite.createTestGroup("Flat", alice, bob)

	service := suite.service()

	for i := 0; i < 3; i++ {
		_, err := service.RecordExpense(ledger.ExpenseRecord{
			GroupID: group.ID,
			PayerID: alice.ID,
			Total:   decimal.RequireFromString("10.00"),
			Mode:    split.ModeEqual,
		})
		suite.Require().NoError(err)
	}

	entries, err := service.ReadSince(1)
	suite.Require().NoError(err)
	suite.Require().Len(entries, 2)
	suite.Assert().Equal(uint64(2), entries[0].Sequence)
	suite.Assert().Equal(uint64(3), entries[1].Sequence)

	// Expenses are preloaded with their split lines
	suite.Require().NotNil(entries[0].Expense)
	suite.Assert().Len(entries[0].Expense.SplitLines, 2)
}

func (suite *TestSuiteStandard) TestReadGroup() {
	alice := suite.createTestUser("Alice")
	bob := suite.createTestUser("Bob")
	carol := suite.createTestUser("Carol")
	flat := suite.createTestGroup("Flat", alice, bob)
	trip := suite.createTestGroup("Trip", alice, carol)

	service := suite.service()

	_, err := service.RecordExpense(ledger.ExpenseRecord{
		GroupID: flat.ID,
		PayerID: alice.ID,
		Total:   decimal.RequireFromString("60.00"),
		Mode:    split.ModeEqual,
	})
	suite.Require().NoError(err)

	_, err = service.RecordExpense(ledger.ExpenseRecord{
		GroupID: trip.ID,
		PayerID: carol.ID,
		Total:   decimal.RequireFromString("90.00"),
		Mode:    split.ModeEqual,
	})
	suite.Require().NoError(err)

	// A payment between two members of the group counts, one involving an
	// outsider does not.
	_, err = service.RecordPayment(ledger.PaymentRecord{
		PayerID:     bob.ID,
		PayeeID:     alice.ID,
		Amount:      decimal.RequireFromString("30.00"),
		ExternalRef: "pay_flat",
	})
	suite.Require().NoError(err)

	_, err = service.RecordPayment(ledger.PaymentRecord{
		PayerID:     carol.ID,
		PayeeID:     alice.ID,
		Amount:      decimal.RequireFromString("45.00"),
		ExternalRef: "pay_trip",
	})
	suite.Require().NoError(err)

	entries, err := service.ReadGroup(flat.ID)
	suite.Require().NoError(err)
	suite.Require().Len(entries, 2)
	suite.Assert().Equal(uint64(1), entries[0].Sequence)
	suite.Assert().Equal(models.EntryExpense, entries[0].Type)
	suite.Assert().Equal(uint64(3), entries[1].Sequence)
	suite.Assert().Equal(models.EntryPayment, entries[1].Type)
}

func (suite *TestSuiteStandard) TestReadUser() {
	alice := suite.createTestUser("Alice")
	bob := suite.createTestUser("Bob")
	carol := suite.createTestUser("Carol")
	group := suite.createTestGroup("Flat", alice, bob, carol)

	service := suite.service()

	_, err := service.RecordExpense(ledger.ExpenseRecord{
		GroupID:      group.ID,
		PayerID:      alice.ID,
		Participants: []uuid.UUID{alice.ID, bob.ID},
		Total:        decimal.RequireFromString("20.00"),
		Mode:         split.ModeEqual,
	})
	suite.Require().NoError(err)

	_, err = service.RecordPayment(ledger.PaymentRecord{
		PayerID:     carol.ID,
		PayeeID:     alice.ID,
		Amount:      decimal.RequireFromString("5.00"),
		ExternalRef: "pay_carol",
	})
	suite.Require().NoError(err)

	entries, err := service.ReadUser(bob.ID)
	suite.Require().NoError(err)
	suite.Require().Len(entries, 1)
	suite.Assert().Equal(uint64(1), entries[0].Sequence)

	entries, err = service.ReadUser(alice.ID)
	suite.Require().NoError(err)
	suite.Assert().Len(entries, 2)
}

func (suite *TestSuiteStandard) TestGroupBalances() {
	alice := suite.createTestUser("Alice")
	bob := suite.createTestUser("Bob")
	group := suite.createTestGroup("Flat", alice, bob)

	service := suite.service()

	_, err := service.RecordExpense(ledger.ExpenseRecord{
		GroupID: group.ID,
		PayerID: bob.ID,
		Total:   decimal.RequireFromString("100.00"),
		Mode:    split.ModeEqual,
	})
	suite.Require().NoError(err)

	balances, err := service.GroupBalances(group.ID)
	suite.Require().NoError(err)
	suite.Assert().True(balances.Pairwise(alice.ID, bob.ID).Equal(decimal.RequireFromString("50.00")))

	// A settlement payment between two members reduces the group debt
	_, err = service.RecordPayment(ledger.PaymentRecord{
		PayerID:     alice.ID,
		PayeeID:     bob.ID,
		Amount:      decimal.RequireFromString("50.00"),
		ExternalRef: "pay_settle",
	})
	suite.Require().NoError(err)

	balances, err = service.GroupBalances(group.ID)
	suite.Require().NoError(err)
	suite.Assert().True(balances.Pairwise(alice.ID, bob.ID).IsZero())
	suite.Assert().Empty(balances.Pairs())
}

func (suite *TestSuiteStandard) TestGroupBalancesIgnoresOtherGroups() {
	alice := suite.createTestUser("Alice")
	bob := suite.createTestUser("Bob")
	flat := suite.createTestGroup("Flat", alice, bob)
	trip := suite.createTestGroup("Trip", alice, bob)

	service := suite.service()

	_, err := service.RecordExpense(ledger.ExpenseRecord{
		GroupID: flat.ID,
		PayerID: alice.ID,
		Total:   decimal.RequireFromString("80.00"),
		Mode:    split.ModeEqual,
	})
	suite.Require().NoError(err)

	balances, err := service.GroupBalances(trip.ID)
	suite.Require().NoError(err)
	suite.Assert().Empty(balances.Pairs())
}

func (suite *TestSuiteStandard) TestPairwiseBalance() {
	alice := suite.createTestUser("Alice")
	bob := suite.createTestUser("Bob")
	group := suite.createTestGroup("Flat", alice, bob)

	service := suite.service()

	_, err := service.RecordExpense(ledger.ExpenseRecord{
		GroupID: group.ID,
		PayerID: bob.ID,
		Total:   decimal.RequireFromString("60.00"),
		Mode:    split.ModeEqual,
	})
	suite.Require().NoError(err)

	owes, err := service.PairwiseBalance(alice.ID, bob.ID)
	suite.Require().NoError(err)
	suite.Assert().True(owes.Equal(decimal.RequireFromString("30.00")))

	owed, err := service.PairwiseBalance(bob.ID, alice.ID)
	suite.Require().NoError(err)
	suite.Assert().True(owed.Equal(decimal.RequireFromString("-30.00")))
}

func (suite *TestSuiteStandard) TestPairwiseBalanceIgnoresThirdParties() {
	alice := suite.createTestUser("Alice")
	bob := suite.createTestUser("Bob")
	carol := suite.createTestUser("Carol")
	group := suite.createTestGroup("Flat", alice, bob, carol)

	service := suite.service()

	_, err := service.RecordExpense(ledger.ExpenseRecord{
		GroupID:      group.ID,
		PayerID:      bob.ID,
		Participants: []uuid.UUID{alice.ID, bob.ID},
		Total:        decimal.RequireFromString("60.00"),
		Mode:         split.ModeEqual,
	})
	suite.Require().NoError(err)

	// Carol's debt to bob does not move the alice/bob pair
	_, err = service.RecordExpense(ledger.ExpenseRecord{
		GroupID:      group.ID,
		PayerID:      bob.ID,
		Participants: []uuid.UUID{bob.ID, carol.ID},
		Total:        decimal.RequireFromString("40.00"),
		Mode:         split.ModeEqual,
	})
	suite.Require().NoError(err)

	owes, err := service.PairwiseBalance(alice.ID, bob.ID)
	suite.Require().NoError(err)
	suite.Assert().True(owes.Equal(decimal.RequireFromString("30.00")))
}

func (suite *TestSuiteStandard) TestPairwiseBalanceNotFound() {
	_, err := suite.service().PairwiseBalance(uuid.New(), uuid.New())
	suite.Assert().ErrorIs(err, models.ErrResourceNotFound)
}

func (suite *TestSuiteStandard) TestUserBalancesNotFound() {
	_, err := suite.service().UserBalances(uuid.New())
	suite.Assert().ErrorIs(err, models.ErrResourceNotFound)
}

func (suite *TestSuiteStandard) TestConcurrentRecordExpense() {
	alice := suite.createTestUser("Alice")
	bob := suite.createTestUser("Bob")
	group := suite.createTestGroup("Flat", alice, bob)

	service := suite.service()

	var wg sync.WaitGroup
	errs := make(chan error, 10)

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			_, err := service.RecordExpense(ledger.ExpenseRecord{
				GroupID: group.ID,
				PayerID: alice.ID,
				Total:   decimal.RequireFromString("10.00"),
				Mode:    split.ModeEqual,
			})
			errs <- err
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		suite.Assert().NoError(err)
	}

	// Every append got its own sequence number
	entries, err := service.ReadSince(0)
	suite.Require().NoError(err)
	suite.Require().Len(entries, 10)

	for i, entry := range entries {
		suite.Assert().Equal(uint64(i+1), entry.Sequence)
	}

	// The folded balance matches ten equal splits
	balances, err := service.GroupBalances(group.ID)
	suite.Require().NoError(err)
	suite.Assert().True(balances.Pairwise(bob.ID, alice.ID).Equal(decimal.RequireFromString("50.00")))
}
