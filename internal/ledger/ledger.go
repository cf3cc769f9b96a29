// Package ledger implements the append path of the expense ledger and the
// projections derived from it: pairwise balances, net balances and budget
// spend.
//
// The ledger is append-only. Recording an expense or payment is the only
// mutation; everything a client reads (balances, budget progress) is folded
// from the entries in sequence order and can always be recomputed from
// scratch.
package ledger

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/neverthesameagain/Splitzy-Pay/internal/models"
	"github.com/neverthesameagain/Splitzy-Pay/internal/split"
)

// Config holds the policy knobs of the engine.
type Config struct {
	// Tolerance is the maximum difference between the sum of a manual
	// split and the expense total before the split is rejected. It
	// absorbs client-side rounding, not logic errors.
	Tolerance decimal.Decimal

	// PayerAbsorbs controls who the renormalization difference of a
	// within-tolerance manual split is applied to. When true (the
	// default policy), the payer absorbs it. When false, the last
	// participant does, mirroring the equal-split remainder rule.
	PayerAbsorbs bool
}

// DefaultConfig returns the default engine policy: a tolerance of 0.05
// currency units with the payer absorbing renormalization differences.
func DefaultConfig() Config {
	return Config{
		Tolerance:    decimal.New(5, -2),
		PayerAbsorbs: true,
	}
}

// Service records entries into the ledger and serves projections from it.
type Service struct {
	config Config

	mu     sync.Mutex
	groups map[uuid.UUID]*sync.Mutex
}

// NewService returns a Service with the given policy configuration.
func NewService(config Config) *Service {
	return &Service{
		config: config,
		groups: make(map[uuid.UUID]*sync.Mutex),
	}
}

// groupLock returns the mutex serializing appends for one group.
//
// Appending an expense must atomically validate the current membership and
// assign a sequence number. The lock only covers the validate-then-append
// region for a single group; appends to unrelated groups proceed
// independently.
func (s *Service) groupLock(groupID uuid.UUID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.groups[groupID]
	if !ok {
		lock = &sync.Mutex{}
		s.groups[groupID] = lock
	}

	return lock
}

// ExpenseRecord is the input for recording an expense.
type ExpenseRecord struct {
	GroupID     uuid.UUID
	PayerID     uuid.UUID
	Total       decimal.Decimal
	Description string
	CategoryID  *uuid.UUID
	Date        time.Time
	Mode        split.Mode

	// Participants is the ordered participant set. The order is a
	// contract: in equal mode the last participant absorbs the rounding
	// remainder. When empty, the group's current members in join order
	// are used.
	Participants []uuid.UUID

	// Shares are the caller-supplied shares for manual mode.
	Shares map[uuid.UUID]decimal.Decimal
}

// RecordExpense validates, allocates and appends an expense.
//
// All validation happens before anything is written: a rejected expense
// leaves the ledger sequence untouched. Membership is checked against the
// database's current state inside the group's append lock, so an expense
// can never reference a member that was removed mid-flight.
func (s *Service) RecordExpense(record ExpenseRecord) (models.Expense, error) {
	if !record.Total.IsPositive() || !split.Cents(record.Total) {
		return models.Expense{}, models.ErrInvalidAmount
	}

	if record.Mode == split.ModeManual {
		err := split.Validate(record.Total, record.Shares, s.config.Tolerance)
		if err != nil {
			return models.Expense{}, err
		}
	}

	lock := s.groupLock(record.GroupID)
	lock.Lock()
	defer lock.Unlock()

	var group models.Group
	err := models.DB.First(&group, "id = ?", record.GroupID).Error
	if err != nil {
		return models.Expense{}, err
	}

	members, err := group.MemberIDs(models.DB)
	if err != nil {
		return models.Expense{}, err
	}

	participants := record.Participants
	if len(participants) == 0 {
		participants, err = memberOrder(models.DB, record.GroupID)
		if err != nil {
			return models.Expense{}, err
		}
	}

	err = s.checkMembership(record.GroupID, record.PayerID, participants, members)
	if err != nil {
		return models.Expense{}, err
	}

	lines, err := split.Allocate(record.Total, participants, record.Mode, record.Shares)
	if err != nil {
		return models.Expense{}, err
	}

	if record.Mode == split.ModeManual {
		absorber := record.PayerID
		if !s.config.PayerAbsorbs {
			absorber = participants[len(participants)-1]
		}

		lines, err = split.Renormalize(record.Total, lines, absorber)
		if err != nil {
			return models.Expense{}, err
		}
	}

	expense := models.Expense{
		GroupID:     record.GroupID,
		PayerID:     record.PayerID,
		Total:       record.Total,
		Description: record.Description,
		CategoryID:  record.CategoryID,
		Date:        record.Date,
		SplitLines:  make([]models.SplitLine, 0, len(lines)),
	}
	for _, line := range lines {
		expense.SplitLines = append(expense.SplitLines, models.SplitLine{
			UserID: line.UserID,
			Share:  line.Share,
		})
	}

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Create(&expense).Error
		if err != nil {
			return err
		}

		groupID := record.GroupID
		entry := models.LedgerEntry{
			Type:      models.EntryExpense,
			GroupID:   &groupID,
			ExpenseID: &expense.ID,
		}

		return tx.Create(&entry).Error
	})
	if err != nil {
		return models.Expense{}, err
	}

	return expense, nil
}

// checkMembership verifies that the payer and every participant are
// current members of the group.
//
// A participant that was a member once but has since been removed yields
// ErrMembershipChanged so the caller can retry with fresh membership; an ID
// that never belonged to the group yields ErrUnknownParticipant.
func (s *Service) checkMembership(groupID uuid.UUID, payerID uuid.UUID, participants []uuid.UUID, members map[uuid.UUID]bool) error {
	check := func(userID uuid.UUID) error {
		if members[userID] {
			return nil
		}

		var removed int64
		err := models.DB.Unscoped().Model(&models.GroupMember{}).
			Where("group_id = ? AND user_id = ? AND deleted_at IS NOT NULL", groupID, userID).
			Count(&removed).Error
		if err != nil {
			return err
		}

		if removed > 0 {
			return membershipError{user: userID, err: models.ErrMembershipChanged}
		}

		return membershipError{user: userID, err: models.ErrUnknownParticipant}
	}

	err := check(payerID)
	if err != nil {
		return err
	}

	for _, id := range participants {
		err := check(id)
		if err != nil {
			return err
		}
	}

	return nil
}

// membershipError attaches the offending user to a membership sentinel.
type membershipError struct {
	user uuid.UUID
	err  error
}

func (e membershipError) Error() string {
	return e.err.Error() + ": " + e.user.String()
}

func (e membershipError) Unwrap() error {
	return e.err
}

// memberOrder returns the group's current member IDs in join order.
func memberOrder(db *gorm.DB, groupID uuid.UUID) ([]uuid.UUID, error) {
	var members []models.GroupMember
	err := db.Where(&models.GroupMember{GroupID: groupID}).
		Order("created_at ASC").
		Find(&members).Error
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(members))
	for _, member := range members {
		ids = append(ids, member.UserID)
	}

	return ids, nil
}

// PaymentRecord is the input for recording a settlement payment.
type PaymentRecord struct {
	PayerID     uuid.UUID
	PayeeID     uuid.UUID
	Amount      decimal.Decimal
	CategoryID  *uuid.UUID
	ExternalRef string
}

// RecordPayment appends a person-to-person settlement payment.
//
// The external reference identifies the already-confirmed gateway
// transaction; the engine trusts it and does not verify it again.
func (s *Service) RecordPayment(record PaymentRecord) (models.Payment, error) {
	if !record.Amount.IsPositive() || !split.Cents(record.Amount) {
		return models.Payment{}, models.ErrInvalidAmount
	}

	for _, id := range []uuid.UUID{record.PayerID, record.PayeeID} {
		var user models.User
		err := models.DB.First(&user, "id = ?", id).Error
		if err != nil {
			return models.Payment{}, err
		}
	}

	payment := models.Payment{
		PayerID:     record.PayerID,
		PayeeID:     record.PayeeID,
		Amount:      record.Amount,
		CategoryID:  record.CategoryID,
		ExternalRef: record.ExternalRef,
	}

	err := models.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Create(&payment).Error
		if err != nil {
			return err
		}

		entry := models.LedgerEntry{
			Type:      models.EntryPayment,
			PaymentID: &payment.ID,
		}

		return tx.Create(&entry).Error
	})
	if err != nil {
		return models.Payment{}, err
	}

	return payment, nil
}

// ReadSince returns all ledger entries with a sequence number greater than
// seq, in sequence order, with their expense or payment loaded.
func (s *Service) ReadSince(seq uint64) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	err := models.DB.
		Preload("Expense.SplitLines").
		Preload("Payment").
		Where("sequence > ?", seq).
		Order("sequence ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}

	return entries, nil
}

// IsConflict reports whether the error is the membership conflict that
// callers resolve by retrying with fresh membership.
func IsConflict(err error) bool {
	return errors.Is(err, models.ErrMembershipChanged)
}
