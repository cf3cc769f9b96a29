package ledger

import (
	"bytes"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/neverthesameagain/Splitzy-Pay/internal/models"
)

// Pair is an unordered user pair in canonical order (A sorts before B).
type Pair struct {
	A uuid.UUID
	B uuid.UUID
}

// NewPair returns the canonical Pair for two users.
func NewPair(a, b uuid.UUID) Pair {
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}

	return Pair{A: a, B: b}
}

// Balances is the result of folding ledger entries: for every canonical
// pair, the signed amount A owes B.
//
// Balances are derived state. They are never written back to the database
// and can always be rebuilt by replaying the ledger from an empty value.
// LastSequence records how far the fold has progressed so new entries can
// be applied incrementally; an incremental fold and a full replay yield
// identical results.
type Balances struct {
	LastSequence uint64

	net map[Pair]decimal.Decimal
}

// NewBalances returns the empty fold state.
func NewBalances() *Balances {
	return &Balances{
		net: make(map[Pair]decimal.Decimal),
	}
}

// add records that a owes b the given amount.
func (b *Balances) add(debtor, creditor uuid.UUID, amount decimal.Decimal) {
	pair := NewPair(debtor, creditor)
	if pair.A != debtor {
		amount = amount.Neg()
	}

	b.net[pair] = b.net[pair].Add(amount)
}

// Apply folds one ledger entry into the balances.
//
// An expense makes every non-payer participant owe the payer their share.
// A payment reduces what the payer owes the payee; the signed accumulation
// handles the case where the debt direction was already reversed.
//
// The fold is commutative over independent pairs and associative over the
// sequence, so applying entries one at a time in sequence order is
// equivalent to a full replay.
func (b *Balances) Apply(entry models.LedgerEntry) {
	switch entry.Type {
	case models.EntryExpense:
		if entry.Expense == nil {
			return
		}

		for _, line := range entry.Expense.SplitLines {
			if line.UserID == entry.Expense.PayerID || line.Share.IsZero() {
				continue
			}

			b.add(line.UserID, entry.Expense.PayerID, line.Share)
		}
	case models.EntryPayment:
		if entry.Payment == nil {
			return
		}

		b.add(entry.Payment.PayerID, entry.Payment.PayeeID, entry.Payment.Amount.Neg())
	}

	if entry.Sequence > b.LastSequence {
		b.LastSequence = entry.Sequence
	}
}

// Pairwise returns the signed amount a owes b. Positive means a owes b;
// Pairwise(a, b) is always the negation of Pairwise(b, a).
func (b *Balances) Pairwise(a, other uuid.UUID) decimal.Decimal {
	pair := NewPair(a, other)
	amount := b.net[pair]
	if pair.A != a {
		amount = amount.Neg()
	}

	return amount
}

// Pairs returns all pairs with a nonzero balance.
func (b *Balances) Pairs() map[Pair]decimal.Decimal {
	result := make(map[Pair]decimal.Decimal, len(b.net))
	for pair, amount := range b.net {
		if amount.IsZero() {
			continue
		}

		result[pair] = amount
	}

	return result
}

// NetBalance is the aggregate position of a single user.
type NetBalance struct {
	Owes decimal.Decimal `json:"owes" example:"12.50"` // Sum of all debts the user has to others
	Owed decimal.Decimal `json:"owed" example:"70.00"` // Sum of all debts others have to the user
	Net  decimal.Decimal `json:"net" example:"57.50"`  // Owed minus owes
}

// Net aggregates all pairwise balances touching the user by summing the
// positive and negative legs separately.
func (b *Balances) Net(userID uuid.UUID) NetBalance {
	result := NetBalance{
		Owes: decimal.Zero,
		Owed: decimal.Zero,
	}

	for pair := range b.net {
		if pair.A != userID && pair.B != userID {
			continue
		}

		other := pair.A
		if other == userID {
			other = pair.B
		}

		amount := b.Pairwise(userID, other)
		if amount.IsPositive() {
			result.Owes = result.Owes.Add(amount)
		} else {
			result.Owed = result.Owed.Add(amount.Neg())
		}
	}

	result.Net = result.Owed.Sub(result.Owes)
	return result
}

// GroupBalances folds the group's ledger: all expenses of the group plus
// all payments where both parties are members (current or former), since a
// settlement between two members reduces group debt even though payments
// themselves are not group-scoped.
func (s *Service) GroupBalances(groupID uuid.UUID) (*Balances, error) {
	var group models.Group
	err := models.DB.First(&group, "id = ?", groupID).Error
	if err != nil {
		return nil, err
	}

	entries, err := s.ReadGroup(groupID)
	if err != nil {
		return nil, err
	}

	balances := NewBalances()
	for _, entry := range entries {
		balances.Apply(entry)
	}

	return balances, nil
}

// ReadGroup returns the group's fold-relevant ledger entries in sequence
// order: the group's expenses, plus payments where both parties are current
// or former members.
func (s *Service) ReadGroup(groupID uuid.UUID) ([]models.LedgerEntry, error) {
	members, err := groupMembersEver(groupID)
	if err != nil {
		return nil, err
	}

	entries, err := s.ReadSince(0)
	if err != nil {
		return nil, err
	}

	result := make([]models.LedgerEntry, 0, len(entries))
	for _, entry := range entries {
		switch entry.Type {
		case models.EntryExpense:
			if entry.GroupID == nil || *entry.GroupID != groupID {
				continue
			}
		case models.EntryPayment:
			if entry.Payment == nil || !members[entry.Payment.PayerID] || !members[entry.Payment.PayeeID] {
				continue
			}
		}

		result = append(result, entry)
	}

	return result, nil
}

// ReadUser returns the ledger entries that touch the user, in sequence
// order.
func (s *Service) ReadUser(userID uuid.UUID) ([]models.LedgerEntry, error) {
	entries, err := s.ReadSince(0)
	if err != nil {
		return nil, err
	}

	result := make([]models.LedgerEntry, 0, len(entries))
	for _, entry := range entries {
		if touches(entry, userID) {
			result = append(result, entry)
		}
	}

	return result, nil
}

// UserBalances folds every ledger entry that touches the user.
func (s *Service) UserBalances(userID uuid.UUID) (*Balances, error) {
	var user models.User
	err := models.DB.First(&user, "id = ?", userID).Error
	if err != nil {
		return nil, err
	}

	entries, err := s.ReadUser(userID)
	if err != nil {
		return nil, err
	}

	balances := NewBalances()
	for _, entry := range entries {
		balances.Apply(entry)
	}

	return balances, nil
}

// PairwiseBalance replays the ledger and returns the signed amount a owes b.
// Only entries touching both users can move the pair's balance, so the fold
// skips everything else.
func (s *Service) PairwiseBalance(a, b uuid.UUID) (decimal.Decimal, error) {
	var user models.User
	err := models.DB.First(&user, "id = ?", a).Error
	if err != nil {
		return decimal.Zero, err
	}

	entries, err := s.ReadUser(a)
	if err != nil {
		return decimal.Zero, err
	}

	balances := NewBalances()
	for _, entry := range entries {
		if !touches(entry, b) {
			continue
		}

		balances.Apply(entry)
	}

	return balances.Pairwise(a, b), nil
}

// touches reports whether a ledger entry affects the user's balances.
func touches(entry models.LedgerEntry, userID uuid.UUID) bool {
	switch entry.Type {
	case models.EntryExpense:
		if entry.Expense == nil {
			return false
		}

		if entry.Expense.PayerID == userID {
			return true
		}

		for _, line := range entry.Expense.SplitLines {
			if line.UserID == userID {
				return true
			}
		}
	case models.EntryPayment:
		if entry.Payment == nil {
			return false
		}

		return entry.Payment.PayerID == userID || entry.Payment.PayeeID == userID
	}

	return false
}

// groupMembersEver returns all users that are or ever were members of the
// group, including soft-deleted memberships.
func groupMembersEver(groupID uuid.UUID) (map[uuid.UUID]bool, error) {
	var members []models.GroupMember
	err := models.DB.Unscoped().
		Where("group_id = ?", groupID).
		Find(&members).Error
	if err != nil {
		return nil, err
	}

	ids := make(map[uuid.UUID]bool, len(members))
	for _, member := range members {
		ids[member.UserID] = true
	}

	return ids, nil
}
