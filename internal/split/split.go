// Package split implements the allocation and validation of expense splits.
//
// All arithmetic happens on decimal values with two fractional digits,
// never on binary floats. Allocation guarantees by construction that the
// produced shares sum exactly to the expense total.
package split

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/neverthesameagain/Splitzy-Pay/internal/models"
)

// Mode selects how an expense total is divided across participants.
type Mode string

const (
	// ModeEqual divides the total evenly, the last participant absorbs
	// the rounding remainder.
	ModeEqual Mode = "equal"

	// ModeManual uses caller-supplied shares per participant.
	ModeManual Mode = "manual"
)

// Line is one participant's share of an expense total.
type Line struct {
	UserID uuid.UUID
	Share  decimal.Decimal
}

// Sum returns the sum of all shares.
func Sum(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, line := range lines {
		sum = sum.Add(line.Share)
	}

	return sum
}

// Allocate produces the split lines for an expense.
//
// The order of participants is part of the contract: in equal mode, every
// participant except the last one gets the truncated equal share and the
// last one gets what remains, so the shares always sum to the total
// exactly. Callers that want a different participant to absorb the
// remainder reorder the input.
//
// In manual mode, participants missing from the shares map get a zero
// line instead of being dropped, so the stored split always covers the
// full participant set.
func Allocate(total decimal.Decimal, participants []uuid.UUID, mode Mode, shares map[uuid.UUID]decimal.Decimal) ([]Line, error) {
	if !total.IsPositive() {
		return nil, models.ErrInvalidAmount
	}

	if len(participants) == 0 {
		return nil, models.ErrNoParticipants
	}

	seen := make(map[uuid.UUID]bool, len(participants))
	for _, id := range participants {
		if seen[id] {
			return nil, models.ErrDuplicateParticipant
		}
		seen[id] = true
	}

	switch mode {
	case ModeEqual:
		return equal(total, participants), nil
	case ModeManual:
		return manual(participants, shares, seen)
	}

	return nil, models.ErrSplitModeInvalid
}

// equal computes the equal split with the rounding remainder assigned to
// the last participant.
func equal(total decimal.Decimal, participants []uuid.UUID) []Line {
	n := int64(len(participants))
	base := total.Div(decimal.NewFromInt(n)).Truncate(2)

	lines := make([]Line, n)
	for i, id := range participants {
		lines[i] = Line{UserID: id, Share: base}
	}

	lines[n-1].Share = total.Sub(base.Mul(decimal.NewFromInt(n - 1)))
	return lines
}

// manual turns the caller-supplied shares into a complete line set over
// all participants.
//
// Every shares key must be a participant. A key outside the participant
// set would otherwise vanish from the stored lines and its amount would be
// shifted onto the renormalization absorber.
func manual(participants []uuid.UUID, shares map[uuid.UUID]decimal.Decimal, participantSet map[uuid.UUID]bool) ([]Line, error) {
	for id := range shares {
		if !participantSet[id] {
			return nil, models.ErrUnknownParticipant
		}
	}

	lines := make([]Line, 0, len(participants))
	for _, id := range participants {
		share, ok := shares[id]
		if !ok {
			share = decimal.Zero
		}

		if share.IsNegative() {
			return nil, models.ErrNegativeShare
		}

		lines = append(lines, Line{UserID: id, Share: share})
	}

	return lines, nil
}

// Validate checks a candidate manual split against the claimed total.
//
// The tolerance absorbs client-side rounding of manually entered decimals,
// never logic errors: a candidate within tolerance still gets renormalized
// to an exact sum before it is stored.
func Validate(total decimal.Decimal, shares map[uuid.UUID]decimal.Decimal, tolerance decimal.Decimal) error {
	sum := decimal.Zero
	for _, share := range shares {
		if share.IsNegative() {
			return models.ErrNegativeShare
		}
		sum = sum.Add(share)
	}

	if sum.Sub(total).Abs().GreaterThan(tolerance) {
		return models.ErrSplitMismatch
	}

	return nil
}

// Renormalize brings a within-tolerance split to an exact sum by applying
// the difference to the absorber's line. The absorber is the expense payer
// by policy; see ledger.Config.
func Renormalize(total decimal.Decimal, lines []Line, absorber uuid.UUID) ([]Line, error) {
	diff := total.Sub(Sum(lines))
	if diff.IsZero() {
		return lines, nil
	}

	for i := range lines {
		if lines[i].UserID == absorber {
			adjusted := lines[i].Share.Add(diff)
			if adjusted.IsNegative() {
				return nil, models.ErrNegativeShare
			}

			lines[i].Share = adjusted
			return lines, nil
		}
	}

	// The absorber carries no share yet. This can only happen for manual
	// splits that omit the payer, so the whole difference becomes their
	// share.
	if diff.IsNegative() {
		return nil, models.ErrNegativeShare
	}

	return append(lines, Line{UserID: absorber, Share: diff}), nil
}

// Cents reports whether the amount has at most two fractional digits.
func Cents(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(2))
}
