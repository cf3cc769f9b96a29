package models

import (
	"errors"
)

var (
	ErrGeneral          = errors.New("an error occurred on the server during your request")
	ErrResourceNotFound = errors.New("there is no")

	// Validation errors for recording expenses and payments. All of them
	// are detected before anything is appended to the ledger.
	ErrInvalidAmount        = errors.New("the amount must be positive")
	ErrSplitMismatch        = errors.New("the split shares do not add up to the expense total")
	ErrNegativeShare        = errors.New("split shares must not be negative")
	ErrDuplicateParticipant = errors.New("a participant is listed more than once")
	ErrNoParticipants       = errors.New("an expense needs at least one participant")
	ErrUnknownParticipant   = errors.New("a participant is not a member of the group")
	ErrSamePayerPayee       = errors.New("payer and payee of a payment must be different users")
	ErrSplitModeInvalid     = errors.New("the split mode must be equal or manual")
	ErrMissingExternalRef   = errors.New("a payment needs the reference of the confirmed gateway transaction")

	// ErrMembershipChanged is returned when the member set of a group
	// changed between request validation and the ledger append. Callers
	// should retry with fresh membership.
	ErrMembershipChanged = errors.New("the group membership changed while recording the expense")

	ErrGroupNameNotSet = errors.New("a group needs a name")
	ErrLastAdmin       = errors.New("the last admin of a group cannot be removed")
	ErrMemberExists    = errors.New("the user is already a member of the group")

	ErrEmailNotUnique        = errors.New("a user with this email address already exists")
	ErrCategoryNameNotUnique = errors.New("a category with this name already exists")
)
