package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Payment is a person-to-person settlement between exactly two users.
//
// The external reference is the token of the already-confirmed gateway
// transaction. It is opaque to the engine and never re-verified here; the
// caller guarantees confirmation happened before the payment is submitted.
type Payment struct {
	DefaultModel
	PayerID     uuid.UUID       `json:"payerId" gorm:"check:payer_payee_different,payer_id != payee_id"`
	Payer       User            `json:"-"`
	PayeeID     uuid.UUID       `json:"payeeId"`
	Payee       User            `json:"-"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:DECIMAL(20,8)" example:"50.00"`
	CategoryID  *uuid.UUID      `json:"categoryId"`
	Category    Category        `json:"-"`
	ExternalRef string          `json:"externalRef" example:"pay_MkzDEXBVGyqbyM"`
	Date        time.Time       `json:"date" example:"2024-03-14T09:12:55.000000Z"`
}

func (p *Payment) BeforeSave(_ *gorm.DB) error {
	p.ExternalRef = strings.TrimSpace(p.ExternalRef)

	if p.CategoryID != nil && *p.CategoryID == uuid.Nil {
		p.CategoryID = nil
	}

	if p.Date.IsZero() {
		p.Date = time.Now().In(time.UTC)
	} else {
		p.Date = p.Date.In(time.UTC)
	}

	if !p.Amount.IsPositive() {
		return ErrInvalidAmount
	}

	if p.PayerID == p.PayeeID {
		return ErrSamePayerPayee
	}

	if p.ExternalRef == "" {
		return ErrMissingExternalRef
	}

	return nil
}

// AfterFind updates the timestamps to use UTC as
// timezone, not +0000. Yes, this is different.
//
// We already store them in UTC, but somehow reading
// them from the database returns them as +0000.
func (p *Payment) AfterFind(tx *gorm.DB) (err error) {
	err = p.DefaultModel.AfterFind(tx)
	if err != nil {
		return err
	}

	p.Date = p.Date.In(time.UTC)
	return
}
