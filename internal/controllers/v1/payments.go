package v1

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/neverthesameagain/Splitzy-Pay/internal/httputil"
	"github.com/neverthesameagain/Splitzy-Pay/internal/ledger"
	"github.com/neverthesameagain/Splitzy-Pay/internal/models"
	sp_uuid "github.com/neverthesameagain/Splitzy-Pay/internal/uuid"
)

// RegisterPaymentRoutes registers the routes for payments with
// the RouterGroup that is passed.
func RegisterPaymentRoutes(r *gin.RouterGroup) {
	// Root group
	{
		r.OPTIONS("", OptionsPayments)
		r.GET("", GetPayments)
		r.POST("", CreatePayment)
	}

	// Payment with ID
	{
		r.OPTIONS("/:id", OptionsPaymentDetail)
		r.GET("/:id", GetPayment)
	}
}

type PaymentEditable struct {
	PayerID    uuid.UUID       `json:"payerId" example:"d3006b00-5fb6-4d1a-ba32-6153279cb773"` // The paying user
	PayeeID    uuid.UUID       `json:"payeeId" example:"5b8dc6d3-a6b2-4947-9a5e-e6bb4db4a9d5"` // The receiving user
	Amount     decimal.Decimal `json:"amount" example:"50.00"`                                 // Amount, positive with at most two decimals
	CategoryID *uuid.UUID      `json:"categoryId"`

	// ExternalRef is the token of the confirmed gateway transaction.
	// The engine trusts it and does not verify it again.
	ExternalRef string `json:"externalRef" example:"pay_MkzDEXBVGyqbyM"`
}

func (editable PaymentEditable) record() ledger.PaymentRecord {
	return ledger.PaymentRecord{
		PayerID:     editable.PayerID,
		PayeeID:     editable.PayeeID,
		Amount:      editable.Amount,
		CategoryID:  editable.CategoryID,
		ExternalRef: editable.ExternalRef,
	}
}

type PaymentLinks struct {
	Self string `json:"self" example:"https://example.com/api/v1/payments/6f02338c-9e7f-4b01-ae7f-0a1e29d02c85"` // The payment itself
}

// Payment is the representation of a Payment in API v1.
type Payment struct {
	models.DefaultModel
	PaymentEditable
	Date  time.Time    `json:"date"`
	Links PaymentLinks `json:"links"`
}

// newPayment returns the API v1 representation of the resource.
func newPayment(c *gin.Context, model models.Payment) Payment {
	url := c.GetString(baseURLKey)

	return Payment{
		DefaultModel: model.DefaultModel,
		PaymentEditable: PaymentEditable{
			PayerID:     model.PayerID,
			PayeeID:     model.PayeeID,
			Amount:      model.Amount,
			CategoryID:  model.CategoryID,
			ExternalRef: model.ExternalRef,
		},
		Date: model.Date,
		Links: PaymentLinks{
			Self: fmt.Sprintf("%s/v1/payments/%s", url, model.ID),
		},
	}
}

type PaymentResponse struct {
	Error *string  `json:"error" example:"payer and payee of a payment must be different users"` // The error, if any occurred
	Data  *Payment `json:"data"`                                                                 // The Payment data
}

type PaymentListResponse struct {
	Error *string   `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
	Data  []Payment `json:"data"`                                                          // List of payments in ledger order
}

type PaymentQueryFilter struct {
	UserID sp_uuid.UUID `form:"user"` // Filter by payer or payee user ID
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Payments
// @Success		204
// @Router			/v1/payments [options]
func OptionsPayments(c *gin.Context) {
	httputil.OptionsGetPost(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Payments
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Param			id	path	string	true	"ID formatted as string"
// @Router			/v1/payments/{id} [options]
func OptionsPaymentDetail(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	var payment models.Payment
	err = models.DB.First(&payment, "id = ?", uri.ID.UUID).Error
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	httputil.OptionsGet(c)
}

// @Summary		Record payment
// @Description	Appends a person-to-person settlement payment to the ledger. Payments are immutable once recorded.
// @Tags			Payments
// @Accept			json
// @Produce		json
// @Success		201		{object}	PaymentResponse
// @Failure		400		{object}	PaymentResponse
// @Failure		404		{object}	PaymentResponse
// @Failure		500		{object}	PaymentResponse
// @Param			payment	body		PaymentEditable	true	"Payment"
// @Router			/v1/payments [post]
func CreatePayment(c *gin.Context) {
	var editable PaymentEditable
	err := httputil.BindData(c, &editable)
	if err != nil {
		e := err.Error()
		c.JSON(http.StatusBadRequest, PaymentResponse{Error: &e})
		return
	}

	payment, err := engine.RecordPayment(editable.record())
	if err != nil {
		e := err.Error()
		c.JSON(status(err), PaymentResponse{Error: &e})
		return
	}

	data := newPayment(c, payment)
	c.JSON(http.StatusCreated, PaymentResponse{Data: &data})
}

// @Summary		Get payments
// @Description	Returns payments in ledger order, optionally filtered by payer or payee
// @Tags			Payments
// @Produce		json
// @Success		200		{object}	PaymentListResponse
// @Failure		400		{object}	PaymentListResponse
// @Failure		500		{object}	PaymentListResponse
// @Param			user	query		string	false	"Filter by payer or payee user ID"
// @Router			/v1/payments [get]
func GetPayments(c *gin.Context) {
	var filter PaymentQueryFilter
	if err := c.Bind(&filter); err != nil {
		e := err.Error()
		c.JSON(http.StatusBadRequest, PaymentListResponse{Error: &e})
		return
	}

	q := models.DB.
		Joins("JOIN ledger_entries ON ledger_entries.payment_id = payments.id").
		Order("ledger_entries.sequence ASC")

	if filter.UserID != sp_uuid.Nil {
		q = q.Where("payments.payer_id = ? OR payments.payee_id = ?", filter.UserID.UUID, filter.UserID.UUID)
	}

	var payments []models.Payment
	err := q.Find(&payments).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), PaymentListResponse{Error: &e})
		return
	}

	data := make([]Payment, 0, len(payments))
	for _, payment := range payments {
		data = append(data, newPayment(c, payment))
	}

	c.JSON(http.StatusOK, PaymentListResponse{Data: data})
}

// @Summary		Get payment
// @Description	Returns a specific payment
// @Tags			Payments
// @Produce		json
// @Success		200	{object}	PaymentResponse
// @Failure		400	{object}	PaymentResponse
// @Failure		404	{object}	PaymentResponse
// @Param			id	path	string	true	"ID formatted as string"
// @Router			/v1/payments/{id} [get]
func GetPayment(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), PaymentResponse{Error: &e})
		return
	}

	var payment models.Payment
	err = models.DB.First(&payment, "id = ?", uri.ID.UUID).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), PaymentResponse{Error: &e})
		return
	}

	data := newPayment(c, payment)
	c.JSON(http.StatusOK, PaymentResponse{Data: &data})
}
