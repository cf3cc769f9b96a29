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
	"github.com/neverthesameagain/Splitzy-Pay/internal/split"
	sp_uuid "github.com/neverthesameagain/Splitzy-Pay/internal/uuid"
)

// engine is the ledger service all handlers record into and read from.
var engine = ledger.NewService(ledger.DefaultConfig())

// RegisterExpenseRoutes registers the routes for expenses with
// the RouterGroup that is passed.
func RegisterExpenseRoutes(r *gin.RouterGroup) {
	// Root group
	{
		r.OPTIONS("", OptionsExpenses)
		r.GET("", GetExpenses)
		r.POST("", CreateExpense)
	}

	// Expense with ID
	{
		r.OPTIONS("/:id", OptionsExpenseDetail)
		r.GET("/:id", GetExpense)
	}
}

type ExpenseEditable struct {
	GroupID     uuid.UUID       `json:"groupId" example:"04c478a3-c402-4e08-a643-1cbb7eebaf5c"` // The group the expense belongs to
	PayerID     uuid.UUID       `json:"payerId" example:"d3006b00-5fb6-4d1a-ba32-6153279cb773"` // The member who paid
	Total       decimal.Decimal `json:"total" example:"100.00"`                                 // Total amount, positive with at most two decimals
	Description string          `json:"description" example:"Weekly groceries" default:""`      // Description of the expense
	CategoryID  *uuid.UUID      `json:"categoryId" example:"3b1ea324-d438-4419-882a-2fc91f71defe"`
	Date        time.Time       `json:"date" example:"2024-03-12T18:43:00.271152Z"` // Defaults to the time of recording
	Mode        split.Mode      `json:"mode" example:"equal" enums:"equal,manual"`  // How the total is split

	// Participants in order. In equal mode the last participant absorbs
	// the rounding remainder. Defaults to the group's current members in
	// join order.
	Participants []uuid.UUID `json:"participants"`

	// Shares per participant for manual mode. Participants without a
	// share get zero.
	Shares map[uuid.UUID]decimal.Decimal `json:"shares"`
}

func (editable ExpenseEditable) record() ledger.ExpenseRecord {
	return ledger.ExpenseRecord{
		GroupID:      editable.GroupID,
		PayerID:      editable.PayerID,
		Total:        editable.Total,
		Description:  editable.Description,
		CategoryID:   editable.CategoryID,
		Date:         editable.Date,
		Mode:         editable.Mode,
		Participants: editable.Participants,
		Shares:       editable.Shares,
	}
}

type ExpenseSplitLine struct {
	UserID uuid.UUID       `json:"userId"`
	Share  decimal.Decimal `json:"share" example:"33.34"`
}

type ExpenseLinks struct {
	Self  string `json:"self" example:"https://example.com/api/v1/expenses/a6b0b3b5-71b6-4993-8922-48f4a3574aad"` // The expense itself
	Group string `json:"group" example:"https://example.com/api/v1/groups/04c478a3-c402-4e08-a643-1cbb7eebaf5c"`  // The group
}

// Expense is the representation of an Expense in API v1.
type Expense struct {
	models.DefaultModel
	GroupID     uuid.UUID          `json:"groupId"`
	PayerID     uuid.UUID          `json:"payerId"`
	Total       decimal.Decimal    `json:"total" example:"100.00"`
	Description string             `json:"description"`
	CategoryID  *uuid.UUID         `json:"categoryId"`
	Date        time.Time          `json:"date"`
	SplitLines  []ExpenseSplitLine `json:"splitLines"`
	Links       ExpenseLinks       `json:"links"`
}

// newExpense returns the API v1 representation of the resource.
func newExpense(c *gin.Context, model models.Expense) Expense {
	url := c.GetString(baseURLKey)

	lines := make([]ExpenseSplitLine, 0, len(model.SplitLines))
	for _, line := range model.SplitLines {
		lines = append(lines, ExpenseSplitLine{
			UserID: line.UserID,
			Share:  line.Share,
		})
	}

	return Expense{
		DefaultModel: model.DefaultModel,
		GroupID:      model.GroupID,
		PayerID:      model.PayerID,
		Total:        model.Total,
		Description:  model.Description,
		CategoryID:   model.CategoryID,
		Date:         model.Date,
		SplitLines:   lines,
		Links: ExpenseLinks{
			Self:  fmt.Sprintf("%s/v1/expenses/%s", url, model.ID),
			Group: fmt.Sprintf("%s/v1/groups/%s", url, model.GroupID),
		},
	}
}

type ExpenseResponse struct {
	Error *string  `json:"error" example:"the split shares do not add up to the expense total"` // The error, if any occurred
	Data  *Expense `json:"data"`                                                                // The Expense data
}

type ExpenseListResponse struct {
	Error *string   `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
	Data  []Expense `json:"data"`                                                          // List of expenses in ledger order
}

type ExpenseQueryFilter struct {
	GroupID sp_uuid.UUID `form:"group"` // Filter by group ID
	UserID  sp_uuid.UUID `form:"user"`  // Filter by a participant's user ID
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Expenses
// @Success		204
// @Router			/v1/expenses [options]
func OptionsExpenses(c *gin.Context) {
	httputil.OptionsGetPost(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Expenses
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Param			id	path	string	true	"ID formatted as string"
// @Router			/v1/expenses/{id} [options]
func OptionsExpenseDetail(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	var expense models.Expense
	err = models.DB.First(&expense, "id = ?", uri.ID.UUID).Error
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	httputil.OptionsGet(c)
}

// @Summary		Record expense
// @Description	Validates the split, allocates shares and appends the expense to the ledger. Expenses are immutable once recorded.
// @Tags			Expenses
// @Accept			json
// @Produce		json
// @Success		201		{object}	ExpenseResponse
// @Failure		400		{object}	ExpenseResponse
// @Failure		404		{object}	ExpenseResponse
// @Failure		409		{object}	ExpenseResponse	"The group membership changed while recording, retry with fresh membership"
// @Failure		500		{object}	ExpenseResponse
// @Param			expense	body		ExpenseEditable	true	"Expense"
// @Router			/v1/expenses [post]
func CreateExpense(c *gin.Context) {
	var editable ExpenseEditable
	err := httputil.BindData(c, &editable)
	if err != nil {
		e := err.Error()
		c.JSON(http.StatusBadRequest, ExpenseResponse{Error: &e})
		return
	}

	expense, err := engine.RecordExpense(editable.record())
	if err != nil {
		e := err.Error()
		c.JSON(status(err), ExpenseResponse{Error: &e})
		return
	}

	data := newExpense(c, expense)
	c.JSON(http.StatusCreated, ExpenseResponse{Data: &data})
}

// @Summary		Get expenses
// @Description	Returns expenses in ledger order, optionally filtered by group or participant
// @Tags			Expenses
// @Produce		json
// @Success		200		{object}	ExpenseListResponse
// @Failure		400		{object}	ExpenseListResponse
// @Failure		500		{object}	ExpenseListResponse
// @Param			group	query		string	false	"Filter by group ID"
// @Param			user	query		string	false	"Filter by participant user ID"
// @Router			/v1/expenses [get]
func GetExpenses(c *gin.Context) {
	var filter ExpenseQueryFilter
	if err := c.Bind(&filter); err != nil {
		e := err.Error()
		c.JSON(http.StatusBadRequest, ExpenseListResponse{Error: &e})
		return
	}

	q := models.DB.Preload("SplitLines").
		Joins("JOIN ledger_entries ON ledger_entries.expense_id = expenses.id").
		Order("ledger_entries.sequence ASC")

	if filter.GroupID != sp_uuid.Nil {
		q = q.Where("expenses.group_id = ?", filter.GroupID.UUID)
	}

	if filter.UserID != sp_uuid.Nil {
		q = q.Where(
			"expenses.payer_id = ? OR expenses.id IN (SELECT expense_id FROM split_lines WHERE user_id = ?)",
			filter.UserID.UUID, filter.UserID.UUID,
		)
	}

	var expenses []models.Expense
	err := q.Find(&expenses).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), ExpenseListResponse{Error: &e})
		return
	}

	data := make([]Expense, 0, len(expenses))
	for _, expense := range expenses {
		data = append(data, newExpense(c, expense))
	}

	c.JSON(http.StatusOK, ExpenseListResponse{Data: data})
}

// @Summary		Get expense
// @Description	Returns a specific expense with its split lines
// @Tags			Expenses
// @Produce		json
// @Success		200	{object}	ExpenseResponse
// @Failure		400	{object}	ExpenseResponse
// @Failure		404	{object}	ExpenseResponse
// @Param			id	path	string	true	"ID formatted as string"
// @Router			/v1/expenses/{id} [get]
func GetExpense(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), ExpenseResponse{Error: &e})
		return
	}

	var expense models.Expense
	err = models.DB.Preload("SplitLines").First(&expense, "id = ?", uri.ID.UUID).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), ExpenseResponse{Error: &e})
		return
	}

	data := newExpense(c, expense)
	c.JSON(http.StatusOK, ExpenseResponse{Data: &data})
}
