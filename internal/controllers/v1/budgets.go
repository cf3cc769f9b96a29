package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/neverthesameagain/Splitzy-Pay/internal/httputil"
	"github.com/neverthesameagain/Splitzy-Pay/internal/ledger"
	"github.com/neverthesameagain/Splitzy-Pay/internal/models"
	"github.com/neverthesameagain/Splitzy-Pay/internal/types"
	sp_uuid "github.com/neverthesameagain/Splitzy-Pay/internal/uuid"
)

// RegisterBudgetRoutes registers the routes for budgets with
// the RouterGroup that is passed.
func RegisterBudgetRoutes(r *gin.RouterGroup) {
	r.OPTIONS("", OptionsBudgets)
	r.PUT("", SetBudget)
	r.GET("/progress", GetBudgetProgress)
}

type BudgetEditable struct {
	UserID     uuid.UUID       `json:"userId" example:"d3006b00-5fb6-4d1a-ba32-6153279cb773"`     // The user the allocation belongs to
	CategoryID uuid.UUID       `json:"categoryId" example:"3b1ea324-d438-4419-882a-2fc91f71defe"` // The category the allocation is for
	Period     types.Period    `json:"period" example:"2024-03"`                                  // The period, a calendar month
	Allocated  decimal.Decimal `json:"allocated" example:"300.00"`                                // The allocated amount, not negative
}

// Budget is the representation of a Budget in API v1.
type Budget struct {
	models.DefaultModel
	UserID     uuid.UUID       `json:"userId"`
	CategoryID uuid.UUID       `json:"categoryId"`
	Period     types.Period    `json:"period"`
	Allocated  decimal.Decimal `json:"allocated" example:"300.00"`
}

// newBudget returns the API v1 representation of the resource.
func newBudget(model models.Budget) Budget {
	return Budget{
		DefaultModel: model.DefaultModel,
		UserID:       model.UserID,
		CategoryID:   model.CategoryID,
		Period:       model.Period,
		Allocated:    model.Allocated,
	}
}

type BudgetResponse struct {
	Error *string `json:"error" example:"the amount must be positive"` // The error, if any occurred
	Data  *Budget `json:"data"`                                        // The Budget data
}

type BudgetProgressResponse struct {
	Error *string          `json:"error" example:"the period query parameter must be set in YYYY-MM format"` // The error, if any occurred
	Data  *ledger.Progress `json:"data"`                                                                     // Allocation, derived spend and remainder
}

type BudgetProgressQuery struct {
	UserID     sp_uuid.UUID `form:"user"`     // The user to report on
	CategoryID sp_uuid.UUID `form:"category"` // The category to report on
	Period     string       `form:"period"`   // The period in YYYY-MM format
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Budgets
// @Success		204
// @Router			/v1/budgets [options]
func OptionsBudgets(c *gin.Context) {
	httputil.OptionsPut(c)
}

// @Summary		Set budget
// @Description	Upserts the allocated amount for one user, category and period. The spent amount is always derived from the ledger and cannot be set.
// @Tags			Budgets
// @Accept			json
// @Produce		json
// @Success		200		{object}	BudgetResponse
// @Failure		400		{object}	BudgetResponse
// @Failure		404		{object}	BudgetResponse
// @Failure		500		{object}	BudgetResponse
// @Param			budget	body		BudgetEditable	true	"Budget"
// @Router			/v1/budgets [put]
func SetBudget(c *gin.Context) {
	var editable BudgetEditable
	err := httputil.BindData(c, &editable)
	if err != nil {
		e := err.Error()
		c.JSON(http.StatusBadRequest, BudgetResponse{Error: &e})
		return
	}

	var user models.User
	err = models.DB.First(&user, "id = ?", editable.UserID).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), BudgetResponse{Error: &e})
		return
	}

	var category models.Category
	err = models.DB.First(&category, "id = ?", editable.CategoryID).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), BudgetResponse{Error: &e})
		return
	}

	budget, err := engine.SetBudget(editable.UserID, editable.CategoryID, editable.Period, editable.Allocated)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), BudgetResponse{Error: &e})
		return
	}

	data := newBudget(budget)
	c.JSON(http.StatusOK, BudgetResponse{Data: &data})
}

// @Summary		Get budget progress
// @Description	Returns allocation, ledger-derived spend and the remainder for one user, category and period
// @Tags			Budgets
// @Produce		json
// @Success		200			{object}	BudgetProgressResponse
// @Failure		400			{object}	BudgetProgressResponse
// @Failure		404			{object}	BudgetProgressResponse
// @Param			user		query		string	true	"User ID"
// @Param			category	query		string	true	"Category ID"
// @Param			period		query		string	true	"Period in YYYY-MM format"
// @Router			/v1/budgets/progress [get]
func GetBudgetProgress(c *gin.Context) {
	var query BudgetProgressQuery
	if err := c.Bind(&query); err != nil {
		e := err.Error()
		c.JSON(http.StatusBadRequest, BudgetProgressResponse{Error: &e})
		return
	}

	if query.UserID == sp_uuid.Nil {
		e := errUserIDParameter.Error()
		c.JSON(http.StatusBadRequest, BudgetProgressResponse{Error: &e})
		return
	}

	if query.CategoryID == sp_uuid.Nil {
		e := errCategoryIDParameter.Error()
		c.JSON(http.StatusBadRequest, BudgetProgressResponse{Error: &e})
		return
	}

	period, err := types.ParsePeriod(query.Period)
	if err != nil {
		e := errPeriodParameter.Error()
		c.JSON(http.StatusBadRequest, BudgetProgressResponse{Error: &e})
		return
	}

	progress, err := engine.BudgetProgress(query.UserID.UUID, query.CategoryID.UUID, period)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), BudgetProgressResponse{Error: &e})
		return
	}

	c.JSON(http.StatusOK, BudgetProgressResponse{Data: &progress})
}
