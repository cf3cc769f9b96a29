package v1

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/exp/slices"

	"github.com/neverthesameagain/Splitzy-Pay/internal/ledger"
)

// PairBalance is one nonzero debt between two users, reported in the
// direction the money is owed: From owes To the (positive) Amount.
type PairBalance struct {
	From   uuid.UUID       `json:"from"`                    // The user who owes
	To     uuid.UUID       `json:"to"`                      // The user who is owed
	Amount decimal.Decimal `json:"amount" example:"16.67"` // The amount owed, always positive
}

type GroupBalancesResponse struct {
	Error *string       `json:"error" example:"there is no group matching your query"` // The error, if any occurred
	Data  []PairBalance `json:"data"`                                                  // All nonzero pairwise debts in the group
}

type NetBalanceResponse struct {
	Error *string            `json:"error" example:"there is no user matching your query"` // The error, if any occurred
	Data  *ledger.NetBalance `json:"data"`                                                 // The user's aggregate position
}

// newPairBalances flattens a fold result into debtor-to-creditor pairs.
func newPairBalances(balances *ledger.Balances) []PairBalance {
	pairs := balances.Pairs()

	data := make([]PairBalance, 0, len(pairs))
	for pair, amount := range pairs {
		from, to := pair.A, pair.B
		if amount.IsNegative() {
			from, to = to, from
			amount = amount.Neg()
		}

		data = append(data, PairBalance{From: from, To: to, Amount: amount})
	}

	// Map iteration order is random, sort for a stable response
	slices.SortFunc(data, func(a, b PairBalance) int {
		if c := bytes.Compare(a.From[:], b.From[:]); c != 0 {
			return c
		}

		return bytes.Compare(a.To[:], b.To[:])
	})

	return data
}

// @Summary		Get group balances
// @Description	Returns all nonzero pairwise debts in the group, derived by replaying the ledger
// @Tags			Balances
// @Produce		json
// @Success		200	{object}	GroupBalancesResponse
// @Failure		400	{object}	GroupBalancesResponse
// @Failure		404	{object}	GroupBalancesResponse
// @Param			id	path	string	true	"ID formatted as string"
// @Router			/v1/groups/{id}/balances [get]
func GetGroupBalances(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), GroupBalancesResponse{Error: &e})
		return
	}

	balances, err := engine.GroupBalances(uri.ID.UUID)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), GroupBalancesResponse{Error: &e})
		return
	}

	c.JSON(http.StatusOK, GroupBalancesResponse{Data: newPairBalances(balances)})
}

// @Summary		Get user balance
// @Description	Returns the user's aggregate owes/owed/net position across all groups and payments
// @Tags			Balances
// @Produce		json
// @Success		200	{object}	NetBalanceResponse
// @Failure		400	{object}	NetBalanceResponse
// @Failure		404	{object}	NetBalanceResponse
// @Param			id	path	string	true	"ID formatted as string"
// @Router			/v1/users/{id}/balance [get]
func GetUserBalance(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), NetBalanceResponse{Error: &e})
		return
	}

	balances, err := engine.UserBalances(uri.ID.UUID)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), NetBalanceResponse{Error: &e})
		return
	}

	net := balances.Net(uri.ID.UUID)
	c.JSON(http.StatusOK, NetBalanceResponse{Data: &net})
}
