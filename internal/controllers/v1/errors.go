package v1

import (
	"errors"
	"net/http"

	"github.com/neverthesameagain/Splitzy-Pay/internal/models"
)

type httpError struct {
	Error string `json:"error" example:"An ID specified in the query string was not a valid UUID"`
}

// status returns the appropriate HTTP status for an engine error.
func status(err error) int {
	if errors.Is(err, models.ErrGeneral) {
		return http.StatusInternalServerError
	}

	if errors.Is(err, models.ErrResourceNotFound) {
		return http.StatusNotFound
	}

	// The caller must retry with fresh membership
	if errors.Is(err, models.ErrMembershipChanged) {
		return http.StatusConflict
	}

	return http.StatusBadRequest
}

var (
	errUserIDParameter     = errors.New("the user query parameter must be set")
	errCategoryIDParameter = errors.New("the category query parameter must be set")
	errPeriodParameter     = errors.New("the period query parameter must be set in YYYY-MM format")
)
