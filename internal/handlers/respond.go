package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"wagerpool-backend/internal/models"
)

// fail maps an error kind to an HTTP status and an error body with a
// stable code.
func fail(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{
		"error": err.Error(),
		"code":  models.ErrorCode(err),
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrReservationNotFound),
		errors.Is(err, models.ErrRequestNotFound),
		errors.Is(err, models.ErrGameNotFound),
		errors.Is(err, models.ErrWalletNotFound):
		return http.StatusNotFound

	case errors.Is(err, models.ErrNotAuthorized),
		errors.Is(err, models.ErrNotYourGame):
		return http.StatusForbidden

	case errors.Is(err, models.ErrInvalidAmount),
		errors.Is(err, models.ErrWagerOutOfRange),
		errors.Is(err, models.ErrMaxTooSmall),
		errors.Is(err, models.ErrGuessOutOfRange),
		errors.Is(err, models.ErrUnknownGameType),
		errors.Is(err, models.ErrOverflow):
		return http.StatusBadRequest

	case errors.Is(err, models.ErrGameAlreadyReserved),
		errors.Is(err, models.ErrDuplicateRequestID),
		errors.Is(err, models.ErrAlreadyFulfilled),
		errors.Is(err, models.ErrAlreadyCommitted),
		errors.Is(err, models.ErrAlreadyGuessed),
		errors.Is(err, models.ErrAlreadyClaimed),
		errors.Is(err, models.ErrChoiceAfterReveal),
		errors.Is(err, models.ErrWrongState),
		errors.Is(err, models.ErrGameExists),
		errors.Is(err, models.ErrRandomnessPending),
		errors.Is(err, models.ErrNothingToClaim),
		errors.Is(err, models.ErrNoGuess),
		errors.Is(err, models.ErrCommitMismatch),
		errors.Is(err, models.ErrInsufficientFunds),
		errors.Is(err, models.ErrPayoutExceedsReservation):
		return http.StatusConflict

	case errors.Is(err, models.ErrTransferFailed):
		return http.StatusBadGateway

	default:
		return http.StatusInternalServerError
	}
}
