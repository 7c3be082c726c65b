package services

import (
	"strings"

	"wagerpool-backend/internal/models"
)

// Lua scripts fail with fixed marker strings; mapScriptErr turns them
// back into the typed error kinds callers match on.
var scriptErrors = map[string]error{
	"ERR_GAME_ALREADY_RESERVED":      models.ErrGameAlreadyReserved,
	"ERR_INSUFFICIENT_FUNDS":         models.ErrInsufficientFunds,
	"ERR_RESERVATION_NOT_FOUND":      models.ErrReservationNotFound,
	"ERR_PAYOUT_EXCEEDS_RESERVATION": models.ErrPayoutExceedsReservation,
	"ERR_OVERFLOW":                   models.ErrOverflow,
	"ERR_REQUEST_NOT_FOUND":          models.ErrRequestNotFound,
	"ERR_ALREADY_FULFILLED":          models.ErrAlreadyFulfilled,
	"ERR_ALREADY_COMMITTED":          models.ErrAlreadyCommitted,
	"ERR_COMMIT_MISMATCH":            models.ErrCommitMismatch,
	"ERR_GAME_NOT_FOUND":             models.ErrGameNotFound,
	"ERR_WRONG_STATE":                models.ErrWrongState,
	"ERR_ALREADY_GUESSED":            models.ErrAlreadyGuessed,
	"ERR_CHOICE_AFTER_REVEAL":        models.ErrChoiceAfterReveal,
	"ERR_WALLET_NOT_FOUND":           models.ErrWalletNotFound,
	"ERR_INSUFFICIENT_BALANCE":       models.ErrInsufficientFunds,
}

func mapScriptErr(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	for marker, sentinel := range scriptErrors {
		if strings.Contains(msg, marker) {
			return sentinel
		}
	}
	return err
}
