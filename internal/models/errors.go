package models

import "errors"

// Every mutating entry point fails with one of these kinds; handlers map
// them to HTTP statuses and stable codes with errors.Is. Conservation and
// lifecycle errors are terminal for the call and must not be retried
// blindly: the bookkeeping may already be committed.

// Authorization
var (
	ErrNotAuthorized = errors.New("caller is not authorized for this operation")
	ErrNotYourGame   = errors.New("caller is not the player of this game")
)

// Lifecycle / state
var (
	ErrGameAlreadyReserved = errors.New("a reservation already exists for this game id")
	ErrDuplicateRequestID  = errors.New("a randomness request already exists for this id")
	ErrAlreadyFulfilled    = errors.New("randomness request already fulfilled")
	ErrAlreadyCommitted    = errors.New("a seed commitment is already recorded for this request")
	ErrAlreadyGuessed      = errors.New("a guess was already submitted for this game")
	ErrAlreadyClaimed      = errors.New("winnings already claimed")
	ErrChoiceAfterReveal   = errors.New("choice submitted after randomness was revealed")
	ErrWrongState          = errors.New("game is not in the required state")
	ErrGameExists          = errors.New("game id already in use")
	ErrRandomnessPending   = errors.New("randomness request not yet fulfilled")
	ErrNothingToClaim      = errors.New("game has no payout to claim")
	ErrNoGuess             = errors.New("game requires a guess before resolution")
)

// Validation
var (
	ErrInvalidAmount   = errors.New("amount must be positive")
	ErrWagerOutOfRange = errors.New("wager outside configured bounds")
	ErrMaxTooSmall     = errors.New("randomness max must be at least 2")
	ErrGuessOutOfRange = errors.New("guess outside the declared range")
	ErrUnknownGameType = errors.New("unknown game type")
	ErrOverflow        = errors.New("arithmetic overflow")
	ErrCommitMismatch  = errors.New("revealed seed does not match the recorded commitment")
)

// Not-found
var (
	ErrReservationNotFound = errors.New("reservation not found")
	ErrRequestNotFound     = errors.New("randomness request not found")
	ErrGameNotFound        = errors.New("game not found")
	ErrWalletNotFound      = errors.New("wallet not found")
)

// Conservation
var (
	ErrInsufficientFunds        = errors.New("insufficient available funds in pool")
	ErrPayoutExceedsReservation = errors.New("payout exceeds remaining reservation")
	ErrTransferFailed           = errors.New("asset transfer failed after bookkeeping was committed")
)

// ErrorCode returns the stable wire code for a known error kind, or
// "internal" for anything else.
func ErrorCode(err error) string {
	for code, sentinel := range errorCodes {
		if errors.Is(err, sentinel) {
			return code
		}
	}
	return "internal"
}

var errorCodes = map[string]error{
	"not_authorized":             ErrNotAuthorized,
	"not_your_game":              ErrNotYourGame,
	"game_already_reserved":      ErrGameAlreadyReserved,
	"duplicate_request_id":       ErrDuplicateRequestID,
	"already_fulfilled":          ErrAlreadyFulfilled,
	"already_committed":          ErrAlreadyCommitted,
	"already_guessed":            ErrAlreadyGuessed,
	"already_claimed":            ErrAlreadyClaimed,
	"choice_after_reveal":        ErrChoiceAfterReveal,
	"wrong_state":                ErrWrongState,
	"game_exists":                ErrGameExists,
	"randomness_pending":         ErrRandomnessPending,
	"nothing_to_claim":           ErrNothingToClaim,
	"no_guess":                   ErrNoGuess,
	"invalid_amount":             ErrInvalidAmount,
	"wager_out_of_range":         ErrWagerOutOfRange,
	"max_too_small":              ErrMaxTooSmall,
	"guess_out_of_range":         ErrGuessOutOfRange,
	"unknown_game_type":          ErrUnknownGameType,
	"overflow":                   ErrOverflow,
	"commit_mismatch":            ErrCommitMismatch,
	"reservation_not_found":      ErrReservationNotFound,
	"request_not_found":          ErrRequestNotFound,
	"game_not_found":             ErrGameNotFound,
	"wallet_not_found":           ErrWalletNotFound,
	"insufficient_funds":         ErrInsufficientFunds,
	"payout_exceeds_reservation": ErrPayoutExceedsReservation,
	"transfer_failed":            ErrTransferFailed,
}
