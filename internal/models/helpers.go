package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

func GenerateGameID() string {
	return fmt.Sprintf("game_%s_%d",
		time.Now().Format("20060102"),
		uuid.New().ID())
}

func GenerateTransferID() string {
	return fmt.Sprintf("tx_%s_%d",
		time.Now().Format("20060102"),
		uuid.New().ID())
}

// Validate checks the open-game payload against the configured wager
// bounds. Range and prediction validity are game-type specific and
// checked by the coordinator.
func (r *OpenGameRequest) Validate(minWager, maxWager int64) error {
	if r.Wager < minWager || r.Wager > maxWager {
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrWagerOutOfRange, r.Wager, minWager, maxWager)
	}

	switch r.GameType {
	case GameTypeGuess, GameTypeCoinFlip, GameTypeDice, GameTypeColor:
	default:
		return fmt.Errorf("%w: %s", ErrUnknownGameType, r.GameType)
	}

	return nil
}
