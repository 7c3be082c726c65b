package models

type GameType string

const (
	GameTypeGuess    GameType = "guess"
	GameTypeCoinFlip GameType = "coinflip"
	GameTypeDice     GameType = "dice"
	GameTypeColor    GameType = "color"
)

type GameStatus string

const (
	GameStatusOpen     GameStatus = "open"
	GameStatusAwaiting GameStatus = "awaiting_randomness"
	GameStatusResolved GameStatus = "resolved"
	GameStatusClaimed  GameStatus = "claimed"
)

// Game is one wagering round. The id doubles as the ledger reservation
// key and the oracle request id, binding the three components without a
// separate index. Records are never deleted; terminal ones age out on
// the audit TTL.
type Game struct {
	ID           string     `json:"id" redis:"id"`
	GameType     GameType   `json:"game_type" redis:"game_type"`
	Player       string     `json:"player" redis:"player"`
	Wager        int64      `json:"wager" redis:"wager"`
	HouseEdgeBps int64      `json:"house_edge_bps" redis:"house_edge_bps"`
	Status       GameStatus `json:"status" redis:"status"`

	// Guess games pick a secret in [RangeMin, RangeMax]; other types use
	// [0, RandMax) directly.
	RangeMin int64 `json:"range_min,omitempty" redis:"range_min"`
	RangeMax int64 `json:"range_max,omitempty" redis:"range_max"`
	RandMax  int64 `json:"rand_max" redis:"rand_max"`

	// Snapshotted at creation so later rule changes cannot alter a live
	// game's economics. PotentialPayout is also the reserved exposure.
	MultiplierHundredths int64 `json:"multiplier_hundredths" redis:"multiplier_hundredths"`
	PotentialPayout      int64 `json:"potential_payout" redis:"potential_payout"`

	// Prediction is nil until the player locks in a choice.
	Prediction *int64 `json:"prediction,omitempty" redis:"prediction"`

	// Set at resolution, before any ledger call.
	Secret    int64 `json:"secret,omitempty" redis:"secret"`
	Won       bool  `json:"won" redis:"won"`
	PayoutDue int64 `json:"payout_due" redis:"payout_due"`

	CreatedAt  int64 `json:"created_at" redis:"created_at"`
	ResolvedAt int64 `json:"resolved_at,omitempty" redis:"resolved_at"`
}

type OpenGameRequest struct {
	GameID   string   `json:"game_id"`
	GameType GameType `json:"game_type" binding:"required"`
	Wager    int64    `json:"wager" binding:"required"`

	// Range bounds for guess games, inclusive.
	RangeMin int64 `json:"range_min"`
	RangeMax int64 `json:"range_max"`

	// Prediction for types chosen at open time (coinflip side, die face,
	// color index).
	Prediction *int64 `json:"prediction"`
}

type SubmitGuessRequest struct {
	GameID string `json:"game_id" binding:"required"`
	Guess  int64  `json:"guess"`
}

type ResolveGameRequest struct {
	GameID string `json:"game_id" binding:"required"`
}

type ClaimRequest struct {
	GameID string `json:"game_id" binding:"required"`
}
