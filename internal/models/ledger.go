package models

// PoolAccount is the single pooled-fund record. Available only grows via
// fund and only shrinks via reserve; FundedTotal is the cumulative amount
// ever funded, kept so conservation is checkable from the snapshot alone.
type PoolAccount struct {
	Owner       string `json:"owner" redis:"owner"`
	Asset       string `json:"asset" redis:"asset"`
	Available   int64  `json:"available" redis:"available"`
	FundedTotal int64  `json:"funded_total" redis:"funded_total"`

	// Aggregates over live reservations, maintained by the same scripts
	// that mutate them so the snapshot is always consistent.
	ReservedTotal    int64 `json:"reserved_total" redis:"reserved_total"`
	ReservationCount int64 `json:"reservation_count" redis:"reservation_count"`
}

// Reservation is an earmarked slice of the pool tied to one game id.
// Deleted as soon as Remaining reaches zero.
type Reservation struct {
	GameID    string `json:"game_id" redis:"game_id"`
	Remaining int64  `json:"remaining" redis:"remaining"`
	CreatedAt int64  `json:"created_at" redis:"created_at"`
}

// PoolState is the public read-only snapshot.
type PoolState struct {
	Owner            string `json:"owner"`
	Asset            string `json:"asset"`
	Available        int64  `json:"available"`
	ReservedTotal    int64  `json:"reserved_total"`
	FundedTotal      int64  `json:"funded_total"`
	ReservationCount int64  `json:"reservation_count"`
}

type FundRequest struct {
	Amount int64 `json:"amount" binding:"required"`
}

type ReserveRequest struct {
	GameID string `json:"game_id" binding:"required"`
	Amount int64  `json:"amount" binding:"required"`
}

type ReleaseRequest struct {
	GameID string `json:"game_id" binding:"required"`
	Amount int64  `json:"amount" binding:"required"`
}

type PayoutRequest struct {
	GameID string `json:"game_id" binding:"required"`
	To     string `json:"to" binding:"required"`
	Amount int64  `json:"amount" binding:"required"`
}
