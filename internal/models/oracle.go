package models

type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "pending"
	RequestStatusFulfilled RequestStatus = "fulfilled"
)

// RandomnessRequest is the oracle's request/fulfillment record. Request
// ids are unique platform-wide across pending and fulfilled entries
// because the coordinator reuses them as game ids. Once fulfilled the
// record is terminal: seed and result are stored together so anyone can
// recompute the result off-path.
type RandomnessRequest struct {
	ID        string        `json:"id" redis:"id"`
	Requester string        `json:"requester" redis:"requester"`
	Max       int64         `json:"max" redis:"max"`
	Status    RequestStatus `json:"status" redis:"status"`

	// Commitment is the optional sha256(server_seed) recorded before
	// reveal. Empty means the pre-commitment lives off-path only.
	Commitment string `json:"commitment,omitempty" redis:"commitment"`

	ServerSeed string `json:"server_seed,omitempty" redis:"server_seed"`
	Result     int64  `json:"result" redis:"result"`

	CreatedAt   int64 `json:"created_at" redis:"created_at"`
	FulfilledAt int64 `json:"fulfilled_at,omitempty" redis:"fulfilled_at"`
}

type AuthorizeRequest struct {
	Principal string `json:"principal" binding:"required"`
}

type CommitRequest struct {
	RequestID string `json:"request_id" binding:"required"`
	SeedHash  string `json:"seed_hash" binding:"required"`
}

type FulfillRequest struct {
	RequestID  string `json:"request_id" binding:"required"`
	ServerSeed string `json:"server_seed" binding:"required"`
}
