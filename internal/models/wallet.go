package models

import "time"

// Wallet is one principal's balance of the settlement asset. The pool
// owner holds a wallet like any other principal.
type Wallet struct {
	Principal string `json:"principal" redis:"principal"`
	Balance   int64  `json:"balance" redis:"balance"`
	CreatedAt int64  `json:"created_at" redis:"created_at"`
	UpdatedAt int64  `json:"updated_at" redis:"updated_at"`
}

type TransferType string

const (
	TransferTypeFund   TransferType = "fund"
	TransferTypePayout TransferType = "payout"
	TransferTypeCredit TransferType = "credit"
)

// Transfer is the audit record written for every asset movement.
type Transfer struct {
	ID        string       `json:"id" redis:"id"`
	Type      TransferType `json:"type" redis:"type"`
	From      string       `json:"from" redis:"from"`
	To        string       `json:"to" redis:"to"`
	Amount    int64        `json:"amount" redis:"amount"`
	CreatedAt time.Time    `json:"created_at" redis:"created_at"`
}

type CreditRequest struct {
	Principal string `json:"principal" binding:"required"`
	Amount    int64  `json:"amount" binding:"required"`
}
