package services

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"wagerpool-backend/internal/config"
	"wagerpool-backend/internal/models"
	"wagerpool-backend/internal/store"
)

// WalletBook is the in-tree implementation of the fungible-asset
// collaborator: one balance document per principal, moved atomically.
// Production deployments would put a chain client behind the
// AssetTransfer interface instead; the ledger never knows the
// difference.
type WalletBook struct {
	store           *store.Store
	admin           string
	startingBalance int64
}

func NewWalletBook(st *store.Store, cfg *config.Config) *WalletBook {
	return &WalletBook{
		store:           st,
		admin:           cfg.AdminPrincipal,
		startingBalance: cfg.StartingBalance,
	}
}

var transferScript = redis.NewScript(`
	local amount = tonumber(ARGV[1])

	local fromData = redis.call("GET", KEYS[1])
	if not fromData then
		return redis.error_reply("ERR_WALLET_NOT_FOUND")
	end
	local from = cjson.decode(fromData)

	if from.balance < amount then
		return redis.error_reply("ERR_INSUFFICIENT_BALANCE")
	end

	local now = tonumber(ARGV[3])
	local toData = redis.call("GET", KEYS[2])
	local to
	if toData then
		to = cjson.decode(toData)
	else
		to = { principal = ARGV[2], balance = 0, created_at = now, updated_at = now }
	end

	from.balance = from.balance - amount
	to.balance = to.balance + amount
	from.updated_at = now
	to.updated_at = now

	redis.call("SET", KEYS[1], cjson.encode(from))
	redis.call("SET", KEYS[2], cjson.encode(to))
	return "OK"
`)

// Transfer moves amount between wallets and fails atomically: either
// both balances move or neither does.
func (w *WalletBook) Transfer(ctx context.Context, from, to string, amount int64) error {
	if amount <= 0 {
		return models.ErrInvalidAmount
	}
	if from == to {
		return nil
	}

	_, err := w.store.RunScript(ctx, transferScript,
		[]string{fmt.Sprintf(store.KeyWallet, from), fmt.Sprintf(store.KeyWallet, to)},
		amount, to, time.Now().Unix())
	if err != nil {
		return mapScriptErr(err)
	}

	w.record(ctx, models.TransferTypeFund, from, to, amount)
	return nil
}

// Wallet returns a principal's wallet, creating it with the configured
// starting balance on first sight (dev faucet behavior).
func (w *WalletBook) Wallet(ctx context.Context, principal string) (*models.Wallet, error) {
	key := fmt.Sprintf(store.KeyWallet, principal)

	var wallet models.Wallet
	found, err := w.store.GetJSON(ctx, key, &wallet)
	if err != nil {
		return nil, err
	}
	if found {
		return &wallet, nil
	}

	now := time.Now().Unix()
	wallet = models.Wallet{
		Principal: principal,
		Balance:   w.startingBalance,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := w.store.SetJSONNX(ctx, key, &wallet, store.TTLNone); err != nil {
		return nil, fmt.Errorf("failed to create wallet: %v", err)
	}
	return &wallet, nil
}

var creditScript = redis.NewScript(`
	local amount = tonumber(ARGV[1])
	local now = tonumber(ARGV[3])

	local data = redis.call("GET", KEYS[1])
	local wallet
	if data then
		wallet = cjson.decode(data)
	else
		wallet = { principal = ARGV[2], balance = 0, created_at = now, updated_at = now }
	end

	wallet.balance = wallet.balance + amount
	wallet.updated_at = now

	redis.call("SET", KEYS[1], cjson.encode(wallet))
	return wallet.balance
`)

// Credit mints balance into a wallet. Admin only.
func (w *WalletBook) Credit(ctx context.Context, caller, principal string, amount int64) (int64, error) {
	if caller != w.admin {
		return 0, models.ErrNotAuthorized
	}
	if amount <= 0 {
		return 0, models.ErrInvalidAmount
	}

	res, err := w.store.RunScript(ctx, creditScript,
		[]string{fmt.Sprintf(store.KeyWallet, principal)},
		amount, principal, time.Now().Unix())
	if err != nil {
		return 0, mapScriptErr(err)
	}

	w.record(ctx, models.TransferTypeCredit, w.admin, principal, amount)

	balance, _ := res.(int64)
	return balance, nil
}

func (w *WalletBook) record(ctx context.Context, txType models.TransferType, from, to string, amount int64) {
	tx := &models.Transfer{
		ID:        models.GenerateTransferID(),
		Type:      txType,
		From:      from,
		To:        to,
		Amount:    amount,
		CreatedAt: time.Now(),
	}

	key := fmt.Sprintf(store.KeyTransfer, tx.ID)
	if err := w.store.SetJSON(ctx, key, tx, store.TTLTransfer); err != nil {
		return
	}
	w.store.AppendToIndex(ctx, fmt.Sprintf(store.KeyWalletTransfers, from), tx.ID)
	w.store.AppendToIndex(ctx, fmt.Sprintf(store.KeyWalletTransfers, to), tx.ID)
}

// Transfers returns a principal's most recent transfer records.
func (w *WalletBook) Transfers(ctx context.Context, principal string, limit int64) ([]*models.Transfer, error) {
	ids, err := w.store.IndexMembers(ctx, fmt.Sprintf(store.KeyWalletTransfers, principal), limit)
	if err != nil {
		return nil, err
	}

	var transfers []*models.Transfer
	for _, id := range ids {
		var tx models.Transfer
		found, err := w.store.GetJSON(ctx, fmt.Sprintf(store.KeyTransfer, id), &tx)
		if err != nil || !found {
			continue
		}
		transfers = append(transfers, &tx)
	}
	return transfers, nil
}
