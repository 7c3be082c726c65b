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

// AssetTransfer is the external fungible-asset collaborator consumed by
// fund and payout. Implementations must move funds synchronously and
// fail atomically.
type AssetTransfer interface {
	Transfer(ctx context.Context, from, to string, amount int64) error
}

// Ledger holds the pooled funds. It tracks one available balance plus a
// reservation per game id; amounts enter via Fund and leave via Payout,
// with Reserve/Release moving them between the pool and earmarked slices.
type Ledger struct {
	store    *store.Store
	transfer AssetTransfer

	owner       string
	asset       string
	admin       string
	coordinator string
}

func NewLedger(st *store.Store, transfer AssetTransfer, cfg *config.Config) *Ledger {
	return &Ledger{
		store:       st,
		transfer:    transfer,
		owner:       cfg.PoolOwner,
		asset:       cfg.SettlementAsset,
		admin:       cfg.AdminPrincipal,
		coordinator: cfg.CoordinatorPrincipal,
	}
}

// EnsurePool creates the pool record on first start.
func (l *Ledger) EnsurePool(ctx context.Context) error {
	pool := &models.PoolAccount{
		Owner: l.owner,
		Asset: l.asset,
	}
	_, err := l.store.SetJSONNX(ctx, store.KeyPool, pool, store.TTLNone)
	return err
}

func (l *Ledger) requireBookkeeper(caller string) error {
	if caller != l.admin && caller != l.coordinator {
		return models.ErrNotAuthorized
	}
	return nil
}

// Scripts mutate the pool document and reservation documents in one
// atomic step. Lua numbers lose integer precision past 2^53, so every
// credit is guarded well below that.
var fundScript = redis.NewScript(`
	local amount = tonumber(ARGV[1])
	local pool = cjson.decode(redis.call("GET", KEYS[1]))

	if pool.available + amount > 9007199254740992 or pool.funded_total + amount > 9007199254740992 then
		return redis.error_reply("ERR_OVERFLOW")
	end

	pool.available = pool.available + amount
	pool.funded_total = pool.funded_total + amount

	redis.call("SET", KEYS[1], cjson.encode(pool))
	return "OK"
`)

var reserveScript = redis.NewScript(`
	local amount = tonumber(ARGV[1])

	if redis.call("EXISTS", KEYS[2]) == 1 then
		return redis.error_reply("ERR_GAME_ALREADY_RESERVED")
	end

	local pool = cjson.decode(redis.call("GET", KEYS[1]))
	if pool.available < amount then
		return redis.error_reply("ERR_INSUFFICIENT_FUNDS")
	end

	pool.available = pool.available - amount
	pool.reserved_total = pool.reserved_total + amount
	pool.reservation_count = pool.reservation_count + 1

	local reservation = {
		game_id = ARGV[2],
		remaining = amount,
		created_at = tonumber(ARGV[3]),
	}

	redis.call("SET", KEYS[1], cjson.encode(pool))
	redis.call("SET", KEYS[2], cjson.encode(reservation))
	return "OK"
`)

var releaseScript = redis.NewScript(`
	local amount = tonumber(ARGV[1])

	local data = redis.call("GET", KEYS[2])
	if not data then
		return redis.error_reply("ERR_RESERVATION_NOT_FOUND")
	end
	local reservation = cjson.decode(data)

	local give = amount
	if give > reservation.remaining then
		give = reservation.remaining
	end

	local pool = cjson.decode(redis.call("GET", KEYS[1]))
	pool.available = pool.available + give
	pool.reserved_total = pool.reserved_total - give

	reservation.remaining = reservation.remaining - give
	if reservation.remaining == 0 then
		redis.call("DEL", KEYS[2])
		pool.reservation_count = pool.reservation_count - 1
	else
		redis.call("SET", KEYS[2], cjson.encode(reservation))
	end

	redis.call("SET", KEYS[1], cjson.encode(pool))
	return give
`)

var payoutScript = redis.NewScript(`
	local amount = tonumber(ARGV[1])

	local data = redis.call("GET", KEYS[2])
	if not data then
		return redis.error_reply("ERR_RESERVATION_NOT_FOUND")
	end
	local reservation = cjson.decode(data)

	if amount > reservation.remaining then
		return redis.error_reply("ERR_PAYOUT_EXCEEDS_RESERVATION")
	end

	local pool = cjson.decode(redis.call("GET", KEYS[1]))
	pool.reserved_total = pool.reserved_total - amount

	reservation.remaining = reservation.remaining - amount
	if reservation.remaining == 0 then
		redis.call("DEL", KEYS[2])
		pool.reservation_count = pool.reservation_count - 1
	else
		redis.call("SET", KEYS[2], cjson.encode(reservation))
	end

	redis.call("SET", KEYS[1], cjson.encode(pool))
	return "OK"
`)

// Fund moves amount of the settlement asset from the caller into the
// pool. The external transfer happens first; the pool is only credited
// once the asset has actually arrived.
func (l *Ledger) Fund(ctx context.Context, from string, amount int64) error {
	if amount <= 0 {
		return models.ErrInvalidAmount
	}

	if err := l.transfer.Transfer(ctx, from, l.owner, amount); err != nil {
		return fmt.Errorf("fund transfer: %w", err)
	}

	_, err := l.store.RunScript(ctx, fundScript, []string{store.KeyPool}, amount)
	return mapScriptErr(err)
}

// Reserve earmarks amount for gameID. A second reservation for the same
// id always fails, which is what stops a misbehaving caller from
// drawing twice against one game.
func (l *Ledger) Reserve(ctx context.Context, caller, gameID string, amount int64) error {
	if err := l.requireBookkeeper(caller); err != nil {
		return err
	}
	if amount <= 0 {
		return models.ErrInvalidAmount
	}

	_, err := l.store.RunScript(ctx, reserveScript,
		[]string{store.KeyPool, fmt.Sprintf(store.KeyReservation, gameID)},
		amount, gameID, time.Now().Unix())
	return mapScriptErr(err)
}

// Release returns up to remaining back to the available balance and
// reports how much actually moved. Partial releases are valid; the
// reservation is deleted once drained.
func (l *Ledger) Release(ctx context.Context, caller, gameID string, amount int64) (int64, error) {
	if err := l.requireBookkeeper(caller); err != nil {
		return 0, err
	}
	if amount <= 0 {
		return 0, models.ErrInvalidAmount
	}

	res, err := l.store.RunScript(ctx, releaseScript,
		[]string{store.KeyPool, fmt.Sprintf(store.KeyReservation, gameID)},
		amount)
	if err != nil {
		return 0, mapScriptErr(err)
	}

	released, _ := res.(int64)
	return released, nil
}

// Payout sends amount to a winner. The reservation debit is committed
// before the asset transfer is attempted, so a failed transfer leaves
// the books already debited and a naive retry cannot double-pay. There
// is no automatic retry; a failed transfer is an operator problem.
func (l *Ledger) Payout(ctx context.Context, caller, gameID, to string, amount int64) error {
	if err := l.requireBookkeeper(caller); err != nil {
		return err
	}
	if amount <= 0 {
		return models.ErrInvalidAmount
	}

	_, err := l.store.RunScript(ctx, payoutScript,
		[]string{store.KeyPool, fmt.Sprintf(store.KeyReservation, gameID)},
		amount)
	if err != nil {
		return mapScriptErr(err)
	}

	if err := l.transfer.Transfer(ctx, l.owner, to, amount); err != nil {
		return fmt.Errorf("%w: game %s, %d to %s: %v",
			models.ErrTransferFailed, gameID, amount, to, err)
	}
	return nil
}

// PoolState is the public snapshot. No authorization required.
func (l *Ledger) PoolState(ctx context.Context) (*models.PoolState, error) {
	var pool models.PoolAccount
	found, err := l.store.GetJSON(ctx, store.KeyPool, &pool)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("pool record missing")
	}

	return &models.PoolState{
		Owner:            pool.Owner,
		Asset:            pool.Asset,
		Available:        pool.Available,
		ReservedTotal:    pool.ReservedTotal,
		FundedTotal:      pool.FundedTotal,
		ReservationCount: pool.ReservationCount,
	}, nil
}

// Reservation returns one live reservation. No authorization required.
func (l *Ledger) Reservation(ctx context.Context, gameID string) (*models.Reservation, error) {
	var reservation models.Reservation
	found, err := l.store.GetJSON(ctx, fmt.Sprintf(store.KeyReservation, gameID), &reservation)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, models.ErrReservationNotFound
	}
	return &reservation, nil
}
