package services

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"wagerpool-backend/internal/config"
	"wagerpool-backend/internal/models"
	"wagerpool-backend/internal/store"
)

// Oracle keeps the request/fulfillment table and the whitelist of
// principals allowed to request randomness. Fairness rests on the
// operational rule that the oracle publishes sha256(server_seed) before
// the request is accepted; the optional Commit call records that hash
// in-band, and when present the reveal is checked against it. Absent a
// recorded commitment the guarantee stays operational, not enforced:
// the stored seed still makes every result independently recomputable
// after the fact.
type Oracle struct {
	store  *store.Store
	admin  string
	oracle string
}

func NewOracle(st *store.Store, cfg *config.Config) *Oracle {
	return &Oracle{
		store:  st,
		admin:  cfg.AdminPrincipal,
		oracle: cfg.OraclePrincipal,
	}
}

// DeriveResult is the public derivation: the first 8 bytes of
// sha256(seed ":" requestID), big-endian, mod max. Anyone can recompute
// it off-path from the stored seed.
func DeriveResult(serverSeed, requestID string, max int64) int64 {
	sum := sha256.Sum256([]byte(serverSeed + ":" + requestID))
	v := binary.BigEndian.Uint64(sum[:8])
	return int64(v % uint64(max))
}

// SeedCommitment is the hash the oracle publishes before revealing.
func SeedCommitment(serverSeed string) string {
	sum := sha256.Sum256([]byte(serverSeed))
	return hex.EncodeToString(sum[:])
}

// Authorize adds a principal to the requester whitelist. Admin only.
func (o *Oracle) Authorize(ctx context.Context, caller, principal string) error {
	if caller != o.admin {
		return models.ErrNotAuthorized
	}
	return o.store.SetAdd(ctx, store.KeyOracleWhitelist, principal)
}

// Revoke removes a principal from the whitelist. Admin only.
func (o *Oracle) Revoke(ctx context.Context, caller, principal string) error {
	if caller != o.admin {
		return models.ErrNotAuthorized
	}
	return o.store.SetRemove(ctx, store.KeyOracleWhitelist, principal)
}

func (o *Oracle) IsAuthorized(ctx context.Context, principal string) (bool, error) {
	return o.store.SetContains(ctx, store.KeyOracleWhitelist, principal)
}

// RequestRandom registers a pending request. Request ids are unique
// across pending and fulfilled entries platform-wide: the coordinator
// reuses them as game ids, so a collision would let one fulfillment
// serve two games.
func (o *Oracle) RequestRandom(ctx context.Context, caller, requestID string, max int64) error {
	authorized, err := o.IsAuthorized(ctx, caller)
	if err != nil {
		return err
	}
	if !authorized {
		return models.ErrNotAuthorized
	}
	if max < 2 {
		return models.ErrMaxTooSmall
	}

	req := &models.RandomnessRequest{
		ID:        requestID,
		Requester: caller,
		Max:       max,
		Status:    models.RequestStatusPending,
		CreatedAt: time.Now().Unix(),
	}

	created, err := o.store.SetJSONNX(ctx, fmt.Sprintf(store.KeyRequest, requestID), req, store.TTLRequest)
	if err != nil {
		return err
	}
	if !created {
		return fmt.Errorf("%w: %s", models.ErrDuplicateRequestID, requestID)
	}
	return nil
}

// cancelRequestScript deletes a request only while it is pending; a
// fulfilled record is an audit artifact and must never be erased.
var cancelRequestScript = redis.NewScript(`
	local data = redis.call("GET", KEYS[1])
	if not data then
		return "OK"
	end
	local req = cjson.decode(data)
	if req.status ~= "pending" then
		return redis.error_reply("ERR_ALREADY_FULFILLED")
	end
	redis.call("DEL", KEYS[1])
	return "OK"
`)

// cancelPending compensates a RequestRandom that belongs to a failed
// multi-step operation.
func (o *Oracle) cancelPending(ctx context.Context, requestID string) error {
	_, err := o.store.RunScript(ctx, cancelRequestScript,
		[]string{fmt.Sprintf(store.KeyRequest, requestID)})
	return mapScriptErr(err)
}

var commitScript = redis.NewScript(`
	local data = redis.call("GET", KEYS[1])
	if not data then
		return redis.error_reply("ERR_REQUEST_NOT_FOUND")
	end
	local req = cjson.decode(data)

	if req.status ~= "pending" then
		return redis.error_reply("ERR_ALREADY_FULFILLED")
	end
	if req.commitment and req.commitment ~= "" then
		return redis.error_reply("ERR_ALREADY_COMMITTED")
	end

	req.commitment = ARGV[1]
	redis.call("SET", KEYS[1], cjson.encode(req), "KEEPTTL")
	return "OK"
`)

// Commit records sha256(server_seed) for a pending request. Oracle
// principal only, and only before the reveal.
func (o *Oracle) Commit(ctx context.Context, caller, requestID, seedHash string) error {
	if caller != o.oracle {
		return models.ErrNotAuthorized
	}

	_, err := o.store.RunScript(ctx, commitScript,
		[]string{fmt.Sprintf(store.KeyRequest, requestID)}, seedHash)
	return mapScriptErr(err)
}

// fulfillScript swaps pending -> fulfilled in one step and refuses if a
// commitment landed after the caller validated the seed.
var fulfillScript = redis.NewScript(`
	local data = redis.call("GET", KEYS[1])
	if not data then
		return redis.error_reply("ERR_REQUEST_NOT_FOUND")
	end
	local req = cjson.decode(data)

	if req.status ~= "pending" then
		return redis.error_reply("ERR_ALREADY_FULFILLED")
	end
	local commitment = req.commitment or ""
	if commitment ~= ARGV[2] then
		return redis.error_reply("ERR_COMMIT_MISMATCH")
	end

	redis.call("SET", KEYS[1], ARGV[1], "KEEPTTL")
	return "OK"
`)

// FulfillRandom reveals the seed and stores the derived result. The
// record is terminal afterwards; a second reveal for the same id always
// fails.
func (o *Oracle) FulfillRandom(ctx context.Context, caller, requestID, serverSeed string) (*models.RandomnessRequest, error) {
	if caller != o.oracle {
		return nil, models.ErrNotAuthorized
	}

	key := fmt.Sprintf(store.KeyRequest, requestID)

	var req models.RandomnessRequest
	found, err := o.store.GetJSON(ctx, key, &req)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, models.ErrRequestNotFound
	}
	if req.Status != models.RequestStatusPending {
		return nil, models.ErrAlreadyFulfilled
	}

	if req.Commitment != "" && SeedCommitment(serverSeed) != req.Commitment {
		return nil, models.ErrCommitMismatch
	}

	req.Status = models.RequestStatusFulfilled
	req.ServerSeed = serverSeed
	req.Result = DeriveResult(serverSeed, requestID, req.Max)
	req.FulfilledAt = time.Now().Unix()

	data, err := json.Marshal(&req)
	if err != nil {
		return nil, err
	}

	_, err = o.store.RunScript(ctx, fulfillScript, []string{key}, data, req.Commitment)
	if err != nil {
		return nil, mapScriptErr(err)
	}
	return &req, nil
}

// GetResult returns a fulfilled entry. Pending requests report not
// found, which is what lets callers use this as the reveal-ordering
// check.
func (o *Oracle) GetResult(ctx context.Context, requestID string) (*models.RandomnessRequest, error) {
	req, err := o.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != models.RequestStatusFulfilled {
		return nil, models.ErrRequestNotFound
	}
	return req, nil
}

// GetRequest returns an entry in either state.
func (o *Oracle) GetRequest(ctx context.Context, requestID string) (*models.RandomnessRequest, error) {
	var req models.RandomnessRequest
	found, err := o.store.GetJSON(ctx, fmt.Sprintf(store.KeyRequest, requestID), &req)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, models.ErrRequestNotFound
	}
	return &req, nil
}
