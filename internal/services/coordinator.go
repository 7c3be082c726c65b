package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"wagerpool-backend/internal/config"
	"wagerpool-backend/internal/models"
	"wagerpool-backend/internal/store"
)

// Broadcaster pushes game transitions to connected clients. Nil-safe:
// the coordinator works without one.
type Broadcaster interface {
	BroadcastGameEvent(eventType string, game *models.Game)
}

// Coordinator drives the per-game state machine
// open -> awaiting_randomness -> resolved -> claimed. It owns the game
// records; the ledger only ever sees game ids as opaque reservation
// keys and the oracle only sees them as request ids.
//
// Escrow covers the pool's full exposure: the potential payout is
// reserved at open (reserving just the wager would make every winning
// payout exceed its reservation), and the wager itself is funded into
// the pool in the same call.
type Coordinator struct {
	store  *store.Store
	ledger *Ledger
	oracle *Oracle
	cfg    *config.Config

	principal   string
	broadcaster Broadcaster
}

func NewCoordinator(st *store.Store, ledger *Ledger, oracle *Oracle, cfg *config.Config) *Coordinator {
	return &Coordinator{
		store:     st,
		ledger:    ledger,
		oracle:    oracle,
		cfg:       cfg,
		principal: cfg.CoordinatorPrincipal,
	}
}

func (c *Coordinator) SetBroadcaster(b Broadcaster) {
	c.broadcaster = b
}

func (c *Coordinator) emit(eventType string, game *models.Game) {
	if c.broadcaster != nil {
		c.broadcaster.BroadcastGameEvent(eventType, game)
	}
}

func (c *Coordinator) rule(gameType models.GameType) (config.GameRule, error) {
	rule, ok := c.cfg.GameRules[string(gameType)]
	if !ok {
		return config.GameRule{}, fmt.Errorf("%w: %s", models.ErrUnknownGameType, gameType)
	}
	return rule, nil
}

func (c *Coordinator) validatePrediction(game *models.Game, guess int64) error {
	if game.GameType == models.GameTypeGuess {
		if guess < game.RangeMin || guess > game.RangeMax {
			return fmt.Errorf("%w: %d not in [%d, %d]",
				models.ErrGuessOutOfRange, guess, game.RangeMin, game.RangeMax)
		}
		return nil
	}
	if guess < 0 || guess >= game.RandMax {
		return fmt.Errorf("%w: %d not in [0, %d)", models.ErrGuessOutOfRange, guess, game.RandMax)
	}
	return nil
}

// OpenGame validates the wager, escrows the pool's exposure, registers
// the randomness request under the game id and funds the wager into the
// pool — one identifier binds all three components. The stored state
// after a successful open is awaiting_randomness; any step failing
// unwinds the ones before it, so the call is all-or-nothing. The wager
// transfer runs last so a failed open never costs the player anything.
func (c *Coordinator) OpenGame(ctx context.Context, player string, req *models.OpenGameRequest) (*models.Game, error) {
	if err := req.Validate(c.cfg.MinWager, c.cfg.MaxWager); err != nil {
		return nil, err
	}

	rule, err := c.rule(req.GameType)
	if err != nil {
		return nil, err
	}

	game := &models.Game{
		ID:           req.GameID,
		GameType:     req.GameType,
		Player:       player,
		Wager:        req.Wager,
		HouseEdgeBps: c.cfg.HouseEdgeBps,
		Status:       models.GameStatusAwaiting,
		CreatedAt:    time.Now().Unix(),
	}
	if game.ID == "" {
		game.ID = models.GenerateGameID()
	}

	if req.GameType == models.GameTypeGuess {
		rangeSize := req.RangeMax - req.RangeMin + 1
		if req.RangeMax < req.RangeMin || rangeSize < 2 {
			return nil, fmt.Errorf("%w: range [%d, %d]", models.ErrMaxTooSmall, req.RangeMin, req.RangeMax)
		}
		game.RangeMin = req.RangeMin
		game.RangeMax = req.RangeMax
		game.RandMax = rangeSize
		// Fair odds: the multiplier is the range size.
		game.MultiplierHundredths = rangeSize * 100
	} else {
		game.RandMax = rule.RandMax
		game.MultiplierHundredths = rule.MultiplierHundredths
	}

	if req.Prediction != nil {
		if err := c.validatePrediction(game, *req.Prediction); err != nil {
			return nil, err
		}
		game.Prediction = req.Prediction
	} else if !rule.ChoiceAfterOpen {
		return nil, fmt.Errorf("%w: %s games choose at open", models.ErrNoGuess, game.GameType)
	}

	potential, err := models.PayoutAmount(game.Wager, game.MultiplierHundredths, game.HouseEdgeBps)
	if err != nil {
		return nil, err
	}
	game.PotentialPayout = potential

	gameKey := fmt.Sprintf(store.KeyGame, game.ID)
	created, err := c.store.SetJSONNX(ctx, gameKey, game, store.TTLGame)
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, fmt.Errorf("%w: %s", models.ErrGameExists, game.ID)
	}

	unwind := func() {
		c.store.Delete(ctx, gameKey)
		c.store.SetRemove(ctx, store.KeyLiveGames, game.ID)
	}
	unwindReservation := func() {
		if _, err := c.ledger.Release(ctx, c.principal, game.ID, potential); err != nil {
			log.Printf("Failed to release reservation for aborted game %s: %v", game.ID, err)
		}
	}

	if err := c.ledger.Reserve(ctx, c.principal, game.ID, potential); err != nil {
		unwind()
		return nil, err
	}

	if err := c.oracle.RequestRandom(ctx, c.principal, game.ID, game.RandMax); err != nil {
		unwindReservation()
		unwind()
		return nil, err
	}

	// The wager transfer is the last step: everything before it has a
	// compensation, a transferred wager does not. A fund failure cancels
	// the still-pending request along with the rest.
	if err := c.ledger.Fund(ctx, player, game.Wager); err != nil {
		if cancelErr := c.oracle.cancelPending(ctx, game.ID); cancelErr != nil {
			log.Printf("Failed to cancel randomness request for aborted game %s: %v", game.ID, cancelErr)
		}
		unwindReservation()
		unwind()
		return nil, err
	}

	c.store.SetAdd(ctx, store.KeyLiveGames, game.ID)
	c.store.AppendToIndex(ctx, fmt.Sprintf(store.KeyPlayerGames, player), game.ID)

	c.emit("GAME_OPENED", game)
	return game, nil
}

// submitGuessScript checks the reveal-ordering invariant and writes the
// guess in one atomic step over the game and request keys: a guess is
// only accepted while the game is awaiting randomness, no guess exists,
// and the correlated request is still pending.
var submitGuessScript = redis.NewScript(`
	local data = redis.call("GET", KEYS[1])
	if not data then
		return redis.error_reply("ERR_GAME_NOT_FOUND")
	end
	local game = cjson.decode(data)

	if game.status ~= "awaiting_randomness" then
		return redis.error_reply("ERR_WRONG_STATE")
	end
	if game.prediction ~= nil then
		return redis.error_reply("ERR_ALREADY_GUESSED")
	end

	local reqData = redis.call("GET", KEYS[2])
	if not reqData then
		return redis.error_reply("ERR_REQUEST_NOT_FOUND")
	end
	local req = cjson.decode(reqData)
	if req.status ~= "pending" then
		return redis.error_reply("ERR_CHOICE_AFTER_REVEAL")
	end

	game.prediction = tonumber(ARGV[1])
	redis.call("SET", KEYS[1], cjson.encode(game), "KEEPTTL")
	return "OK"
`)

// SubmitGuess locks in the player's choice while the correlated
// randomness request is still pending. Submitting after fulfillment is
// rejected so a player can never condition their choice on a revealed
// outcome.
func (c *Coordinator) SubmitGuess(ctx context.Context, player, gameID string, guess int64) (*models.Game, error) {
	game, err := c.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game.Player != player {
		return nil, models.ErrNotYourGame
	}
	if err := c.validatePrediction(game, guess); err != nil {
		return nil, err
	}

	_, err = c.store.RunScript(ctx, submitGuessScript,
		[]string{fmt.Sprintf(store.KeyGame, gameID), fmt.Sprintf(store.KeyRequest, gameID)},
		guess)
	if err != nil {
		return nil, mapScriptErr(err)
	}

	game.Prediction = &guess
	return game, nil
}

// statusCASScript swaps the whole record only if the stored status is
// the expected one. Everything the caller computed between read and
// write is derived from immutable or terminal state, so a lost race
// just fails the transition.
var statusCASScript = redis.NewScript(`
	local data = redis.call("GET", KEYS[1])
	if not data then
		return redis.error_reply("ERR_GAME_NOT_FOUND")
	end
	local game = cjson.decode(data)

	if game.status ~= ARGV[1] then
		return redis.error_reply("ERR_WRONG_STATE")
	end

	redis.call("SET", KEYS[1], ARGV[2], "KEEPTTL")
	return "OK"
`)

func (c *Coordinator) casGame(ctx context.Context, game *models.Game, expected models.GameStatus) error {
	data, err := json.Marshal(game)
	if err != nil {
		return err
	}
	_, err = c.store.RunScript(ctx, statusCASScript,
		[]string{fmt.Sprintf(store.KeyGame, game.ID)},
		string(expected), data)
	return mapScriptErr(err)
}

// ResolveGame derives the outcome once the oracle reports fulfilled.
// Callable by anyone, no authorization: the transition is a pure
// function of already-committed state. The resolved record, payout
// amount included, is committed before any ledger call.
func (c *Coordinator) ResolveGame(ctx context.Context, gameID string) (*models.Game, error) {
	game, err := c.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game.Status != models.GameStatusAwaiting {
		return nil, fmt.Errorf("%w: %s is %s", models.ErrWrongState, gameID, game.Status)
	}

	req, err := c.oracle.GetRequest(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if req.Status != models.RequestStatusFulfilled {
		return nil, models.ErrRandomnessPending
	}

	if game.Prediction == nil {
		return nil, models.ErrNoGuess
	}

	secret := req.Result
	if game.GameType == models.GameTypeGuess {
		secret = game.RangeMin + req.Result
	}

	game.Secret = secret
	game.Won = *game.Prediction == secret
	game.Status = models.GameStatusResolved
	game.ResolvedAt = time.Now().Unix()
	if game.Won {
		game.PayoutDue = game.PotentialPayout
	}

	if err := c.casGame(ctx, game, models.GameStatusAwaiting); err != nil {
		return nil, err
	}

	rule, err := c.rule(game.GameType)
	if err != nil {
		return nil, err
	}

	if !game.Won {
		// Loser: the pot policy decides. The released exposure returns
		// to the pool; the wager stays funded either way.
		c.store.SetRemove(ctx, store.KeyLiveGames, game.ID)
		if rule.PotPolicy != config.PotPolicyCarry {
			if _, err := c.ledger.Release(ctx, c.principal, game.ID, game.PotentialPayout); err != nil {
				return nil, fmt.Errorf("release after loss: %w", err)
			}
		}
	}

	c.emit("GAME_RESOLVED", game)
	return game, nil
}

// Claim pays a winner. The claimed transition is committed before the
// ledger payout, so a second claim always fails and a failed transfer
// leaves the books debited for operator recovery rather than retried.
func (c *Coordinator) Claim(ctx context.Context, player, gameID string) (*models.Game, error) {
	game, err := c.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game.Player != player {
		return nil, models.ErrNotYourGame
	}
	if game.Status == models.GameStatusClaimed {
		return nil, models.ErrAlreadyClaimed
	}
	if game.Status != models.GameStatusResolved {
		return nil, fmt.Errorf("%w: %s is %s", models.ErrWrongState, gameID, game.Status)
	}
	if !game.Won || game.PayoutDue <= 0 {
		return nil, models.ErrNothingToClaim
	}

	game.Status = models.GameStatusClaimed
	if err := c.casGame(ctx, game, models.GameStatusResolved); err != nil {
		return nil, err
	}
	c.store.SetRemove(ctx, store.KeyLiveGames, game.ID)

	if err := c.ledger.Payout(ctx, c.principal, game.ID, player, game.PayoutDue); err != nil {
		return nil, err
	}

	c.emit("GAME_CLAIMED", game)
	return game, nil
}

func (c *Coordinator) GetGame(ctx context.Context, gameID string) (*models.Game, error) {
	var game models.Game
	found, err := c.store.GetJSON(ctx, fmt.Sprintf(store.KeyGame, gameID), &game)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, models.ErrGameNotFound
	}
	return &game, nil
}

// PlayerGames returns the player's most recent game records.
func (c *Coordinator) PlayerGames(ctx context.Context, player string, limit int64) ([]*models.Game, error) {
	ids, err := c.store.IndexMembers(ctx, fmt.Sprintf(store.KeyPlayerGames, player), limit)
	if err != nil {
		return nil, err
	}

	var games []*models.Game
	for _, id := range ids {
		game, err := c.GetGame(ctx, id)
		if err != nil {
			continue
		}
		games = append(games, game)
	}
	return games, nil
}

// ExtendLiveGames bumps the lifetime of every non-terminal game and its
// randomness request. Run periodically: durable records rent their
// storage and long-lived ones must be re-bumped before they age out.
func (c *Coordinator) ExtendLiveGames(ctx context.Context) (int, error) {
	ids, err := c.store.SetMembers(ctx, store.KeyLiveGames)
	if err != nil {
		return 0, err
	}

	for _, id := range ids {
		c.store.ExtendLifetime(ctx, fmt.Sprintf(store.KeyGame, id), store.TTLGame)
		c.store.ExtendLifetime(ctx, fmt.Sprintf(store.KeyRequest, id), store.TTLRequest)
	}
	return len(ids), nil
}
