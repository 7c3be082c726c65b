package services_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"wagerpool-backend/internal/config"
	"wagerpool-backend/internal/models"
	"wagerpool-backend/internal/services"
	"wagerpool-backend/internal/store"
)

type coordFixture struct {
	coordinator *services.Coordinator
	ledger      *services.Ledger
	oracle      *services.Oracle
	store       *store.Store
	transfer    *fakeTransfer
	cfg         *config.Config
}

func setupCoordinator(t *testing.T) *coordFixture {
	t.Helper()

	transfer := &fakeTransfer{}
	ledger, st, cfg := setupLedger(t, transfer)
	oracle := services.NewOracle(st, cfg)
	coordinator := services.NewCoordinator(st, ledger, oracle, cfg)

	ctx := context.Background()
	if err := oracle.Authorize(ctx, "admin", cfg.CoordinatorPrincipal); err != nil {
		t.Fatalf("Failed to whitelist coordinator: %v", err)
	}
	t.Cleanup(func() {
		oracle.Revoke(context.Background(), "admin", cfg.CoordinatorPrincipal)
	})
	if err := ledger.Fund(ctx, "funder", 100000); err != nil {
		t.Fatalf("Failed to fund pool: %v", err)
	}

	return &coordFixture{
		coordinator: coordinator,
		ledger:      ledger,
		oracle:      oracle,
		store:       st,
		transfer:    transfer,
		cfg:         cfg,
	}
}

func (f *coordFixture) cleanupGame(t *testing.T, gameID, player string) {
	t.Helper()
	cleanupKeys(t, f.store,
		fmt.Sprintf(store.KeyGame, gameID),
		fmt.Sprintf(store.KeyRequest, gameID),
		fmt.Sprintf(store.KeyReservation, gameID),
		fmt.Sprintf(store.KeyPlayerGames, player))
	t.Cleanup(func() {
		f.store.SetRemove(context.Background(), store.KeyLiveGames, gameID)
	})
}

// Scenario: numeric game, wager 50, range [1,100]. Opening escrows the
// exposure and registers the randomness request under the game id; the
// guess locks while pending; resolution drains the reservation in both
// branches.
func TestGuessGameLifecycle(t *testing.T) {
	f := setupCoordinator(t)
	ctx := context.Background()

	gameID := uniqueID("g7")
	f.cleanupGame(t, gameID, "alice")

	game, err := f.coordinator.OpenGame(ctx, "alice", &models.OpenGameRequest{
		GameID:   gameID,
		GameType: models.GameTypeGuess,
		Wager:    50,
		RangeMin: 1,
		RangeMax: 100,
	})
	if err != nil {
		t.Fatalf("Failed to open game: %v", err)
	}

	if game.Status != models.GameStatusAwaiting {
		t.Errorf("expected awaiting_randomness, got %s", game.Status)
	}
	// Fair odds on a 100-wide range at 200 bps edge.
	if game.PotentialPayout != 4900 {
		t.Errorf("expected potential payout 4900, got %d", game.PotentialPayout)
	}

	reservation, err := f.ledger.Reservation(ctx, gameID)
	if err != nil {
		t.Fatalf("expected reservation under the game id: %v", err)
	}
	if reservation.Remaining != game.PotentialPayout {
		t.Errorf("expected exposure %d reserved, got %d", game.PotentialPayout, reservation.Remaining)
	}

	req, err := f.oracle.GetRequest(ctx, gameID)
	if err != nil {
		t.Fatalf("expected randomness request under the game id: %v", err)
	}
	if req.Status != models.RequestStatusPending || req.Max != 100 {
		t.Errorf("unexpected request state: %+v", req)
	}

	// Guessing works while pending, exactly once.
	if _, err := f.coordinator.SubmitGuess(ctx, "alice", gameID, 60); err != nil {
		t.Fatalf("Failed to submit guess: %v", err)
	}
	if _, err := f.coordinator.SubmitGuess(ctx, "alice", gameID, 61); !errors.Is(err, models.ErrAlreadyGuessed) {
		t.Errorf("expected second guess rejected, got %v", err)
	}

	if _, err := f.coordinator.ResolveGame(ctx, gameID); !errors.Is(err, models.ErrRandomnessPending) {
		t.Errorf("expected resolve before fulfillment rejected, got %v", err)
	}

	if _, err := f.oracle.FulfillRandom(ctx, "oracle", gameID, "scenario-seed"); err != nil {
		t.Fatalf("Failed to fulfill: %v", err)
	}

	resolved, err := f.coordinator.ResolveGame(ctx, gameID)
	if err != nil {
		t.Fatalf("Failed to resolve: %v", err)
	}

	wantSecret := 1 + services.DeriveResult("scenario-seed", gameID, 100)
	if resolved.Secret != wantSecret {
		t.Errorf("expected secret %d, got %d", wantSecret, resolved.Secret)
	}
	if resolved.Won != (wantSecret == 60) {
		t.Errorf("win flag inconsistent with secret %d vs guess 60", wantSecret)
	}

	if resolved.Won {
		if _, err := f.coordinator.Claim(ctx, "alice", gameID); err != nil {
			t.Fatalf("Failed to claim: %v", err)
		}
	}

	// Either branch fully drains the reservation.
	if _, err := f.ledger.Reservation(ctx, gameID); !errors.Is(err, models.ErrReservationNotFound) {
		t.Errorf("expected reservation drained after resolution, got %v", err)
	}

	state, _ := f.ledger.PoolState(ctx)
	if state.Available < 0 || state.Available+state.ReservedTotal > state.FundedTotal {
		t.Errorf("conservation violated: %+v", state)
	}

	if _, err := f.coordinator.ResolveGame(ctx, gameID); !errors.Is(err, models.ErrWrongState) {
		t.Errorf("expected re-resolution rejected, got %v", err)
	}
}

// A choice landing after the oracle's fulfillment must be rejected, for
// any interleaving.
func TestChoiceAfterRevealRejected(t *testing.T) {
	f := setupCoordinator(t)
	ctx := context.Background()

	gameID := uniqueID("late")
	f.cleanupGame(t, gameID, "bob")

	if _, err := f.coordinator.OpenGame(ctx, "bob", &models.OpenGameRequest{
		GameID:   gameID,
		GameType: models.GameTypeGuess,
		Wager:    10,
		RangeMin: 1,
		RangeMax: 10,
	}); err != nil {
		t.Fatalf("Failed to open game: %v", err)
	}

	if _, err := f.oracle.FulfillRandom(ctx, "oracle", gameID, "early-reveal"); err != nil {
		t.Fatalf("Failed to fulfill: %v", err)
	}

	if _, err := f.coordinator.SubmitGuess(ctx, "bob", gameID, 5); !errors.Is(err, models.ErrChoiceAfterReveal) {
		t.Errorf("expected choice after reveal rejected, got %v", err)
	}
}

func TestCoinFlipWinAndClaim(t *testing.T) {
	f := setupCoordinator(t)
	ctx := context.Background()

	gameID := uniqueID("flip")
	f.cleanupGame(t, gameID, "carol")

	// The id is chosen up front, so the winning side is known for any
	// seed we later reveal.
	winning := services.DeriveResult("flip-seed", gameID, 2)

	game, err := f.coordinator.OpenGame(ctx, "carol", &models.OpenGameRequest{
		GameID:     gameID,
		GameType:   models.GameTypeCoinFlip,
		Wager:      50,
		Prediction: &winning,
	})
	if err != nil {
		t.Fatalf("Failed to open game: %v", err)
	}
	// 2x at 200 bps edge.
	if game.PotentialPayout != 98 {
		t.Errorf("expected potential payout 98, got %d", game.PotentialPayout)
	}

	if _, err := f.oracle.FulfillRandom(ctx, "oracle", gameID, "flip-seed"); err != nil {
		t.Fatalf("Failed to fulfill: %v", err)
	}

	resolved, err := f.coordinator.ResolveGame(ctx, gameID)
	if err != nil {
		t.Fatalf("Failed to resolve: %v", err)
	}
	if !resolved.Won || resolved.PayoutDue != 98 {
		t.Fatalf("expected win with payout 98, got won=%v payout=%d", resolved.Won, resolved.PayoutDue)
	}

	if _, err := f.coordinator.Claim(ctx, "mallory", gameID); !errors.Is(err, models.ErrNotYourGame) {
		t.Errorf("expected foreign claim rejected, got %v", err)
	}

	before := f.transfer.callCount()
	claimed, err := f.coordinator.Claim(ctx, "carol", gameID)
	if err != nil {
		t.Fatalf("Failed to claim: %v", err)
	}
	if claimed.Status != models.GameStatusClaimed {
		t.Errorf("expected claimed, got %s", claimed.Status)
	}
	if f.transfer.callCount() != before+1 {
		t.Errorf("expected exactly one payout transfer")
	}

	if _, err := f.coordinator.Claim(ctx, "carol", gameID); !errors.Is(err, models.ErrAlreadyClaimed) {
		t.Errorf("expected second claim rejected, got %v", err)
	}

	if _, err := f.ledger.Reservation(ctx, gameID); !errors.Is(err, models.ErrReservationNotFound) {
		t.Errorf("expected reservation drained by claim, got %v", err)
	}
}

func TestCoinFlipLossReleasesExposure(t *testing.T) {
	f := setupCoordinator(t)
	ctx := context.Background()

	gameID := uniqueID("lose")
	f.cleanupGame(t, gameID, "dave")

	losing := 1 - services.DeriveResult("loss-seed", gameID, 2)

	if _, err := f.coordinator.OpenGame(ctx, "dave", &models.OpenGameRequest{
		GameID:     gameID,
		GameType:   models.GameTypeCoinFlip,
		Wager:      50,
		Prediction: &losing,
	}); err != nil {
		t.Fatalf("Failed to open game: %v", err)
	}

	stateBefore, _ := f.ledger.PoolState(ctx)

	if _, err := f.oracle.FulfillRandom(ctx, "oracle", gameID, "loss-seed"); err != nil {
		t.Fatalf("Failed to fulfill: %v", err)
	}
	resolved, err := f.coordinator.ResolveGame(ctx, gameID)
	if err != nil {
		t.Fatalf("Failed to resolve: %v", err)
	}
	if resolved.Won {
		t.Fatal("expected a loss")
	}

	if _, err := f.coordinator.Claim(ctx, "dave", gameID); !errors.Is(err, models.ErrNothingToClaim) {
		t.Errorf("expected claim on loss rejected, got %v", err)
	}

	// The exposure flows back to available; the wager stays in the pool.
	if _, err := f.ledger.Reservation(ctx, gameID); !errors.Is(err, models.ErrReservationNotFound) {
		t.Errorf("expected reservation released, got %v", err)
	}
	stateAfter, _ := f.ledger.PoolState(ctx)
	expected := stateBefore.Available + resolved.PotentialPayout
	if stateAfter.Available != expected {
		t.Errorf("expected available %d after release, got %d", expected, stateAfter.Available)
	}
}

func TestOpenGameValidation(t *testing.T) {
	f := setupCoordinator(t)
	ctx := context.Background()

	if _, err := f.coordinator.OpenGame(ctx, "eve", &models.OpenGameRequest{
		GameType: models.GameTypeCoinFlip,
		Wager:    f.cfg.MaxWager + 1,
	}); !errors.Is(err, models.ErrWagerOutOfRange) {
		t.Errorf("expected oversized wager rejected, got %v", err)
	}

	// Choose-at-open types need their prediction up front.
	if _, err := f.coordinator.OpenGame(ctx, "eve", &models.OpenGameRequest{
		GameType: models.GameTypeDice,
		Wager:    50,
	}); !errors.Is(err, models.ErrNoGuess) {
		t.Errorf("expected missing prediction rejected, got %v", err)
	}

	bad := int64(6)
	if _, err := f.coordinator.OpenGame(ctx, "eve", &models.OpenGameRequest{
		GameType:   models.GameTypeDice,
		Wager:      50,
		Prediction: &bad,
	}); !errors.Is(err, models.ErrGuessOutOfRange) {
		t.Errorf("expected out-of-range face rejected, got %v", err)
	}

	// A game id can never be used twice.
	gameID := uniqueID("once")
	f.cleanupGame(t, gameID, "eve")
	side := int64(0)
	open := &models.OpenGameRequest{
		GameID:     gameID,
		GameType:   models.GameTypeCoinFlip,
		Wager:      10,
		Prediction: &side,
	}
	if _, err := f.coordinator.OpenGame(ctx, "eve", open); err != nil {
		t.Fatalf("Failed to open game: %v", err)
	}
	if _, err := f.coordinator.OpenGame(ctx, "eve", open); !errors.Is(err, models.ErrGameExists) {
		t.Errorf("expected duplicate game id rejected, got %v", err)
	}
}

// Request ids are platform-wide, so an id already occupied on the
// oracle makes the open fail. The wager must stay with the player: no
// transfer happens until every other step has succeeded.
func TestOpenGameOccupiedRequestIDKeepsWager(t *testing.T) {
	f := setupCoordinator(t)
	ctx := context.Background()

	gameID := uniqueID("occupied")
	f.cleanupGame(t, gameID, "grace")

	// Another whitelisted requester already holds the id.
	if err := f.oracle.Authorize(ctx, "admin", "other-requester"); err != nil {
		t.Fatalf("Failed to whitelist requester: %v", err)
	}
	t.Cleanup(func() {
		f.oracle.Revoke(context.Background(), "admin", "other-requester")
	})
	if err := f.oracle.RequestRandom(ctx, "other-requester", gameID, 2); err != nil {
		t.Fatalf("Failed to pre-register request: %v", err)
	}

	stateBefore, _ := f.ledger.PoolState(ctx)
	before := f.transfer.callCount()

	side := int64(0)
	_, err := f.coordinator.OpenGame(ctx, "grace", &models.OpenGameRequest{
		GameID:     gameID,
		GameType:   models.GameTypeCoinFlip,
		Wager:      50,
		Prediction: &side,
	})
	if !errors.Is(err, models.ErrDuplicateRequestID) {
		t.Fatalf("expected occupied request id rejected, got %v", err)
	}

	if f.transfer.callCount() != before {
		t.Errorf("expected no wager transfer on failed open")
	}
	if _, err := f.coordinator.GetGame(ctx, gameID); !errors.Is(err, models.ErrGameNotFound) {
		t.Errorf("expected game record unwound, got %v", err)
	}
	if _, err := f.ledger.Reservation(ctx, gameID); !errors.Is(err, models.ErrReservationNotFound) {
		t.Errorf("expected reservation unwound, got %v", err)
	}

	stateAfter, _ := f.ledger.PoolState(ctx)
	if stateAfter.Available != stateBefore.Available || stateAfter.FundedTotal != stateBefore.FundedTotal {
		t.Errorf("expected pool untouched, before %+v after %+v", stateBefore, stateAfter)
	}

	// The foreign request is not ours to cancel.
	if _, err := f.oracle.GetRequest(ctx, gameID); err != nil {
		t.Errorf("expected pre-existing request intact, got %v", err)
	}
}

// An open that fails downstream unwinds completely: no game record, no
// reservation, no randomness request.
func TestOpenGameUnwindsOnFailure(t *testing.T) {
	f := setupCoordinator(t)
	ctx := context.Background()

	gameID := uniqueID("unwind")
	f.cleanupGame(t, gameID, "frank")

	// The wager transfer fails once the exposure is reserved.
	f.transfer.fail = true
	side := int64(1)
	_, err := f.coordinator.OpenGame(ctx, "frank", &models.OpenGameRequest{
		GameID:     gameID,
		GameType:   models.GameTypeCoinFlip,
		Wager:      10,
		Prediction: &side,
	})
	f.transfer.fail = false
	if err == nil {
		t.Fatal("expected open to fail")
	}

	if _, err := f.coordinator.GetGame(ctx, gameID); !errors.Is(err, models.ErrGameNotFound) {
		t.Errorf("expected game record unwound, got %v", err)
	}
	if _, err := f.ledger.Reservation(ctx, gameID); !errors.Is(err, models.ErrReservationNotFound) {
		t.Errorf("expected reservation unwound, got %v", err)
	}
	if _, err := f.oracle.GetRequest(ctx, gameID); !errors.Is(err, models.ErrRequestNotFound) {
		t.Errorf("expected no randomness request, got %v", err)
	}

	state, _ := f.ledger.PoolState(ctx)
	if state.Available+state.ReservedTotal > state.FundedTotal {
		t.Errorf("conservation violated after unwind: %+v", state)
	}
}
