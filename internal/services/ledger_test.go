package services_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"wagerpool-backend/internal/models"
	"wagerpool-backend/internal/store"
)

// Scenario: fund 1000 -> reserve 300 -> payout 300 leaves available 700
// and no reservation behind.
func TestLedgerFundReservePayout(t *testing.T) {
	transfer := &fakeTransfer{}
	ledger, st, _ := setupLedger(t, transfer)
	ctx := context.Background()

	gameID := uniqueID("g1")
	cleanupKeys(t, st, fmt.Sprintf(store.KeyReservation, gameID))

	if err := ledger.Fund(ctx, "funder", 1000); err != nil {
		t.Fatalf("Failed to fund: %v", err)
	}
	if err := ledger.Reserve(ctx, "admin", gameID, 300); err != nil {
		t.Fatalf("Failed to reserve: %v", err)
	}
	if err := ledger.Payout(ctx, "admin", gameID, "winner", 300); err != nil {
		t.Fatalf("Failed to payout: %v", err)
	}

	state, err := ledger.PoolState(ctx)
	if err != nil {
		t.Fatalf("Failed to get pool state: %v", err)
	}
	if state.Available != 700 {
		t.Errorf("expected available 700, got %d", state.Available)
	}
	if state.ReservedTotal != 0 || state.ReservationCount != 0 {
		t.Errorf("expected no reservations, got total %d count %d",
			state.ReservedTotal, state.ReservationCount)
	}

	if _, err := ledger.Reservation(ctx, gameID); !errors.Is(err, models.ErrReservationNotFound) {
		t.Errorf("expected reservation gone, got %v", err)
	}

	// fund in + payout out
	if transfer.callCount() != 2 {
		t.Errorf("expected 2 asset transfers, got %d", transfer.callCount())
	}
}

func TestLedgerReserveIdempotencyGuard(t *testing.T) {
	ledger, st, _ := setupLedger(t, &fakeTransfer{})
	ctx := context.Background()

	gameID := uniqueID("dup")
	cleanupKeys(t, st, fmt.Sprintf(store.KeyReservation, gameID))

	if err := ledger.Fund(ctx, "funder", 1000); err != nil {
		t.Fatalf("Failed to fund: %v", err)
	}
	if err := ledger.Reserve(ctx, "admin", gameID, 100); err != nil {
		t.Fatalf("Failed to reserve: %v", err)
	}

	// The second reserve must fail regardless of amount.
	for _, amount := range []int64{100, 1, 500} {
		if err := ledger.Reserve(ctx, "admin", gameID, amount); !errors.Is(err, models.ErrGameAlreadyReserved) {
			t.Errorf("expected double reservation rejected for %d, got %v", amount, err)
		}
	}
}

func TestLedgerConservation(t *testing.T) {
	ledger, st, _ := setupLedger(t, &fakeTransfer{})
	ctx := context.Background()

	g1, g2 := uniqueID("c1"), uniqueID("c2")
	cleanupKeys(t, st,
		fmt.Sprintf(store.KeyReservation, g1),
		fmt.Sprintf(store.KeyReservation, g2))

	check := func(step string) {
		state, err := ledger.PoolState(ctx)
		if err != nil {
			t.Fatalf("%s: failed to get pool state: %v", step, err)
		}
		if state.Available < 0 {
			t.Errorf("%s: available went negative: %d", step, state.Available)
		}
		if state.Available+state.ReservedTotal > state.FundedTotal {
			t.Errorf("%s: conservation violated: %d + %d > %d",
				step, state.Available, state.ReservedTotal, state.FundedTotal)
		}
	}

	ledger.Fund(ctx, "funder", 1000)
	check("fund")
	ledger.Reserve(ctx, "admin", g1, 400)
	check("reserve g1")
	ledger.Reserve(ctx, "admin", g2, 600)
	check("reserve g2")
	ledger.Release(ctx, "admin", g1, 150)
	check("partial release")
	ledger.Payout(ctx, "admin", g2, "winner", 250)
	check("partial payout")
	ledger.Release(ctx, "admin", g1, 9999)
	check("over-release clamps")
	ledger.Payout(ctx, "admin", g2, "winner", 350)
	check("drain g2")

	state, _ := ledger.PoolState(ctx)
	// 1000 funded, 600 paid out of g2, rest back in available.
	if state.Available != 400 {
		t.Errorf("expected available 400, got %d", state.Available)
	}

	if err := ledger.Reserve(ctx, "admin", uniqueID("big"), 401); !errors.Is(err, models.ErrInsufficientFunds) {
		t.Errorf("expected insufficient funds, got %v", err)
	}
}

func TestLedgerPayoutExceedsReservation(t *testing.T) {
	ledger, st, _ := setupLedger(t, &fakeTransfer{})
	ctx := context.Background()

	gameID := uniqueID("cap")
	cleanupKeys(t, st, fmt.Sprintf(store.KeyReservation, gameID))

	ledger.Fund(ctx, "funder", 500)
	ledger.Reserve(ctx, "admin", gameID, 200)

	if err := ledger.Payout(ctx, "admin", gameID, "winner", 201); !errors.Is(err, models.ErrPayoutExceedsReservation) {
		t.Errorf("expected payout cap, got %v", err)
	}

	// Multi-winner split within the cap is fine.
	if err := ledger.Payout(ctx, "admin", gameID, "a", 120); err != nil {
		t.Fatalf("first split failed: %v", err)
	}
	if err := ledger.Payout(ctx, "admin", gameID, "b", 80); err != nil {
		t.Fatalf("second split failed: %v", err)
	}
}

// The reservation debit commits before the transfer is attempted, so a
// failed transfer leaves the books debited and a blind retry cannot
// double-pay.
func TestLedgerPayoutDebitsBeforeTransfer(t *testing.T) {
	transfer := &fakeTransfer{fail: true}
	ledger, st, _ := setupLedger(t, transfer)
	ctx := context.Background()

	gameID := uniqueID("ord")
	cleanupKeys(t, st, fmt.Sprintf(store.KeyReservation, gameID))

	transfer.fail = false
	ledger.Fund(ctx, "funder", 500)
	ledger.Reserve(ctx, "admin", gameID, 200)
	transfer.fail = true

	err := ledger.Payout(ctx, "admin", gameID, "winner", 200)
	if !errors.Is(err, models.ErrTransferFailed) {
		t.Fatalf("expected transfer failure, got %v", err)
	}

	// Debit already happened: the reservation is gone.
	if _, err := ledger.Reservation(ctx, gameID); !errors.Is(err, models.ErrReservationNotFound) {
		t.Errorf("expected reservation drained despite failed transfer, got %v", err)
	}

	// And the naive retry fails instead of paying twice.
	if err := ledger.Payout(ctx, "admin", gameID, "winner", 200); !errors.Is(err, models.ErrReservationNotFound) {
		t.Errorf("expected retry rejected, got %v", err)
	}
}

func TestLedgerAuthorization(t *testing.T) {
	ledger, _, _ := setupLedger(t, &fakeTransfer{})
	ctx := context.Background()

	if err := ledger.Reserve(ctx, "mallory", uniqueID("x"), 100); !errors.Is(err, models.ErrNotAuthorized) {
		t.Errorf("expected unauthorized reserve rejected, got %v", err)
	}
	if err := ledger.Fund(ctx, "anyone", 0); !errors.Is(err, models.ErrInvalidAmount) {
		t.Errorf("expected zero fund rejected, got %v", err)
	}
	if err := ledger.Fund(ctx, "anyone", -5); !errors.Is(err, models.ErrInvalidAmount) {
		t.Errorf("expected negative fund rejected, got %v", err)
	}
}
