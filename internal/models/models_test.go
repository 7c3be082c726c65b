package models_test

import (
	"errors"
	"math"
	"testing"

	"wagerpool-backend/internal/models"
)

func TestCheckedArithmetic(t *testing.T) {
	if _, err := models.CheckedAdd(math.MaxInt64, 1); !errors.Is(err, models.ErrOverflow) {
		t.Errorf("expected overflow on MaxInt64+1, got %v", err)
	}
	if _, err := models.CheckedSub(math.MinInt64, 1); !errors.Is(err, models.ErrOverflow) {
		t.Errorf("expected overflow on MinInt64-1, got %v", err)
	}
	if _, err := models.CheckedMul(math.MaxInt64/2, 3); !errors.Is(err, models.ErrOverflow) {
		t.Errorf("expected overflow on large multiply, got %v", err)
	}

	sum, err := models.CheckedAdd(700, 300)
	if err != nil || sum != 1000 {
		t.Errorf("expected 1000, got %d (%v)", sum, err)
	}
}

func TestPayoutAmount(t *testing.T) {
	cases := []struct {
		wager, multiplier, edgeBps, want int64
	}{
		{100, 200, 0, 200},      // 2x, no edge
		{100, 200, 200, 196},    // 2x, 2% edge
		{50, 10000, 200, 4900},  // 100x guess game, 2% edge
		{100, 600, 100, 594},    // 6x dice, 1% edge
		{1, 200, 9999, 0},       // edge rounds tiny payouts to zero
	}

	for _, tc := range cases {
		got, err := models.PayoutAmount(tc.wager, tc.multiplier, tc.edgeBps)
		if err != nil {
			t.Errorf("PayoutAmount(%d, %d, %d) failed: %v", tc.wager, tc.multiplier, tc.edgeBps, err)
			continue
		}
		if got != tc.want {
			t.Errorf("PayoutAmount(%d, %d, %d) = %d, want %d",
				tc.wager, tc.multiplier, tc.edgeBps, got, tc.want)
		}
	}

	if _, err := models.PayoutAmount(math.MaxInt64, 200, 0); !errors.Is(err, models.ErrOverflow) {
		t.Errorf("expected overflow on huge wager, got %v", err)
	}
}

func TestOpenGameRequestValidate(t *testing.T) {
	req := &models.OpenGameRequest{GameType: models.GameTypeCoinFlip, Wager: 50}
	if err := req.Validate(1, 10000); err != nil {
		t.Errorf("valid request failed validation: %v", err)
	}

	low := &models.OpenGameRequest{GameType: models.GameTypeDice, Wager: 0}
	if err := low.Validate(1, 10000); !errors.Is(err, models.ErrWagerOutOfRange) {
		t.Errorf("expected wager out of range, got %v", err)
	}

	unknown := &models.OpenGameRequest{GameType: "roulette", Wager: 50}
	if err := unknown.Validate(1, 10000); !errors.Is(err, models.ErrUnknownGameType) {
		t.Errorf("expected unknown game type, got %v", err)
	}
}

func TestErrorCodes(t *testing.T) {
	if code := models.ErrorCode(models.ErrChoiceAfterReveal); code != "choice_after_reveal" {
		t.Errorf("expected choice_after_reveal, got %s", code)
	}
	if code := models.ErrorCode(errors.New("boom")); code != "internal" {
		t.Errorf("expected internal, got %s", code)
	}
}

func TestGenerateGameID(t *testing.T) {
	a := models.GenerateGameID()
	b := models.GenerateGameID()
	if a == "" || a == b {
		t.Errorf("game ids should be non-empty and unique, got %q, %q", a, b)
	}
}
