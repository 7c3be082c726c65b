package models

import "math"

// Amounts are int64 units of the settlement asset. All arithmetic on
// pool balances and payouts goes through the checked helpers so an
// overflow surfaces as ErrOverflow instead of wrapping.

func CheckedAdd(a, b int64) (int64, error) {
	if b > 0 && a > math.MaxInt64-b {
		return 0, ErrOverflow
	}
	if b < 0 && a < math.MinInt64-b {
		return 0, ErrOverflow
	}
	return a + b, nil
}

func CheckedSub(a, b int64) (int64, error) {
	if b < 0 && a > math.MaxInt64+b {
		return 0, ErrOverflow
	}
	if b > 0 && a < math.MinInt64+b {
		return 0, ErrOverflow
	}
	return a - b, nil
}

func CheckedMul(a, b int64) (int64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	product := a * b
	if product/b != a {
		return 0, ErrOverflow
	}
	return product, nil
}

// PayoutAmount computes wager x multiplier/100 reduced by the house edge
// in basis points, rounding down at each step.
func PayoutAmount(wager, multiplierHundredths, houseEdgeBps int64) (int64, error) {
	gross, err := CheckedMul(wager, multiplierHundredths)
	if err != nil {
		return 0, err
	}
	gross /= 100

	kept, err := CheckedSub(10000, houseEdgeBps)
	if err != nil {
		return 0, err
	}
	net, err := CheckedMul(gross, kept)
	if err != nil {
		return 0, err
	}
	return net / 10000, nil
}
