// Package pricing turns a raw stake into a priced ledger line.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/lottodesk/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// Stored scales of money and discount columns.
const (
	stakePlaces    = 2
	discountPlaces = 4
)

// Line is the priced portion of a wager.
type Line struct {
	Stake       decimal.Decimal
	DiscountPct decimal.Decimal
	DiscountAmt decimal.Decimal
	NetStake    decimal.Decimal
}

// Price computes discount and net stake for stake under discountPct.
// discountAmt = round(stake * pct / 100), netStake = stake - discountAmt.
func Price(stake, discountPct decimal.Decimal) (Line, error) {
	if err := ValidateStake(stake); err != nil {
		return Line{}, err
	}
	if err := ValidateDiscount(discountPct); err != nil {
		return Line{}, err
	}
	amt := stake.Mul(discountPct).Div(hundred).Round(0)
	net := stake.Sub(amt)
	if net.IsNegative() {
		// Rounding up a 100% discount on a fractional stake.
		amt, net = stake, decimal.Zero
	}
	return Line{
		Stake:       stake,
		DiscountPct: discountPct,
		DiscountAmt: amt,
		NetStake:    net,
	}, nil
}

// ValidateStake checks stake is positive with at most two decimal places.
func ValidateStake(stake decimal.Decimal) error {
	if !stake.IsPositive() {
		return domain.Validationf("stake must be > 0, got %s", stake)
	}
	if !stake.Equal(stake.Truncate(stakePlaces)) {
		return domain.Validationf("stake %s has more than %d decimal places", stake, stakePlaces)
	}
	return nil
}

// ValidateDiscount checks pct is within [0, 100] with at most four decimal
// places.
func ValidateDiscount(pct decimal.Decimal) error {
	if pct.IsNegative() || pct.GreaterThan(hundred) {
		return domain.Validationf("discount pct must be within [0,100], got %s", pct)
	}
	if !pct.Equal(pct.Truncate(discountPlaces)) {
		return domain.Validationf("discount pct %s has more than %d decimal places", pct, discountPlaces)
	}
	return nil
}

// Apply prices a wager in place, keeping its frozen discount percentage.
func Apply(w *domain.Wager, stake decimal.Decimal) error {
	line, err := Price(stake, w.DiscountPct)
	if err != nil {
		return err
	}
	w.Stake = line.Stake
	w.DiscountAmt = line.DiscountAmt
	w.NetStake = line.NetStake
	return nil
}
