package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PayRate is the default multiplier for (product, bet kind).
type PayRate struct {
	ProductID string          `json:"product_id"`
	BetKind   BetKind         `json:"bet_kind"`
	Rate      decimal.Decimal `json:"rate"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// GlobalLimit is the maximum aggregate net stake for (product, bet kind).
type GlobalLimit struct {
	ProductID string          `json:"product_id"`
	BetKind   BetKind         `json:"bet_kind"`
	MaxAmount decimal.Decimal `json:"max_amount"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// WinBasis selects which stake a winning wager's pay rate multiplies.
type WinBasis string

const (
	WinBasisGross WinBasis = "gross"
	WinBasisNet   WinBasis = "net"
)

// Valid reports whether b is a known basis.
func (b WinBasis) Valid() bool { return b == WinBasisGross || b == WinBasisNet }

// Payout returns the amount a wager pays if it wins under basis b.
func (b WinBasis) Payout(w Wager) decimal.Decimal {
	if b == WinBasisNet {
		return w.NetStake.Mul(w.PayRate)
	}
	return w.Stake.Mul(w.PayRate)
}
