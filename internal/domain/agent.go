package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RateKey identifies a pay rate or limit slot.
type RateKey struct {
	ProductID string  `json:"product_id"`
	BetKind   BetKind `json:"bet_kind"`
}

// AgentPayRate is a per-agent pay rate override.
type AgentPayRate struct {
	ProductID string          `json:"product_id"`
	BetKind   BetKind         `json:"bet_kind"`
	Rate      decimal.Decimal `json:"rate"`
}

// DiscountPreset is a named discount percentage an operator can apply to an
// agent for any product.
type DiscountPreset struct {
	Name string          `json:"name"`
	Pct  decimal.Decimal `json:"pct"`
}

// Agent is a sub-bookmaker placing wagers.
type Agent struct {
	ID        string                     `json:"id"`
	Code      string                     `json:"code"`
	Name      string                     `json:"name"`
	Active    bool                       `json:"active"`
	Discounts map[string]decimal.Decimal `json:"discounts"` // product id -> pct
	PayRates  []AgentPayRate             `json:"pay_rates"`
	Presets   []DiscountPreset           `json:"presets"`
	CreatedAt time.Time                  `json:"created_at"`
	UpdatedAt time.Time                  `json:"updated_at"`
}

// DiscountFor returns the agent's discount percentage for a product, zero
// when none is configured.
func (a Agent) DiscountFor(productID string) decimal.Decimal {
	if pct, ok := a.Discounts[productID]; ok {
		return pct
	}
	return decimal.Zero
}

// PayRateFor returns the agent's custom pay rate for (product, kind).
func (a Agent) PayRateFor(productID string, kind BetKind) (decimal.Decimal, bool) {
	for _, r := range a.PayRates {
		if r.ProductID == productID && r.BetKind == kind {
			return r.Rate, true
		}
	}
	return decimal.Decimal{}, false
}

// Preset looks up a discount preset by name.
func (a Agent) Preset(name string) (DiscountPreset, bool) {
	for _, p := range a.Presets {
		if p.Name == name {
			return p, true
		}
	}
	return DiscountPreset{}, false
}
