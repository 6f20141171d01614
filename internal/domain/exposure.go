package domain

import "github.com/shopspring/decimal"

// ExposureKey groups wagers for aggregation. A struct key keeps numbers and
// kinds apart no matter what characters a number contains.
type ExposureKey struct {
	Number  string
	BetKind BetKind
}

// Exposure is the aggregate position on one (number, bet kind) in a round.
type Exposure struct {
	RoundID         string          `json:"round_id"`
	Number          string          `json:"number"`
	BetKind         BetKind         `json:"bet_kind"`
	WagerCount      int             `json:"wager_count"`
	TotalStake      decimal.Decimal `json:"total_stake"`
	TotalNetStake   decimal.Decimal `json:"total_net_stake"`
	PotentialPayout decimal.Decimal `json:"potential_payout"`
	Limit           decimal.Decimal `json:"limit"`
	OverLimit       decimal.Decimal `json:"over_limit"`
}

// Key returns the grouping key of e.
func (e Exposure) Key() ExposureKey {
	return ExposureKey{Number: e.Number, BetKind: e.BetKind}
}
