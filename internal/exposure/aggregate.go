// Package exposure projects a round's wagers into per-number risk rows.
package exposure

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/lottodesk/internal/domain"
)

// LimitFunc returns the effective limit for a bet kind of the round's product.
type LimitFunc func(kind domain.BetKind) decimal.Decimal

// Aggregate groups non-cancelled wagers by (number, bet kind) and compares
// each group's net stake to its limit. Rows come back in first-seen order;
// callers sort for their view.
func Aggregate(roundID string, wagers []domain.Wager, limit LimitFunc, basis domain.WinBasis) []domain.Exposure {
	idx := make(map[domain.ExposureKey]int)
	var rows []domain.Exposure
	for _, w := range wagers {
		if !w.Counted() {
			continue
		}
		key := domain.ExposureKey{Number: w.Number, BetKind: w.BetKind}
		i, ok := idx[key]
		if !ok {
			i = len(rows)
			idx[key] = i
			rows = append(rows, domain.Exposure{
				RoundID:         roundID,
				Number:          w.Number,
				BetKind:         w.BetKind,
				TotalStake:      decimal.Zero,
				TotalNetStake:   decimal.Zero,
				PotentialPayout: decimal.Zero,
			})
		}
		r := &rows[i]
		r.WagerCount++
		r.TotalStake = r.TotalStake.Add(w.Stake)
		r.TotalNetStake = r.TotalNetStake.Add(w.NetStake)
		r.PotentialPayout = r.PotentialPayout.Add(basis.Payout(w))
	}

	for i := range rows {
		r := &rows[i]
		r.Limit = limit(r.BetKind)
		r.OverLimit = decimal.Max(decimal.Zero, r.TotalNetStake.Sub(r.Limit))
	}
	return rows
}

// SortMode names a dashboard ordering.
type SortMode string

const (
	SortOverLimit SortMode = "over_limit"
	SortPayout    SortMode = "payout"
)

// ParseSortMode validates a sort parameter. Empty means over_limit.
func ParseSortMode(s string) (SortMode, error) {
	switch SortMode(strings.ToLower(s)) {
	case "", SortOverLimit:
		return SortOverLimit, nil
	case SortPayout:
		return SortPayout, nil
	}
	return "", domain.Validationf("unknown sort %q", s)
}

// Sort orders rows descending by the chosen measure, breaking ties by net
// stake then (bet kind, number) so output is stable for polling clients.
func Sort(rows []domain.Exposure, mode SortMode) {
	primary := func(e domain.Exposure) decimal.Decimal { return e.OverLimit }
	if mode == SortPayout {
		primary = func(e domain.Exposure) decimal.Decimal { return e.PotentialPayout }
	}
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if c := primary(a).Cmp(primary(b)); c != 0 {
			return c > 0
		}
		if c := a.TotalNetStake.Cmp(b.TotalNetStake); c != 0 {
			return c > 0
		}
		if a.BetKind != b.BetKind {
			return a.BetKind < b.BetKind
		}
		return a.Number < b.Number
	})
}

// OverLimitOnly filters rows down to those exceeding their limit.
func OverLimitOnly(rows []domain.Exposure) []domain.Exposure {
	out := rows[:0:0]
	for _, r := range rows {
		if r.OverLimit.IsPositive() {
			out = append(out, r)
		}
	}
	return out
}
