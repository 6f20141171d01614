package settlement

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/lottodesk/internal/domain"
)

// Match reports whether number wins for kind under result.
func Match(kind domain.BetKind, number string, result domain.DrawResult) bool {
	switch kind {
	case domain.BetThreeTop:
		return number == result.ThreeTop
	case domain.BetThreeTod:
		tod := result.ThreeTod
		if len(tod) == 0 {
			tod = Permutations(result.ThreeTop)
		}
		return slices.Contains(tod, number)
	case domain.BetTwoTop:
		return number == result.TwoTop
	case domain.BetTwoBottom:
		return number == result.TwoBottom
	case domain.BetRunTop:
		return number != "" && strings.Contains(result.ThreeTop, number)
	case domain.BetRunBottom:
		return number != "" && strings.Contains(result.TwoBottom, number)
	default:
		return false
	}
}

// Outcome summarizes one settlement pass.
type Outcome struct {
	Settlements []domain.Settlement `json:"settlements"`
	Settled     int                 `json:"settled"`
	Winners     int                 `json:"winners"`
	TotalPayout decimal.Decimal     `json:"total_payout"`
}

// Settle decides win or loss for every non-cancelled wager exactly once.
// Winning amounts are computed with basis from the pay rate frozen on each
// wager. Settle is pure and safe to call again for a recomputation.
func Settle(wagers []domain.Wager, result domain.DrawResult, basis domain.WinBasis) Outcome {
	out := Outcome{TotalPayout: decimal.Zero}
	seen := make(map[string]struct{}, len(wagers))
	for _, w := range wagers {
		if !w.Counted() {
			continue
		}
		if _, dup := seen[w.ID]; dup {
			continue
		}
		seen[w.ID] = struct{}{}

		s := domain.Settlement{WagerID: w.ID, Status: domain.WagerLost, WinAmount: decimal.Zero}
		if Match(w.BetKind, w.Number, result) {
			s.Status = domain.WagerWon
			s.IsWin = true
			s.WinAmount = basis.Payout(w)
			out.Winners++
			out.TotalPayout = out.TotalPayout.Add(s.WinAmount)
		}
		out.Settlements = append(out.Settlements, s)
	}
	out.Settled = len(out.Settlements)
	return out
}
