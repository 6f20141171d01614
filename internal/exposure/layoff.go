package exposure

import (
	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/lottodesk/internal/domain"
)

// Split is the hedge decision for one exposure row.
type Split struct {
	Excess decimal.Decimal
	Layoff decimal.Decimal
	Keep   decimal.Decimal
}

// SplitLayoff computes excess = max(0, total-limit) and keep = total-layoff.
// A nil layoff defaults to the excess; an explicit one allows partial hedges.
func SplitLayoff(total, limit decimal.Decimal, layoff *decimal.Decimal) (Split, error) {
	if total.IsNegative() {
		return Split{}, domain.Validationf("total_amount must be >= 0, got %s", total)
	}
	if limit.IsNegative() {
		return Split{}, domain.Validationf("limit_amount must be >= 0, got %s", limit)
	}
	s := Split{Excess: decimal.Max(decimal.Zero, total.Sub(limit))}
	s.Layoff = s.Excess
	if layoff != nil {
		s.Layoff = *layoff
	}
	if s.Layoff.IsNegative() || s.Layoff.GreaterThan(total) {
		return Split{}, domain.Validationf("layoff_amount %s must be within [0, %s]", s.Layoff, total)
	}
	s.Keep = total.Sub(s.Layoff)
	return s, nil
}
