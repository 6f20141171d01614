package domain

import "time"

// RoundStatus is the lifecycle state of a draw round.
type RoundStatus string

const (
	RoundAccepting      RoundStatus = "ACCEPTING"
	RoundClosedForEntry RoundStatus = "CLOSED_FOR_ENTRY"
	RoundResolved       RoundStatus = "RESOLVED"
)

// Valid reports whether s is one of the three lifecycle states.
func (s RoundStatus) Valid() bool {
	switch s {
	case RoundAccepting, RoundClosedForEntry, RoundResolved:
		return true
	}
	return false
}

// CanTransition reports whether the lifecycle allows moving from s to target.
// RESOLVED is terminal and may be entered from either earlier state.
func (s RoundStatus) CanTransition(target RoundStatus) bool {
	switch s {
	case RoundAccepting:
		return target == RoundClosedForEntry || target == RoundResolved
	case RoundClosedForEntry:
		return target == RoundResolved
	default:
		return false
	}
}

// DrawResult is the official result of one round.
type DrawResult struct {
	ThreeTop  string   `json:"three_top"`
	TwoTop    string   `json:"two_top"`
	TwoBottom string   `json:"two_bottom"`
	ThreeTod  []string `json:"three_tod"` // distinct permutations of ThreeTop
}

// Round is one scheduled draw of a product.
type Round struct {
	ID         string      `json:"id"`
	ProductID  string      `json:"product_id"`
	DrawDate   time.Time   `json:"draw_date"`
	Status     RoundStatus `json:"status"`
	Result     *DrawResult `json:"result,omitempty"`
	ClosedAt   *time.Time  `json:"closed_at,omitempty"`
	ResolvedAt *time.Time  `json:"resolved_at,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}

// DateLayout is the wire and storage layout of a draw date.
const DateLayout = "2006-01-02"

// ParseDrawDate parses a YYYY-MM-DD draw date into a UTC midnight time.
func ParseDrawDate(s string) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, Validationf("draw_date %q must be YYYY-MM-DD", s)
	}
	return d, nil
}

// Accepting reports whether wagers may be created or mutated in this round.
func (r Round) Accepting() bool { return r.Status == RoundAccepting }
