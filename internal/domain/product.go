package domain

import (
	"fmt"
	"time"
)

// BetKind is the wager category.
type BetKind string

const (
	BetThreeTop  BetKind = "THREE_TOP"
	BetThreeTod  BetKind = "THREE_TOD" // any order
	BetTwoTop    BetKind = "TWO_TOP"
	BetTwoBottom BetKind = "TWO_BOTTOM"
	BetRunTop    BetKind = "RUN_TOP"
	BetRunBottom BetKind = "RUN_BOTTOM"
)

// BetKinds lists every bet kind in display order.
var BetKinds = []BetKind{BetThreeTop, BetThreeTod, BetTwoTop, BetTwoBottom, BetRunTop, BetRunBottom}

// Digits returns how many digits a wager number of this kind carries, or 0
// for an unknown kind.
func (k BetKind) Digits() int {
	switch k {
	case BetThreeTop, BetThreeTod:
		return 3
	case BetTwoTop, BetTwoBottom:
		return 2
	case BetRunTop, BetRunBottom:
		return 1
	default:
		return 0
	}
}

// Valid reports whether k is a known bet kind.
func (k BetKind) Valid() bool { return k.Digits() > 0 }

// ParseBetKind validates a raw bet-kind string.
func ParseBetKind(s string) (BetKind, error) {
	k := BetKind(s)
	if !k.Valid() {
		return "", Validationf("unknown bet kind %q", s)
	}
	return k, nil
}

// ValidateNumber checks that number is exactly k.Digits() ASCII digits.
func (k BetKind) ValidateNumber(number string) error {
	n := k.Digits()
	if n == 0 {
		return Validationf("unknown bet kind %q", string(k))
	}
	if !IsDigits(number, n) {
		return Validationf("number %q must be %d digit(s) for %s", number, n, k)
	}
	return nil
}

// IsDigits reports whether s consists of exactly n ASCII digits.
func IsDigits(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Product is a bettable lottery.
type Product struct {
	ID        string         `json:"id"`
	Code      string         `json:"code"`
	Name      string         `json:"name"`
	DrawDays  []time.Weekday `json:"draw_days"`
	CloseTime string         `json:"close_time"` // HH:MM local
	Active    bool           `json:"active"`
	CreatedAt time.Time      `json:"created_at"`
}

// ValidateCloseTime checks the HH:MM close time format.
func ValidateCloseTime(s string) error {
	if s == "" {
		return nil
	}
	if _, err := time.Parse("15:04", s); err != nil {
		return Validationf("close_time %q must be HH:MM", s)
	}
	return nil
}

// DrawsOn reports whether the product draws on the weekday of d. A product
// without configured draw days draws every day.
func (p Product) DrawsOn(d time.Time) bool {
	if len(p.DrawDays) == 0 {
		return true
	}
	for _, wd := range p.DrawDays {
		if wd == d.Weekday() {
			return true
		}
	}
	return false
}

func (p Product) String() string {
	return fmt.Sprintf("%s (%s)", p.Name, p.Code)
}
