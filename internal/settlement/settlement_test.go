package settlement

import (
	"errors"
	"reflect"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/lottodesk/internal/domain"
)

func TestPermutations(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"123", 6},
		{"112", 3},
		{"111", 1},
		{"909", 3},
	}
	for _, tt := range tests {
		got := Permutations(tt.in)
		if len(got) != tt.want {
			t.Errorf("Permutations(%q) = %v (%d), want %d members", tt.in, got, len(got), tt.want)
		}
	}

	want := []string{"112", "121", "211"}
	if got := Permutations("112"); !reflect.DeepEqual(got, want) {
		t.Errorf("Permutations(%q) = %v, want %v", "112", got, want)
	}
}

func TestNewResult(t *testing.T) {
	r, err := NewResult("123", "", "45")
	if err != nil {
		t.Fatalf("NewResult: %v", err)
	}
	if r.TwoTop != "23" {
		t.Errorf("TwoTop = %q, want %q", r.TwoTop, "23")
	}
	if len(r.ThreeTod) != 6 {
		t.Errorf("ThreeTod = %v, want 6 members", r.ThreeTod)
	}

	r, err = NewResult("123", "99", "45")
	if err != nil {
		t.Fatalf("NewResult override: %v", err)
	}
	if r.TwoTop != "99" {
		t.Errorf("TwoTop override = %q, want %q", r.TwoTop, "99")
	}

	bad := []struct{ top3, top2, bottom2 string }{
		{"12", "", "45"},
		{"12a", "", "45"},
		{"123", "1", "45"},
		{"123", "", "4"},
		{"123", "", ""},
	}
	for _, b := range bad {
		if _, err := NewResult(b.top3, b.top2, b.bottom2); !errors.Is(err, domain.ErrValidation) {
			t.Errorf("NewResult(%q, %q, %q) err = %v, want ErrValidation", b.top3, b.top2, b.bottom2, err)
		}
	}
}

func TestMatch(t *testing.T) {
	result, err := NewResult("123", "", "45")
	if err != nil {
		t.Fatalf("NewResult: %v", err)
	}
	tests := []struct {
		kind   domain.BetKind
		number string
		want   bool
	}{
		{domain.BetThreeTod, "321", true},
		{domain.BetThreeTop, "321", false},
		{domain.BetThreeTop, "123", true},
		{domain.BetThreeTod, "124", false},
		{domain.BetTwoTop, "23", true},
		{domain.BetTwoTop, "12", false},
		{domain.BetTwoBottom, "45", true},
		{domain.BetTwoBottom, "54", false},
		{domain.BetRunTop, "1", true},
		{domain.BetRunTop, "4", false},
		{domain.BetRunBottom, "9", false},
		{domain.BetRunBottom, "5", true},
		{domain.BetRunTop, "", false},
	}
	for _, tt := range tests {
		if got := Match(tt.kind, tt.number, result); got != tt.want {
			t.Errorf("Match(%s, %q) = %v, want %v", tt.kind, tt.number, got, tt.want)
		}
	}
}

func wager(id, number string, kind domain.BetKind, stake, net, rate string, status domain.WagerStatus) domain.Wager {
	return domain.Wager{
		ID:       id,
		Number:   number,
		BetKind:  kind,
		Stake:    decimal.RequireFromString(stake),
		NetStake: decimal.RequireFromString(net),
		PayRate:  decimal.RequireFromString(rate),
		Status:   status,
	}
}

func TestSettle(t *testing.T) {
	result, _ := NewResult("123", "", "45")
	wagers := []domain.Wager{
		wager("w1", "321", domain.BetThreeTod, "100", "90", "150", domain.WagerActive),
		wager("w2", "321", domain.BetThreeTop, "100", "90", "900", domain.WagerActive),
		wager("w3", "1", domain.BetRunTop, "50", "50", "3", domain.WagerActive),
		wager("w4", "9", domain.BetRunBottom, "50", "50", "4", domain.WagerActive),
		wager("w5", "123", domain.BetThreeTop, "100", "100", "900", domain.WagerCancelled),
		wager("w1", "321", domain.BetThreeTod, "100", "90", "150", domain.WagerActive),
	}
	out := Settle(wagers, result, domain.WinBasisGross)

	if out.Settled != 4 {
		t.Fatalf("Settled = %d, want 4", out.Settled)
	}
	want := map[string]domain.WagerStatus{
		"w1": domain.WagerWon,
		"w2": domain.WagerLost,
		"w3": domain.WagerWon,
		"w4": domain.WagerLost,
	}
	for _, s := range out.Settlements {
		if s.WagerID == "w5" {
			t.Errorf("cancelled wager w5 was settled")
		}
		if s.Status != want[s.WagerID] {
			t.Errorf("%s status = %s, want %s", s.WagerID, s.Status, want[s.WagerID])
		}
	}
	if out.Winners != 2 {
		t.Errorf("Winners = %d, want 2", out.Winners)
	}
	// 100*150 + 50*3
	if !out.TotalPayout.Equal(decimal.NewFromInt(15150)) {
		t.Errorf("TotalPayout = %s, want 15150", out.TotalPayout)
	}
}

// The desk pays winners on gross stake unless configured for net.
func TestSettleWinBasis(t *testing.T) {
	result, _ := NewResult("123", "", "45")
	w := []domain.Wager{wager("w1", "23", domain.BetTwoTop, "100", "80", "90", domain.WagerActive)}

	gross := Settle(w, result, domain.WinBasisGross)
	if !gross.TotalPayout.Equal(decimal.NewFromInt(9000)) {
		t.Errorf("gross payout = %s, want 9000", gross.TotalPayout)
	}
	net := Settle(w, result, domain.WinBasisNet)
	if !net.TotalPayout.Equal(decimal.NewFromInt(7200)) {
		t.Errorf("net payout = %s, want 7200", net.TotalPayout)
	}
}

func TestSettleIsRepeatable(t *testing.T) {
	result, _ := NewResult("555", "", "00")
	w := []domain.Wager{
		wager("a", "5", domain.BetRunTop, "10", "10", "3", domain.WagerActive),
		wager("b", "0", domain.BetRunBottom, "10", "10", "4", domain.WagerWon),
	}
	first := Settle(w, result, domain.WinBasisGross)
	second := Settle(w, result, domain.WinBasisGross)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Settle not repeatable: %+v vs %+v", first, second)
	}
}
