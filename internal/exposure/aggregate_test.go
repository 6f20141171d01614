package exposure

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/lottodesk/internal/domain"
)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func w(number string, kind domain.BetKind, stake, net, rate int64, status domain.WagerStatus) domain.Wager {
	return domain.Wager{
		Number:   number,
		BetKind:  kind,
		Stake:    dec(stake),
		NetStake: dec(net),
		PayRate:  dec(rate),
		Status:   status,
	}
}

func fixedLimit(v int64) LimitFunc {
	return func(domain.BetKind) decimal.Decimal { return dec(v) }
}

func TestAggregateOverLimit(t *testing.T) {
	wagers := []domain.Wager{
		w("25", domain.BetTwoTop, 1000, 1000, 90, domain.WagerActive),
		w("25", domain.BetTwoTop, 2000, 2000, 90, domain.WagerActive),
		w("25", domain.BetTwoTop, 2500, 2500, 90, domain.WagerActive),
		w("25", domain.BetTwoTop, 9000, 9000, 90, domain.WagerCancelled),
	}
	rows := Aggregate("r1", wagers, fixedLimit(5000), domain.WinBasisGross)
	if len(rows) != 1 {
		t.Fatalf("len(rows) = %d, want 1", len(rows))
	}
	r := rows[0]
	if !r.TotalNetStake.Equal(dec(5500)) {
		t.Errorf("TotalNetStake = %s, want 5500", r.TotalNetStake)
	}
	if !r.OverLimit.Equal(dec(500)) {
		t.Errorf("OverLimit = %s, want 500", r.OverLimit)
	}
	if r.WagerCount != 3 {
		t.Errorf("WagerCount = %d, want 3", r.WagerCount)
	}
	if !r.PotentialPayout.Equal(dec(5500 * 90)) {
		t.Errorf("PotentialPayout = %s, want %d", r.PotentialPayout, 5500*90)
	}
	if r.RoundID != "r1" {
		t.Errorf("RoundID = %q, want r1", r.RoundID)
	}
}

func TestAggregateGroupsByNumberAndKind(t *testing.T) {
	wagers := []domain.Wager{
		w("25", domain.BetTwoTop, 100, 90, 90, domain.WagerActive),
		w("25", domain.BetTwoBottom, 100, 90, 90, domain.WagerActive),
		w("52", domain.BetTwoTop, 100, 90, 90, domain.WagerActive),
		w("25", domain.BetTwoTop, 100, 90, 90, domain.WagerWon),
	}
	rows := Aggregate("r1", wagers, fixedLimit(1000), domain.WinBasisGross)
	if len(rows) != 3 {
		t.Fatalf("len(rows) = %d, want 3", len(rows))
	}
	if !rows[0].TotalNetStake.Equal(dec(180)) {
		t.Errorf("25/TWO_TOP net = %s, want 180", rows[0].TotalNetStake)
	}
	for _, r := range rows {
		if r.OverLimit.IsPositive() {
			t.Errorf("%s/%s over limit %s, want 0", r.Number, r.BetKind, r.OverLimit)
		}
	}
}

func TestAggregatePayoutBasis(t *testing.T) {
	wagers := []domain.Wager{w("7", domain.BetRunTop, 100, 80, 3, domain.WagerActive)}
	gross := Aggregate("r1", wagers, fixedLimit(1000), domain.WinBasisGross)
	net := Aggregate("r1", wagers, fixedLimit(1000), domain.WinBasisNet)
	if !gross[0].PotentialPayout.Equal(dec(300)) {
		t.Errorf("gross payout = %s, want 300", gross[0].PotentialPayout)
	}
	if !net[0].PotentialPayout.Equal(dec(240)) {
		t.Errorf("net payout = %s, want 240", net[0].PotentialPayout)
	}
}

func TestSort(t *testing.T) {
	limits := func(k domain.BetKind) decimal.Decimal {
		if k == domain.BetThreeTop {
			return dec(100)
		}
		return dec(1000)
	}
	wagers := []domain.Wager{
		w("11", domain.BetTwoTop, 900, 900, 90, domain.WagerActive),
		w("123", domain.BetThreeTop, 300, 300, 900, domain.WagerActive),
		w("22", domain.BetTwoTop, 1500, 1500, 90, domain.WagerActive),
	}
	rows := Aggregate("r1", wagers, limits, domain.WinBasisGross)

	Sort(rows, SortOverLimit)
	if rows[0].Number != "22" || rows[1].Number != "123" || rows[2].Number != "11" {
		t.Errorf("over_limit order = %s,%s,%s, want 22,123,11", rows[0].Number, rows[1].Number, rows[2].Number)
	}

	Sort(rows, SortPayout)
	if rows[0].Number != "123" || rows[1].Number != "22" {
		t.Errorf("payout order = %s,%s, want 123,22", rows[0].Number, rows[1].Number)
	}

	over := OverLimitOnly(rows)
	if len(over) != 2 {
		t.Errorf("OverLimitOnly = %d rows, want 2", len(over))
	}
}

func TestParseSortMode(t *testing.T) {
	tests := []struct {
		in      string
		want    SortMode
		wantErr bool
	}{
		{"", SortOverLimit, false},
		{"over_limit", SortOverLimit, false},
		{"PAYOUT", SortPayout, false},
		{"stake", "", true},
	}
	for _, tt := range tests {
		got, err := ParseSortMode(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseSortMode(%q) = %q, %v; want %q, err=%v", tt.in, got, err, tt.want, tt.wantErr)
		}
	}
}
