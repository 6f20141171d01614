package service

import (
	"context"
	"errors"
	"testing"

	"github.com/alanyoungcy/lottodesk/internal/domain"
	"github.com/alanyoungcy/lottodesk/internal/exposure"
)

func zeroDiscount(t *testing.T, d *desk) {
	t.Helper()
	if _, err := d.agents.SetDiscount(context.Background(), d.agent.ID, d.product.ID, dec(0)); err != nil {
		t.Fatalf("SetDiscount: %v", err)
	}
}

func TestExposureForRound(t *testing.T) {
	d := newDesk(t)
	ctx := context.Background()
	zeroDiscount(t, d)
	wagers := d.place(t,
		line("25", "TWO_TOP", 1000),
		line("25", "TWO_TOP", 2000),
		line("25", "TWO_TOP", 2500),
		line("25", "TWO_TOP", 9000),
		line("7", "RUN_TOP", 10),
	)
	if _, err := d.ledger.CancelWager(ctx, wagers[3].ID, "void", "op"); err != nil {
		t.Fatalf("CancelWager: %v", err)
	}

	rows, err := d.exposure.ForRound(ctx, d.round.ID, exposure.SortOverLimit)
	if err != nil {
		t.Fatalf("ForRound: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	top := rows[0]
	if top.Number != "25" || !top.TotalNetStake.Equal(dec(5500)) || !top.OverLimit.Equal(dec(500)) || !top.Limit.Equal(dec(5000)) {
		t.Errorf("top row = %+v, want 25 net 5500 over 500 limit 5000", top)
	}
}

func TestExposureUsesConfiguredLimit(t *testing.T) {
	d := newDesk(t)
	ctx := context.Background()
	zeroDiscount(t, d)
	if _, err := d.book.SetLimit(ctx, d.product.ID, domain.BetTwoTop, dec(1000)); err != nil {
		t.Fatalf("SetLimit: %v", err)
	}
	d.place(t, line("25", "TWO_TOP", 1500))

	rows, err := d.exposure.ForRound(ctx, d.round.ID, exposure.SortOverLimit)
	if err != nil {
		t.Fatalf("ForRound: %v", err)
	}
	if !rows[0].OverLimit.Equal(dec(500)) {
		t.Errorf("OverLimit = %s, want 500", rows[0].OverLimit)
	}
}

func TestExposureCacheInvalidatedByWrites(t *testing.T) {
	d := newDesk(t)
	ctx := context.Background()
	d.place(t, line("25", "TWO_TOP", 100))

	if _, err := d.exposure.ForRound(ctx, d.round.ID, exposure.SortPayout); err != nil {
		t.Fatalf("ForRound: %v", err)
	}
	if _, err := d.exposure.ForRound(ctx, d.round.ID, exposure.SortPayout); err != nil {
		t.Fatalf("ForRound: %v", err)
	}
	if d.cache.hits != 1 {
		t.Errorf("cache hits = %d, want 1", d.cache.hits)
	}

	d.place(t, line("25", "TWO_TOP", 100))
	rows, err := d.exposure.ForRound(ctx, d.round.ID, exposure.SortPayout)
	if err != nil {
		t.Fatalf("ForRound: %v", err)
	}
	if rows[0].WagerCount != 2 {
		t.Errorf("WagerCount = %d after write, want 2", rows[0].WagerCount)
	}
}

func TestExposureRefreshedWhenSettingsChange(t *testing.T) {
	d := newDesk(t)
	ctx := context.Background()
	zeroDiscount(t, d)
	d.place(t, line("25", "TWO_TOP", 300))

	rows, err := d.exposure.ForRound(ctx, d.round.ID, exposure.SortOverLimit)
	if err != nil {
		t.Fatalf("ForRound: %v", err)
	}
	if !rows[0].Limit.Equal(dec(5000)) || !rows[0].OverLimit.IsZero() {
		t.Fatalf("before = limit %s over %s, want 5000 0", rows[0].Limit, rows[0].OverLimit)
	}

	if _, err := d.book.SetLimit(ctx, d.product.ID, domain.BetTwoTop, dec(100)); err != nil {
		t.Fatalf("SetLimit: %v", err)
	}
	rows, err = d.exposure.ForRound(ctx, d.round.ID, exposure.SortOverLimit)
	if err != nil {
		t.Fatalf("ForRound: %v", err)
	}
	if !rows[0].Limit.Equal(dec(100)) || !rows[0].OverLimit.Equal(dec(200)) {
		t.Errorf("after SetLimit = limit %s over %s, want 100 200", rows[0].Limit, rows[0].OverLimit)
	}

	before := d.cache.invalidated
	if _, err := d.book.SetPayRate(ctx, d.product.ID, domain.BetTwoTop, dec(95)); err != nil {
		t.Fatalf("SetPayRate: %v", err)
	}
	if d.cache.invalidated != before+1 {
		t.Errorf("invalidations after SetPayRate = %d, want %d", d.cache.invalidated, before+1)
	}
}

func TestExposureForProduct(t *testing.T) {
	d := newDesk(t)
	ctx := context.Background()
	d.place(t, line("25", "TWO_TOP", 100))

	other, err := d.rounds.Create(ctx, d.product.ID, "2026-02-01")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := d.ledger.PlaceWagers(ctx, PlaceRequest{
		RoundID: other.ID,
		AgentID: d.agent.ID,
		Lines:   []RawLine{line("25", "TWO_TOP", 300)},
	}); err != nil {
		t.Fatalf("PlaceWagers: %v", err)
	}
	resolved, err := d.rounds.Create(ctx, d.product.ID, "2026-01-01")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := d.rounds.SubmitResult(ctx, ResultRequest{RoundID: resolved.ID, ThreeTop: "000", TwoBottom: "00"}); err != nil {
		t.Fatalf("SubmitResult: %v", err)
	}

	rows, err := d.exposure.ForProduct(ctx, "GOV", exposure.SortPayout)
	if err != nil {
		t.Fatalf("ForProduct: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2 (one per open round)", len(rows))
	}
	if rows[0].RoundID != other.ID || rows[1].RoundID != d.round.ID {
		t.Errorf("row rounds = %s,%s, want %s,%s", rows[0].RoundID, rows[1].RoundID, other.ID, d.round.ID)
	}
	if _, err := d.exposure.ForProduct(ctx, "NOPE", exposure.SortPayout); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unknown code err = %v, want ErrNotFound", err)
	}
}
