package service

import (
	"context"
	"errors"
	"testing"

	"github.com/alanyoungcy/lottodesk/internal/domain"
)

func TestCreateAgentDuplicateCode(t *testing.T) {
	d := newDesk(t)
	if _, err := d.agents.Create(context.Background(), "A01", "Someone Else"); !errors.Is(err, domain.ErrDuplicateAgent) {
		t.Errorf("err = %v, want ErrDuplicateAgent", err)
	}
}

func TestPayRatePrecedence(t *testing.T) {
	d := newDesk(t)
	ctx := context.Background()

	w := d.place(t, line("25", "TWO_TOP", 10))[0]
	if !w.PayRate.Equal(dec(90)) {
		t.Errorf("fallback rate = %s, want 90", w.PayRate)
	}

	if _, err := d.book.SetPayRate(ctx, d.product.ID, domain.BetTwoTop, dec(95)); err != nil {
		t.Fatalf("SetPayRate: %v", err)
	}
	w = d.place(t, line("25", "TWO_TOP", 10))[0]
	if !w.PayRate.Equal(dec(95)) {
		t.Errorf("product rate = %s, want 95", w.PayRate)
	}

	if _, err := d.agents.SetPayRate(ctx, d.agent.ID, d.product.ID, domain.BetTwoTop, decp(70)); err != nil {
		t.Fatalf("agent SetPayRate: %v", err)
	}
	w = d.place(t, line("25", "TWO_TOP", 10))[0]
	if !w.PayRate.Equal(dec(70)) {
		t.Errorf("agent rate = %s, want 70", w.PayRate)
	}

	if _, err := d.agents.SetPayRate(ctx, d.agent.ID, d.product.ID, domain.BetTwoTop, nil); err != nil {
		t.Fatalf("clear agent rate: %v", err)
	}
	w = d.place(t, line("25", "TWO_TOP", 10))[0]
	if !w.PayRate.Equal(dec(95)) {
		t.Errorf("rate after clearing override = %s, want 95", w.PayRate)
	}

	rates, err := d.book.PayRates(ctx, d.product.ID)
	if err != nil {
		t.Fatalf("PayRates: %v", err)
	}
	if len(rates) != len(domain.BetKinds) {
		t.Errorf("PayRates = %d rows, want %d", len(rates), len(domain.BetKinds))
	}
}

func TestPresets(t *testing.T) {
	d := newDesk(t)
	ctx := context.Background()
	_, err := d.agents.SetPresets(ctx, d.agent.ID, []domain.DiscountPreset{
		{Name: "vip", Pct: dec(25)},
		{Name: "std", Pct: dec(5)},
	})
	if err != nil {
		t.Fatalf("SetPresets: %v", err)
	}
	a, err := d.agents.ApplyPreset(ctx, d.agent.ID, d.product.ID, "vip")
	if err != nil {
		t.Fatalf("ApplyPreset: %v", err)
	}
	if !a.DiscountFor(d.product.ID).Equal(dec(25)) {
		t.Errorf("discount = %s, want 25", a.DiscountFor(d.product.ID))
	}
	if _, err := d.agents.ApplyPreset(ctx, d.agent.ID, d.product.ID, "gold"); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("unknown preset err = %v, want ErrValidation", err)
	}
	_, err = d.agents.SetPresets(ctx, d.agent.ID, []domain.DiscountPreset{{Name: "x", Pct: dec(101)}})
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("preset over 100 err = %v, want ErrValidation", err)
	}
}

func TestDeactivateAgent(t *testing.T) {
	d := newDesk(t)
	ctx := context.Background()

	fresh, err := d.agents.Create(ctx, "a02", "Agent Two")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	deleted, err := d.agents.Deactivate(ctx, fresh.ID)
	if err != nil || !deleted {
		t.Fatalf("Deactivate fresh = %v, %v; want true, nil", deleted, err)
	}
	if _, err := d.agents.Get(ctx, fresh.ID); !errors.Is(err, domain.ErrAgentNotFound) {
		t.Errorf("Get deleted err = %v, want ErrAgentNotFound", err)
	}

	d.place(t, line("25", "TWO_TOP", 10))
	deleted, err = d.agents.Deactivate(ctx, d.agent.ID)
	if err != nil || deleted {
		t.Fatalf("Deactivate with history = %v, %v; want false, nil", deleted, err)
	}
	a, err := d.agents.Get(ctx, d.agent.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if a.Active {
		t.Errorf("agent still active after soft delete")
	}
	active, err := d.agents.List(ctx, false)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(active) != 0 {
		t.Errorf("List(active) = %d, want 0", len(active))
	}
}
