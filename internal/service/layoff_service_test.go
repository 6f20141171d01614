package service

import (
	"context"
	"errors"
	"testing"

	"github.com/alanyoungcy/lottodesk/internal/domain"
)

func TestRecordLayoffDefaultsToExcess(t *testing.T) {
	d := newDesk(t)
	l, err := d.layoffs.Record(context.Background(), LayoffRequest{
		RoundID:     d.round.ID,
		Number:      "25",
		BetKind:     domain.BetTwoTop,
		TotalAmount: decp(5500),
		LimitAmount: decp(5000),
		Destination: "upline-1",
		Operator:    "op",
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if !l.ExcessAmount.Equal(dec(500)) || !l.LayoffAmount.Equal(dec(500)) || !l.KeepAmount.Equal(dec(5000)) {
		t.Errorf("layoff = excess %s layoff %s keep %s, want 500 500 5000", l.ExcessAmount, l.LayoffAmount, l.KeepAmount)
	}
	if l.Status != domain.LayoffPending {
		t.Errorf("Status = %s, want PENDING", l.Status)
	}
	if d.bus.count(domain.ChannelLayoffs) != 1 {
		t.Errorf("layoff events = %d, want 1", d.bus.count(domain.ChannelLayoffs))
	}
}

func TestRecordLayoffFromExposure(t *testing.T) {
	d := newDesk(t)
	ctx := context.Background()
	zeroDiscount(t, d)
	d.place(t, line("25", "TWO_TOP", 3000), line("25", "TWO_TOP", 2500))

	l, err := d.layoffs.Record(ctx, LayoffRequest{
		RoundID:      d.round.ID,
		Number:       "25",
		BetKind:      domain.BetTwoTop,
		LayoffAmount: decp(200),
		Destination:  "upline-1",
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if !l.TotalAmount.Equal(dec(5500)) || !l.LimitAmount.Equal(dec(5000)) || !l.KeepAmount.Equal(dec(5300)) {
		t.Errorf("layoff = total %s limit %s keep %s, want 5500 5000 5300", l.TotalAmount, l.LimitAmount, l.KeepAmount)
	}

	// Layoffs never block further placement.
	d.place(t, line("25", "TWO_TOP", 100))
}

func TestRecordLayoffValidation(t *testing.T) {
	d := newDesk(t)
	ctx := context.Background()
	tests := []struct {
		name string
		req  LayoffRequest
		want error
	}{
		{"bad number", LayoffRequest{RoundID: d.round.ID, Number: "1", BetKind: domain.BetTwoTop, Destination: "x"}, domain.ErrValidation},
		{"no destination", LayoffRequest{RoundID: d.round.ID, Number: "12", BetKind: domain.BetTwoTop}, domain.ErrValidation},
		{"unknown round", LayoffRequest{RoundID: "missing", Number: "12", BetKind: domain.BetTwoTop, TotalAmount: decp(1), LimitAmount: decp(1), Destination: "x"}, domain.ErrRoundNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := d.layoffs.Record(ctx, tt.req); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestMarkLayoffSent(t *testing.T) {
	d := newDesk(t)
	ctx := context.Background()
	l, err := d.layoffs.Record(ctx, LayoffRequest{
		RoundID: d.round.ID, Number: "7", BetKind: domain.BetRunTop,
		TotalAmount: decp(100), LimitAmount: decp(50), Destination: "upline-2",
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	sent, err := d.layoffs.MarkSent(ctx, l.ID, "op")
	if err != nil {
		t.Fatalf("MarkSent: %v", err)
	}
	if sent.Status != domain.LayoffSent || sent.SentAt == nil {
		t.Errorf("sent layoff = %+v", sent)
	}
	if _, err := d.layoffs.MarkSent(ctx, l.ID, "op"); !errors.Is(err, domain.ErrLayoffNotPending) {
		t.Errorf("second MarkSent err = %v, want ErrLayoffNotPending", err)
	}

	list, err := d.layoffs.List(ctx, d.round.ID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("List = %d, want 1", len(list))
	}
}
