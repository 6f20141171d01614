package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/lottodesk/internal/domain"
	"github.com/alanyoungcy/lottodesk/internal/settlement"
)

// ResultRequest submits the official result of a round.
type ResultRequest struct {
	RoundID   string
	ThreeTop  string
	TwoTop    string // optional, defaults to the last two digits of ThreeTop
	TwoBottom string
	Operator  string
}

// ResolveReport summarizes a resolution or recomputation.
type ResolveReport struct {
	RoundID     string            `json:"round_id"`
	Result      domain.DrawResult `json:"result"`
	Settled     int               `json:"settled"`
	Winners     int               `json:"winners"`
	TotalPayout decimal.Decimal   `json:"total_payout"`
	Changed     int               `json:"changed,omitempty"`
}

// RoundService owns the round state machine and runs settlement when a
// round resolves.
type RoundService struct {
	tx     domain.Transactor
	book   *RateBook
	locks  domain.LockManager
	hooks  Hooks
	logger *slog.Logger
}

// NewRoundService creates a RoundService. locks may be nil, in which case
// the round row lock alone serializes resolution.
func NewRoundService(tx domain.Transactor, book *RateBook, locks domain.LockManager, hooks Hooks, logger *slog.Logger) *RoundService {
	return &RoundService{
		tx:     tx,
		book:   book,
		locks:  locks,
		hooks:  hooks,
		logger: logger.With(slog.String("component", "round_service")),
	}
}

// Create opens a new ACCEPTING round for (product, draw date).
func (s *RoundService) Create(ctx context.Context, productID, drawDate string) (domain.Round, error) {
	date, err := domain.ParseDrawDate(drawDate)
	if err != nil {
		return domain.Round{}, err
	}
	st := s.tx.Stores()
	p, err := st.Products.GetByID(ctx, productID)
	if err != nil {
		return domain.Round{}, fmt.Errorf("round_service: get product %s: %w", productID, err)
	}
	if !p.Active {
		return domain.Round{}, domain.Validationf("product %s is inactive", p.Code)
	}
	if !p.DrawsOn(date) {
		return domain.Round{}, domain.Validationf("product %s does not draw on %s", p.Code, date.Weekday())
	}

	r := domain.Round{
		ID:        uuid.NewString(),
		ProductID: p.ID,
		DrawDate:  date,
		Status:    domain.RoundAccepting,
		CreatedAt: time.Now().UTC(),
	}
	if err := st.Rounds.Create(ctx, r); err != nil {
		return domain.Round{}, fmt.Errorf("round_service: create %s %s: %w", p.Code, drawDate, err)
	}
	s.logger.InfoContext(ctx, "round_service: round created",
		slog.String("round_id", r.ID),
		slog.String("product", p.Code),
		slog.String("draw_date", drawDate),
	)
	logAudit(ctx, st.Audit, s.logger, "round.created", map[string]any{
		"round_id": r.ID, "product_id": p.ID, "draw_date": drawDate,
	})
	s.hooks.publish(ctx, s.logger, domain.ChannelRounds, domain.DeskEvent{Type: domain.EventRoundCreated, RoundID: r.ID, Data: r})
	return r, nil
}

// Get returns one round.
func (s *RoundService) Get(ctx context.Context, id string) (domain.Round, error) {
	r, err := s.tx.Stores().Rounds.GetByID(ctx, id)
	if err != nil {
		return domain.Round{}, fmt.Errorf("round_service: get %s: %w", id, err)
	}
	return r, nil
}

// List returns rounds of a product, newest draw first. An empty status
// lists every state.
func (s *RoundService) List(ctx context.Context, productID string, status domain.RoundStatus, opts domain.ListOpts) ([]domain.Round, error) {
	var statuses []domain.RoundStatus
	if status != "" {
		if !status.Valid() {
			return nil, domain.Validationf("unknown round status %q", string(status))
		}
		statuses = []domain.RoundStatus{status}
	}
	out, err := s.tx.Stores().Rounds.List(ctx, productID, statuses, opts)
	if err != nil {
		return nil, fmt.Errorf("round_service: list: %w", err)
	}
	return out, nil
}

// transitionErr maps a refused transition to its reason.
func transitionErr(r domain.Round) error {
	if r.Status == domain.RoundResolved {
		return domain.ErrRoundResolved
	}
	return fmt.Errorf("%w: round is %s", domain.ErrInvalidTransition, r.Status)
}

// Close stops wager intake. Only an ACCEPTING round can be closed.
func (s *RoundService) Close(ctx context.Context, id, operator string) (domain.Round, error) {
	var out domain.Round
	now := time.Now().UTC()
	err := s.tx.InTx(ctx, func(ctx context.Context, st domain.Stores) error {
		r, err := st.Rounds.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !r.Status.CanTransition(domain.RoundClosedForEntry) {
			return transitionErr(r)
		}
		if err := st.Rounds.UpdateStatus(ctx, id, domain.RoundClosedForEntry, now); err != nil {
			return err
		}
		r.Status = domain.RoundClosedForEntry
		r.ClosedAt = &now
		out = r
		return nil
	})
	if err != nil {
		return domain.Round{}, fmt.Errorf("round_service: close %s: %w", id, err)
	}

	s.logger.InfoContext(ctx, "round_service: round closed",
		slog.String("round_id", id),
		slog.String("operator", operator),
	)
	st := s.tx.Stores()
	logAudit(ctx, st.Audit, s.logger, "round.closed", map[string]any{"round_id": id, "operator": operator})
	s.hooks.publish(ctx, s.logger, domain.ChannelRounds, domain.DeskEvent{Type: domain.EventRoundClosed, RoundID: id, Data: out})
	return out, nil
}

// lock takes the distributed resolution lock for a round when configured.
func (s *RoundService) lock(ctx context.Context, roundID string) (func(), error) {
	if s.locks == nil {
		return func() {}, nil
	}
	unlock, err := s.locks.Acquire(ctx, "round:resolve:"+roundID, s.book.ResolveLockTTL())
	if err != nil {
		return nil, err
	}
	return unlock, nil
}

// SubmitResult resolves a round from ACCEPTING or CLOSED_FOR_ENTRY and
// settles every active wager in the same transaction. A second submission
// fails with ErrRoundResolved and leaves outcomes untouched.
func (s *RoundService) SubmitResult(ctx context.Context, req ResultRequest) (ResolveReport, error) {
	result, err := settlement.NewResult(req.ThreeTop, req.TwoTop, req.TwoBottom)
	if err != nil {
		return ResolveReport{}, err
	}
	unlock, err := s.lock(ctx, req.RoundID)
	if err != nil {
		return ResolveReport{}, fmt.Errorf("round_service: resolve %s: %w", req.RoundID, err)
	}
	defer unlock()

	var (
		out  settlement.Outcome
		prev domain.RoundStatus
	)
	now := time.Now().UTC()
	err = s.tx.InTx(ctx, func(ctx context.Context, st domain.Stores) error {
		r, err := st.Rounds.GetForUpdate(ctx, req.RoundID)
		if err != nil {
			return err
		}
		if !r.Status.CanTransition(domain.RoundResolved) {
			return transitionErr(r)
		}
		prev = r.Status

		wagers, err := st.Wagers.ListByRound(ctx, r.ID, domain.WagerFilter{
			Statuses: []domain.WagerStatus{domain.WagerActive},
		})
		if err != nil {
			return err
		}
		out = settlement.Settle(wagers, result, s.book.WinBasis())
		if err := st.Wagers.ApplySettlements(ctx, out.Settlements, now); err != nil {
			return err
		}
		return st.Rounds.SetResult(ctx, r.ID, result, now)
	})
	if err != nil {
		return ResolveReport{}, fmt.Errorf("round_service: resolve %s: %w", req.RoundID, err)
	}

	report := ResolveReport{
		RoundID:     req.RoundID,
		Result:      result,
		Settled:     out.Settled,
		Winners:     out.Winners,
		TotalPayout: out.TotalPayout,
	}
	s.logger.InfoContext(ctx, "round_service: round resolved",
		slog.String("round_id", req.RoundID),
		slog.String("from", string(prev)),
		slog.String("three_top", result.ThreeTop),
		slog.String("two_bottom", result.TwoBottom),
		slog.Int("settled", report.Settled),
		slog.Int("winners", report.Winners),
		slog.String("total_payout", report.TotalPayout.String()),
	)
	logAudit(ctx, s.tx.Stores().Audit, s.logger, "round.resolved", map[string]any{
		"round_id":     req.RoundID,
		"three_top":    result.ThreeTop,
		"two_top":      result.TwoTop,
		"two_bottom":   result.TwoBottom,
		"settled":      report.Settled,
		"winners":      report.Winners,
		"total_payout": report.TotalPayout.String(),
		"win_basis":    string(s.book.WinBasis()),
		"operator":     req.Operator,
	})
	s.hooks.invalidate(ctx, s.logger, req.RoundID)
	s.hooks.publish(ctx, s.logger, domain.ChannelRounds, domain.DeskEvent{Type: domain.EventRoundResolved, RoundID: req.RoundID, Data: report})
	s.hooks.notify(ctx, s.logger, domain.EventRoundResolved, "Round resolved",
		fmt.Sprintf("Round %s: top %s / %s, bottom %s. %d winner(s), payout %s.",
			req.RoundID, result.ThreeTop, result.TwoTop, result.TwoBottom, report.Winners, report.TotalPayout.StringFixed(2)))
	return report, nil
}

// Recompute re-runs settlement over every non-cancelled wager of a resolved
// round using its stored result. It is an explicit admin action.
func (s *RoundService) Recompute(ctx context.Context, id, operator string) (ResolveReport, error) {
	unlock, err := s.lock(ctx, id)
	if err != nil {
		return ResolveReport{}, fmt.Errorf("round_service: recompute %s: %w", id, err)
	}
	defer unlock()

	var report ResolveReport
	now := time.Now().UTC()
	err = s.tx.InTx(ctx, func(ctx context.Context, st domain.Stores) error {
		r, err := st.Rounds.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if r.Status != domain.RoundResolved || r.Result == nil {
			return domain.ErrRoundNotResolved
		}
		wagers, err := st.Wagers.ListByRound(ctx, id, domain.WagerFilter{
			Statuses: []domain.WagerStatus{domain.WagerActive, domain.WagerWon, domain.WagerLost},
		})
		if err != nil {
			return err
		}
		out := settlement.Settle(wagers, *r.Result, s.book.WinBasis())

		before := make(map[string]domain.Wager, len(wagers))
		for _, w := range wagers {
			before[w.ID] = w
		}
		changed := 0
		for _, o := range out.Settlements {
			w := before[o.WagerID]
			if w.Status != o.Status || !w.WinAmount.Equal(o.WinAmount) {
				changed++
			}
		}
		if err := st.Wagers.ApplySettlements(ctx, out.Settlements, now); err != nil {
			return err
		}
		report = ResolveReport{
			RoundID:     id,
			Result:      *r.Result,
			Settled:     out.Settled,
			Winners:     out.Winners,
			TotalPayout: out.TotalPayout,
			Changed:     changed,
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrRoundNotResolved) {
			s.logger.WarnContext(ctx, "round_service: recompute refused",
				slog.String("round_id", id),
			)
		}
		return ResolveReport{}, fmt.Errorf("round_service: recompute %s: %w", id, err)
	}

	s.logger.InfoContext(ctx, "round_service: round recomputed",
		slog.String("round_id", id),
		slog.Int("settled", report.Settled),
		slog.Int("changed", report.Changed),
	)
	logAudit(ctx, s.tx.Stores().Audit, s.logger, "round.recomputed", map[string]any{
		"round_id":     id,
		"settled":      report.Settled,
		"changed":      report.Changed,
		"total_payout": report.TotalPayout.String(),
		"operator":     operator,
	})
	s.hooks.invalidate(ctx, s.logger, id)
	s.hooks.publish(ctx, s.logger, domain.ChannelRounds, domain.DeskEvent{Type: domain.EventRoundRecomputed, RoundID: id, Data: report})
	return report, nil
}
