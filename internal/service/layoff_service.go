package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/lottodesk/internal/domain"
	"github.com/alanyoungcy/lottodesk/internal/exposure"
)

// LayoffRequest records a hedge decision. Nil totals and limits are filled
// from the current exposure row; a nil layoff amount defaults to the excess.
type LayoffRequest struct {
	RoundID      string
	Number       string
	BetKind      domain.BetKind
	TotalAmount  *decimal.Decimal
	LimitAmount  *decimal.Decimal
	LayoffAmount *decimal.Decimal
	Destination  string
	Operator     string
}

// LayoffService keeps the append-only hedge history. It never blocks
// wager placement.
type LayoffService struct {
	tx       domain.Transactor
	exposure *ExposureService
	hooks    Hooks
	logger   *slog.Logger
}

// NewLayoffService creates a LayoffService.
func NewLayoffService(tx domain.Transactor, exp *ExposureService, hooks Hooks, logger *slog.Logger) *LayoffService {
	return &LayoffService{
		tx:       tx,
		exposure: exp,
		hooks:    hooks,
		logger:   logger.With(slog.String("component", "layoff_service")),
	}
}

// Record stores a PENDING layoff for (round, number, kind).
func (s *LayoffService) Record(ctx context.Context, req LayoffRequest) (domain.Layoff, error) {
	if err := req.BetKind.ValidateNumber(req.Number); err != nil {
		return domain.Layoff{}, err
	}
	dest := strings.TrimSpace(req.Destination)
	if dest == "" {
		return domain.Layoff{}, domain.Validationf("destination is required")
	}

	total, limit := req.TotalAmount, req.LimitAmount
	if total == nil || limit == nil {
		row, err := s.exposure.Row(ctx, req.RoundID, req.Number, req.BetKind)
		if err != nil {
			return domain.Layoff{}, fmt.Errorf("layoff_service: exposure row: %w", err)
		}
		if total == nil {
			total = &row.TotalNetStake
		}
		if limit == nil {
			limit = &row.Limit
		}
	}
	split, err := exposure.SplitLayoff(*total, *limit, req.LayoffAmount)
	if err != nil {
		return domain.Layoff{}, err
	}

	l := domain.Layoff{
		ID:           uuid.NewString(),
		RoundID:      req.RoundID,
		Number:       req.Number,
		BetKind:      req.BetKind,
		TotalAmount:  *total,
		LimitAmount:  *limit,
		ExcessAmount: split.Excess,
		LayoffAmount: split.Layoff,
		KeepAmount:   split.Keep,
		Destination:  dest,
		Status:       domain.LayoffPending,
		Operator:     req.Operator,
		CreatedAt:    time.Now().UTC(),
	}
	err = s.tx.InTx(ctx, func(ctx context.Context, st domain.Stores) error {
		if _, err := st.Rounds.GetByID(ctx, req.RoundID); err != nil {
			return err
		}
		return st.Layoffs.Create(ctx, l)
	})
	if err != nil {
		return domain.Layoff{}, fmt.Errorf("layoff_service: record %s/%s: %w", req.Number, req.BetKind, err)
	}

	s.logger.InfoContext(ctx, "layoff_service: layoff recorded",
		slog.String("layoff_id", l.ID),
		slog.String("round_id", l.RoundID),
		slog.String("number", l.Number),
		slog.String("bet_kind", string(l.BetKind)),
		slog.String("layoff_amount", l.LayoffAmount.String()),
		slog.String("destination", l.Destination),
	)
	logAudit(ctx, s.tx.Stores().Audit, s.logger, "layoff.recorded", map[string]any{
		"layoff_id":     l.ID,
		"round_id":      l.RoundID,
		"number":        l.Number,
		"bet_kind":      string(l.BetKind),
		"layoff_amount": l.LayoffAmount.String(),
		"keep_amount":   l.KeepAmount.String(),
		"destination":   l.Destination,
		"operator":      l.Operator,
	})
	s.hooks.publish(ctx, s.logger, domain.ChannelLayoffs, domain.DeskEvent{Type: domain.EventLayoffRecorded, RoundID: l.RoundID, Data: l})
	s.hooks.notify(ctx, s.logger, domain.EventLayoffRecorded, "Layoff recorded",
		fmt.Sprintf("%s %s: lay off %s to %s, keep %s.",
			l.BetKind, l.Number, l.LayoffAmount.StringFixed(2), l.Destination, l.KeepAmount.StringFixed(2)))
	return l, nil
}

// MarkSent advances a PENDING layoff to SENT.
func (s *LayoffService) MarkSent(ctx context.Context, id, operator string) (domain.Layoff, error) {
	st := s.tx.Stores()
	if err := st.Layoffs.MarkSent(ctx, id, time.Now().UTC()); err != nil {
		return domain.Layoff{}, fmt.Errorf("layoff_service: mark sent %s: %w", id, err)
	}
	l, err := st.Layoffs.GetByID(ctx, id)
	if err != nil {
		return domain.Layoff{}, fmt.Errorf("layoff_service: get %s: %w", id, err)
	}
	logAudit(ctx, st.Audit, s.logger, "layoff.sent", map[string]any{"layoff_id": id, "operator": operator})
	s.hooks.publish(ctx, s.logger, domain.ChannelLayoffs, domain.DeskEvent{Type: domain.EventLayoffSent, RoundID: l.RoundID, Data: l})
	return l, nil
}

// List returns a round's layoff history in recording order.
func (s *LayoffService) List(ctx context.Context, roundID string) ([]domain.Layoff, error) {
	st := s.tx.Stores()
	if _, err := st.Rounds.GetByID(ctx, roundID); err != nil {
		return nil, fmt.Errorf("layoff_service: list %s: %w", roundID, err)
	}
	out, err := st.Layoffs.ListByRound(ctx, roundID)
	if err != nil {
		return nil, fmt.Errorf("layoff_service: list %s: %w", roundID, err)
	}
	return out, nil
}
