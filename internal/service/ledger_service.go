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
	"github.com/alanyoungcy/lottodesk/internal/pricing"
)

// RawLine is one submitted wager line. Fields are optional so incomplete
// lines can be reported instead of failing the batch.
type RawLine struct {
	Number  string
	BetKind string
	Stake   *decimal.Decimal
}

// PlaceRequest places a batch of lines for one agent in one round.
type PlaceRequest struct {
	RoundID  string
	AgentID  string
	Lines    []RawLine
	Note     string
	Operator string
}

// SkippedLine reports a line left out of a batch.
type SkippedLine struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// PlaceResult is the outcome of a placement.
type PlaceResult struct {
	Batch   domain.WagerBatch `json:"batch"`
	Wagers  []domain.Wager    `json:"wagers"`
	Count   int               `json:"count"`
	Skipped []SkippedLine     `json:"skipped,omitempty"`
}

// EditRequest changes the stake of an active wager.
type EditRequest struct {
	WagerID  string
	Stake    decimal.Decimal
	Reason   string
	Operator string
}

// LedgerService records, edits and cancels wagers. Every mutation checks
// that the round is ACCEPTING inside the same transaction as the write.
type LedgerService struct {
	tx     domain.Transactor
	book   *RateBook
	hooks  Hooks
	logger *slog.Logger
}

// NewLedgerService creates a LedgerService.
func NewLedgerService(tx domain.Transactor, book *RateBook, hooks Hooks, logger *slog.Logger) *LedgerService {
	return &LedgerService{
		tx:     tx,
		book:   book,
		hooks:  hooks,
		logger: logger.With(slog.String("component", "ledger_service")),
	}
}

type parsedLine struct {
	index  int
	number string
	kind   domain.BetKind
	stake  decimal.Decimal
}

func parseLines(lines []RawLine) ([]parsedLine, []SkippedLine) {
	var (
		ok      []parsedLine
		skipped []SkippedLine
	)
	skip := func(i int, reason string) {
		skipped = append(skipped, SkippedLine{Index: i, Reason: reason})
	}
	for i, l := range lines {
		number := strings.TrimSpace(l.Number)
		kindStr := strings.TrimSpace(l.BetKind)
		switch {
		case number == "":
			skip(i, "missing number")
			continue
		case kindStr == "":
			skip(i, "missing bet_kind")
			continue
		case l.Stake == nil:
			skip(i, "missing stake")
			continue
		}
		kind, err := domain.ParseBetKind(strings.ToUpper(kindStr))
		if err != nil {
			skip(i, fmt.Sprintf("unknown bet_kind %q", kindStr))
			continue
		}
		if err := kind.ValidateNumber(number); err != nil {
			skip(i, fmt.Sprintf("number %q must be %d digit(s) for %s", number, kind.Digits(), kind))
			continue
		}
		if !l.Stake.IsPositive() {
			skip(i, "stake must be > 0")
			continue
		}
		if err := pricing.ValidateStake(*l.Stake); err != nil {
			skip(i, "stake has more than 2 decimal places")
			continue
		}
		ok = append(ok, parsedLine{index: i, number: number, kind: kind, stake: *l.Stake})
	}
	return ok, skipped
}

// PlaceWagers prices and appends every valid line. Invalid lines are
// skipped and reported; the batch fails only when no line is usable or the
// round or agent refuses the write.
func (s *LedgerService) PlaceWagers(ctx context.Context, req PlaceRequest) (PlaceResult, error) {
	if req.RoundID == "" || req.AgentID == "" {
		return PlaceResult{}, domain.Validationf("round_id and agent_id are required")
	}
	lines, skipped := parseLines(req.Lines)
	if len(lines) == 0 {
		return PlaceResult{Skipped: skipped}, domain.Validationf("no valid lines in batch of %d", len(req.Lines))
	}

	now := time.Now().UTC()
	batch := domain.WagerBatch{
		ID:         uuid.NewString(),
		RoundID:    req.RoundID,
		AgentID:    req.AgentID,
		Note:       strings.TrimSpace(req.Note),
		TotalStake: decimal.Zero,
		TotalNet:   decimal.Zero,
		Operator:   req.Operator,
		CreatedAt:  now,
	}
	var wagers []domain.Wager

	err := s.tx.InTx(ctx, func(ctx context.Context, st domain.Stores) error {
		r, err := st.Rounds.GetForShare(ctx, req.RoundID)
		if err != nil {
			return err
		}
		if !r.Accepting() {
			return domain.ErrRoundNotAccepting
		}
		agent, err := st.Agents.GetByID(ctx, req.AgentID)
		if err != nil {
			return err
		}
		if !agent.Active {
			return domain.ErrAgentInactive
		}
		sheet, err := s.book.Sheet(ctx, st.Settings, r.ProductID)
		if err != nil {
			return err
		}
		pct := agent.DiscountFor(r.ProductID)

		for _, l := range lines {
			rate, err := sheet.PayRate(&agent, l.kind)
			if err != nil {
				skipped = append(skipped, SkippedLine{Index: l.index, Reason: "no pay rate for " + string(l.kind)})
				continue
			}
			priced, err := pricing.Price(l.stake, pct)
			if err != nil {
				skipped = append(skipped, SkippedLine{Index: l.index, Reason: err.Error()})
				continue
			}
			wagers = append(wagers, domain.Wager{
				ID:          uuid.NewString(),
				RoundID:     r.ID,
				AgentID:     agent.ID,
				BatchID:     batch.ID,
				Number:      l.number,
				BetKind:     l.kind,
				Stake:       priced.Stake,
				DiscountPct: priced.DiscountPct,
				DiscountAmt: priced.DiscountAmt,
				NetStake:    priced.NetStake,
				PayRate:     rate,
				Status:      domain.WagerActive,
				WinAmount:   decimal.Zero,
				CreatedAt:   now,
			})
			batch.TotalStake = batch.TotalStake.Add(priced.Stake)
			batch.TotalNet = batch.TotalNet.Add(priced.NetStake)
		}
		if len(wagers) == 0 {
			return domain.Validationf("no valid lines in batch of %d", len(req.Lines))
		}
		batch.Lines = len(wagers)
		return st.Wagers.CreateBatch(ctx, batch, wagers)
	})
	if err != nil {
		return PlaceResult{Skipped: skipped}, fmt.Errorf("ledger_service: place wagers round %s: %w", req.RoundID, err)
	}

	s.logger.InfoContext(ctx, "ledger_service: wagers placed",
		slog.String("round_id", req.RoundID),
		slog.String("agent_id", req.AgentID),
		slog.String("batch_id", batch.ID),
		slog.Int("count", len(wagers)),
		slog.Int("skipped", len(skipped)),
		slog.String("total_net", batch.TotalNet.String()),
	)
	s.hooks.invalidate(ctx, s.logger, req.RoundID)
	s.hooks.publish(ctx, s.logger, domain.ChannelWagers, domain.DeskEvent{Type: domain.EventWagersPlaced, RoundID: req.RoundID, Data: batch})
	return PlaceResult{Batch: batch, Wagers: wagers, Count: len(wagers), Skipped: skipped}, nil
}

// mutate loads an ACTIVE wager in an ACCEPTING round under row locks and
// hands it to fn for modification. Locks are taken round first, then wager,
// the same order result submission uses.
func (s *LedgerService) mutate(ctx context.Context, wagerID string, fn func(ctx context.Context, st domain.Stores, w *domain.Wager) error) (domain.Wager, error) {
	var out domain.Wager
	err := s.tx.InTx(ctx, func(ctx context.Context, st domain.Stores) error {
		peek, err := st.Wagers.GetByID(ctx, wagerID)
		if err != nil {
			return err
		}
		r, err := st.Rounds.GetForShare(ctx, peek.RoundID)
		if err != nil {
			return err
		}
		w, err := st.Wagers.GetForUpdate(ctx, wagerID)
		if err != nil {
			return err
		}
		if !r.Accepting() {
			return domain.ErrRoundNotAccepting
		}
		if w.Status != domain.WagerActive {
			return domain.ErrWagerNotActive
		}
		if err := fn(ctx, st, &w); err != nil {
			return err
		}
		if err := st.Wagers.Update(ctx, w); err != nil {
			return err
		}
		out = w
		return nil
	})
	return out, err
}

// EditWager re-prices an active wager at a new stake with its frozen
// discount percentage and records the change in the audit trail.
func (s *LedgerService) EditWager(ctx context.Context, req EditRequest) (domain.Wager, error) {
	if err := pricing.ValidateStake(req.Stake); err != nil {
		return domain.Wager{}, fmt.Errorf("ledger_service: edit wager %s: %w", req.WagerID, err)
	}
	var old decimal.Decimal
	w, err := s.mutate(ctx, req.WagerID, func(ctx context.Context, st domain.Stores, w *domain.Wager) error {
		old = w.Stake
		if err := pricing.Apply(w, req.Stake); err != nil {
			return err
		}
		now := time.Now().UTC()
		w.EditedBy = req.Operator
		w.EditedAt = &now
		w.EditReason = req.Reason
		return st.Wagers.AppendAudit(ctx, domain.WagerAudit{
			WagerID:   w.ID,
			Action:    domain.AuditEdit,
			OldAmount: old,
			NewAmount: w.Stake,
			Reason:    req.Reason,
			Operator:  req.Operator,
			CreatedAt: now,
		})
	})
	if err != nil {
		return domain.Wager{}, fmt.Errorf("ledger_service: edit wager %s: %w", req.WagerID, err)
	}

	s.logger.InfoContext(ctx, "ledger_service: wager edited",
		slog.String("wager_id", w.ID),
		slog.String("round_id", w.RoundID),
		slog.String("old_stake", old.String()),
		slog.String("new_stake", w.Stake.String()),
	)
	s.hooks.invalidate(ctx, s.logger, w.RoundID)
	s.hooks.publish(ctx, s.logger, domain.ChannelWagers, domain.DeskEvent{Type: domain.EventWagerEdited, RoundID: w.RoundID, Data: w})
	return w, nil
}

// CancelWager marks an active wager CANCELLED and records the audit entry.
func (s *LedgerService) CancelWager(ctx context.Context, wagerID, reason, operator string) (domain.Wager, error) {
	w, err := s.mutate(ctx, wagerID, func(ctx context.Context, st domain.Stores, w *domain.Wager) error {
		now := time.Now().UTC()
		w.Status = domain.WagerCancelled
		w.CancelledBy = operator
		w.CancelledAt = &now
		w.CancelReason = reason
		return st.Wagers.AppendAudit(ctx, domain.WagerAudit{
			WagerID:   w.ID,
			Action:    domain.AuditCancel,
			OldAmount: w.Stake,
			NewAmount: decimal.Zero,
			Reason:    reason,
			Operator:  operator,
			CreatedAt: now,
		})
	})
	if err != nil {
		return domain.Wager{}, fmt.Errorf("ledger_service: cancel wager %s: %w", wagerID, err)
	}

	s.logger.InfoContext(ctx, "ledger_service: wager cancelled",
		slog.String("wager_id", w.ID),
		slog.String("round_id", w.RoundID),
		slog.String("reason", reason),
	)
	s.hooks.invalidate(ctx, s.logger, w.RoundID)
	s.hooks.publish(ctx, s.logger, domain.ChannelWagers, domain.DeskEvent{Type: domain.EventWagerCancelled, RoundID: w.RoundID, Data: w})
	return w, nil
}

// GetWager returns one wager.
func (s *LedgerService) GetWager(ctx context.Context, id string) (domain.Wager, error) {
	w, err := s.tx.Stores().Wagers.GetByID(ctx, id)
	if err != nil {
		return domain.Wager{}, fmt.Errorf("ledger_service: get wager %s: %w", id, err)
	}
	return w, nil
}

// ListWagers returns the wagers of a round matching f in placement order.
func (s *LedgerService) ListWagers(ctx context.Context, roundID string, f domain.WagerFilter) ([]domain.Wager, error) {
	st := s.tx.Stores()
	if _, err := st.Rounds.GetByID(ctx, roundID); err != nil {
		return nil, fmt.Errorf("ledger_service: list wagers %s: %w", roundID, err)
	}
	out, err := st.Wagers.ListByRound(ctx, roundID, f)
	if err != nil {
		return nil, fmt.Errorf("ledger_service: list wagers %s: %w", roundID, err)
	}
	return out, nil
}

// Audit returns the edit and cancel trail of a wager.
func (s *LedgerService) Audit(ctx context.Context, wagerID string) ([]domain.WagerAudit, error) {
	st := s.tx.Stores()
	if _, err := st.Wagers.GetByID(ctx, wagerID); err != nil {
		return nil, fmt.Errorf("ledger_service: audit %s: %w", wagerID, err)
	}
	out, err := st.Wagers.ListAudit(ctx, wagerID)
	if err != nil {
		return nil, fmt.Errorf("ledger_service: audit %s: %w", wagerID, err)
	}
	return out, nil
}
