package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/lottodesk/internal/domain"
	"github.com/alanyoungcy/lottodesk/internal/service"
)

// LedgerService is what the wager handler needs from the bet ledger.
type LedgerService interface {
	PlaceWagers(ctx context.Context, req service.PlaceRequest) (service.PlaceResult, error)
	EditWager(ctx context.Context, req service.EditRequest) (domain.Wager, error)
	CancelWager(ctx context.Context, wagerID, reason, operator string) (domain.Wager, error)
	GetWager(ctx context.Context, id string) (domain.Wager, error)
	ListWagers(ctx context.Context, roundID string, f domain.WagerFilter) ([]domain.Wager, error)
	Audit(ctx context.Context, wagerID string) ([]domain.WagerAudit, error)
}

// WagerHandler serves wager placement, edits and cancellation.
type WagerHandler struct {
	ledger LedgerService
	logger *slog.Logger
}

// NewWagerHandler creates a WagerHandler.
func NewWagerHandler(ledger LedgerService, logger *slog.Logger) *WagerHandler {
	return &WagerHandler{ledger: ledger, logger: logger}
}

// wagerLine leaves every field optional; the ledger reports incomplete
// lines as skipped instead of failing the batch.
type wagerLine struct {
	Number  string           `json:"number"`
	BetKind string           `json:"bet_kind"`
	Stake   *decimal.Decimal `json:"stake"`
}

type placeRequest struct {
	AgentID string      `json:"agent_id" validate:"required"`
	Note    string      `json:"note" validate:"max=256"`
	Lines   []wagerLine `json:"lines" validate:"required,min=1,max=1000"`
}

type editRequest struct {
	Stake  *decimal.Decimal `json:"stake" validate:"required"`
	Reason string           `json:"reason" validate:"max=256"`
}

type cancelRequest struct {
	Reason string `json:"reason" validate:"max=256"`
}

// ListWagers returns wagers of a round. Filters: agent_id, bet_kind,
// number and a comma separated status list.
// GET /api/rounds/{id}/wagers
func (h *WagerHandler) ListWagers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := domain.WagerFilter{
		AgentID: q.Get("agent_id"),
		BetKind: domain.BetKind(strings.ToUpper(q.Get("bet_kind"))),
		Number:  q.Get("number"),
	}
	if v := q.Get("status"); v != "" {
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				f.Statuses = append(f.Statuses, domain.WagerStatus(strings.ToUpper(s)))
			}
		}
	}
	wagers, err := h.ledger.ListWagers(r.Context(), r.PathValue("id"), f)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"wagers": orEmpty(wagers)})
}

// PlaceWagers records a batch of lines for one agent.
// POST /api/rounds/{id}/wagers
func (h *WagerHandler) PlaceWagers(w http.ResponseWriter, r *http.Request) {
	var req placeRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	lines := make([]service.RawLine, len(req.Lines))
	for i, l := range req.Lines {
		lines[i] = service.RawLine{Number: l.Number, BetKind: l.BetKind, Stake: l.Stake}
	}
	res, err := h.ledger.PlaceWagers(r.Context(), service.PlaceRequest{
		RoundID:  r.PathValue("id"),
		AgentID:  req.AgentID,
		Lines:    lines,
		Note:     req.Note,
		Operator: operator(r),
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// GetWager returns one wager.
// GET /api/wagers/{id}
func (h *WagerHandler) GetWager(w http.ResponseWriter, r *http.Request) {
	wager, err := h.ledger.GetWager(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, wager)
}

// EditWager changes the stake of an active wager.
// PATCH /api/wagers/{id}
func (h *WagerHandler) EditWager(w http.ResponseWriter, r *http.Request) {
	var req editRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	wager, err := h.ledger.EditWager(r.Context(), service.EditRequest{
		WagerID:  r.PathValue("id"),
		Stake:    *req.Stake,
		Reason:   req.Reason,
		Operator: operator(r),
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, wager)
}

// CancelWager voids an active wager. The body is optional.
// POST /api/wagers/{id}/cancel
func (h *WagerHandler) CancelWager(w http.ResponseWriter, r *http.Request) {
	var req cancelRequest
	if r.ContentLength != 0 {
		if err := decode(r, &req); err != nil {
			writeError(w, r, h.logger, err)
			return
		}
	}
	wager, err := h.ledger.CancelWager(r.Context(), r.PathValue("id"), req.Reason, operator(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, wager)
}

// WagerAudit returns the edit and cancel history of a wager.
// GET /api/wagers/{id}/audit
func (h *WagerHandler) WagerAudit(w http.ResponseWriter, r *http.Request) {
	entries, err := h.ledger.Audit(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"audit": orEmpty(entries)})
}
