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

// LayoffService is what the layoff handler needs from the layoff recorder.
type LayoffService interface {
	Record(ctx context.Context, req service.LayoffRequest) (domain.Layoff, error)
	MarkSent(ctx context.Context, id, operator string) (domain.Layoff, error)
	List(ctx context.Context, roundID string) ([]domain.Layoff, error)
}

// LayoffHandler serves the hedge history.
type LayoffHandler struct {
	svc    LayoffService
	logger *slog.Logger
}

// NewLayoffHandler creates a LayoffHandler.
func NewLayoffHandler(svc LayoffService, logger *slog.Logger) *LayoffHandler {
	return &LayoffHandler{svc: svc, logger: logger}
}

// recordLayoffRequest leaves totals and limit optional; missing values are
// taken from the live exposure row.
type recordLayoffRequest struct {
	Number       string           `json:"number" validate:"required,numeric"`
	BetKind      string           `json:"bet_kind" validate:"required"`
	TotalAmount  *decimal.Decimal `json:"total_amount"`
	LimitAmount  *decimal.Decimal `json:"limit_amount"`
	LayoffAmount *decimal.Decimal `json:"layoff_amount"`
	Destination  string           `json:"destination" validate:"required,max=128"`
}

// ListLayoffs returns the layoffs of a round in recording order.
// GET /api/rounds/{id}/layoffs
func (h *LayoffHandler) ListLayoffs(w http.ResponseWriter, r *http.Request) {
	layoffs, err := h.svc.List(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"layoffs": orEmpty(layoffs)})
}

// RecordLayoff stores a PENDING layoff.
// POST /api/rounds/{id}/layoffs
func (h *LayoffHandler) RecordLayoff(w http.ResponseWriter, r *http.Request) {
	var req recordLayoffRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	kind, err := domain.ParseBetKind(strings.ToUpper(req.BetKind))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	l, err := h.svc.Record(r.Context(), service.LayoffRequest{
		RoundID:      r.PathValue("id"),
		Number:       req.Number,
		BetKind:      kind,
		TotalAmount:  req.TotalAmount,
		LimitAmount:  req.LimitAmount,
		LayoffAmount: req.LayoffAmount,
		Destination:  req.Destination,
		Operator:     operator(r),
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, l)
}

// MarkSent flips a PENDING layoff to SENT.
// POST /api/layoffs/{id}/sent
func (h *LayoffHandler) MarkSent(w http.ResponseWriter, r *http.Request) {
	l, err := h.svc.MarkSent(r.Context(), r.PathValue("id"), operator(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}
