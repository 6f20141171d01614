package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/alanyoungcy/lottodesk/internal/domain"
	"github.com/alanyoungcy/lottodesk/internal/service"
)

// RoundService is what the round handler needs from the round lifecycle.
type RoundService interface {
	Create(ctx context.Context, productID, drawDate string) (domain.Round, error)
	Get(ctx context.Context, id string) (domain.Round, error)
	List(ctx context.Context, productID string, status domain.RoundStatus, opts domain.ListOpts) ([]domain.Round, error)
	Close(ctx context.Context, id, operator string) (domain.Round, error)
	SubmitResult(ctx context.Context, req service.ResultRequest) (service.ResolveReport, error)
	Recompute(ctx context.Context, id, operator string) (service.ResolveReport, error)
}

// RoundHandler serves round lifecycle endpoints. archiver may be nil when
// object storage is disabled.
type RoundHandler struct {
	rounds   RoundService
	products ProductService
	archiver domain.Archiver
	logger   *slog.Logger
}

// NewRoundHandler creates a RoundHandler.
func NewRoundHandler(rounds RoundService, products ProductService, archiver domain.Archiver, logger *slog.Logger) *RoundHandler {
	return &RoundHandler{rounds: rounds, products: products, archiver: archiver, logger: logger}
}

type createRoundRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	DrawDate  string `json:"draw_date" validate:"required"`
}

type resultRequest struct {
	ThreeTop  string `json:"three_top" validate:"required,len=3,numeric"`
	TwoTop    string `json:"two_top" validate:"omitempty,len=2,numeric"`
	TwoBottom string `json:"two_bottom" validate:"required,len=2,numeric"`
}

// ListRounds returns rounds, filtered by ?product_id=<id or code>&status=.
// GET /api/rounds
func (h *RoundHandler) ListRounds(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	productID := ""
	if ref := q.Get("product_id"); ref != "" {
		p, err := h.products.Get(r.Context(), ref)
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		productID = p.ID
	}
	status := domain.RoundStatus(strings.ToUpper(q.Get("status")))
	rounds, err := h.rounds.List(r.Context(), productID, status, parseListOpts(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rounds": orEmpty(rounds)})
}

// CreateRound opens a round for a product and draw date.
// POST /api/rounds
func (h *RoundHandler) CreateRound(w http.ResponseWriter, r *http.Request) {
	var req createRoundRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	p, err := h.products.Get(r.Context(), req.ProductID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	round, err := h.rounds.Create(r.Context(), p.ID, req.DrawDate)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, round)
}

// GetRound returns one round.
// GET /api/rounds/{id}
func (h *RoundHandler) GetRound(w http.ResponseWriter, r *http.Request) {
	round, err := h.rounds.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, round)
}

// CloseRound stops wager intake.
// POST /api/rounds/{id}/close
func (h *RoundHandler) CloseRound(w http.ResponseWriter, r *http.Request) {
	round, err := h.rounds.Close(r.Context(), r.PathValue("id"), operator(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, round)
}

// SubmitResult records the draw and settles every wager.
// POST /api/rounds/{id}/result
func (h *RoundHandler) SubmitResult(w http.ResponseWriter, r *http.Request) {
	var req resultRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	report, err := h.rounds.SubmitResult(r.Context(), service.ResultRequest{
		RoundID:   r.PathValue("id"),
		ThreeTop:  req.ThreeTop,
		TwoTop:    req.TwoTop,
		TwoBottom: req.TwoBottom,
		Operator:  operator(r),
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// RecomputeRound re-settles a resolved round against current wagers.
// POST /api/rounds/{id}/recompute
func (h *RoundHandler) RecomputeRound(w http.ResponseWriter, r *http.Request) {
	report, err := h.rounds.Recompute(r.Context(), r.PathValue("id"), operator(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// ArchiveRound exports a resolved round to object storage.
// POST /api/rounds/{id}/archive
func (h *RoundHandler) ArchiveRound(w http.ResponseWriter, r *http.Request) {
	if h.archiver == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "archive storage is not configured", Reason: "unavailable"})
		return
	}
	report, err := h.archiver.ArchiveRound(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// ListArchive returns the objects archived for a round.
// GET /api/rounds/{id}/archive
func (h *RoundHandler) ListArchive(w http.ResponseWriter, r *http.Request) {
	if h.archiver == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "archive storage is not configured", Reason: "unavailable"})
		return
	}
	objects, err := h.archiver.Archived(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"objects": orEmpty(objects)})
}
