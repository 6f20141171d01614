package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/lottodesk/internal/domain"
	"github.com/alanyoungcy/lottodesk/internal/exposure"
)

// ExposureService is what the exposure handler needs from the aggregator.
type ExposureService interface {
	ForRound(ctx context.Context, roundID string, mode exposure.SortMode) ([]domain.Exposure, error)
	ForProduct(ctx context.Context, code string, mode exposure.SortMode) ([]domain.Exposure, error)
}

// ExposureHandler serves the risk dashboard.
type ExposureHandler struct {
	svc    ExposureService
	logger *slog.Logger
}

// NewExposureHandler creates an ExposureHandler.
func NewExposureHandler(svc ExposureService, logger *slog.Logger) *ExposureHandler {
	return &ExposureHandler{svc: svc, logger: logger}
}

// GetExposure aggregates one round (?round_id=) or every open round of a
// product (?product_code=), ordered by ?sort=over_limit|payout.
// GET /api/exposure
func (h *ExposureHandler) GetExposure(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mode, err := exposure.ParseSortMode(q.Get("sort"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var rows []domain.Exposure
	switch roundID, code := q.Get("round_id"), q.Get("product_code"); {
	case roundID != "":
		rows, err = h.svc.ForRound(r.Context(), roundID, mode)
	case code != "":
		rows, err = h.svc.ForProduct(r.Context(), code, mode)
	default:
		err = domain.Validationf("round_id or product_code is required")
	}
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sort": mode, "rows": orEmpty(rows)})
}
