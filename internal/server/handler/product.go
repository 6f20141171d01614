package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/lottodesk/internal/domain"
	"github.com/alanyoungcy/lottodesk/internal/service"
)

// ProductService is what the product handler needs from the catalogue.
type ProductService interface {
	Create(ctx context.Context, in service.ProductInput) (domain.Product, error)
	List(ctx context.Context) ([]domain.Product, error)
	Get(ctx context.Context, idOrCode string) (domain.Product, error)
}

// RateBook is what the product handler needs from the settings book.
type RateBook interface {
	SetPayRate(ctx context.Context, productID string, kind domain.BetKind, rate decimal.Decimal) (domain.PayRate, error)
	PayRates(ctx context.Context, productID string) ([]domain.PayRate, error)
	SetLimit(ctx context.Context, productID string, kind domain.BetKind, maxAmount decimal.Decimal) (domain.GlobalLimit, error)
	Limits(ctx context.Context, productID string) ([]domain.GlobalLimit, error)
}

// ProductHandler serves the catalogue and its pay rates and limits.
type ProductHandler struct {
	products ProductService
	book     RateBook
	logger   *slog.Logger
}

// NewProductHandler creates a ProductHandler.
func NewProductHandler(products ProductService, book RateBook, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{products: products, book: book, logger: logger}
}

type createProductRequest struct {
	Code      string `json:"code" validate:"required,max=16"`
	Name      string `json:"name" validate:"required,max=128"`
	DrawDays  []int  `json:"draw_days" validate:"dive,min=0,max=6"`
	CloseTime string `json:"close_time"`
}

type payRateRequest struct {
	BetKind string           `json:"bet_kind" validate:"required"`
	Rate    *decimal.Decimal `json:"rate" validate:"required"`
}

type limitRequest struct {
	BetKind   string           `json:"bet_kind" validate:"required"`
	MaxAmount *decimal.Decimal `json:"max_amount" validate:"required"`
}

// ListProducts returns the catalogue.
// GET /api/products
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": orEmpty(products)})
}

// CreateProduct adds a product.
// POST /api/products
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	days := make([]time.Weekday, len(req.DrawDays))
	for i, d := range req.DrawDays {
		days[i] = time.Weekday(d)
	}
	p, err := h.products.Create(r.Context(), service.ProductInput{
		Code:      req.Code,
		Name:      req.Name,
		DrawDays:  days,
		CloseTime: req.CloseTime,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// GetProduct returns a product by id or code.
// GET /api/products/{id}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// ListPayRates returns the effective default pay rate per bet kind.
// GET /api/products/{id}/pay-rates
func (h *ProductHandler) ListPayRates(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	rates, err := h.book.PayRates(r.Context(), p.ID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"pay_rates": orEmpty(rates)})
}

// SetPayRate upserts the default pay rate of one bet kind.
// PUT /api/products/{id}/pay-rates
func (h *ProductHandler) SetPayRate(w http.ResponseWriter, r *http.Request) {
	var req payRateRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	p, err := h.products.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	rate, err := h.book.SetPayRate(r.Context(), p.ID, domain.BetKind(req.BetKind), *req.Rate)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, rate)
}

// ListLimits returns the effective global limit per bet kind.
// GET /api/products/{id}/limits
func (h *ProductHandler) ListLimits(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	limits, err := h.book.Limits(r.Context(), p.ID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"limits": orEmpty(limits)})
}

// SetLimit upserts the global limit of one bet kind.
// PUT /api/products/{id}/limits
func (h *ProductHandler) SetLimit(w http.ResponseWriter, r *http.Request) {
	var req limitRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	p, err := h.products.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	limit, err := h.book.SetLimit(r.Context(), p.ID, domain.BetKind(req.BetKind), *req.MaxAmount)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, limit)
}
