package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/lottodesk/internal/domain"
)

// ProductInput is the create request for a lottery product.
type ProductInput struct {
	Code      string
	Name      string
	DrawDays  []time.Weekday
	CloseTime string
}

// ProductService manages the lottery catalogue.
type ProductService struct {
	tx     domain.Transactor
	logger *slog.Logger
}

// NewProductService creates a ProductService.
func NewProductService(tx domain.Transactor, logger *slog.Logger) *ProductService {
	return &ProductService{
		tx:     tx,
		logger: logger.With(slog.String("component", "product_service")),
	}
}

// Create validates and stores a new active product.
func (s *ProductService) Create(ctx context.Context, in ProductInput) (domain.Product, error) {
	code := strings.ToUpper(strings.TrimSpace(in.Code))
	name := strings.TrimSpace(in.Name)
	if code == "" {
		return domain.Product{}, domain.Validationf("code is required")
	}
	if name == "" {
		return domain.Product{}, domain.Validationf("name is required")
	}
	if err := domain.ValidateCloseTime(in.CloseTime); err != nil {
		return domain.Product{}, err
	}
	for _, d := range in.DrawDays {
		if d < time.Sunday || d > time.Saturday {
			return domain.Product{}, domain.Validationf("draw day %d out of range", int(d))
		}
	}

	p := domain.Product{
		ID:        uuid.NewString(),
		Code:      code,
		Name:      name,
		DrawDays:  in.DrawDays,
		CloseTime: in.CloseTime,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}
	st := s.tx.Stores()
	if err := st.Products.Create(ctx, p); err != nil {
		return domain.Product{}, fmt.Errorf("product_service: create %s: %w", code, err)
	}
	s.logger.InfoContext(ctx, "product_service: product created",
		slog.String("product_id", p.ID),
		slog.String("code", p.Code),
	)
	logAudit(ctx, st.Audit, s.logger, "product.created", map[string]any{"product_id": p.ID, "code": p.Code})
	return p, nil
}

// List returns every product ordered by code.
func (s *ProductService) List(ctx context.Context) ([]domain.Product, error) {
	out, err := s.tx.Stores().Products.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("product_service: list: %w", err)
	}
	return out, nil
}

// Get returns a product by id, falling back to a lookup by code.
func (s *ProductService) Get(ctx context.Context, idOrCode string) (domain.Product, error) {
	st := s.tx.Stores()
	p, err := st.Products.GetByID(ctx, idOrCode)
	if err == nil {
		return p, nil
	}
	p, codeErr := st.Products.GetByCode(ctx, idOrCode)
	if codeErr != nil {
		return domain.Product{}, fmt.Errorf("product_service: get %s: %w", idOrCode, err)
	}
	return p, nil
}
