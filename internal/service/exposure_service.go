package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alanyoungcy/lottodesk/internal/domain"
	"github.com/alanyoungcy/lottodesk/internal/exposure"
)

// ExposureService serves the read-only risk projection. Results may come
// from a short-lived cache and are never used to gate writes.
type ExposureService struct {
	tx     domain.Transactor
	book   *RateBook
	cache  domain.ExposureCache
	logger *slog.Logger
}

// NewExposureService creates an ExposureService. cache may be nil.
func NewExposureService(tx domain.Transactor, book *RateBook, cache domain.ExposureCache, logger *slog.Logger) *ExposureService {
	return &ExposureService{
		tx:     tx,
		book:   book,
		cache:  cache,
		logger: logger.With(slog.String("component", "exposure_service")),
	}
}

// ForRound returns the exposure rows of one round sorted by mode.
func (s *ExposureService) ForRound(ctx context.Context, roundID string, mode exposure.SortMode) ([]domain.Exposure, error) {
	st := s.tx.Stores()
	r, err := st.Rounds.GetByID(ctx, roundID)
	if err != nil {
		return nil, fmt.Errorf("exposure_service: get round %s: %w", roundID, err)
	}
	rows, err := s.compute(ctx, st, r)
	if err != nil {
		return nil, err
	}
	exposure.Sort(rows, mode)
	return rows, nil
}

// ForProduct aggregates every unresolved round of the product with the
// given code. Rows keep their round id.
func (s *ExposureService) ForProduct(ctx context.Context, code string, mode exposure.SortMode) ([]domain.Exposure, error) {
	st := s.tx.Stores()
	p, err := st.Products.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exposure_service: get product %s: %w", code, err)
	}
	rounds, err := st.Rounds.List(ctx, p.ID,
		[]domain.RoundStatus{domain.RoundAccepting, domain.RoundClosedForEntry}, domain.ListOpts{})
	if err != nil {
		return nil, fmt.Errorf("exposure_service: list rounds %s: %w", code, err)
	}
	var all []domain.Exposure
	for _, r := range rounds {
		rows, err := s.compute(ctx, st, r)
		if err != nil {
			return nil, err
		}
		all = append(all, rows...)
	}
	exposure.Sort(all, mode)
	return all, nil
}

// Row returns the exposure row for one (number, kind) of a round, or a zero
// row carrying the effective limit when nothing is staked on it.
func (s *ExposureService) Row(ctx context.Context, roundID, number string, kind domain.BetKind) (domain.Exposure, error) {
	st := s.tx.Stores()
	r, err := st.Rounds.GetByID(ctx, roundID)
	if err != nil {
		return domain.Exposure{}, fmt.Errorf("exposure_service: get round %s: %w", roundID, err)
	}
	rows, err := s.compute(ctx, st, r)
	if err != nil {
		return domain.Exposure{}, err
	}
	key := domain.ExposureKey{Number: number, BetKind: kind}
	for _, row := range rows {
		if row.Key() == key {
			return row, nil
		}
	}
	sheet, err := s.book.Sheet(ctx, st.Settings, r.ProductID)
	if err != nil {
		return domain.Exposure{}, err
	}
	return domain.Exposure{RoundID: r.ID, Number: number, BetKind: kind, Limit: sheet.Limit(kind)}, nil
}

func (s *ExposureService) compute(ctx context.Context, st domain.Stores, r domain.Round) ([]domain.Exposure, error) {
	if s.cache != nil {
		rows, ok, err := s.cache.Get(ctx, r.ID)
		if err != nil {
			s.logger.WarnContext(ctx, "exposure_service: cache get failed",
				slog.String("round_id", r.ID),
				slog.String("error", err.Error()),
			)
		} else if ok {
			return rows, nil
		}
	}

	sheet, err := s.book.Sheet(ctx, st.Settings, r.ProductID)
	if err != nil {
		return nil, fmt.Errorf("exposure_service: rate sheet %s: %w", r.ID, err)
	}
	wagers, err := st.Wagers.ListByRound(ctx, r.ID, domain.WagerFilter{})
	if err != nil {
		return nil, fmt.Errorf("exposure_service: list wagers %s: %w", r.ID, err)
	}
	rows := exposure.Aggregate(r.ID, wagers, sheet.Limit, s.book.WinBasis())

	if s.cache != nil {
		if err := s.cache.Set(ctx, r.ID, rows); err != nil {
			s.logger.WarnContext(ctx, "exposure_service: cache set failed",
				slog.String("round_id", r.ID),
				slog.String("error", err.Error()),
			)
		}
	}
	return rows, nil
}
