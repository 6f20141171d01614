package postgres

import (
	"context"

	"github.com/alanyoungcy/lottodesk/internal/domain"
)

// SettingsStore implements domain.SettingsStore using PostgreSQL.
type SettingsStore struct {
	db Querier
}

// NewSettingsStore creates a SettingsStore on a pool or transaction.
func NewSettingsStore(db Querier) *SettingsStore {
	return &SettingsStore{db: db}
}

var _ domain.SettingsStore = (*SettingsStore)(nil)

// UpsertPayRate inserts or replaces the default rate for (product, kind).
func (s *SettingsStore) UpsertPayRate(ctx context.Context, r domain.PayRate) error {
	const query = `
		INSERT INTO pay_rates (product_id, bet_kind, rate, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (product_id, bet_kind) DO UPDATE SET
			rate       = EXCLUDED.rate,
			updated_at = NOW()`
	if _, err := s.db.Exec(ctx, query, r.ProductID, string(r.BetKind), r.Rate.String()); err != nil {
		return storeErr("upsert pay rate", err)
	}
	return nil
}

// ListPayRates returns the configured rates of a product.
func (s *SettingsStore) ListPayRates(ctx context.Context, productID string) ([]domain.PayRate, error) {
	rows, err := s.db.Query(ctx, `
		SELECT product_id, bet_kind, rate::text, updated_at
		FROM pay_rates WHERE product_id = $1 ORDER BY bet_kind`, productID)
	if err != nil {
		return nil, storeErr("list pay rates", err)
	}
	defer rows.Close()

	var out []domain.PayRate
	for rows.Next() {
		var r domain.PayRate
		var kind string
		if err := rows.Scan(&r.ProductID, &kind, &r.Rate, &r.UpdatedAt); err != nil {
			return nil, storeErr("scan pay rate", err)
		}
		r.BetKind = domain.BetKind(kind)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list pay rates rows", err)
	}
	return out, nil
}

// UpsertLimit inserts or replaces the global limit for (product, kind).
func (s *SettingsStore) UpsertLimit(ctx context.Context, l domain.GlobalLimit) error {
	const query = `
		INSERT INTO global_limits (product_id, bet_kind, max_amount, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (product_id, bet_kind) DO UPDATE SET
			max_amount = EXCLUDED.max_amount,
			updated_at = NOW()`
	if _, err := s.db.Exec(ctx, query, l.ProductID, string(l.BetKind), l.MaxAmount.String()); err != nil {
		return storeErr("upsert limit", err)
	}
	return nil
}

// ListLimits returns the configured limits of a product.
func (s *SettingsStore) ListLimits(ctx context.Context, productID string) ([]domain.GlobalLimit, error) {
	rows, err := s.db.Query(ctx, `
		SELECT product_id, bet_kind, max_amount::text, updated_at
		FROM global_limits WHERE product_id = $1 ORDER BY bet_kind`, productID)
	if err != nil {
		return nil, storeErr("list limits", err)
	}
	defer rows.Close()

	var out []domain.GlobalLimit
	for rows.Next() {
		var l domain.GlobalLimit
		var kind string
		if err := rows.Scan(&l.ProductID, &kind, &l.MaxAmount, &l.UpdatedAt); err != nil {
			return nil, storeErr("scan limit", err)
		}
		l.BetKind = domain.BetKind(kind)
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list limits rows", err)
	}
	return out, nil
}
