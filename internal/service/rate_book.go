package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/lottodesk/internal/domain"
)

// EngineConfig holds the desk-wide fallbacks. RateBook is their only reader.
type EngineConfig struct {
	WinBasis        domain.WinBasis
	DefaultLimit    decimal.Decimal
	DefaultPayRates map[domain.BetKind]decimal.Decimal
	ResolveLockTTL  time.Duration
}

// RateSheet is the resolved pay rates and limits of one product.
type RateSheet struct {
	ProductID string
	payRates  map[domain.BetKind]decimal.Decimal
	limits    map[domain.BetKind]decimal.Decimal
	cfg       *EngineConfig
}

// PayRate resolves the effective rate: agent override, then product
// default, then the engine fallback.
func (s RateSheet) PayRate(agent *domain.Agent, kind domain.BetKind) (decimal.Decimal, error) {
	if agent != nil {
		if r, ok := agent.PayRateFor(s.ProductID, kind); ok {
			return r, nil
		}
	}
	if r, ok := s.payRates[kind]; ok {
		return r, nil
	}
	if r, ok := s.cfg.DefaultPayRates[kind]; ok {
		return r, nil
	}
	return decimal.Decimal{}, domain.Validationf("no pay rate configured for %s", kind)
}

// Limit resolves the global limit for kind, falling back to the engine
// default.
func (s RateSheet) Limit(kind domain.BetKind) decimal.Decimal {
	if l, ok := s.limits[kind]; ok {
		return l
	}
	return s.cfg.DefaultLimit
}

// RateBook serves pay rates and limits from the settings tables and the
// engine configuration.
type RateBook struct {
	tx     domain.Transactor
	cfg    EngineConfig
	cache  domain.ExposureCache
	logger *slog.Logger
}

// NewRateBook creates a RateBook. An invalid win basis falls back to gross.
// cache may be nil; when set, rate and limit changes drop the cached
// exposure of the product's open rounds.
func NewRateBook(tx domain.Transactor, cfg EngineConfig, cache domain.ExposureCache, logger *slog.Logger) *RateBook {
	if !cfg.WinBasis.Valid() {
		cfg.WinBasis = domain.WinBasisGross
	}
	return &RateBook{
		tx:     tx,
		cfg:    cfg,
		cache:  cache,
		logger: logger.With(slog.String("component", "rate_book")),
	}
}

// invalidateOpenRounds drops cached exposure for every round of productID
// that has not been resolved.
func (b *RateBook) invalidateOpenRounds(ctx context.Context, rounds domain.RoundStore, productID string) {
	if b.cache == nil {
		return
	}
	open, err := rounds.List(ctx, productID,
		[]domain.RoundStatus{domain.RoundAccepting, domain.RoundClosedForEntry}, domain.ListOpts{})
	if err != nil {
		b.logger.WarnContext(ctx, "rate_book: list open rounds failed",
			slog.String("product_id", productID),
			slog.String("error", err.Error()),
		)
		return
	}
	hooks := Hooks{Cache: b.cache}
	for _, r := range open {
		hooks.invalidate(ctx, b.logger, r.ID)
	}
}

// WinBasis returns the configured payout basis.
func (b *RateBook) WinBasis() domain.WinBasis { return b.cfg.WinBasis }

// ResolveLockTTL returns how long a resolution lock is held at most.
func (b *RateBook) ResolveLockTTL() time.Duration {
	if b.cfg.ResolveLockTTL <= 0 {
		return 30 * time.Second
	}
	return b.cfg.ResolveLockTTL
}

// Sheet loads the rate sheet of a product through st.
func (b *RateBook) Sheet(ctx context.Context, st domain.SettingsStore, productID string) (RateSheet, error) {
	rates, err := st.ListPayRates(ctx, productID)
	if err != nil {
		return RateSheet{}, fmt.Errorf("rate_book: list pay rates: %w", err)
	}
	limits, err := st.ListLimits(ctx, productID)
	if err != nil {
		return RateSheet{}, fmt.Errorf("rate_book: list limits: %w", err)
	}
	sheet := RateSheet{
		ProductID: productID,
		payRates:  make(map[domain.BetKind]decimal.Decimal, len(rates)),
		limits:    make(map[domain.BetKind]decimal.Decimal, len(limits)),
		cfg:       &b.cfg,
	}
	for _, r := range rates {
		sheet.payRates[r.BetKind] = r.Rate
	}
	for _, l := range limits {
		sheet.limits[l.BetKind] = l.MaxAmount
	}
	return sheet, nil
}

// SetPayRate upserts the default pay rate for (product, kind).
func (b *RateBook) SetPayRate(ctx context.Context, productID string, kind domain.BetKind, rate decimal.Decimal) (domain.PayRate, error) {
	if !kind.Valid() {
		return domain.PayRate{}, domain.Validationf("unknown bet kind %q", string(kind))
	}
	if !rate.IsPositive() {
		return domain.PayRate{}, domain.Validationf("rate must be > 0, got %s", rate)
	}
	st := b.tx.Stores()
	if _, err := st.Products.GetByID(ctx, productID); err != nil {
		return domain.PayRate{}, fmt.Errorf("rate_book: get product %s: %w", productID, err)
	}
	r := domain.PayRate{ProductID: productID, BetKind: kind, Rate: rate, UpdatedAt: time.Now().UTC()}
	if err := st.Settings.UpsertPayRate(ctx, r); err != nil {
		return domain.PayRate{}, fmt.Errorf("rate_book: upsert pay rate: %w", err)
	}
	b.logger.InfoContext(ctx, "rate_book: pay rate set",
		slog.String("product_id", productID),
		slog.String("bet_kind", string(kind)),
		slog.String("rate", rate.String()),
	)
	logAudit(ctx, st.Audit, b.logger, "settings.pay_rate", map[string]any{
		"product_id": productID, "bet_kind": kind, "rate": rate.String(),
	})
	b.invalidateOpenRounds(ctx, st.Rounds, productID)
	return r, nil
}

// PayRates lists the effective default pay rate of every bet kind for a
// product. Kinds without a row report the engine fallback with a zero
// UpdatedAt.
func (b *RateBook) PayRates(ctx context.Context, productID string) ([]domain.PayRate, error) {
	st := b.tx.Stores()
	if _, err := st.Products.GetByID(ctx, productID); err != nil {
		return nil, fmt.Errorf("rate_book: get product %s: %w", productID, err)
	}
	rows, err := st.Settings.ListPayRates(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("rate_book: list pay rates: %w", err)
	}
	byKind := make(map[domain.BetKind]domain.PayRate, len(rows))
	for _, r := range rows {
		byKind[r.BetKind] = r
	}
	out := make([]domain.PayRate, 0, len(domain.BetKinds))
	for _, k := range domain.BetKinds {
		if r, ok := byKind[k]; ok {
			out = append(out, r)
			continue
		}
		if r, ok := b.cfg.DefaultPayRates[k]; ok {
			out = append(out, domain.PayRate{ProductID: productID, BetKind: k, Rate: r})
		}
	}
	return out, nil
}

// SetLimit upserts the global limit for (product, kind).
func (b *RateBook) SetLimit(ctx context.Context, productID string, kind domain.BetKind, maxAmount decimal.Decimal) (domain.GlobalLimit, error) {
	if !kind.Valid() {
		return domain.GlobalLimit{}, domain.Validationf("unknown bet kind %q", string(kind))
	}
	if maxAmount.IsNegative() {
		return domain.GlobalLimit{}, domain.Validationf("max_amount must be >= 0, got %s", maxAmount)
	}
	st := b.tx.Stores()
	if _, err := st.Products.GetByID(ctx, productID); err != nil {
		return domain.GlobalLimit{}, fmt.Errorf("rate_book: get product %s: %w", productID, err)
	}
	l := domain.GlobalLimit{ProductID: productID, BetKind: kind, MaxAmount: maxAmount, UpdatedAt: time.Now().UTC()}
	if err := st.Settings.UpsertLimit(ctx, l); err != nil {
		return domain.GlobalLimit{}, fmt.Errorf("rate_book: upsert limit: %w", err)
	}
	logAudit(ctx, st.Audit, b.logger, "settings.limit", map[string]any{
		"product_id": productID, "bet_kind": kind, "max_amount": maxAmount.String(),
	})
	b.invalidateOpenRounds(ctx, st.Rounds, productID)
	return l, nil
}

// Limits lists the effective limit of every bet kind for a product.
func (b *RateBook) Limits(ctx context.Context, productID string) ([]domain.GlobalLimit, error) {
	st := b.tx.Stores()
	if _, err := st.Products.GetByID(ctx, productID); err != nil {
		return nil, fmt.Errorf("rate_book: get product %s: %w", productID, err)
	}
	sheet, err := b.Sheet(ctx, st.Settings, productID)
	if err != nil {
		return nil, err
	}
	rows, err := st.Settings.ListLimits(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("rate_book: list limits: %w", err)
	}
	updated := make(map[domain.BetKind]time.Time, len(rows))
	for _, l := range rows {
		updated[l.BetKind] = l.UpdatedAt
	}
	out := make([]domain.GlobalLimit, 0, len(domain.BetKinds))
	for _, k := range domain.BetKinds {
		out = append(out, domain.GlobalLimit{
			ProductID: productID,
			BetKind:   k,
			MaxAmount: sheet.Limit(k),
			UpdatedAt: updated[k],
		})
	}
	return out, nil
}
