package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/lottodesk/internal/domain"
	"github.com/alanyoungcy/lottodesk/internal/pricing"
)

// AgentService manages agents and their per-product terms. Each update is
// its own typed operation.
type AgentService struct {
	tx     domain.Transactor
	logger *slog.Logger
}

// NewAgentService creates an AgentService.
func NewAgentService(tx domain.Transactor, logger *slog.Logger) *AgentService {
	return &AgentService{
		tx:     tx,
		logger: logger.With(slog.String("component", "agent_service")),
	}
}

// Create stores a new active agent without discounts.
func (s *AgentService) Create(ctx context.Context, code, name string) (domain.Agent, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	name = strings.TrimSpace(name)
	if code == "" || name == "" {
		return domain.Agent{}, domain.Validationf("code and name are required")
	}
	now := time.Now().UTC()
	a := domain.Agent{
		ID:        uuid.NewString(),
		Code:      code,
		Name:      name,
		Active:    true,
		Discounts: map[string]decimal.Decimal{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.tx.Stores().Agents.Create(ctx, a); err != nil {
		return domain.Agent{}, fmt.Errorf("agent_service: create %s: %w", code, err)
	}
	s.logger.InfoContext(ctx, "agent_service: agent created",
		slog.String("agent_id", a.ID),
		slog.String("code", a.Code),
	)
	return a, nil
}

// Get returns one agent.
func (s *AgentService) Get(ctx context.Context, id string) (domain.Agent, error) {
	a, err := s.tx.Stores().Agents.GetByID(ctx, id)
	if err != nil {
		return domain.Agent{}, fmt.Errorf("agent_service: get %s: %w", id, err)
	}
	return a, nil
}

// List returns agents ordered by code.
func (s *AgentService) List(ctx context.Context, includeInactive bool) ([]domain.Agent, error) {
	out, err := s.tx.Stores().Agents.List(ctx, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("agent_service: list: %w", err)
	}
	return out, nil
}

// update runs a read-modify-write of one agent inside a transaction.
func (s *AgentService) update(ctx context.Context, id string, fn func(ctx context.Context, st domain.Stores, a *domain.Agent) error) (domain.Agent, error) {
	var out domain.Agent
	err := s.tx.InTx(ctx, func(ctx context.Context, st domain.Stores) error {
		a, err := st.Agents.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(ctx, st, &a); err != nil {
			return err
		}
		a.UpdatedAt = time.Now().UTC()
		if err := st.Agents.Update(ctx, a); err != nil {
			return err
		}
		out = a
		return nil
	})
	if err != nil {
		return domain.Agent{}, fmt.Errorf("agent_service: update %s: %w", id, err)
	}
	return out, nil
}

// SetDiscount sets the agent's discount percentage for a product. Existing
// wagers keep the percentage frozen on them.
func (s *AgentService) SetDiscount(ctx context.Context, agentID, productID string, pct decimal.Decimal) (domain.Agent, error) {
	if err := pricing.ValidateDiscount(pct); err != nil {
		return domain.Agent{}, err
	}
	return s.update(ctx, agentID, func(ctx context.Context, st domain.Stores, a *domain.Agent) error {
		if _, err := st.Products.GetByID(ctx, productID); err != nil {
			return err
		}
		if a.Discounts == nil {
			a.Discounts = make(map[string]decimal.Decimal)
		}
		a.Discounts[productID] = pct
		return nil
	})
}

// SetPayRate sets or, with a nil rate, clears the agent's custom pay rate
// for (product, kind).
func (s *AgentService) SetPayRate(ctx context.Context, agentID, productID string, kind domain.BetKind, rate *decimal.Decimal) (domain.Agent, error) {
	if !kind.Valid() {
		return domain.Agent{}, domain.Validationf("unknown bet kind %q", string(kind))
	}
	if rate != nil && !rate.IsPositive() {
		return domain.Agent{}, domain.Validationf("rate must be > 0, got %s", rate)
	}
	return s.update(ctx, agentID, func(ctx context.Context, st domain.Stores, a *domain.Agent) error {
		if _, err := st.Products.GetByID(ctx, productID); err != nil {
			return err
		}
		kept := a.PayRates[:0:0]
		for _, r := range a.PayRates {
			if r.ProductID != productID || r.BetKind != kind {
				kept = append(kept, r)
			}
		}
		if rate != nil {
			kept = append(kept, domain.AgentPayRate{ProductID: productID, BetKind: kind, Rate: *rate})
		}
		a.PayRates = kept
		return nil
	})
}

// SetPresets replaces the agent's named discount presets.
func (s *AgentService) SetPresets(ctx context.Context, agentID string, presets []domain.DiscountPreset) (domain.Agent, error) {
	presets = slices.Clone(presets)
	seen := make(map[string]bool, len(presets))
	for i, p := range presets {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			return domain.Agent{}, domain.Validationf("preset %d: name is required", i)
		}
		if seen[name] {
			return domain.Agent{}, domain.Validationf("preset %q defined twice", name)
		}
		seen[name] = true
		if err := pricing.ValidateDiscount(p.Pct); err != nil {
			return domain.Agent{}, err
		}
		presets[i].Name = name
	}
	return s.update(ctx, agentID, func(_ context.Context, _ domain.Stores, a *domain.Agent) error {
		a.Presets = presets
		return nil
	})
}

// ApplyPreset copies a named preset's percentage into the product discount.
func (s *AgentService) ApplyPreset(ctx context.Context, agentID, productID, name string) (domain.Agent, error) {
	return s.update(ctx, agentID, func(ctx context.Context, st domain.Stores, a *domain.Agent) error {
		p, ok := a.Preset(name)
		if !ok {
			return domain.Validationf("unknown preset %q", name)
		}
		if _, err := st.Products.GetByID(ctx, productID); err != nil {
			return err
		}
		if a.Discounts == nil {
			a.Discounts = make(map[string]decimal.Decimal)
		}
		a.Discounts[productID] = p.Pct
		return nil
	})
}

// Deactivate removes an agent without history and soft-deletes one that has
// wagers. It reports whether the row was deleted.
func (s *AgentService) Deactivate(ctx context.Context, agentID string) (bool, error) {
	var deleted bool
	err := s.tx.InTx(ctx, func(ctx context.Context, st domain.Stores) error {
		a, err := st.Agents.GetByID(ctx, agentID)
		if err != nil {
			return err
		}
		n, err := st.Wagers.CountByAgent(ctx, agentID)
		if err != nil {
			return err
		}
		if n == 0 {
			deleted = true
			return st.Agents.Delete(ctx, agentID)
		}
		a.Active = false
		a.UpdatedAt = time.Now().UTC()
		return st.Agents.Update(ctx, a)
	})
	if err != nil {
		return false, fmt.Errorf("agent_service: deactivate %s: %w", agentID, err)
	}
	s.logger.InfoContext(ctx, "agent_service: agent deactivated",
		slog.String("agent_id", agentID),
		slog.Bool("deleted", deleted),
	)
	return deleted, nil
}
