package memory

import (
	"context"
	"maps"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/alanyoungcy/lottodesk/internal/domain"
)

type productStore struct{ *view }

func (s *productStore) Create(_ context.Context, p domain.Product) error {
	return s.read(func(st *state) error {
		if _, ok := st.products[p.ID]; ok {
			return domain.ErrDuplicateProduct
		}
		for _, existing := range st.products {
			if strings.EqualFold(existing.Code, p.Code) {
				return domain.ErrDuplicateProduct
			}
		}
		p.DrawDays = slices.Clone(p.DrawDays)
		st.products[p.ID] = p
		return nil
	})
}

func (s *productStore) GetByID(_ context.Context, id string) (domain.Product, error) {
	var p domain.Product
	err := s.read(func(st *state) error {
		got, ok := st.products[id]
		if !ok {
			return domain.ErrProductNotFound
		}
		p = got
		p.DrawDays = slices.Clone(got.DrawDays)
		return nil
	})
	return p, err
}

func (s *productStore) GetByCode(_ context.Context, code string) (domain.Product, error) {
	var p domain.Product
	err := s.read(func(st *state) error {
		for _, got := range st.products {
			if strings.EqualFold(got.Code, code) {
				p = got
				p.DrawDays = slices.Clone(got.DrawDays)
				return nil
			}
		}
		return domain.ErrProductNotFound
	})
	return p, err
}

func (s *productStore) List(_ context.Context) ([]domain.Product, error) {
	var out []domain.Product
	err := s.read(func(st *state) error {
		for _, p := range st.products {
			p.DrawDays = slices.Clone(p.DrawDays)
			out = append(out, p)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
		return nil
	})
	return out, err
}

type agentStore struct{ *view }

func cloneAgent(a domain.Agent) domain.Agent {
	a.Discounts = maps.Clone(a.Discounts)
	a.PayRates = slices.Clone(a.PayRates)
	a.Presets = slices.Clone(a.Presets)
	return a
}

func (s *agentStore) Create(_ context.Context, a domain.Agent) error {
	return s.read(func(st *state) error {
		if _, ok := st.agents[a.ID]; ok {
			return domain.ErrDuplicateAgent
		}
		for _, existing := range st.agents {
			if strings.EqualFold(existing.Code, a.Code) {
				return domain.ErrDuplicateAgent
			}
		}
		st.agents[a.ID] = cloneAgent(a)
		return nil
	})
}

func (s *agentStore) GetByID(_ context.Context, id string) (domain.Agent, error) {
	var a domain.Agent
	err := s.read(func(st *state) error {
		got, ok := st.agents[id]
		if !ok {
			return domain.ErrAgentNotFound
		}
		a = cloneAgent(got)
		return nil
	})
	return a, err
}

func (s *agentStore) List(_ context.Context, includeInactive bool) ([]domain.Agent, error) {
	var out []domain.Agent
	err := s.read(func(st *state) error {
		for _, a := range st.agents {
			if !a.Active && !includeInactive {
				continue
			}
			out = append(out, cloneAgent(a))
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
		return nil
	})
	return out, err
}

func (s *agentStore) Update(_ context.Context, a domain.Agent) error {
	return s.read(func(st *state) error {
		if _, ok := st.agents[a.ID]; !ok {
			return domain.ErrAgentNotFound
		}
		st.agents[a.ID] = cloneAgent(a)
		return nil
	})
}

func (s *agentStore) Delete(_ context.Context, id string) error {
	return s.read(func(st *state) error {
		if _, ok := st.agents[id]; !ok {
			return domain.ErrAgentNotFound
		}
		delete(st.agents, id)
		return nil
	})
}

type settingsStore struct{ *view }

func (s *settingsStore) UpsertPayRate(_ context.Context, r domain.PayRate) error {
	return s.read(func(st *state) error {
		if r.UpdatedAt.IsZero() {
			r.UpdatedAt = time.Now().UTC()
		}
		st.payRates[domain.RateKey{ProductID: r.ProductID, BetKind: r.BetKind}] = r
		return nil
	})
}

func (s *settingsStore) ListPayRates(_ context.Context, productID string) ([]domain.PayRate, error) {
	var out []domain.PayRate
	err := s.read(func(st *state) error {
		for k, r := range st.payRates {
			if productID == "" || k.ProductID == productID {
				out = append(out, r)
			}
		}
		sort.Slice(out, func(i, j int) bool {
			if out[i].ProductID != out[j].ProductID {
				return out[i].ProductID < out[j].ProductID
			}
			return out[i].BetKind < out[j].BetKind
		})
		return nil
	})
	return out, err
}

func (s *settingsStore) UpsertLimit(_ context.Context, l domain.GlobalLimit) error {
	return s.read(func(st *state) error {
		if l.UpdatedAt.IsZero() {
			l.UpdatedAt = time.Now().UTC()
		}
		st.limits[domain.RateKey{ProductID: l.ProductID, BetKind: l.BetKind}] = l
		return nil
	})
}

func (s *settingsStore) ListLimits(_ context.Context, productID string) ([]domain.GlobalLimit, error) {
	var out []domain.GlobalLimit
	err := s.read(func(st *state) error {
		for k, l := range st.limits {
			if productID == "" || k.ProductID == productID {
				out = append(out, l)
			}
		}
		sort.Slice(out, func(i, j int) bool {
			if out[i].ProductID != out[j].ProductID {
				return out[i].ProductID < out[j].ProductID
			}
			return out[i].BetKind < out[j].BetKind
		})
		return nil
	})
	return out, err
}

type auditStore struct{ *view }

func (s *auditStore) Log(_ context.Context, event string, detail map[string]any) error {
	return s.read(func(st *state) error {
		st.auditLog = append(st.auditLog, domain.AuditEntry{
			ID:        st.nextID(),
			Event:     event,
			Detail:    maps.Clone(detail),
			CreatedAt: time.Now().UTC(),
		})
		return nil
	})
}

func (s *auditStore) List(_ context.Context, opts domain.ListOpts) ([]domain.AuditEntry, error) {
	var out []domain.AuditEntry
	err := s.read(func(st *state) error {
		for i := len(st.auditLog) - 1; i >= 0; i-- {
			e := st.auditLog[i]
			if opts.Since != nil && e.CreatedAt.Before(*opts.Since) {
				continue
			}
			if opts.Until != nil && e.CreatedAt.After(*opts.Until) {
				continue
			}
			out = append(out, e)
		}
		out = paginate(out, opts)
		return nil
	})
	return out, err
}
