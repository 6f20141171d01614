package memory

import (
	"context"
	"slices"
	"sort"
	"time"

	"github.com/alanyoungcy/lottodesk/internal/domain"
)

type roundStore struct{ *view }

func cloneRound(r domain.Round) domain.Round {
	if r.Result != nil {
		res := *r.Result
		res.ThreeTod = slices.Clone(r.Result.ThreeTod)
		r.Result = &res
	}
	return r
}

func (s *roundStore) Create(_ context.Context, r domain.Round) error {
	return s.read(func(st *state) error {
		if _, ok := st.rounds[r.ID]; ok {
			return domain.ErrDuplicateRound
		}
		for _, existing := range st.rounds {
			if existing.ProductID == r.ProductID && existing.DrawDate.Equal(r.DrawDate) {
				return domain.ErrDuplicateRound
			}
		}
		st.rounds[r.ID] = cloneRound(r)
		return nil
	})
}

func (s *roundStore) GetByID(_ context.Context, id string) (domain.Round, error) {
	var r domain.Round
	err := s.read(func(st *state) error {
		got, ok := st.rounds[id]
		if !ok {
			return domain.ErrRoundNotFound
		}
		r = cloneRound(got)
		return nil
	})
	return r, err
}

// GetForUpdate and GetForShare need no row lock: transactions already run
// one at a time.
func (s *roundStore) GetForUpdate(ctx context.Context, id string) (domain.Round, error) {
	return s.GetByID(ctx, id)
}

func (s *roundStore) GetForShare(ctx context.Context, id string) (domain.Round, error) {
	return s.GetByID(ctx, id)
}

func (s *roundStore) List(_ context.Context, productID string, statuses []domain.RoundStatus, opts domain.ListOpts) ([]domain.Round, error) {
	var out []domain.Round
	err := s.read(func(st *state) error {
		for _, r := range st.rounds {
			if productID != "" && r.ProductID != productID {
				continue
			}
			if len(statuses) > 0 && !slices.Contains(statuses, r.Status) {
				continue
			}
			if opts.Since != nil && r.DrawDate.Before(*opts.Since) {
				continue
			}
			if opts.Until != nil && r.DrawDate.After(*opts.Until) {
				continue
			}
			out = append(out, cloneRound(r))
		}
		sort.Slice(out, func(i, j int) bool {
			if !out[i].DrawDate.Equal(out[j].DrawDate) {
				return out[i].DrawDate.After(out[j].DrawDate)
			}
			return out[i].ProductID < out[j].ProductID
		})
		out = paginate(out, opts)
		return nil
	})
	return out, err
}

func (s *roundStore) UpdateStatus(_ context.Context, id string, status domain.RoundStatus, at time.Time) error {
	return s.read(func(st *state) error {
		r, ok := st.rounds[id]
		if !ok {
			return domain.ErrRoundNotFound
		}
		r.Status = status
		if status == domain.RoundClosedForEntry {
			r.ClosedAt = &at
		}
		st.rounds[id] = r
		return nil
	})
}

func (s *roundStore) SetResult(_ context.Context, id string, result domain.DrawResult, at time.Time) error {
	return s.read(func(st *state) error {
		r, ok := st.rounds[id]
		if !ok {
			return domain.ErrRoundNotFound
		}
		r.Status = domain.RoundResolved
		r.Result = &result
		r.ResolvedAt = &at
		if r.ClosedAt == nil {
			r.ClosedAt = &at
		}
		st.rounds[id] = cloneRound(r)
		return nil
	})
}

type wagerStore struct{ *view }

func (s *wagerStore) CreateBatch(_ context.Context, batch domain.WagerBatch, wagers []domain.Wager) error {
	return s.read(func(st *state) error {
		if batch.ID != "" {
			st.batches[batch.ID] = batch
		}
		for _, w := range wagers {
			if _, ok := st.wagers[w.ID]; ok {
				return domain.Validationf("wager %s already exists", w.ID)
			}
			st.wagers[w.ID] = w
			st.wagerOrder = append(st.wagerOrder, w.ID)
		}
		return nil
	})
}

func (s *wagerStore) GetBatch(_ context.Context, id string) (domain.WagerBatch, error) {
	var b domain.WagerBatch
	err := s.read(func(st *state) error {
		got, ok := st.batches[id]
		if !ok {
			return domain.ErrNotFound
		}
		b = got
		return nil
	})
	return b, err
}

func (s *wagerStore) GetByID(_ context.Context, id string) (domain.Wager, error) {
	var w domain.Wager
	err := s.read(func(st *state) error {
		got, ok := st.wagers[id]
		if !ok {
			return domain.ErrWagerNotFound
		}
		w = got
		return nil
	})
	return w, err
}

func (s *wagerStore) GetForUpdate(ctx context.Context, id string) (domain.Wager, error) {
	return s.GetByID(ctx, id)
}

func (s *wagerStore) Update(_ context.Context, w domain.Wager) error {
	return s.read(func(st *state) error {
		if _, ok := st.wagers[w.ID]; !ok {
			return domain.ErrWagerNotFound
		}
		st.wagers[w.ID] = w
		return nil
	})
}

func (s *wagerStore) ListByRound(_ context.Context, roundID string, f domain.WagerFilter) ([]domain.Wager, error) {
	var out []domain.Wager
	err := s.read(func(st *state) error {
		for _, id := range st.wagerOrder {
			w := st.wagers[id]
			if w.RoundID != roundID {
				continue
			}
			if f.AgentID != "" && w.AgentID != f.AgentID {
				continue
			}
			if f.BetKind != "" && w.BetKind != f.BetKind {
				continue
			}
			if f.Number != "" && w.Number != f.Number {
				continue
			}
			if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, w.Status) {
				continue
			}
			out = append(out, w)
		}
		return nil
	})
	return out, err
}

func (s *wagerStore) ApplySettlements(_ context.Context, settled []domain.Settlement, at time.Time) error {
	return s.read(func(st *state) error {
		for _, o := range settled {
			w, ok := st.wagers[o.WagerID]
			if !ok {
				return domain.ErrWagerNotFound
			}
			w.Status = o.Status
			w.IsWin = o.IsWin
			w.WinAmount = o.WinAmount
			w.SettledAt = &at
			st.wagers[o.WagerID] = w
		}
		return nil
	})
}

func (s *wagerStore) CountByAgent(_ context.Context, agentID string) (int64, error) {
	var n int64
	err := s.read(func(st *state) error {
		for _, w := range st.wagers {
			if w.AgentID == agentID {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (s *wagerStore) AppendAudit(_ context.Context, e domain.WagerAudit) error {
	return s.read(func(st *state) error {
		e.ID = st.nextID()
		if e.CreatedAt.IsZero() {
			e.CreatedAt = time.Now().UTC()
		}
		st.wagerAudit = append(st.wagerAudit, e)
		return nil
	})
}

func (s *wagerStore) ListAudit(_ context.Context, wagerID string) ([]domain.WagerAudit, error) {
	var out []domain.WagerAudit
	err := s.read(func(st *state) error {
		for _, e := range st.wagerAudit {
			if e.WagerID == wagerID {
				out = append(out, e)
			}
		}
		return nil
	})
	return out, err
}

type layoffStore struct{ *view }

func (s *layoffStore) Create(_ context.Context, l domain.Layoff) error {
	return s.read(func(st *state) error {
		if _, ok := st.layoffs[l.ID]; ok {
			return domain.Validationf("layoff %s already exists", l.ID)
		}
		st.layoffs[l.ID] = l
		st.layoffSeq = append(st.layoffSeq, l.ID)
		return nil
	})
}

func (s *layoffStore) GetByID(_ context.Context, id string) (domain.Layoff, error) {
	var l domain.Layoff
	err := s.read(func(st *state) error {
		got, ok := st.layoffs[id]
		if !ok {
			return domain.ErrLayoffNotFound
		}
		l = got
		return nil
	})
	return l, err
}

func (s *layoffStore) MarkSent(_ context.Context, id string, at time.Time) error {
	return s.read(func(st *state) error {
		l, ok := st.layoffs[id]
		if !ok {
			return domain.ErrLayoffNotFound
		}
		if l.Status != domain.LayoffPending {
			return domain.ErrLayoffNotPending
		}
		l.Status = domain.LayoffSent
		l.SentAt = &at
		st.layoffs[id] = l
		return nil
	})
}

func (s *layoffStore) ListByRound(_ context.Context, roundID string) ([]domain.Layoff, error) {
	var out []domain.Layoff
	err := s.read(func(st *state) error {
		for _, id := range st.layoffSeq {
			if l := st.layoffs[id]; l.RoundID == roundID {
				out = append(out, l)
			}
		}
		return nil
	})
	return out, err
}
