package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/lottodesk/internal/domain"
)

// AgentStore implements domain.AgentStore using PostgreSQL. Custom pay
// rates live in agent_pay_rates; discounts and presets are JSONB columns.
type AgentStore struct {
	db Querier
}

// NewAgentStore creates an AgentStore on a pool or transaction.
func NewAgentStore(db Querier) *AgentStore {
	return &AgentStore{db: db}
}

var _ domain.AgentStore = (*AgentStore)(nil)

const agentSelectCols = `id, code, name, active, discounts, presets, created_at, updated_at`

func scanAgent(row rowScanner) (domain.Agent, error) {
	var a domain.Agent
	var discounts, presets []byte
	if err := row.Scan(&a.ID, &a.Code, &a.Name, &a.Active, &discounts, &presets, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return domain.Agent{}, err
	}
	a.Discounts = map[string]decimal.Decimal{}
	if len(discounts) > 0 {
		if err := json.Unmarshal(discounts, &a.Discounts); err != nil {
			return domain.Agent{}, fmt.Errorf("unmarshal discounts: %w", err)
		}
	}
	if len(presets) > 0 {
		if err := json.Unmarshal(presets, &a.Presets); err != nil {
			return domain.Agent{}, fmt.Errorf("unmarshal presets: %w", err)
		}
	}
	return a, nil
}

func marshalAgentJSON(a domain.Agent) (discounts, presets []byte, err error) {
	d := a.Discounts
	if d == nil {
		d = map[string]decimal.Decimal{}
	}
	p := a.Presets
	if p == nil {
		p = []domain.DiscountPreset{}
	}
	if discounts, err = json.Marshal(d); err != nil {
		return nil, nil, fmt.Errorf("postgres: marshal discounts: %w", err)
	}
	if presets, err = json.Marshal(p); err != nil {
		return nil, nil, fmt.Errorf("postgres: marshal presets: %w", err)
	}
	return discounts, presets, nil
}

// Create inserts an agent and its custom pay rates.
func (s *AgentStore) Create(ctx context.Context, a domain.Agent) error {
	discounts, presets, err := marshalAgentJSON(a)
	if err != nil {
		return err
	}
	const query = `
		INSERT INTO agents (id, code, name, active, discounts, presets, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err = s.db.Exec(ctx, query, a.ID, a.Code, a.Name, a.Active, discounts, presets, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateAgent
		}
		return storeErr("create agent "+a.Code, err)
	}
	return s.replacePayRates(ctx, a)
}

func (s *AgentStore) replacePayRates(ctx context.Context, a domain.Agent) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM agent_pay_rates WHERE agent_id = $1`, a.ID); err != nil {
		return storeErr("clear agent pay rates "+a.ID, err)
	}
	const insert = `
		INSERT INTO agent_pay_rates (agent_id, product_id, bet_kind, rate)
		VALUES ($1, $2, $3, $4)`
	for _, r := range a.PayRates {
		if _, err := s.db.Exec(ctx, insert, a.ID, r.ProductID, string(r.BetKind), r.Rate.String()); err != nil {
			return storeErr("insert agent pay rate "+a.ID, err)
		}
	}
	return nil
}

func (s *AgentStore) loadPayRates(ctx context.Context, agents []domain.Agent) error {
	if len(agents) == 0 {
		return nil
	}
	ids := make([]string, len(agents))
	idx := make(map[string]int, len(agents))
	for i, a := range agents {
		ids[i] = a.ID
		idx[a.ID] = i
	}
	rows, err := s.db.Query(ctx, `
		SELECT agent_id, product_id, bet_kind, rate::text
		FROM agent_pay_rates WHERE agent_id = ANY($1)
		ORDER BY agent_id, product_id, bet_kind`, ids)
	if err != nil {
		return storeErr("list agent pay rates", err)
	}
	defer rows.Close()

	for rows.Next() {
		var agentID, kind string
		var r domain.AgentPayRate
		if err := rows.Scan(&agentID, &r.ProductID, &kind, &r.Rate); err != nil {
			return storeErr("scan agent pay rate", err)
		}
		r.BetKind = domain.BetKind(kind)
		a := &agents[idx[agentID]]
		a.PayRates = append(a.PayRates, r)
	}
	if err := rows.Err(); err != nil {
		return storeErr("list agent pay rates rows", err)
	}
	return nil
}

// GetByID retrieves an agent with its custom pay rates.
func (s *AgentStore) GetByID(ctx context.Context, id string) (domain.Agent, error) {
	a, err := scanAgent(s.db.QueryRow(ctx, `SELECT `+agentSelectCols+` FROM agents WHERE id = $1`, id))
	if err != nil {
		return domain.Agent{}, getErr("get agent "+id, err, domain.ErrAgentNotFound)
	}
	one := []domain.Agent{a}
	if err := s.loadPayRates(ctx, one); err != nil {
		return domain.Agent{}, err
	}
	return one[0], nil
}

// List returns agents ordered by code.
func (s *AgentStore) List(ctx context.Context, includeInactive bool) ([]domain.Agent, error) {
	query := `SELECT ` + agentSelectCols + ` FROM agents`
	if !includeInactive {
		query += ` WHERE active`
	}
	query += ` ORDER BY code`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, storeErr("list agents", err)
	}
	var out []domain.Agent
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			rows.Close()
			return nil, storeErr("scan agent", err)
		}
		out = append(out, a)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, storeErr("list agents rows", err)
	}
	if err := s.loadPayRates(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update replaces the agent's mutable fields and custom pay rates. Call it
// inside a transaction so the rate rows change together with the agent.
func (s *AgentStore) Update(ctx context.Context, a domain.Agent) error {
	discounts, presets, err := marshalAgentJSON(a)
	if err != nil {
		return err
	}
	const query = `
		UPDATE agents SET
			name       = $2,
			active     = $3,
			discounts  = $4,
			presets    = $5,
			updated_at = $6
		WHERE id = $1`
	tag, err := s.db.Exec(ctx, query, a.ID, a.Name, a.Active, discounts, presets, a.UpdatedAt)
	if err != nil {
		return storeErr("update agent "+a.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAgentNotFound
	}
	return s.replacePayRates(ctx, a)
}

// Delete removes an agent without wager history.
func (s *AgentStore) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM agents WHERE id = $1`, id)
	if err != nil {
		return storeErr("delete agent "+id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAgentNotFound
	}
	return nil
}
