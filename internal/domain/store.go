package domain

import (
	"context"
	"time"
)

// ListOpts provides pagination and filtering for list queries.
type ListOpts struct {
	Limit  int
	Offset int
	Since  *time.Time
	Until  *time.Time
}

// ProductStore persists lottery products.
type ProductStore interface {
	Create(ctx context.Context, p Product) error
	GetByID(ctx context.Context, id string) (Product, error)
	GetByCode(ctx context.Context, code string) (Product, error)
	List(ctx context.Context) ([]Product, error)
}

// RoundStore persists draw rounds. The ForUpdate and ForShare readers take
// row locks and are only meaningful inside Transactor.InTx.
type RoundStore interface {
	Create(ctx context.Context, r Round) error
	GetByID(ctx context.Context, id string) (Round, error)
	GetForUpdate(ctx context.Context, id string) (Round, error)
	GetForShare(ctx context.Context, id string) (Round, error)
	List(ctx context.Context, productID string, statuses []RoundStatus, opts ListOpts) ([]Round, error)
	UpdateStatus(ctx context.Context, id string, status RoundStatus, at time.Time) error
	SetResult(ctx context.Context, id string, result DrawResult, at time.Time) error
}

// AgentStore persists agents with their discounts, pay rate overrides and
// presets.
type AgentStore interface {
	Create(ctx context.Context, a Agent) error
	GetByID(ctx context.Context, id string) (Agent, error)
	List(ctx context.Context, includeInactive bool) ([]Agent, error)
	Update(ctx context.Context, a Agent) error
	Delete(ctx context.Context, id string) error
}

// WagerStore persists wagers, their batches and their audit trail.
type WagerStore interface {
	CreateBatch(ctx context.Context, batch WagerBatch, wagers []Wager) error
	GetBatch(ctx context.Context, id string) (WagerBatch, error)
	GetByID(ctx context.Context, id string) (Wager, error)
	GetForUpdate(ctx context.Context, id string) (Wager, error)
	Update(ctx context.Context, w Wager) error
	ListByRound(ctx context.Context, roundID string, f WagerFilter) ([]Wager, error)
	ApplySettlements(ctx context.Context, settled []Settlement, at time.Time) error
	CountByAgent(ctx context.Context, agentID string) (int64, error)
	AppendAudit(ctx context.Context, e WagerAudit) error
	ListAudit(ctx context.Context, wagerID string) ([]WagerAudit, error)
}

// SettingsStore persists default pay rates and global limits.
type SettingsStore interface {
	UpsertPayRate(ctx context.Context, r PayRate) error
	ListPayRates(ctx context.Context, productID string) ([]PayRate, error)
	UpsertLimit(ctx context.Context, l GlobalLimit) error
	ListLimits(ctx context.Context, productID string) ([]GlobalLimit, error)
}

// LayoffStore persists the append-only layoff history.
type LayoffStore interface {
	Create(ctx context.Context, l Layoff) error
	GetByID(ctx context.Context, id string) (Layoff, error)
	MarkSent(ctx context.Context, id string, at time.Time) error
	ListByRound(ctx context.Context, roundID string) ([]Layoff, error)
}

// AuditEntry is a single audit log row.
type AuditEntry struct {
	ID        int64          `json:"id"`
	Event     string         `json:"event"`
	Detail    map[string]any `json:"detail"`
	CreatedAt time.Time      `json:"created_at"`
}

// AuditStore persists an append-only audit log.
type AuditStore interface {
	Log(ctx context.Context, event string, detail map[string]any) error
	List(ctx context.Context, opts ListOpts) ([]AuditEntry, error)
}

// Stores bundles every store bound to one connection or transaction.
type Stores struct {
	Products ProductStore
	Rounds   RoundStore
	Agents   AgentStore
	Wagers   WagerStore
	Settings SettingsStore
	Layoffs  LayoffStore
	Audit    AuditStore
}

// Transactor runs units of work. Stores returned by Stores operate outside
// any transaction; InTx hands fn stores bound to one transaction that is
// committed when fn returns nil and rolled back otherwise.
type Transactor interface {
	Stores() Stores
	InTx(ctx context.Context, fn func(ctx context.Context, s Stores) error) error
}
