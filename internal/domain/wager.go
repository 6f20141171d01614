package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// WagerStatus tracks a wager through its life.
type WagerStatus string

const (
	WagerActive    WagerStatus = "ACTIVE"
	WagerCancelled WagerStatus = "CANCELLED"
	WagerWon       WagerStatus = "WON"
	WagerLost      WagerStatus = "LOST"
)

// Wager is one priced ledger line.
type Wager struct {
	ID          string          `json:"id"`
	RoundID     string          `json:"round_id"`
	AgentID     string          `json:"agent_id"`
	BatchID     string          `json:"batch_id"`
	Number      string          `json:"number"`
	BetKind     BetKind         `json:"bet_kind"`
	Stake       decimal.Decimal `json:"stake"`
	DiscountPct decimal.Decimal `json:"discount_pct"`
	DiscountAmt decimal.Decimal `json:"discount_amt"`
	NetStake    decimal.Decimal `json:"net_stake"`
	PayRate     decimal.Decimal `json:"pay_rate"`
	Status      WagerStatus     `json:"status"`
	IsWin       bool            `json:"is_win"`
	WinAmount   decimal.Decimal `json:"win_amount"`

	CancelledBy  string     `json:"cancelled_by,omitempty"`
	CancelledAt  *time.Time `json:"cancelled_at,omitempty"`
	CancelReason string     `json:"cancel_reason,omitempty"`
	EditedBy     string     `json:"edited_by,omitempty"`
	EditedAt     *time.Time `json:"edited_at,omitempty"`
	EditReason   string     `json:"edit_reason,omitempty"`
	SettledAt    *time.Time `json:"settled_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Counted reports whether the wager participates in exposure and settlement.
func (w Wager) Counted() bool { return w.Status != WagerCancelled }

// WagerLine is one raw (number, bet-kind, stake) line submitted for placement.
type WagerLine struct {
	Number  string          `json:"number"`
	BetKind BetKind         `json:"bet_kind"`
	Stake   decimal.Decimal `json:"stake"`
}

// WagerBatch is the aggregate record of one placement call.
type WagerBatch struct {
	ID         string          `json:"id"`
	RoundID    string          `json:"round_id"`
	AgentID    string          `json:"agent_id"`
	Note       string          `json:"note,omitempty"`
	Lines      int             `json:"lines"`
	TotalStake decimal.Decimal `json:"total_stake"`
	TotalNet   decimal.Decimal `json:"total_net"`
	Operator   string          `json:"operator,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// AuditAction names a wager audit trail entry.
type AuditAction string

const (
	AuditEdit   AuditAction = "EDIT"
	AuditCancel AuditAction = "CANCEL"
)

// WagerAudit is one audit trail entry for a wager mutation.
type WagerAudit struct {
	ID        int64           `json:"id"`
	WagerID   string          `json:"wager_id"`
	Action    AuditAction     `json:"action"`
	OldAmount decimal.Decimal `json:"old_amount"`
	NewAmount decimal.Decimal `json:"new_amount"`
	Reason    string          `json:"reason,omitempty"`
	Operator  string          `json:"operator,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// Settlement is the outcome the resolution engine assigns to one wager.
type Settlement struct {
	WagerID   string          `json:"wager_id"`
	Status    WagerStatus     `json:"status"`
	IsWin     bool            `json:"is_win"`
	WinAmount decimal.Decimal `json:"win_amount"`
}

// WagerFilter narrows wager listings.
type WagerFilter struct {
	AgentID  string
	BetKind  BetKind
	Number   string
	Statuses []WagerStatus
}
