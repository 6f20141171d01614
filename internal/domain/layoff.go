package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LayoffStatus tracks whether a hedge has been passed on.
type LayoffStatus string

const (
	LayoffPending LayoffStatus = "PENDING"
	LayoffSent    LayoffStatus = "SENT"
)

// Layoff is a snapshot of one hedging decision. Records are append-only.
type Layoff struct {
	ID           string          `json:"id"`
	RoundID      string          `json:"round_id"`
	Number       string          `json:"number"`
	BetKind      BetKind         `json:"bet_kind"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	LimitAmount  decimal.Decimal `json:"limit_amount"`
	ExcessAmount decimal.Decimal `json:"excess_amount"`
	LayoffAmount decimal.Decimal `json:"layoff_amount"`
	KeepAmount   decimal.Decimal `json:"keep_amount"`
	Destination  string          `json:"destination"`
	Status       LayoffStatus    `json:"status"`
	Operator     string          `json:"operator,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	SentAt       *time.Time      `json:"sent_at,omitempty"`
}
