package domain

import "time"

// Desk event types published on the signal bus and pushed to dashboards.
const (
	EventWagersPlaced    = "wagers_placed"
	EventWagerEdited     = "wager_edited"
	EventWagerCancelled  = "wager_cancelled"
	EventRoundCreated    = "round_created"
	EventRoundClosed     = "round_closed"
	EventRoundResolved   = "round_resolved"
	EventRoundRecomputed = "round_recomputed"
	EventLayoffRecorded  = "layoff_recorded"
	EventLayoffSent      = "layoff_sent"
)

// DeskEvent is the payload carried on the signal bus.
type DeskEvent struct {
	Type    string    `json:"type"`
	RoundID string    `json:"round_id,omitempty"`
	Data    any       `json:"data,omitempty"`
	At      time.Time `json:"at"`
}
