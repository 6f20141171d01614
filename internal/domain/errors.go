package domain

import (
	"errors"
	"fmt"
)

// Category errors. Every error returned by the engine wraps exactly one of
// these so callers can branch with errors.Is.
var (
	ErrValidation  = errors.New("invalid input")
	ErrConflict    = errors.New("state conflict")
	ErrNotFound    = errors.New("not found")
	ErrPersistence = errors.New("persistence failure")
)

// Reason-specific errors.
var (
	ErrRoundNotAccepting = fmt.Errorf("%w: round closed", ErrConflict)
	ErrRoundResolved     = fmt.Errorf("%w: already resolved", ErrConflict)
	ErrRoundNotResolved  = fmt.Errorf("%w: round not resolved", ErrConflict)
	ErrInvalidTransition = fmt.Errorf("%w: invalid round transition", ErrConflict)
	ErrDuplicateRound    = fmt.Errorf("%w: duplicate round", ErrConflict)
	ErrDuplicateProduct  = fmt.Errorf("%w: duplicate product", ErrConflict)
	ErrDuplicateAgent    = fmt.Errorf("%w: duplicate agent", ErrConflict)
	ErrWagerNotActive    = fmt.Errorf("%w: wager not active", ErrConflict)
	ErrAgentInactive     = fmt.Errorf("%w: agent inactive", ErrConflict)
	ErrLayoffNotPending  = fmt.Errorf("%w: layoff not pending", ErrConflict)
	ErrLockHeld          = fmt.Errorf("%w: lock already held", ErrConflict)

	ErrRoundNotFound   = fmt.Errorf("round %w", ErrNotFound)
	ErrWagerNotFound   = fmt.Errorf("wager %w", ErrNotFound)
	ErrAgentNotFound   = fmt.Errorf("agent %w", ErrNotFound)
	ErrProductNotFound = fmt.Errorf("product %w", ErrNotFound)
	ErrLayoffNotFound  = fmt.Errorf("layoff %w", ErrNotFound)
)

// Validationf builds an ErrValidation-wrapped error with a message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Reason maps an error to the stable reason string operators see. The order
// matters: specific sentinels are checked before their categories.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrRoundNotAccepting):
		return "round_closed"
	case errors.Is(err, ErrRoundResolved):
		return "already_resolved"
	case errors.Is(err, ErrDuplicateRound), errors.Is(err, ErrDuplicateProduct), errors.Is(err, ErrDuplicateAgent):
		return "duplicate"
	case errors.Is(err, ErrWagerNotActive), errors.Is(err, ErrLayoffNotPending):
		return "not_active"
	case errors.Is(err, ErrAgentInactive):
		return "agent_inactive"
	case errors.Is(err, ErrLockHeld):
		return "busy"
	case errors.Is(err, ErrConflict):
		return "invalid_state"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrValidation):
		return "invalid_input"
	default:
		return "internal"
	}
}
