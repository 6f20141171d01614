package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/alanyoungcy/lottodesk/internal/domain"
)

// Notifier delivers operator alerts. *notify.Notifier satisfies it.
type Notifier interface {
	Notify(ctx context.Context, event, title, message string) error
}

// Hooks are the side channels services fire after a successful commit.
// Every field is optional; failures are logged and never undo the commit.
type Hooks struct {
	Bus      domain.SignalBus
	Cache    domain.ExposureCache
	Notifier Notifier
}

func (h Hooks) publish(ctx context.Context, logger *slog.Logger, channel string, evt domain.DeskEvent) {
	if h.Bus == nil {
		return
	}
	if evt.At.IsZero() {
		evt.At = time.Now().UTC()
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		logger.WarnContext(ctx, "marshal event failed",
			slog.String("type", evt.Type),
			slog.String("error", err.Error()),
		)
		return
	}
	if err := h.Bus.Publish(ctx, channel, payload); err != nil {
		logger.WarnContext(ctx, "publish event failed",
			slog.String("channel", channel),
			slog.String("type", evt.Type),
			slog.String("error", err.Error()),
		)
	}
}

func (h Hooks) invalidate(ctx context.Context, logger *slog.Logger, roundID string) {
	if h.Cache == nil {
		return
	}
	if err := h.Cache.Invalidate(ctx, roundID); err != nil {
		logger.WarnContext(ctx, "invalidate exposure cache failed",
			slog.String("round_id", roundID),
			slog.String("error", err.Error()),
		)
	}
}

func (h Hooks) notify(ctx context.Context, logger *slog.Logger, event, title, message string) {
	if h.Notifier == nil {
		return
	}
	if err := h.Notifier.Notify(ctx, event, title, message); err != nil {
		logger.WarnContext(ctx, "notify failed",
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
	}
}

func logAudit(ctx context.Context, audit domain.AuditStore, logger *slog.Logger, event string, detail map[string]any) {
	if err := audit.Log(ctx, event, detail); err != nil {
		logger.WarnContext(ctx, "audit log failed",
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
	}
}
