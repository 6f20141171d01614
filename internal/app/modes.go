package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/lottodesk/internal/server"
	"github.com/alanyoungcy/lottodesk/internal/server/handler"
	"github.com/alanyoungcy/lottodesk/internal/server/ws"
	"github.com/alanyoungcy/lottodesk/internal/service"
)

const shutdownTimeout = 10 * time.Second

// ServerMode serves the desk API, and the dashboard WebSocket when a signal
// bus is wired, until ctx is cancelled.
func (a *App) ServerMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting server mode")

	handlers, err := a.buildHandlers(deps)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	var hub *ws.Hub
	if deps.SignalBus != nil {
		hub = ws.NewHub(deps.SignalBus, a.logger, ws.Config{
			Mode:      a.cfg.Mode,
			StartedAt: time.Now().UTC(),
		})
		g.Go(func() error {
			return hub.Run(ctx)
		})
	} else {
		a.logger.InfoContext(ctx, "no signal bus configured, /ws disabled")
	}

	sc := a.cfg.Server
	srv := server.NewServer(server.Config{
		Port:         sc.Port,
		CORSOrigins:  sc.CORSOrigins,
		APIKey:       sc.APIKey,
		RateLimit:    sc.RateLimit,
		RateWindow:   sc.RateWindow.Duration,
		ReadTimeout:  sc.ReadTimeout.Duration,
		WriteTimeout: sc.WriteTimeout.Duration,
	}, handlers, deps.RateLimiter, hub, a.logger)

	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// MigrateMode applies the embedded schema migrations and exits.
func (a *App) MigrateMode(ctx context.Context, deps *Dependencies) error {
	if deps.Postgres == nil {
		return errors.New("app: migrate mode requires the postgres driver")
	}
	a.logger.InfoContext(ctx, "running migrations")
	if err := deps.Postgres.RunMigrations(ctx); err != nil {
		return fmt.Errorf("app: migrate: %w", err)
	}
	a.logger.InfoContext(ctx, "migrations applied")
	return nil
}

// buildHandlers constructs the services over deps and their HTTP handlers.
func (a *App) buildHandlers(deps *Dependencies) (server.Handlers, error) {
	engine, err := engineConfig(a.cfg.Engine)
	if err != nil {
		return server.Handlers{}, fmt.Errorf("app: engine config: %w", err)
	}

	hooks := service.Hooks{
		Bus:      deps.SignalBus,
		Cache:    deps.ExposureCache,
		Notifier: deps.Notifier,
	}
	book := service.NewRateBook(deps.Tx, engine, deps.ExposureCache, a.logger)
	products := service.NewProductService(deps.Tx, a.logger)
	agents := service.NewAgentService(deps.Tx, a.logger)
	rounds := service.NewRoundService(deps.Tx, book, deps.LockManager, hooks, a.logger)
	ledger := service.NewLedgerService(deps.Tx, book, hooks, a.logger)
	exposure := service.NewExposureService(deps.Tx, book, deps.ExposureCache, a.logger)
	layoffs := service.NewLayoffService(deps.Tx, exposure, hooks, a.logger)

	a.logger.Info("services ready",
		slog.String("win_basis", string(book.WinBasis())),
		slog.Bool("locks", deps.LockManager != nil),
		slog.Bool("archive", deps.Archiver != nil),
		slog.Bool("notify", deps.Notifier.Enabled()),
	)

	return server.Handlers{
		Health:   handler.NewHealthHandler(deps.Checks, a.logger),
		Products: handler.NewProductHandler(products, book, a.logger),
		Agents:   handler.NewAgentHandler(agents, a.logger),
		Rounds:   handler.NewRoundHandler(rounds, products, deps.Archiver, a.logger),
		Wagers:   handler.NewWagerHandler(ledger, a.logger),
		Exposure: handler.NewExposureHandler(exposure, a.logger),
		Layoffs:  handler.NewLayoffHandler(layoffs, a.logger),
		Audit:    handler.NewAuditHandler(deps.Tx.Stores().Audit, a.logger),
	}, nil
}
