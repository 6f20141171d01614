package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/lottodesk/internal/domain"
	"github.com/alanyoungcy/lottodesk/internal/server/handler"
	"github.com/alanyoungcy/lottodesk/internal/server/middleware"
	"github.com/alanyoungcy/lottodesk/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port         int
	CORSOrigins  []string
	APIKey       string // if empty, authentication is disabled
	RateLimit    int    // requests per RateWindow per IP; 0 disables limiting
	RateWindow   time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Handlers aggregates all HTTP handlers that the server needs to register.
type Handlers struct {
	Health   *handler.HealthHandler
	Products *handler.ProductHandler
	Agents   *handler.AgentHandler
	Rounds   *handler.RoundHandler
	Wagers   *handler.WagerHandler
	Exposure *handler.ExposureHandler
	Layoffs  *handler.LayoffHandler
	Audit    *handler.AuditHandler
}

// Server is the desk's HTTP + WebSocket API server.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer registers every route and wraps the mux in the middleware
// chain. limiter and wsHub may be nil.
func NewServer(cfg Config, handlers Handlers, limiter domain.RateLimiter, wsHub *ws.Hub, logger *slog.Logger) *Server {
	mux := Routes(handlers, wsHub)

	var h http.Handler = mux
	h = middleware.Auth(cfg.APIKey, "/api/health")(h)
	h = middleware.Logging(logger)(h)
	h = middleware.WithOperator(h)
	if limiter != nil && cfg.RateLimit > 0 {
		h = middleware.RateLimit(limiter, cfg.RateLimit, cfg.RateWindow, logger)(h)
	}
	h = middleware.CORS(cfg.CORSOrigins)(h)

	readTimeout, writeTimeout := cfg.ReadTimeout, cfg.WriteTimeout
	if readTimeout <= 0 {
		readTimeout = 15 * time.Second
	}
	if writeTimeout <= 0 {
		writeTimeout = 30 * time.Second
	}

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      h,
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}
}

// Routes builds the bare mux without middleware.
func Routes(handlers Handlers, wsHub *ws.Hub) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	// Catalogue.
	mux.HandleFunc("GET /api/products", handlers.Products.ListProducts)
	mux.HandleFunc("POST /api/products", handlers.Products.CreateProduct)
	mux.HandleFunc("GET /api/products/{id}", handlers.Products.GetProduct)
	mux.HandleFunc("GET /api/products/{id}/pay-rates", handlers.Products.ListPayRates)
	mux.HandleFunc("PUT /api/products/{id}/pay-rates", handlers.Products.SetPayRate)
	mux.HandleFunc("GET /api/products/{id}/limits", handlers.Products.ListLimits)
	mux.HandleFunc("PUT /api/products/{id}/limits", handlers.Products.SetLimit)

	// Agents.
	mux.HandleFunc("GET /api/agents", handlers.Agents.ListAgents)
	mux.HandleFunc("POST /api/agents", handlers.Agents.CreateAgent)
	mux.HandleFunc("GET /api/agents/{id}", handlers.Agents.GetAgent)
	mux.HandleFunc("DELETE /api/agents/{id}", handlers.Agents.DeactivateAgent)
	mux.HandleFunc("PUT /api/agents/{id}/discounts", handlers.Agents.SetDiscount)
	mux.HandleFunc("PUT /api/agents/{id}/pay-rates", handlers.Agents.SetPayRate)
	mux.HandleFunc("PUT /api/agents/{id}/presets", handlers.Agents.SetPresets)
	mux.HandleFunc("POST /api/agents/{id}/presets/apply", handlers.Agents.ApplyPreset)

	// Rounds.
	mux.HandleFunc("GET /api/rounds", handlers.Rounds.ListRounds)
	mux.HandleFunc("POST /api/rounds", handlers.Rounds.CreateRound)
	mux.HandleFunc("GET /api/rounds/{id}", handlers.Rounds.GetRound)
	mux.HandleFunc("POST /api/rounds/{id}/close", handlers.Rounds.CloseRound)
	mux.HandleFunc("POST /api/rounds/{id}/result", handlers.Rounds.SubmitResult)
	mux.HandleFunc("POST /api/rounds/{id}/recompute", handlers.Rounds.RecomputeRound)
	mux.HandleFunc("POST /api/rounds/{id}/archive", handlers.Rounds.ArchiveRound)
	mux.HandleFunc("GET /api/rounds/{id}/archive", handlers.Rounds.ListArchive)

	// Ledger.
	mux.HandleFunc("GET /api/rounds/{id}/wagers", handlers.Wagers.ListWagers)
	mux.HandleFunc("POST /api/rounds/{id}/wagers", handlers.Wagers.PlaceWagers)
	mux.HandleFunc("GET /api/wagers/{id}", handlers.Wagers.GetWager)
	mux.HandleFunc("PATCH /api/wagers/{id}", handlers.Wagers.EditWager)
	mux.HandleFunc("POST /api/wagers/{id}/cancel", handlers.Wagers.CancelWager)
	mux.HandleFunc("GET /api/wagers/{id}/audit", handlers.Wagers.WagerAudit)

	// Risk.
	mux.HandleFunc("GET /api/exposure", handlers.Exposure.GetExposure)
	mux.HandleFunc("GET /api/rounds/{id}/layoffs", handlers.Layoffs.ListLayoffs)
	mux.HandleFunc("POST /api/rounds/{id}/layoffs", handlers.Layoffs.RecordLayoff)
	mux.HandleFunc("POST /api/layoffs/{id}/sent", handlers.Layoffs.MarkSent)

	mux.HandleFunc("GET /api/audit", handlers.Audit.ListAudit)

	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}
	return mux
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
