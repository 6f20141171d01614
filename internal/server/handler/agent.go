package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/lottodesk/internal/domain"
)

// AgentService is what the agent handler needs from the agent registry.
type AgentService interface {
	Create(ctx context.Context, code, name string) (domain.Agent, error)
	Get(ctx context.Context, id string) (domain.Agent, error)
	List(ctx context.Context, includeInactive bool) ([]domain.Agent, error)
	SetDiscount(ctx context.Context, agentID, productID string, pct decimal.Decimal) (domain.Agent, error)
	SetPayRate(ctx context.Context, agentID, productID string, kind domain.BetKind, rate *decimal.Decimal) (domain.Agent, error)
	SetPresets(ctx context.Context, agentID string, presets []domain.DiscountPreset) (domain.Agent, error)
	ApplyPreset(ctx context.Context, agentID, productID, name string) (domain.Agent, error)
	Deactivate(ctx context.Context, agentID string) (bool, error)
}

// AgentHandler serves agent registration and per-agent terms. Each update
// shape has its own route and request type.
type AgentHandler struct {
	agents AgentService
	logger *slog.Logger
}

// NewAgentHandler creates an AgentHandler.
func NewAgentHandler(agents AgentService, logger *slog.Logger) *AgentHandler {
	return &AgentHandler{agents: agents, logger: logger}
}

type createAgentRequest struct {
	Code string `json:"code" validate:"required,max=32"`
	Name string `json:"name" validate:"required,max=128"`
}

type discountRequest struct {
	ProductID string           `json:"product_id" validate:"required"`
	Pct       *decimal.Decimal `json:"pct" validate:"required"`
}

// agentPayRateRequest clears the override when Rate is null.
type agentPayRateRequest struct {
	ProductID string           `json:"product_id" validate:"required"`
	BetKind   string           `json:"bet_kind" validate:"required"`
	Rate      *decimal.Decimal `json:"rate"`
}

type presetsRequest struct {
	Presets []presetItem `json:"presets" validate:"dive"`
}

type presetItem struct {
	Name string           `json:"name" validate:"required"`
	Pct  *decimal.Decimal `json:"pct" validate:"required"`
}

type applyPresetRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Name      string `json:"name" validate:"required"`
}

// ListAgents returns active agents, or all with ?include_inactive=true.
// GET /api/agents
func (h *AgentHandler) ListAgents(w http.ResponseWriter, r *http.Request) {
	all := r.URL.Query().Get("include_inactive") == "true"
	agents, err := h.agents.List(r.Context(), all)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"agents": orEmpty(agents)})
}

// CreateAgent registers an agent.
// POST /api/agents
func (h *AgentHandler) CreateAgent(w http.ResponseWriter, r *http.Request) {
	var req createAgentRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	a, err := h.agents.Create(r.Context(), req.Code, req.Name)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// GetAgent returns one agent.
// GET /api/agents/{id}
func (h *AgentHandler) GetAgent(w http.ResponseWriter, r *http.Request) {
	a, err := h.agents.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// SetDiscount sets the agent's discount for a product.
// PUT /api/agents/{id}/discounts
func (h *AgentHandler) SetDiscount(w http.ResponseWriter, r *http.Request) {
	var req discountRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	a, err := h.agents.SetDiscount(r.Context(), r.PathValue("id"), req.ProductID, *req.Pct)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// SetPayRate sets or clears the agent's custom pay rate.
// PUT /api/agents/{id}/pay-rates
func (h *AgentHandler) SetPayRate(w http.ResponseWriter, r *http.Request) {
	var req agentPayRateRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	a, err := h.agents.SetPayRate(r.Context(), r.PathValue("id"), req.ProductID, domain.BetKind(req.BetKind), req.Rate)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// SetPresets replaces the agent's discount presets.
// PUT /api/agents/{id}/presets
func (h *AgentHandler) SetPresets(w http.ResponseWriter, r *http.Request) {
	var req presetsRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	presets := make([]domain.DiscountPreset, len(req.Presets))
	for i, p := range req.Presets {
		presets[i] = domain.DiscountPreset{Name: p.Name, Pct: *p.Pct}
	}
	a, err := h.agents.SetPresets(r.Context(), r.PathValue("id"), presets)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// ApplyPreset copies a preset's percentage into a product discount.
// POST /api/agents/{id}/presets/apply
func (h *AgentHandler) ApplyPreset(w http.ResponseWriter, r *http.Request) {
	var req applyPresetRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	a, err := h.agents.ApplyPreset(r.Context(), r.PathValue("id"), req.ProductID, req.Name)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// DeactivateAgent deletes an agent without wagers, soft-deletes otherwise.
// DELETE /api/agents/{id}
func (h *AgentHandler) DeactivateAgent(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.agents.Deactivate(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": deleted})
}
