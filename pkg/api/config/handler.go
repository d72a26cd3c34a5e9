// Package config exposes the resolved agent/provider roster for
// diagnostics (spec.md §6 treats configuration as injected, not mutated
// at runtime). Adapted from the teacher's config handler, dropping the
// provider-switch endpoint: the debate engine's roster is fixed for a
// consultation's lifetime (spec.md §3), so there is nothing left to switch.
package config

import (
	"encoding/json"
	"net/http"

	"agentic_debate/pkg/core/agent"
)

// AgentView is the JSON-facing view of one configured debate agent.
type AgentView struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	ProviderID  string `json:"provider_id"`
	Role        string `json:"role"`
}

// Response lists the resolved roster for the running process.
type Response struct {
	Agents []AgentView `json:"agents"`
	Judge  *AgentView  `json:"judge,omitempty"`
}

// Handler serves the resolved configuration, read-only.
type Handler struct {
	AgentMgr *agent.Manager
}

func NewHandler(agentMgr *agent.Manager) *Handler {
	return &Handler{AgentMgr: agentMgr}
}

func (h *Handler) HandleConfig(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Content-Type", "application/json")

	resp := Response{}
	for _, d := range h.AgentMgr.Agents() {
		resp.Agents = append(resp.Agents, AgentView{
			ID:          d.ID,
			DisplayName: d.DisplayName,
			ProviderID:  d.ProviderID,
			Role:        d.Role,
		})
	}
	if judge, ok := h.AgentMgr.Judge(); ok {
		resp.Judge = &AgentView{
			ID:          judge.ID,
			DisplayName: judge.DisplayName,
			ProviderID:  judge.ProviderID,
			Role:        judge.Role,
		}
	}
	json.NewEncoder(w).Encode(resp)
}
