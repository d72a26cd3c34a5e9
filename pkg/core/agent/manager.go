// Package agent resolves the static configuration of spec.md §3's "agent
// descriptor" and "tier map"/"price table": which providers exist, which
// provider backs each debate agent, and what each provider costs. Grounded
// on the teacher's own agent.Manager/agent.Config (YAML-driven provider
// selection), generalised from a single "active provider" switch to a
// fixed per-agent roster plus tier/price metadata the Health Monitor and
// Cost Estimator both depend on.
package agent

import (
	"fmt"

	"agentic_debate/pkg/core/cost"
	"agentic_debate/pkg/core/health"
	"agentic_debate/pkg/core/llm"
	"agentic_debate/pkg/core/provider"
)

// Descriptor is the agent descriptor of spec.md §3.
type Descriptor struct {
	ID          string `yaml:"id" json:"id"`
	DisplayName string `yaml:"display_name" json:"display_name"`
	ProviderID  string `yaml:"provider_id" json:"provider_id"`
	Role        string `yaml:"role" json:"role"` // "advisor" or "judge"
}

// ProviderConfig describes one registered provider: which adapter kind
// backs it, its tier for backup selection, and its price table entry.
type ProviderConfig struct {
	Kind  string     `yaml:"kind"` // "gemini", "deepseek", "qwen"
	Model string     `yaml:"model"`
	Tier  health.Tier `yaml:"tier"`
	Price cost.Price `yaml:"price"`
}

// Config is the top-level YAML document (config/models.yaml).
type Config struct {
	JudgeAgentID string                    `yaml:"judge_agent_id"`
	Agents       []Descriptor              `yaml:"agents"`
	Providers    map[string]ProviderConfig `yaml:"providers"`
}

// Manager resolves descriptors, tiers, prices, and live Port instances
// from a loaded Config. It is read-only for the lifetime of a consultation
// (spec.md §3: "Stable for the duration of a consultation").
type Manager struct {
	cfg   Config
	ports map[string]provider.Port
}

// NewManager builds live Port adapters for every configured provider.
// An unknown adapter kind is a configuration error, not a panic.
func NewManager(cfg Config) (*Manager, error) {
	ports := make(map[string]provider.Port, len(cfg.Providers))
	for id, pc := range cfg.Providers {
		port, err := buildPort(id, pc)
		if err != nil {
			return nil, err
		}
		ports[id] = port
	}
	return &Manager{cfg: cfg, ports: ports}, nil
}

func buildPort(providerID string, pc ProviderConfig) (provider.Port, error) {
	switch pc.Kind {
	case "gemini":
		return &llm.GeminiProvider{ProviderID: providerID, Model: pc.Model}, nil
	case "gemini-legacy":
		return &llm.GeminiLegacyProvider{ProviderID: providerID, Model: pc.Model}, nil
	case "deepseek":
		return &llm.DeepSeekProvider{ProviderID: providerID, Model: pc.Model}, nil
	case "qwen":
		return &llm.QwenProvider{ProviderID: providerID, Model: pc.Model}, nil
	default:
		return nil, fmt.Errorf("agent: unknown provider kind %q for provider %q", pc.Kind, providerID)
	}
}

// Agents returns the configured debate agents in configuration order
// (spec.md §4.7: "Ordering of results in round1 matches the agent
// configuration order").
func (m *Manager) Agents() []Descriptor {
	out := make([]Descriptor, 0, len(m.cfg.Agents))
	for _, d := range m.cfg.Agents {
		if d.Role != "judge" {
			out = append(out, d)
		}
	}
	return out
}

// Judge returns the single judge-role descriptor used for rounds 2-4.
func (m *Manager) Judge() (Descriptor, bool) {
	for _, d := range m.cfg.Agents {
		if d.ID == m.cfg.JudgeAgentID {
			return d, true
		}
	}
	return Descriptor{}, false
}

// Ports returns the full providerID -> Port map, for wiring into the
// Health Monitor and Hedged Request Manager.
func (m *Manager) Ports() map[string]provider.Port {
	return m.ports
}

// Tiers returns providerID -> tier, for Health Monitor registration.
func (m *Manager) Tiers() map[string]health.Tier {
	out := make(map[string]health.Tier, len(m.cfg.Providers))
	for id, pc := range m.cfg.Providers {
		out[id] = pc.Tier
	}
	return out
}

// Prices returns the cost.Table for the Cost Estimator.
func (m *Manager) Prices() cost.Table {
	out := make(cost.Table, len(m.cfg.Providers))
	for id, pc := range m.cfg.Providers {
		out[id] = pc.Price
	}
	return out
}
