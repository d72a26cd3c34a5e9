package agent

import (
	"testing"

	"agentic_debate/pkg/core/cost"
	"agentic_debate/pkg/core/health"
)

func sampleConfig() Config {
	return Config{
		JudgeAgentID: "judge",
		Agents: []Descriptor{
			{ID: "fundamentalist", DisplayName: "Fundamentalist", ProviderID: "gemini-pro", Role: "advisor"},
			{ID: "skeptic", DisplayName: "Skeptic", ProviderID: "deepseek-chat", Role: "advisor"},
			{ID: "judge", DisplayName: "Judge", ProviderID: "gemini-pro", Role: "judge"},
		},
		Providers: map[string]ProviderConfig{
			"gemini-pro":    {Kind: "gemini", Model: "gemini-2.0-pro", Tier: health.TierPremium, Price: cost.Price{InputPerMillion: 1.25, OutputPerMillion: 5}},
			"deepseek-chat": {Kind: "deepseek", Model: "deepseek-chat", Tier: health.TierStandard, Price: cost.Price{InputPerMillion: 0.27, OutputPerMillion: 1.1}},
		},
	}
}

func TestNewManagerBuildsPortPerProvider(t *testing.T) {
	mgr, err := NewManager(sampleConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ports := mgr.Ports()
	if len(ports) != 2 {
		t.Fatalf("expected 2 ports, got %d", len(ports))
	}
	if ports["gemini-pro"].ID() != "gemini-pro" {
		t.Fatalf("expected gemini-pro port ID to round-trip, got %q", ports["gemini-pro"].ID())
	}
}

func TestNewManagerBuildsLegacyGeminiPort(t *testing.T) {
	cfg := sampleConfig()
	cfg.Providers["gemini-legacy-advisor"] = ProviderConfig{Kind: "gemini-legacy", Model: "gemini-1.5-pro", Tier: health.TierStandard}
	mgr, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	port, ok := mgr.Ports()["gemini-legacy-advisor"]
	if !ok {
		t.Fatal("expected a port to be built for the gemini-legacy kind")
	}
	if port.ID() != "gemini-legacy-advisor" {
		t.Fatalf("expected legacy gemini port ID to round-trip, got %q", port.ID())
	}
}

func TestNewManagerRejectsUnknownProviderKind(t *testing.T) {
	cfg := sampleConfig()
	cfg.Providers["weird"] = ProviderConfig{Kind: "carrier-pigeon"}
	_, err := NewManager(cfg)
	if err == nil {
		t.Fatal("expected an error for an unknown provider kind")
	}
}

func TestAgentsExcludesJudgeAndPreservesOrder(t *testing.T) {
	mgr, err := NewManager(sampleConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	agents := mgr.Agents()
	if len(agents) != 2 {
		t.Fatalf("expected 2 non-judge agents, got %d", len(agents))
	}
	if agents[0].ID != "fundamentalist" || agents[1].ID != "skeptic" {
		t.Fatalf("expected configuration order preserved, got %+v", agents)
	}
}

func TestJudgeResolvesByConfiguredID(t *testing.T) {
	mgr, err := NewManager(sampleConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	judge, ok := mgr.Judge()
	if !ok || judge.ID != "judge" {
		t.Fatalf("expected judge descriptor to resolve, got %+v (ok=%v)", judge, ok)
	}
}

func TestTiersAndPricesMirrorProviderConfig(t *testing.T) {
	mgr, err := NewManager(sampleConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mgr.Tiers()["gemini-pro"] != health.TierPremium {
		t.Fatalf("expected gemini-pro tier to be TierPremium")
	}
	if mgr.Prices()["deepseek-chat"].InputPerMillion != 0.27 {
		t.Fatalf("expected deepseek-chat price to round-trip")
	}
}
