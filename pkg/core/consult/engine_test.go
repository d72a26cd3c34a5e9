package consult

import (
	"context"
	"fmt"
	"testing"
	"time"

	"agentic_debate/pkg/core/agent"
	"agentic_debate/pkg/core/artifact"
	"agentic_debate/pkg/core/cost"
	"agentic_debate/pkg/core/events"
	"agentic_debate/pkg/core/health"
	"agentic_debate/pkg/core/hedge"
	"agentic_debate/pkg/core/provider"
	"agentic_debate/pkg/core/pulse"
)

// scriptedPort returns canned text for every Chat call, used to drive the
// Engine's four rounds without touching a real vendor API.
type scriptedPort struct {
	id   string
	text func(systemPrompt, userPrompt string) string
}

func (p *scriptedPort) ID() string { return p.id }

func (p *scriptedPort) Chat(ctx context.Context, messages []provider.Message, systemPrompt string, opts provider.Options) (provider.Response, error) {
	user := ""
	if len(messages) > 0 {
		user = messages[len(messages)-1].Content
	}
	return provider.Response{Text: p.text(systemPrompt, user), Usage: provider.Usage{Input: 10, Output: 10, Total: 20}}, nil
}

func testAgentManager(t *testing.T) *agent.Manager {
	t.Helper()
	cfg := agent.Config{
		JudgeAgentID: "judge",
		Agents: []agent.Descriptor{
			{ID: "advisor-a", DisplayName: "Advisor A", ProviderID: "provider-a", Role: "advisor"},
			{ID: "advisor-b", DisplayName: "Advisor B", ProviderID: "provider-b", Role: "advisor"},
			{ID: "judge", DisplayName: "Judge", ProviderID: "provider-judge", Role: "judge"},
		},
		Providers: map[string]agent.ProviderConfig{
			"provider-a":     {Kind: "gemini", Tier: health.TierPremium, Price: cost.Price{}},
			"provider-b":     {Kind: "gemini", Tier: health.TierPremium, Price: cost.Price{}},
			"provider-judge": {Kind: "gemini", Tier: health.TierPremium, Price: cost.Price{}},
		},
	}
	mgr, err := agent.NewManager(cfg)
	if err != nil {
		t.Fatalf("unexpected error building agent manager: %v", err)
	}
	return mgr
}

// newTestEngine wires an Engine with scripted fake ports instead of
// real vendor Ports, bypassing agentMgr.Ports() entirely.
func newTestEngine(t *testing.T, ports map[string]provider.Port) *Engine {
	t.Helper()
	agentMgr := testAgentManager(t)
	bus := events.New()
	monitor := health.NewMonitor(health.DefaultConfig(), bus, ports, nil)
	for id, tier := range agentMgr.Tiers() {
		monitor.Register(id, tier)
	}

	hedgeCfg := hedge.DefaultConfig()
	hedgeCfg.HedgeDelay = time.Hour // never hedge in these tests

	pulseCfg := pulse.DefaultConfig()
	pulseCfg.Threshold = time.Hour // never trigger in these tests

	costCfg := cost.DefaultConfig()

	consentTrue := func(ctx context.Context, e cost.Estimate) bool { return true }

	return &Engine{
		agentMgr:  agentMgr,
		cfg:       EngineConfig{Health: health.DefaultConfig(), Hedge: hedgeCfg, Cost: costCfg, Pulse: pulseCfg, Filter: artifact.DefaultFilterCaps()},
		health:    monitor,
		hedgeMgr:  hedge.NewManager(hedgeCfg, ports, monitor, nil),
		costEst:   cost.NewEstimator(costCfg, agentMgr.Prices(), consentTrue),
		extractor: artifact.NewExtractor(),
		healthBus: bus,
		buses:     make(map[string]*events.Bus),
	}
}

func independentJSON(position string) string {
	return fmt.Sprintf(`{"position": %q, "key_points": ["p1"], "rationale": "because", "confidence": 0.8}`, position)
}

func fullDebatePorts() map[string]provider.Port {
	return map[string]provider.Port{
		"provider-a": &scriptedPort{id: "provider-a", text: func(sys, user string) string {
			return independentJSON("Ship it")
		}},
		"provider-b": &scriptedPort{id: "provider-b", text: func(sys, user string) string {
			return independentJSON("Wait a release cycle")
		}},
		"provider-judge": &scriptedPort{id: "provider-judge", text: func(sys, user string) string {
			switch {
			case stringsContains(sys, "synthesis") || stringsContains(user, "INDEPENDENT POSITIONS"):
				return `{"consensus_points": [{"point": "both want it shipped eventually", "supporting_agents": ["advisor-a","advisor-b"], "confidence": 0.7}], "tensions": [{"topic": "timing"}], "priority_order": ["timing"]}`
			case stringsContains(user, "AGENT CONTRIBUTIONS"):
				return `{"challenges": [], "rebuttals": [], "unresolved": ["timing"]}`
			default:
				return `{"recommendation": "Ship behind a flag", "confidence": 0.75, "evidence": ["consensus on direction"], "dissent": ["advisor-b wants to wait"]}`
			}
		}},
	}
}

func stringsContains(haystack, needle string) bool {
	return len(needle) > 0 && (len(haystack) >= len(needle)) && (indexOf(haystack, needle) >= 0)
}

func indexOf(haystack, needle string) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return i
		}
	}
	return -1
}

func TestConsultQuickModeReturnsOnlyRound1(t *testing.T) {
	engine := newTestEngine(t, fullDebatePorts())
	result, err := engine.Consult(context.Background(), "Should we ship it?", "", Options{Mode: ModeQuick})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.State != StateComplete {
		t.Fatalf("expected StateComplete, got %v (err=%v)", result.State, result.Err)
	}
	if len(result.Responses.Round1) != 2 {
		t.Fatalf("expected 2 independent artifacts, got %d", len(result.Responses.Round1))
	}
	if result.Responses.Round2 != nil {
		t.Fatal("quick mode must not run round 2")
	}
}

func TestConsultFullModeRunsAllFourRounds(t *testing.T) {
	engine := newTestEngine(t, fullDebatePorts())
	result, err := engine.Consult(context.Background(), "Should we ship it?", "project context here", Options{Mode: ModeConsult})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.State != StateComplete {
		t.Fatalf("expected StateComplete, got %v (err=%v)", result.State, result.Err)
	}
	if result.Responses.Round2 == nil || result.Responses.Round3 == nil || result.Responses.Round4 == nil {
		t.Fatalf("expected all four rounds populated, got %+v", result.Responses)
	}
	if result.Recommendation != "Ship behind a flag" {
		t.Fatalf("unexpected recommendation: %q", result.Recommendation)
	}
	if len(result.Dissent) != 1 {
		t.Fatalf("expected dissent carried through from the verdict artifact, got %v", result.Dissent)
	}
}

func TestConsultAllAgentsFailedShortCircuits(t *testing.T) {
	ports := map[string]provider.Port{
		"provider-a": &scriptedPort{id: "provider-a", text: func(sys, user string) string { return "not json at all" }},
		"provider-b": &scriptedPort{id: "provider-b", text: func(sys, user string) string { return "also not json" }},
		"provider-judge": &scriptedPort{id: "provider-judge", text: func(sys, user string) string { return "" }},
	}
	engine := newTestEngine(t, ports)
	result, err := engine.Consult(context.Background(), "question", "", Options{Mode: ModeConsult})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.State != StateAllAgentsFailed {
		t.Fatalf("expected StateAllAgentsFailed, got %v", result.State)
	}
}

func TestConsultRejectsWhenCostGateDeclines(t *testing.T) {
	engine := newTestEngine(t, fullDebatePorts())
	reject := false
	engine.costEst = cost.NewEstimator(cost.Config{ThresholdUSD: -1}, engine.agentMgr.Prices(), func(ctx context.Context, e cost.Estimate) bool { return reject })

	result, err := engine.Consult(context.Background(), "question", "", Options{Mode: ModeConsult})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.State != StateCostRejected {
		t.Fatalf("expected StateCostRejected, got %v", result.State)
	}
}

func TestConsultUsesProvidedConsultationID(t *testing.T) {
	engine := newTestEngine(t, fullDebatePorts())
	result, err := engine.Consult(context.Background(), "q", "", Options{Mode: ModeQuick, ConsultationID: "fixed-id-123"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ConsultationID != "fixed-id-123" {
		t.Fatalf("expected pre-assigned consultation id to be honoured, got %q", result.ConsultationID)
	}
}
