package hedge

import (
	"context"
	"fmt"
	"testing"
	"time"

	"agentic_debate/pkg/core/events"
	"agentic_debate/pkg/core/health"
	"agentic_debate/pkg/core/provider"
)

type scriptedPort struct {
	id      string
	delay   time.Duration
	fail    bool
	text    string
}

func (p *scriptedPort) ID() string { return p.id }

func (p *scriptedPort) Chat(ctx context.Context, messages []provider.Message, systemPrompt string, opts provider.Options) (provider.Response, error) {
	select {
	case <-time.After(p.delay):
	case <-ctx.Done():
		return provider.Response{}, provider.NewError(provider.ErrCancelled, false, ctx.Err())
	}
	if p.fail {
		return provider.Response{}, provider.NewError(provider.ErrTransport, true, fmt.Errorf("scripted failure for %s", p.id))
	}
	return provider.Response{Text: p.text, Usage: provider.Usage{Total: 10}}, nil
}

func newMonitorWithHealthyBackup(ports map[string]provider.Port) *health.Monitor {
	m := health.NewMonitor(health.DefaultConfig(), events.New(), ports, nil)
	m.Register("primary", health.TierPremium)
	m.Register("backup", health.TierPremium)
	m.UpdateStatus("backup", true, 100*time.Millisecond)
	return m
}

func fastConfig() Config {
	return Config{HedgeDelay: 30 * time.Millisecond, Interactive: false, NonInteractiveDefault: ChoiceSubstitute}
}

func TestExecutePrimarySucceedsBeforeStagger(t *testing.T) {
	ports := map[string]provider.Port{
		"primary": &scriptedPort{id: "primary", text: "fast answer"},
	}
	mgr := NewManager(fastConfig(), ports, nil, nil)
	resp, err := mgr.Execute(context.Background(), nil, "agent-a", "primary", nil, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text != "fast answer" || resp.ProviderID != "primary" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestExecuteHedgesToBackupWhenPrimaryIsSlow(t *testing.T) {
	ports := map[string]provider.Port{
		"primary": &scriptedPort{id: "primary", delay: 500 * time.Millisecond, text: "slow answer"},
		"backup":  &scriptedPort{id: "backup", text: "backup answer"},
	}
	monitor := newMonitorWithHealthyBackup(ports)
	mgr := NewManager(fastConfig(), ports, monitor, nil)

	resp, err := mgr.Execute(context.Background(), events.New(), "agent-a", "primary", nil, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.ProviderID != "backup" || resp.Text != "backup answer" {
		t.Fatalf("expected backup to win the race, got %+v", resp)
	}
}

func TestExecuteTotalFailureNoBackupReturnsProviderError(t *testing.T) {
	ports := map[string]provider.Port{
		"primary": &scriptedPort{id: "primary", fail: true},
	}
	mgr := NewManager(fastConfig(), ports, nil, nil)
	resp, err := mgr.Execute(context.Background(), nil, "agent-a", "primary", nil, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.ProviderError == nil {
		t.Fatal("expected a ProviderError when every provider fails with no backup available")
	}
}

func TestExecuteTotalFailureSubstitutesOnPromptChoice(t *testing.T) {
	ports := map[string]provider.Port{
		"primary": &scriptedPort{id: "primary", fail: true},
		"backup":  &scriptedPort{id: "backup", text: "rescued"},
	}
	monitor := newMonitorWithHealthyBackup(ports)
	cfg := fastConfig()
	cfg.Interactive = true
	prompted := false
	mgr := NewManager(cfg, ports, monitor, func(ctx context.Context, agentID, candidate string) Choice {
		prompted = true
		return ChoiceSubstitute
	})

	resp, err := mgr.Execute(context.Background(), events.New(), "agent-a", "primary", nil, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !prompted {
		t.Fatal("expected failure-recovery prompt to fire")
	}
	if !resp.Substituted || resp.Text != "rescued" {
		t.Fatalf("expected a substituted rescue response, got %+v", resp)
	}
}

func TestExecuteTotalFailureAbortReturnsSentinelError(t *testing.T) {
	ports := map[string]provider.Port{
		"primary": &scriptedPort{id: "primary", fail: true},
		"backup":  &scriptedPort{id: "backup", fail: true},
	}
	monitor := newMonitorWithHealthyBackup(ports)
	monitor.UpdateStatus("backup", false, 0)
	monitor.UpdateStatus("backup", true, 100*time.Millisecond) // re-mark healthy so selectBackup finds it

	cfg := fastConfig()
	mgr := NewManager(cfg, ports, monitor, func(ctx context.Context, agentID, candidate string) Choice {
		return ChoiceAbort
	})

	resp, err := mgr.Execute(context.Background(), events.New(), "agent-a", "primary", nil, "")
	if err != ErrConsultationAborted {
		t.Fatalf("expected ErrConsultationAborted, got %v", err)
	}
	if !resp.UserCancelled {
		t.Fatal("expected UserCancelled to be set on the abort response")
	}
}

func TestExecuteTotalFailureSkipSetsUserSkipped(t *testing.T) {
	ports := map[string]provider.Port{
		"primary": &scriptedPort{id: "primary", fail: true},
		"backup":  &scriptedPort{id: "backup", fail: true},
	}
	monitor := newMonitorWithHealthyBackup(ports)
	monitor.UpdateStatus("backup", false, 0)
	monitor.UpdateStatus("backup", true, 100*time.Millisecond)

	cfg := fastConfig()
	mgr := NewManager(cfg, ports, monitor, func(ctx context.Context, agentID, candidate string) Choice {
		return ChoiceSkip
	})

	resp, err := mgr.Execute(context.Background(), events.New(), "agent-a", "primary", nil, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.UserSkipped {
		t.Fatal("expected UserSkipped to be set when the user chooses to skip")
	}
}
