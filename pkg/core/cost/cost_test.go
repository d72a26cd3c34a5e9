package cost

import (
	"context"
	"testing"
)

func TestGateProceedsBelowThresholdWithoutConsent(t *testing.T) {
	e := NewEstimator(DefaultConfig(), nil, nil)
	decision := e.Gate(context.Background(), Estimate{USD: 0.01})
	if !decision.Proceed {
		t.Fatalf("expected auto-proceed under threshold, got %+v", decision)
	}
}

func TestGateRejectsAboveThresholdWithNoConsentPolicy(t *testing.T) {
	e := NewEstimator(DefaultConfig(), nil, nil)
	decision := e.Gate(context.Background(), Estimate{USD: 5.00})
	if decision.Proceed {
		t.Fatal("expected reject when over threshold and no consent policy is configured")
	}
}

func TestGateHonoursConsentFnAboveThreshold(t *testing.T) {
	cfg := DefaultConfig()
	accepted := NewEstimator(cfg, nil, func(ctx context.Context, e Estimate) bool { return true })
	rejected := NewEstimator(cfg, nil, func(ctx context.Context, e Estimate) bool { return false })

	if d := accepted.Gate(context.Background(), Estimate{USD: 5.00}); !d.Proceed {
		t.Fatalf("expected proceed when consent accepts, got %+v", d)
	}
	if d := rejected.Gate(context.Background(), Estimate{USD: 5.00}); d.Proceed {
		t.Fatalf("expected reject when consent declines, got %+v", d)
	}
}

func TestEstimateScalesWithAgentCountAndContextLength(t *testing.T) {
	e := NewEstimator(DefaultConfig(), Table{"p1": {InputPerMillion: 1, OutputPerMillion: 2}}, nil)

	one := e.Estimate("short question", "", []string{"p1"}, ModeConsult)
	two := e.Estimate("short question", "", []string{"p1", "p1"}, ModeConsult)

	if two.Tokens.Total <= one.Tokens.Total {
		t.Fatalf("expected token estimate to grow with agent count: one=%+v two=%+v", one, two)
	}

	longer := e.Estimate("short question", "a very long project context repeated many times over", []string{"p1"}, ModeConsult)
	if longer.Tokens.Total <= one.Tokens.Total {
		t.Fatalf("expected token estimate to grow with project context length")
	}
}

func TestEstimateIgnoresProvidersMissingFromPriceTable(t *testing.T) {
	e := NewEstimator(DefaultConfig(), Table{}, nil)
	est := e.Estimate("question", "", []string{"unknown-provider"}, ModeConsult)
	if est.USD != 0 {
		t.Fatalf("expected zero USD for a provider absent from the price table, got %v", est.USD)
	}
}

func TestEstimateQuickModeIsCheaperThanConsultMode(t *testing.T) {
	e := NewEstimator(DefaultConfig(), Table{"p1": {InputPerMillion: 1, OutputPerMillion: 2}}, nil)

	quick := e.Estimate("short question", "", []string{"p1"}, ModeQuick)
	consult := e.Estimate("short question", "", []string{"p1"}, ModeConsult)

	if quick.Tokens.Total >= consult.Tokens.Total {
		t.Fatalf("expected quick-mode (1 round) estimate to be smaller than consult-mode (4 rounds): quick=%+v consult=%+v", quick, consult)
	}
	if quick.USD >= consult.USD {
		t.Fatalf("expected quick-mode USD estimate to be smaller than consult-mode, got quick=%v consult=%v", quick.USD, consult.USD)
	}
}
