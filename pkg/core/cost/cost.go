// Package cost implements the Cost Estimator & Gate of spec.md §4.5:
// a pre-flight token/USD estimate and a consent gate that must pass
// before any provider is dispatched. Grounded on the teacher's
// pkg/core/agent.Config price-table loading (model -> per-token cost)
// and on its explicit config-object conventions rather than a dynamic map.
package cost

import (
	"context"
	"fmt"

	"agentic_debate/pkg/core/provider"
)

// Mode mirrors consult.Mode's values without importing the consult
// package (which itself imports cost), so Estimate can size the round
// count to the actual fan-out shape instead of assuming all four rounds.
type Mode string

const (
	ModeConsult Mode = "consult"
	ModeQuick   Mode = "quick"
)

// roundsFor returns the number of dispatch rounds a mode actually runs
// (spec.md §6: quick mode is round 1 only).
func roundsFor(mode Mode) int {
	if mode == ModeQuick {
		return 1
	}
	return 4
}

// Price is the per-million-token cost of one provider, in USD.
type Price struct {
	InputPerMillion  float64 `yaml:"input_per_million" json:"input_per_million"`
	OutputPerMillion float64 `yaml:"output_per_million" json:"output_per_million"`
}

// Table maps providerID -> Price, loaded from the same YAML config as the
// agent/tier table (spec.md §6).
type Table map[string]Price

// Estimate is the pre-flight estimate of spec.md §3's `estimatedCost`.
type Estimate struct {
	Tokens provider.Usage `json:"tokens"`
	USD    float64        `json:"usd"`
}

// Config holds the gate's tunables (spec.md §4.5, §6).
type Config struct {
	ThresholdUSD float64
	// RoundOverheadTokens approximates the extra input tokens each of the
	// later three rounds adds per agent beyond the raw question (shared
	// context, prior-round artifacts). Grounded on the teacher's
	// buildRoundPrompt's progressively larger context assembly.
	RoundOverheadTokens int
	// CharsPerToken is the crude token-count heuristic used when no
	// tokenizer is wired in (spec.md's Non-goals exclude exact tokenizer
	// parity); 4 is the common English-text rule of thumb.
	CharsPerToken int
}

func DefaultConfig() Config {
	return Config{
		ThresholdUSD:        0.50,
		RoundOverheadTokens: 600,
		CharsPerToken:       4,
	}
}

// Decision is the gate's resolved proceed/reject verdict.
type Decision struct {
	Proceed bool
	Reason  string
}

// ConsentFn asks the user whether to proceed given an estimate that
// exceeds the threshold. Non-interactive callers must supply a ConsentFn
// that returns a fixed, explicit answer rather than blocking (spec.md
// §4.5: "must be explicit, never assumed").
type ConsentFn func(ctx context.Context, estimate Estimate) bool

// Estimator produces pre-flight estimates and gates consultation start.
type Estimator struct {
	cfg     Config
	prices  Table
	consent ConsentFn
}

func NewEstimator(cfg Config, prices Table, consent ConsentFn) *Estimator {
	return &Estimator{cfg: cfg, prices: prices, consent: consent}
}

// Estimate computes the pre-flight token/USD estimate for dispatching
// numAgents across the rounds mode actually runs (1 for ModeQuick, 4 for
// ModeConsult) against the given provider ids, sized from the question
// and project-context text (spec.md §3/§4.5).
func (e *Estimator) Estimate(question, projectContext string, agentProviderIDs []string, mode Mode) Estimate {
	baseChars := len(question) + len(projectContext)
	baseTokens := baseChars / max1(e.cfg.CharsPerToken)

	var totalInput, totalOutput int
	rounds := roundsFor(mode)
	const assumedOutputTokensPerCall = 500

	for range agentProviderIDs {
		for round := 1; round <= rounds; round++ {
			input := baseTokens
			if round > 1 {
				input += e.cfg.RoundOverheadTokens * (round - 1)
			}
			totalInput += input
			totalOutput += assumedOutputTokensPerCall
		}
	}

	usd := 0.0
	for _, pid := range agentProviderIDs {
		price, ok := e.prices[pid]
		if !ok {
			continue
		}
		perAgentInput := totalInput / max1(len(agentProviderIDs))
		perAgentOutput := totalOutput / max1(len(agentProviderIDs))
		usd += float64(perAgentInput) / 1_000_000 * price.InputPerMillion
		usd += float64(perAgentOutput) / 1_000_000 * price.OutputPerMillion
	}

	return Estimate{
		Tokens: provider.Usage{Input: totalInput, Output: totalOutput, Total: totalInput + totalOutput},
		USD:    usd,
	}
}

// Gate applies spec.md §4.5's threshold check. When the estimate is at or
// under the threshold, the gate proceeds without consulting the user.
func (e *Estimator) Gate(ctx context.Context, estimate Estimate) Decision {
	if estimate.USD <= e.cfg.ThresholdUSD {
		return Decision{Proceed: true, Reason: "within threshold"}
	}
	if e.consent == nil {
		return Decision{Proceed: false, Reason: "no consent policy configured; defaulting to reject"}
	}
	if e.consent(ctx, estimate) {
		return Decision{Proceed: true, Reason: "user consented"}
	}
	return Decision{Proceed: false, Reason: fmt.Sprintf("estimate $%.4f exceeds threshold $%.4f and consent was withheld", estimate.USD, e.cfg.ThresholdUSD)}
}

func max1(n int) int {
	if n <= 0 {
		return 1
	}
	return n
}
