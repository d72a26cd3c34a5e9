// Package consult implements the Phase Scheduler/State Machine (spec.md
// §4.7), Context Assembler (spec.md §4 "Context Assembler" leaf), and
// Orchestrator Facade (spec.md §4.9) that tie every other component —
// provider, health, hedge, artifact, cost, pulse, events — into one
// `consult(question, projectContext, options)` entry point. Grounded on
// the state/lifecycle shape of pkg/core/debate.DebateOrchestrator and the
// singleton/cleanup shape of pkg/core/debate.DebateManager, generalised
// from a single financial debate to the fixed four-phase protocol.
package consult

import (
	"encoding/json"
	"time"

	"agentic_debate/pkg/core/agent"
	"agentic_debate/pkg/core/artifact"
	"agentic_debate/pkg/core/cost"
	"agentic_debate/pkg/core/hedge"
	"agentic_debate/pkg/core/provider"
)

// Mode selects the fan-out shape (spec.md §6).
type Mode string

const (
	ModeConsult Mode = "consult" // full four-round debate
	ModeQuick   Mode = "quick"   // round 1 only
)

// State is the Phase Scheduler's current position (spec.md §4.7).
type State string

const (
	StateIdle            State = "idle"
	StateEstimating      State = "estimating"
	StateAwaitingRound1  State = "awaiting_round1"
	StateRound1          State = "round1"
	StateRound2          State = "round2"
	StateRound3          State = "round3"
	StateRound4          State = "round4"
	StateComplete        State = "complete"
	StateAborted         State = "aborted"
	StateTimedOut        State = "timed_out"
	StateAllAgentsFailed State = "all_agents_failed"
	StateCostRejected    State = "cost_rejected"
)

// Options is the external options bag of spec.md §6 — an explicit struct,
// not a dynamic map, resolving the "dynamic config object" open question
// (spec.md §9) the same way the teacher's agent.Config/AgentConfig do.
type Options struct {
	Mode        Mode
	Verbose     bool // disables artifact filtering
	MaxRounds   int  // 1 or 4; 0 defaults from Mode
	TimeoutMs   int  // 0 disables the overall deadline
	Interactive bool
	ProjectPath string
	// ConsultationID, when set, is used verbatim instead of a freshly
	// generated id — lets a Registry hand out the id before the
	// consultation finishes running.
	ConsultationID string
	// CostConsent pre-approves (true) or pre-rejects (false) a cost-gated
	// consultation in non-interactive mode. When it is nil, or when
	// Interactive is true, the gate asks the cost.ConsentFn passed to
	// NewEngine instead; the Facade does not reject a nil CostConsent on
	// its own in non-interactive mode.
	CostConsent *bool
}

// Responses mirrors spec.md §3's `responses` field: the four round
// artifacts, with rounds 2-4 optional because a consultation can
// terminate before producing them.
type Responses struct {
	Round1 []artifact.Independent `json:"round1"`
	Round2 *artifact.Synthesis    `json:"round2,omitempty"`
	Round3 *artifact.CrossExam    `json:"round3,omitempty"`
	Round4 *artifact.Verdict      `json:"round4,omitempty"`
}

// CostSummary is spec.md §3's `cost` field.
type CostSummary struct {
	Tokens provider.Usage `json:"tokens"`
	USD    float64        `json:"usd"`
}

// PulseRecord is one agent's pulse-watchdog outcome, folded into
// `pulseMetadata` (spec.md §3, §4.6).
type PulseRecord struct {
	AgentID               string    `json:"agent_id"`
	Triggered             bool      `json:"triggered"`
	Timestamp             time.Time `json:"timestamp"`
	UserCancelledViaPulse bool      `json:"user_cancelled_via_pulse"`
}

// ConsultationResult is spec.md §3's `Consultation result` record.
type ConsultationResult struct {
	ConsultationID string    `json:"consultation_id"`
	Question       string    `json:"question"`
	Mode           Mode      `json:"mode"`
	Timestamp      time.Time `json:"timestamp"`
	DurationMs     int64     `json:"duration_ms"`
	State          State     `json:"state"`

	Responses      Responses `json:"responses"`
	Recommendation string    `json:"recommendation"`
	Confidence     float64   `json:"confidence"`
	Dissent        []string  `json:"dissent"`

	Cost          CostSummary   `json:"cost"`
	EstimatedCost cost.Estimate `json:"estimated_cost"`
	ActualCost    CostSummary   `json:"actual_cost"`

	Agents         []agent.Descriptor  `json:"agents"`
	AgentResponses []hedge.AgentResponse `json:"agent_responses"`

	ProjectContext string        `json:"project_context"`
	PulseMetadata  []PulseRecord `json:"pulse_metadata"`

	// Err carries the terminal error (JudgeFailure, AllAgentsFailed,
	// ConsultationAborted, TimedOut) when State is non-terminal-success.
	// The Facade always returns a well-formed result alongside it
	// (spec.md §7 "preferred" propagation rule). Not serialized directly —
	// json.Marshal can't encode an error interface — the message is
	// surfaced via MarshalJSON below instead.
	Err error `json:"-"`
}

// errorMessage returns r.Err's message, or "" when nil, for the wire
// representation's "error" string field (spec.md §6).
func (r ConsultationResult) errorMessage() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// MarshalJSON adds a plain "error" string alongside ConsultationResult's
// tagged fields, since the Err field (tagged json:"-") holds an error
// interface value that json.Marshal can't encode.
func (r ConsultationResult) MarshalJSON() ([]byte, error) {
	type alias ConsultationResult
	return json.Marshal(struct {
		alias
		Error string `json:"error,omitempty"`
	}{alias: alias(r), Error: r.errorMessage()})
}
