// Package hedge implements the Hedged Request Manager of spec.md §4.3:
// one logical inference call raced against a tier-selected backup after a
// staggered delay, with interactive user recovery on total failure.
// Grounded on the context.WithTimeout-per-turn pattern in
// pkg/core/debate/orchestrator.go's executeAgentTurn, generalised from a
// single timeout into a primary/backup race.
package hedge

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"agentic_debate/pkg/core/events"
	"agentic_debate/pkg/core/health"
	"agentic_debate/pkg/core/provider"
)

// Choice is the user's answer when a hedged call fails completely.
type Choice string

const (
	ChoiceSubstitute Choice = "substitute"
	ChoiceSkip       Choice = "skip"
	ChoiceAbort      Choice = "abort"
)

// PromptFn asks the user how to proceed after total failure, given the
// candidate substitute provider id. Non-interactive callers should supply
// a PromptFn that always returns ChoiceSubstitute without blocking.
type PromptFn func(ctx context.Context, agentID, candidateProviderID string) Choice

// ErrConsultationAborted is returned by Execute when the user chooses to
// abort at the failure-recovery prompt (spec.md §7).
var ErrConsultationAborted = fmt.Errorf("hedge: consultation aborted by user")

// AgentResponse is one agent's outcome for a single round dispatch.
type AgentResponse struct {
	AgentID       string         `json:"agent_id"`
	ProviderID    string         `json:"provider_id"` // the provider that actually produced Text, if any
	Text          string         `json:"text"`
	Usage         provider.Usage `json:"usage"`
	Substituted   bool           `json:"substituted"`
	ProviderError *provider.Error `json:"provider_error,omitempty"`
	UserSkipped   bool           `json:"user_skipped"`
	UserCancelled bool           `json:"user_cancelled"`
	Latency       time.Duration  `json:"-"`
}

// MarshalJSON reports Latency in whole milliseconds (spec.md §4.2's
// latencyMs), since time.Duration's default encoding is nanoseconds.
func (r AgentResponse) MarshalJSON() ([]byte, error) {
	type alias AgentResponse
	return json.Marshal(struct {
		alias
		LatencyMs int64 `json:"latency_ms"`
	}{alias: alias(r), LatencyMs: r.Latency.Milliseconds()})
}

func empty(agentID string, err *provider.Error) AgentResponse {
	return AgentResponse{AgentID: agentID, ProviderError: err}
}

// Config holds the hedge-manager tunables from spec.md §6.
type Config struct {
	HedgeDelay  time.Duration
	Interactive bool
	// NonInteractiveDefault is the answer NewManager uses when it is given
	// a nil PromptFn; must be explicit (spec.md §9). Manager does not read
	// Interactive: a non-nil PromptFn is always called.
	NonInteractiveDefault Choice
}

func DefaultConfig() Config {
	return Config{
		HedgeDelay:             10 * time.Second,
		Interactive:            false,
		NonInteractiveDefault:  ChoiceSubstitute,
	}
}

// Manager executes single logical calls against a registry of providers.
// It is shared across every concurrent consultation the owning Engine
// runs, so it never holds an events.Bus itself — Execute takes the
// caller's consultation-scoped bus explicitly, keeping substitution
// events out of any other consultation's stream.
type Manager struct {
	cfg     Config
	ports   map[string]provider.Port
	monitor *health.Monitor
	prompt  PromptFn
}

func NewManager(cfg Config, ports map[string]provider.Port, monitor *health.Monitor, prompt PromptFn) *Manager {
	if prompt == nil {
		prompt = func(ctx context.Context, agentID, candidate string) Choice { return cfg.NonInteractiveDefault }
	}
	return &Manager{cfg: cfg, ports: ports, monitor: monitor, prompt: prompt}
}

type outcome struct {
	providerID string
	resp       provider.Response
	err        error
	latency    time.Duration
}

// call runs one Chat against providerID, returning its outcome on a
// buffered channel so the caller never blocks sending.
func (m *Manager) call(ctx context.Context, providerID string, messages []provider.Message, systemPrompt string) <-chan outcome {
	ch := make(chan outcome, 1)
	port := m.ports[providerID]
	go func() {
		start := time.Now()
		if port == nil {
			ch <- outcome{providerID: providerID, err: provider.NewError(provider.ErrTransport, false, fmt.Errorf("no port registered for %q", providerID)), latency: time.Since(start)}
			return
		}
		cancelCh := make(chan struct{})
		go func() {
			<-ctx.Done()
			close(cancelCh)
		}()
		resp, err := port.Chat(ctx, messages, systemPrompt, provider.Options{CancelToken: cancelCh})
		ch <- outcome{providerID: providerID, resp: resp, err: err, latency: time.Since(start)}
	}()
	return ch
}

// Execute runs the hedged algorithm of spec.md §4.3 for one agent against
// its primary provider, emitting substitution events on bus (the
// caller's consultation-scoped bus; may be nil).
func (m *Manager) Execute(ctx context.Context, bus *events.Bus, agentID, primaryProviderID string, messages []provider.Message, systemPrompt string) (AgentResponse, error) {
	primaryCtx, cancelPrimary := context.WithCancel(ctx)
	defer cancelPrimary()

	primaryCh := m.call(primaryCtx, primaryProviderID, messages, systemPrompt)
	timer := time.NewTimer(m.cfg.HedgeDelay)
	defer timer.Stop()

	select {
	case o := <-primaryCh:
		// Primary settled before the stagger delay: no backup is launched.
		// A success (or a failure caused by the caller's own cancellation)
		// is used as-is; any other failure goes to the total-failure path.
		if o.err == nil || ctx.Err() != nil {
			return m.finalize(ctx, agentID, o)
		}
		if m.monitor != nil {
			m.monitor.UpdateStatus(o.providerID, false, o.latency)
		}
		return m.recoverFromTotalFailure(ctx, bus, agentID, primaryProviderID, messages, systemPrompt)

	case <-timer.C:
		// Stagger elapsed: try to hedge with a healthy backup.
	}

	backupID, ok := m.selectBackup(primaryProviderID)
	if !ok {
		// No healthy backup: keep waiting on the primary.
		o := <-primaryCh
		return m.finalize(ctx, agentID, o)
	}

	emit(bus, events.Topic("consultation:provider_substituted"), events.Payload{
		"agentId":            agentID,
		"originalProvider":   primaryProviderID,
		"substituteProvider": backupID,
		"reason":             "timeout",
	})

	backupCtx, cancelBackup := context.WithCancel(ctx)
	defer cancelBackup()
	backupCh := m.call(backupCtx, backupID, messages, systemPrompt)

	first, second, cancelFirstLoser, cancelSecondLoser := raceTwo(primaryCh, backupCh, cancelPrimary, cancelBackup)
	if first.err == nil {
		cancelFirstLoser()
		return m.finalize(ctx, agentID, first)
	}
	// First settle was a failure: await the other.
	_ = cancelSecondLoser // no-op: the other is still running, nothing to cancel yet
	o2 := <-second
	if o2.err == nil {
		return m.finalize(ctx, agentID, o2)
	}

	// Total failure path (spec.md §4.3 step 7).
	return m.recoverFromTotalFailure(ctx, bus, agentID, primaryProviderID, messages, systemPrompt)
}

// raceTwo returns whichever of a/b settles first as "first" and the other
// channel (still pending or already settled) as "second", along with
// cancel funcs so the caller can release the loser within 100ms of
// deciding (spec.md §4.3).
func raceTwo(a, b <-chan outcome, cancelA, cancelB context.CancelFunc) (first outcome, second <-chan outcome, cancelFirstLoser, cancelSecondLoser context.CancelFunc) {
	select {
	case oa := <-a:
		return oa, b, cancelB, cancelA
	case ob := <-b:
		return ob, a, cancelA, cancelB
	}
}

func (m *Manager) finalize(ctx context.Context, agentID string, o outcome) (AgentResponse, error) {
	if o.err != nil {
		perr := toProviderError(o.err)
		if m.monitor != nil {
			m.monitor.UpdateStatus(o.providerID, false, o.latency)
		}
		return empty(agentID, perr), nil
	}
	if m.monitor != nil {
		m.monitor.UpdateStatus(o.providerID, true, o.latency)
	}
	return AgentResponse{
		AgentID:    agentID,
		ProviderID: o.providerID,
		Text:       o.resp.Text,
		Usage:      o.resp.Usage,
		Latency:    o.latency,
	}, nil
}

func (m *Manager) recoverFromTotalFailure(ctx context.Context, bus *events.Bus, agentID, primaryProviderID string, messages []provider.Message, systemPrompt string) (AgentResponse, error) {
	candidate, ok := m.selectBackup(primaryProviderID)
	if !ok {
		return empty(agentID, provider.NewError(provider.ErrTransport, false, fmt.Errorf("all providers failed for agent %s", agentID))), nil
	}

	choice := m.prompt(ctx, agentID, candidate)
	switch choice {
	case ChoiceAbort:
		r := empty(agentID, provider.NewError(provider.ErrCancelled, false, fmt.Errorf("agent %s aborted by user", agentID)))
		r.UserCancelled = true
		return r, ErrConsultationAborted
	case ChoiceSkip:
		r := empty(agentID, provider.NewError(provider.ErrTransport, false, fmt.Errorf("agent %s skipped by user", agentID)))
		r.UserSkipped = true
		return r, nil
	default: // ChoiceSubstitute
		emit(bus, events.Topic("consultation:provider_substituted"), events.Payload{
			"agentId":            agentID,
			"originalProvider":   primaryProviderID,
			"substituteProvider": candidate,
			"reason":             "failure",
		})
		subCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		o := <-m.call(subCtx, candidate, messages, systemPrompt)
		resp, err := m.finalize(ctx, agentID, o)
		if err == nil && resp.ProviderError == nil {
			resp.Substituted = true
		}
		return resp, err
	}
}

func (m *Manager) selectBackup(primaryProviderID string) (string, bool) {
	if m.monitor == nil {
		return "", false
	}
	return m.monitor.SelectBackup(primaryProviderID)
}

func emit(bus *events.Bus, topic events.Topic, payload events.Payload) {
	if bus != nil {
		bus.Emit(topic, payload)
	}
}

func toProviderError(err error) *provider.Error {
	if perr, ok := err.(*provider.Error); ok {
		return perr
	}
	return provider.NewError(provider.ErrTransport, true, err)
}
