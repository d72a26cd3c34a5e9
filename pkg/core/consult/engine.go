package consult

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"agentic_debate/pkg/core/agent"
	"agentic_debate/pkg/core/artifact"
	"agentic_debate/pkg/core/cost"
	"agentic_debate/pkg/core/events"
	"agentic_debate/pkg/core/health"
	"agentic_debate/pkg/core/hedge"
	"agentic_debate/pkg/core/provider"
	"agentic_debate/pkg/core/pulse"
)

// EngineConfig bundles the tunables of every leaf component (spec.md §6).
type EngineConfig struct {
	Health health.Config
	Hedge  hedge.Config
	Cost   cost.Config
	Pulse  pulse.Config
	Filter artifact.FilterCaps
}

func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Health: health.DefaultConfig(),
		Hedge:  hedge.DefaultConfig(),
		Cost:   cost.DefaultConfig(),
		Pulse:  pulse.DefaultConfig(),
		Filter: artifact.DefaultFilterCaps(),
	}
}

// Engine is the long-lived object that owns the agent roster, health
// monitor, and hedge manager across many consultations — grounded on
// pkg/core/debate.DebateManager's singleton-plus-background-monitor
// shape, generalised from "one manager per process" to an explicit,
// constructible Engine (no forced singleton; callers choose lifetime).
//
// healthBus carries only the health monitor's process-wide provider
// status events (spec.md §4.2's health record is explicitly shared
// across consultations, never destroyed between them). Every
// consultation-scoped event (round/agent/cost/pulse events, spec.md
// §4.8's "Scoped bus") instead goes to a fresh *events.Bus created in
// Consult and registered under that consultation's id, so two
// concurrent consultations never cross-talk on the same stream.
type Engine struct {
	agentMgr  *agent.Manager
	cfg       EngineConfig
	health    *health.Monitor
	hedgeMgr  *hedge.Manager
	costEst   *cost.Estimator
	extractor *artifact.Extractor
	healthBus *events.Bus

	busMu sync.RWMutex
	buses map[string]*events.Bus

	hedgePrompt hedge.PromptFn
	pulsePrompt pulse.PromptFn
	costConsent cost.ConsentFn
	eventLog    EventSubscriber
}

// EventSubscriber durably records every event a consultation emits,
// keyed by consultation id (spec.md §11's audit extension). Engine
// subscribes it to each consultation's scoped bus once the bus exists;
// *store.EventLog implements this with a no-op Record when unconfigured,
// so nil is the only case callers need to special-case.
type EventSubscriber interface {
	Subscribe(ctx context.Context, bus *events.Bus, consultationID string)
}

// NewEngine wires every leaf component from the resolved agent manager
// and starts the background health-probe loop. ctx governs the probe
// loop's lifetime; call Stop to terminate it early. healthBus, if
// non-nil, receives only process-wide provider health events — pass nil
// unless a caller genuinely needs to observe health transitions outside
// of any single consultation.
func NewEngine(ctx context.Context, agentMgr *agent.Manager, cfg EngineConfig, healthBus *events.Bus, hedgePrompt hedge.PromptFn, pulsePrompt pulse.PromptFn, costConsent cost.ConsentFn, eventLog EventSubscriber) *Engine {
	if healthBus == nil {
		healthBus = events.New()
	}

	monitor := health.NewMonitor(cfg.Health, healthBus, agentMgr.Ports(), nil)
	for id, tier := range agentMgr.Tiers() {
		monitor.Register(id, tier)
	}
	monitor.Start(ctx)

	e := &Engine{
		agentMgr:    agentMgr,
		cfg:         cfg,
		health:      monitor,
		hedgeMgr:    hedge.NewManager(cfg.Hedge, agentMgr.Ports(), monitor, hedgePrompt),
		costEst:     cost.NewEstimator(cfg.Cost, agentMgr.Prices(), costConsent),
		extractor:   artifact.NewExtractor(),
		healthBus:   healthBus,
		buses:       make(map[string]*events.Bus),
		hedgePrompt: hedgePrompt,
		pulsePrompt: pulsePrompt,
		costConsent: costConsent,
		eventLog:    eventLog,
	}
	return e
}

// Stop terminates the background health-probe loop.
func (e *Engine) Stop() { e.health.Stop() }

// Health exposes the monitor for diagnostics/HTTP handlers.
func (e *Engine) Health() *health.Monitor { return e.health }

// Bus returns the consultation-scoped event bus registered by a prior or
// in-flight Consult call under consultationID, for HTTP handlers that
// want genuine event-driven streaming instead of polling Get.
func (e *Engine) Bus(consultationID string) (*events.Bus, bool) {
	e.busMu.RLock()
	defer e.busMu.RUnlock()
	b, ok := e.buses[consultationID]
	return b, ok
}

func (e *Engine) registerBus(consultationID string) *events.Bus {
	b := events.New()
	e.busMu.Lock()
	e.buses[consultationID] = b
	e.busMu.Unlock()
	return b
}

// forgetBus drops a finished consultation's bus so the map doesn't grow
// unboundedly, mirroring Registry's own 24h result-retention sweep.
func (e *Engine) forgetBus(consultationID string) {
	e.busMu.Lock()
	delete(e.buses, consultationID)
	e.busMu.Unlock()
}

func emit(bus *events.Bus, topic events.Topic, payload events.Payload) {
	if bus != nil {
		bus.Emit(topic, payload)
	}
}

// Consult is the Orchestrator Facade's single entry point (spec.md §4.9).
// It always returns a well-formed *ConsultationResult with a terminal
// State and a nil error — including configuration problems like zero
// configured agents, which surface as StateAllAgentsFailed rather than a
// Go error, so callers (the Registry, HTTP handlers) never need a
// separate error-vs-result branch.
func (e *Engine) Consult(ctx context.Context, question, projectContext string, opts Options) (*ConsultationResult, error) {
	start := time.Now()
	if opts.Mode == "" {
		opts.Mode = ModeConsult
	}
	if opts.MaxRounds == 0 {
		if opts.Mode == ModeQuick {
			opts.MaxRounds = 1
		} else {
			opts.MaxRounds = 4
		}
	}

	consultationID := opts.ConsultationID
	if consultationID == "" {
		consultationID = uuid.NewString()
	}

	bus := e.registerBus(consultationID)

	agents := e.agentMgr.Agents()
	judge, hasJudge := e.agentMgr.Judge()
	if len(agents) == 0 || (!hasJudge && opts.MaxRounds > 1) {
		reason := "no agents configured"
		if len(agents) > 0 {
			reason = fmt.Sprintf("no judge agent configured but maxRounds=%d requires one", opts.MaxRounds)
		}
		e.forgetBus(consultationID)
		return &ConsultationResult{
			ConsultationID: consultationID,
			Question:       question,
			Mode:           opts.Mode,
			Timestamp:      start,
			Agents:         agents,
			ProjectContext: projectContext,
			State:          StateAllAgentsFailed,
			DurationMs:     time.Since(start).Milliseconds(),
			Err:            fmt.Errorf("consult: %s", reason),
		}, nil
	}

	if opts.TimeoutMs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(opts.TimeoutMs)*time.Millisecond)
		defer cancel()
	}

	if e.eventLog != nil {
		e.eventLog.Subscribe(ctx, bus, consultationID)
	}

	result := &ConsultationResult{
		ConsultationID: consultationID,
		Question:       question,
		Mode:           opts.Mode,
		Timestamp:      start,
		Agents:         agents,
		ProjectContext: projectContext,
		State:          StateEstimating,
	}

	providerIDs := make([]string, 0, len(agents)+1)
	for _, a := range agents {
		providerIDs = append(providerIDs, a.ProviderID)
	}
	if hasJudge {
		providerIDs = append(providerIDs, judge.ProviderID)
	}

	emit(bus, events.Topic("consultation:started"), events.Payload{
		"consultationId": result.ConsultationID,
		"question":       question,
		"agents":         agents,
	})

	estimate := e.costEst.Estimate(question, projectContext, providerIDs, cost.Mode(opts.Mode))
	result.EstimatedCost = estimate
	emit(bus, events.Topic("consultation:cost_estimated"), events.Payload{
		"estimate":        estimate,
		"proceedRequired": estimate.USD > e.cfg.Cost.ThresholdUSD,
	})

	decision := e.gateConsent(ctx, opts, estimate)
	emit(bus, events.Topic("consultation:user_consent"), events.Payload{"accepted": decision.Proceed})
	if !decision.Proceed {
		result.State = StateCostRejected
		result.Err = fmt.Errorf("cost_rejected: %s", decision.Reason)
		result.DurationMs = time.Since(start).Milliseconds()
		e.forgetBus(consultationID)
		return result, nil
	}

	filter := artifact.NewFilter(e.cfg.Filter, opts.Verbose)
	result.State = StateAwaitingRound1

	// ---- Round 1 ----
	result.State = StateRound1
	emit(bus, events.Topic("round:start"), events.Payload{"round": 1})
	round1, agentResponses, pulseRecords, aborted := e.runRound1(ctx, bus, agents, question, projectContext)
	result.AgentResponses = append(result.AgentResponses, agentResponses...)
	result.PulseMetadata = append(result.PulseMetadata, pulseRecords...)
	if aborted {
		return e.finish(bus, consultationID, result, StateAborted, fmt.Errorf("consultation aborted during round 1"), start), nil
	}
	if len(round1) == 0 {
		return e.finish(bus, consultationID, result, StateAllAgentsFailed, fmt.Errorf("all agents failed in round 1"), start), nil
	}
	result.Responses.Round1 = round1
	emit(bus, events.Topic("round:completed"), events.Payload{"round": 1, "artifactType": artifact.TypeIndependent})
	emit(bus, events.Topic("consultation:round_artifact"), events.Payload{"round": 1, "artifact": round1})

	if opts.MaxRounds == 1 || ctx.Err() != nil {
		return e.finishQuick(bus, consultationID, result, ctx, start)
	}

	// ---- Round 2: synthesis ----
	result.State = StateRound2
	emit(bus, events.Topic("round:start"), events.Payload{"round": 2})
	synthesis, judgeResp, err := e.runJudgeSynthesisCall(ctx, bus, judge, synthesisUserPrompt(question, round1))
	result.AgentResponses = append(result.AgentResponses, judgeResp)
	if err != nil {
		return e.finish(bus, consultationID, result, StateAborted, fmt.Errorf("judge failure in round 2: %w", err), start), nil
	}
	result.Responses.Round2 = &synthesis
	emit(bus, events.Topic("round:completed"), events.Payload{"round": 2, "artifactType": artifact.TypeSynthesis})
	emit(bus, events.Topic("consultation:round_artifact"), events.Payload{"round": 2, "artifact": synthesis})

	if ctx.Err() != nil {
		return e.finish(bus, consultationID, result, StateTimedOut, ctx.Err(), start), nil
	}

	// ---- Round 3: cross-exam ----
	result.State = StateRound3
	emit(bus, events.Topic("round:start"), events.Payload{"round": 3})
	filteredSynthesis := filter.FilterSynthesisForRound3(synthesis)
	crossExam, round3Responses, round3Pulses, aborted := e.runRound3(ctx, bus, agents, round1, question, filteredSynthesis, judge)
	result.AgentResponses = append(result.AgentResponses, round3Responses...)
	result.PulseMetadata = append(result.PulseMetadata, round3Pulses...)
	if aborted {
		return e.finish(bus, consultationID, result, StateAborted, fmt.Errorf("consultation aborted during round 3"), start), nil
	}
	if crossExam == nil {
		return e.finish(bus, consultationID, result, StateAborted, fmt.Errorf("judge failure consolidating round 3"), start), nil
	}
	result.Responses.Round3 = crossExam
	emit(bus, events.Topic("round:completed"), events.Payload{"round": 3, "artifactType": artifact.TypeCrossExam})
	emit(bus, events.Topic("consultation:round_artifact"), events.Payload{"round": 3, "artifact": *crossExam})

	if ctx.Err() != nil {
		return e.finish(bus, consultationID, result, StateTimedOut, ctx.Err(), start), nil
	}

	// ---- Round 4: verdict ----
	result.State = StateRound4
	emit(bus, events.Topic("round:start"), events.Payload{"round": 4})
	filteredCrossExam := filter.FilterCrossExamForRound4(*crossExam)
	verdict, verdictResp, err := e.runJudgeVerdictCall(ctx, bus, judge, verdictUserPrompt(question, synthesis, filteredCrossExam, round1, opts.Verbose))
	result.AgentResponses = append(result.AgentResponses, verdictResp)
	if err != nil {
		return e.finish(bus, consultationID, result, StateAborted, fmt.Errorf("judge failure in round 4: %w", err), start), nil
	}
	result.Responses.Round4 = &verdict
	result.Recommendation = verdict.Recommendation
	result.Confidence = verdict.Confidence
	result.Dissent = verdict.Dissent
	emit(bus, events.Topic("round:completed"), events.Payload{"round": 4, "artifactType": artifact.TypeVerdict})
	emit(bus, events.Topic("consultation:round_artifact"), events.Payload{"round": 4, "artifact": verdict})

	return e.finish(bus, consultationID, result, StateComplete, nil, start), nil
}

func (e *Engine) gateConsent(ctx context.Context, opts Options, estimate cost.Estimate) cost.Decision {
	if !opts.Interactive && opts.CostConsent != nil {
		consentOnce := func(ctx context.Context, _ cost.Estimate) bool { return *opts.CostConsent }
		est := cost.NewEstimator(e.cfg.Cost, nil, consentOnce)
		return est.Gate(ctx, estimate)
	}
	return e.costEst.Gate(ctx, estimate)
}

// finish settles result into its terminal state and drops the
// consultation's scoped bus from the registry — it is the single point
// every Consult path converges on before returning.
func (e *Engine) finish(bus *events.Bus, consultationID string, result *ConsultationResult, state State, err error, start time.Time) *ConsultationResult {
	result.State = state
	result.Err = err
	result.DurationMs = time.Since(start).Milliseconds()
	result.Cost, result.ActualCost = e.sumCost(result.AgentResponses)
	emit(bus, events.Topic("consultation:completed"), events.Payload{"result": result})
	e.forgetBus(consultationID)
	return result
}

func (e *Engine) finishQuick(bus *events.Bus, consultationID string, result *ConsultationResult, ctx context.Context, start time.Time) (*ConsultationResult, error) {
	state := StateComplete
	var err error
	if ctx.Err() != nil {
		state = StateTimedOut
		err = ctx.Err()
	}
	return e.finish(bus, consultationID, result, state, err, start), nil
}

func (e *Engine) sumCost(responses []hedge.AgentResponse) (CostSummary, CostSummary) {
	prices := e.agentMgr.Prices()
	var sum CostSummary
	for _, r := range responses {
		sum.Tokens.Input += r.Usage.Input
		sum.Tokens.Output += r.Usage.Output
		sum.Tokens.Total += r.Usage.Total
		if price, ok := prices[r.ProviderID]; ok {
			sum.USD += float64(r.Usage.Input) / 1_000_000 * price.InputPerMillion
			sum.USD += float64(r.Usage.Output) / 1_000_000 * price.OutputPerMillion
		}
	}
	return sum, sum
}

// runRound1 dispatches every configured agent in parallel (spec.md §4.7),
// preserving configuration order in the returned slice regardless of
// settle order.
func (e *Engine) runRound1(ctx context.Context, bus *events.Bus, agents []agent.Descriptor, question, projectContext string) ([]artifact.Independent, []hedge.AgentResponse, []PulseRecord, bool) {
	type slot struct {
		ind  *artifact.Independent
		resp hedge.AgentResponse
		pr   PulseRecord
	}
	slots := make([]slot, len(agents))
	abortedFlag := make([]bool, len(agents))

	var wg sync.WaitGroup
	for i, d := range agents {
		i, d := i, d
		wg.Add(1)
		go func() {
			defer wg.Done()
			ind, resp, pr, aborted := e.dispatchAgent(ctx, bus, d, 1, round1UserPrompt(question, projectContext))
			slots[i] = slot{ind: ind, resp: resp, pr: pr}
			abortedFlag[i] = aborted
		}()
	}
	wg.Wait()

	var independents []artifact.Independent
	var responses []hedge.AgentResponse
	var pulses []PulseRecord
	for _, s := range slots {
		if s.ind != nil {
			independents = append(independents, *s.ind)
		}
		responses = append(responses, s.resp)
		if s.pr.Triggered || s.pr.UserCancelledViaPulse {
			pulses = append(pulses, s.pr)
		}
	}
	for _, a := range abortedFlag {
		if a {
			return independents, responses, pulses, true
		}
	}
	return independents, responses, pulses, false
}

// runRound3 dispatches the cross-exam contribution step per agent, then
// one judge call consolidating every contribution into a single artifact
// (spec.md §4.7).
func (e *Engine) runRound3(ctx context.Context, bus *events.Bus, agents []agent.Descriptor, round1 []artifact.Independent, question string, synthesis artifact.Synthesis, judge agent.Descriptor) (*artifact.CrossExam, []hedge.AgentResponse, []PulseRecord, bool) {
	byAgent := make(map[string]artifact.Independent, len(round1))
	for _, ind := range round1 {
		byAgent[ind.AgentID] = ind
	}

	type contribution struct {
		agentID string
		text    string
		resp    hedge.AgentResponse
		pr      PulseRecord
		ok      bool
		aborted bool
	}

	contributors := make([]agent.Descriptor, 0, len(agents))
	for _, d := range agents {
		if _, ok := byAgent[d.ID]; ok {
			contributors = append(contributors, d)
		}
	}

	contributions := make([]contribution, len(contributors))
	var wg sync.WaitGroup
	for i, d := range contributors {
		i, d := i, d
		wg.Add(1)
		go func() {
			defer wg.Done()
			own := byAgent[d.ID]
			prompt := crossExamAgentUserPrompt(question, own, synthesis)
			raw, resp, pr, aborted := e.dispatchRaw(ctx, bus, d, 3, prompt)
			contributions[i] = contribution{agentID: d.ID, text: raw, resp: resp, pr: pr, ok: raw != "", aborted: aborted}
		}()
	}
	wg.Wait()

	texts := make(map[string]string)
	var responses []hedge.AgentResponse
	var pulses []PulseRecord
	for _, c := range contributions {
		if c.aborted {
			return nil, responses, pulses, true
		}
		if c.ok {
			texts[c.agentID] = c.text
		}
		responses = append(responses, c.resp)
		if c.pr.Triggered || c.pr.UserCancelledViaPulse {
			pulses = append(pulses, c.pr)
		}
	}

	knownAgentIDs := make(map[string]bool, len(byAgent))
	for id := range byAgent {
		knownAgentIDs[id] = true
	}
	consolidated, judgeResp, err := e.runJudgeCrossExamCall(ctx, bus, judge, crossExamConsolidationPrompt(question, texts), knownAgentIDs)
	responses = append(responses, judgeResp)
	if err != nil {
		return nil, responses, pulses, false
	}
	return &consolidated, responses, pulses, false
}

// dispatchAgent runs one agent's hedged, pulse-watched call and extracts
// a round-1 independent artifact from its text.
func (e *Engine) dispatchAgent(ctx context.Context, bus *events.Bus, d agent.Descriptor, round int, userPrompt string) (*artifact.Independent, hedge.AgentResponse, PulseRecord, bool) {
	raw, resp, pr, aborted := e.dispatchRaw(ctx, bus, d, round, userPrompt)
	if aborted || raw == "" {
		return nil, resp, pr, aborted
	}
	ind, err := e.extractor.ExtractIndependent(d.ID, raw)
	if err != nil {
		resp.ProviderError = provider.NewError(provider.ErrInvalidResponse, false, err)
		return nil, resp, pr, false
	}
	return &ind, resp, pr, false
}

// dispatchRaw is the shared hedge+pulse dispatch used by every round,
// returning the raw text (empty on any failure) alongside bookkeeping.
func (e *Engine) dispatchRaw(ctx context.Context, bus *events.Bus, d agent.Descriptor, round int, userPrompt string) (string, hedge.AgentResponse, PulseRecord, bool) {
	emit(bus, events.Topic("agent:thinking"), events.Payload{"agentId": d.ID, "agentName": d.DisplayName, "round": round})

	messages := []provider.Message{{Role: "user", Content: userPrompt}}
	systemPrompt := systemPromptFor(d)

	watcher := pulse.NewWatcher(e.cfg.Pulse, e.pulsePrompt)
	var resp hedge.AgentResponse
	var execErr error
	started := time.Now()
	pr, watchErr := watcher.Watch(ctx, d.ID, func(ctx context.Context) error {
		r, err := e.hedgeMgr.Execute(ctx, bus, d.ID, d.ProviderID, messages, systemPrompt)
		resp = r
		execErr = err
		return err
	})
	record := PulseRecord{AgentID: d.ID, Triggered: pr.Triggered, Timestamp: pr.Timestamp, UserCancelledViaPulse: pr.UserCancelledViaPulse}

	if pr.UserCancelledViaPulse {
		resp = hedge.AgentResponse{AgentID: d.ID, ProviderID: d.ProviderID, ProviderError: provider.NewError(provider.ErrCancelled, false, fmt.Errorf("user_cancelled via pulse"))}
		emit(bus, events.Topic("consultation:pulse_cancel"), events.Payload{"agentId": d.ID, "elapsedSeconds": time.Since(started).Seconds()})
	}

	success := execErr == nil && resp.ProviderError == nil
	emit(bus, events.Topic("agent:completed"), events.Payload{
		"agentId": d.ID, "agentName": d.DisplayName, "round": round,
		"success": success, "latencyMs": resp.Latency.Milliseconds(),
	})

	if watchErr != nil {
		// ErrConsultationAborted from the hedge manager's failure prompt.
		return "", resp, record, true
	}
	if !success {
		return "", resp, record, false
	}
	return resp.Text, resp, record, false
}

// dispatchJudgeRaw is the shared hedge+pulse dispatch for a single judge
// call, keyed by the judge's own agent id for pulse bookkeeping.
func (e *Engine) dispatchJudgeRaw(ctx context.Context, bus *events.Bus, judge agent.Descriptor, round int, phase, userPrompt string) (string, hedge.AgentResponse) {
	emit(bus, events.Topic("agent:thinking"), events.Payload{"agentId": judge.ID, "agentName": judge.DisplayName, "round": round})

	messages := []provider.Message{{Role: "user", Content: userPrompt}}
	systemPrompt := judgeSystemPrompt(phase)

	watcher := pulse.NewWatcher(e.cfg.Pulse, e.pulsePrompt)
	var resp hedge.AgentResponse
	_, _ = watcher.Watch(ctx, judge.ID, func(ctx context.Context) error {
		r, err := e.hedgeMgr.Execute(ctx, bus, judge.ID, judge.ProviderID, messages, systemPrompt)
		resp = r
		return err
	})

	success := resp.ProviderError == nil
	emit(bus, events.Topic("agent:completed"), events.Payload{
		"agentId": judge.ID, "agentName": judge.DisplayName, "round": round,
		"success": success, "latencyMs": resp.Latency.Milliseconds(),
	})
	if !success {
		return "", resp
	}
	return resp.Text, resp
}

// runJudgeSynthesisCall, runJudgeCrossExamCall and runJudgeVerdictCall
// each run one judge call for their round/phase and parse its text with
// the matching extractor method (round 2=synthesis, 3=cross_exam,
// 4=verdict).
func (e *Engine) runJudgeSynthesisCall(ctx context.Context, bus *events.Bus, judge agent.Descriptor, userPrompt string) (artifact.Synthesis, hedge.AgentResponse, error) {
	raw, resp := e.dispatchJudgeRaw(ctx, bus, judge, 2, "synthesis", userPrompt)
	if raw == "" {
		return artifact.Synthesis{}, resp, fmt.Errorf("judge synthesis call failed: %v", resp.ProviderError)
	}
	s, err := e.extractor.ExtractSynthesis(raw)
	return s, resp, err
}

func (e *Engine) runJudgeCrossExamCall(ctx context.Context, bus *events.Bus, judge agent.Descriptor, userPrompt string, knownAgentIDs map[string]bool) (artifact.CrossExam, hedge.AgentResponse, error) {
	raw, resp := e.dispatchJudgeRaw(ctx, bus, judge, 3, "cross_exam", userPrompt)
	if raw == "" {
		return artifact.CrossExam{}, resp, fmt.Errorf("judge cross-exam call failed: %v", resp.ProviderError)
	}
	c, err := e.extractor.ExtractCrossExam(raw, knownAgentIDs)
	return c, resp, err
}

func (e *Engine) runJudgeVerdictCall(ctx context.Context, bus *events.Bus, judge agent.Descriptor, userPrompt string) (artifact.Verdict, hedge.AgentResponse, error) {
	raw, resp := e.dispatchJudgeRaw(ctx, bus, judge, 4, "verdict", userPrompt)
	if raw == "" {
		return artifact.Verdict{}, resp, fmt.Errorf("judge verdict call failed: %v", resp.ProviderError)
	}
	v, err := e.extractor.ExtractVerdict(raw)
	return v, resp, err
}
