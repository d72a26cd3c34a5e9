// Package pulse implements the Interactive Pulse of spec.md §4.6: a
// per-agent wall-clock watchdog that, past a fixed threshold, asks the
// user whether to keep waiting on a slow provider call. Grounded on the
// questionChan/resumeChan pause pattern in pkg/core/debate/orchestrator.go,
// generalised from a whole-debate pause to a single in-flight call.
package pulse

import (
	"context"
	"time"
)

// PromptFn asks the user whether to keep waiting on agentID's call.
// Non-interactive callers must supply a PromptFn that returns a fixed
// answer (spec.md §4.6 default is "yes") rather than blocking.
type PromptFn func(ctx context.Context, agentID string, elapsed time.Duration) (keepWaiting bool)

// Config holds the watchdog's tunables (spec.md §6).
type Config struct {
	Threshold time.Duration
}

func DefaultConfig() Config {
	return Config{Threshold: 60 * time.Second}
}

// Result records what the watchdog observed for one agent call, folded
// into the final ConsultationResult's pulseMetadata (spec.md §3).
type Result struct {
	Triggered           bool
	Timestamp           time.Time
	UserCancelledViaPulse bool
}

// Watcher races a single agent call against the threshold, prompting the
// user at most once per call.
type Watcher struct {
	cfg    Config
	prompt PromptFn
}

func NewWatcher(cfg Config, prompt PromptFn) *Watcher {
	if prompt == nil {
		prompt = func(ctx context.Context, agentID string, elapsed time.Duration) bool { return true }
	}
	return &Watcher{cfg: cfg, prompt: prompt}
}

// Watch runs fn to completion, cancelling its context and returning
// Result{UserCancelledViaPulse:true} if the threshold is reached and the
// user declines to keep waiting. fn must honour ctx cancellation promptly.
// The returned error is always fn's own error.
func (w *Watcher) Watch(ctx context.Context, agentID string, fn func(ctx context.Context) error) (Result, error) {
	callCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- fn(callCtx) }()

	timer := time.NewTimer(w.cfg.Threshold)
	defer timer.Stop()

	select {
	case err := <-done:
		return Result{}, err
	case <-timer.C:
	}

	start := time.Now()
	res := Result{Triggered: true, Timestamp: start}
	if w.prompt(ctx, agentID, w.cfg.Threshold) {
		err := <-done
		return res, err
	}

	cancel()
	res.UserCancelledViaPulse = true
	err := <-done // wait for fn so its goroutine doesn't leak
	return res, err
}
