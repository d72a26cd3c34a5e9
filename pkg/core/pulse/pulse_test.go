package pulse

import (
	"context"
	"testing"
	"time"
)

func TestWatchReturnsBeforeThresholdWithoutPrompting(t *testing.T) {
	cfg := Config{Threshold: 50 * time.Millisecond}
	prompted := false
	w := NewWatcher(cfg, func(ctx context.Context, agentID string, elapsed time.Duration) bool {
		prompted = true
		return true
	})

	res, err := w.Watch(context.Background(), "agent-a", func(ctx context.Context) error {
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Triggered {
		t.Fatal("did not expect the watchdog to trigger for a call that finishes quickly")
	}
	if prompted {
		t.Fatal("did not expect the prompt to fire before the threshold")
	}
}

func TestWatchPromptsAndKeepsWaitingWhenUserSaysYes(t *testing.T) {
	cfg := Config{Threshold: 20 * time.Millisecond}
	w := NewWatcher(cfg, func(ctx context.Context, agentID string, elapsed time.Duration) bool {
		return true
	})

	res, err := w.Watch(context.Background(), "agent-a", func(ctx context.Context) error {
		time.Sleep(60 * time.Millisecond)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Triggered {
		t.Fatal("expected watchdog to trigger for a slow call")
	}
	if res.UserCancelledViaPulse {
		t.Fatal("did not expect cancellation when user chooses to keep waiting")
	}
}

func TestWatchCancelsWhenUserDeclinesToKeepWaiting(t *testing.T) {
	cfg := Config{Threshold: 20 * time.Millisecond}
	w := NewWatcher(cfg, func(ctx context.Context, agentID string, elapsed time.Duration) bool {
		return false
	})

	var sawCancel bool
	res, err := w.Watch(context.Background(), "agent-a", func(ctx context.Context) error {
		<-ctx.Done()
		sawCancel = true
		return ctx.Err()
	})
	if err == nil {
		t.Fatal("expected the underlying call's context-cancellation error to propagate")
	}
	if !res.UserCancelledViaPulse {
		t.Fatal("expected UserCancelledViaPulse to be set")
	}
	if !sawCancel {
		t.Fatal("expected fn's context to be cancelled")
	}
}

func TestNewWatcherDefaultsToKeepWaitingWhenPromptIsNil(t *testing.T) {
	cfg := Config{Threshold: 15 * time.Millisecond}
	w := NewWatcher(cfg, nil)

	res, err := w.Watch(context.Background(), "agent-a", func(ctx context.Context) error {
		time.Sleep(40 * time.Millisecond)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.UserCancelledViaPulse {
		t.Fatal("expected the default nil prompt to keep waiting, not cancel")
	}
}
