package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"agentic_debate/pkg/core/events"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EventLog persists every event a consultation emits to Postgres, grounded
// on the upsert-repository shape of the teacher's AnalysisRepo, generalised
// from one financial-analysis row per ticker to one append-only row per
// emitted event (spec.md §11 durability/audit extension).
//
// Schema assumption (migrations managed elsewhere):
//
//	CREATE TABLE IF NOT EXISTS consultation_events (
//	  id BIGSERIAL PRIMARY KEY,
//	  consultation_id TEXT NOT NULL,
//	  topic TEXT NOT NULL,
//	  payload JSONB,
//	  emitted_at TIMESTAMPTZ NOT NULL
//	);
type EventLog struct {
	pool *pgxpool.Pool
}

// NewEventLog creates a repository bound to the given pool. A nil pool is
// valid: Record becomes a no-op so callers can wire the subscriber
// unconditionally and only pay for Postgres when DATABASE_URL is set.
func NewEventLog(pool *pgxpool.Pool) *EventLog {
	return &EventLog{pool: pool}
}

// Record appends one event row. Failures are logged, not propagated —
// losing an audit row must never abort a live consultation.
func (l *EventLog) Record(ctx context.Context, consultationID string, topic events.Topic, payload events.Payload) {
	if l.pool == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		fmt.Printf("[WARNING] EventLog: failed to marshal payload for %s: %v\n", topic, err)
		return
	}
	const query = `
		INSERT INTO consultation_events (consultation_id, topic, payload, emitted_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := l.pool.Exec(ctx, query, consultationID, string(topic), data, time.Now()); err != nil {
		fmt.Printf("[WARNING] EventLog: failed to record %s for %s: %v\n", topic, consultationID, err)
	}
}

// Subscribe registers the log as an OnAny listener on bus, tagging every
// row with consultationID. Use one scoped events.Bus per consultation
// (spec.md §4.8) so events from concurrent consultations do not interleave
// on a single subscription.
func (l *EventLog) Subscribe(ctx context.Context, bus *events.Bus, consultationID string) {
	bus.OnAny(func(topic events.Topic, payload events.Payload) {
		l.Record(ctx, consultationID, topic, payload)
	})
}
