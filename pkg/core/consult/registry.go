package consult

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Registry runs consultations in the background and keeps completed
// results around for later retrieval, grounded on
// pkg/core/debate.DebateManager's activeDebates map + hourly cleanup
// sweep, generalised from "debate" to "consultation" and from a package
// singleton to an explicit, constructible value.
type Registry struct {
	engine *Engine

	mu      sync.RWMutex
	results map[string]*ConsultationResult
	started map[string]bool
}

// Engine exposes the underlying Engine, e.g. for HTTP handlers that want
// to subscribe to a consultation's scoped event bus directly.
func (r *Registry) Engine() *Engine { return r.engine }

func NewRegistry(engine *Engine) *Registry {
	r := &Registry{
		engine:  engine,
		results: make(map[string]*ConsultationResult),
		started: make(map[string]bool),
	}
	go r.cleanup()
	return r
}

// Start assigns a consultation id up front, launches the consultation in
// the background, and returns the id immediately so callers can poll Get
// or subscribe to the engine's event bus before completion.
func (r *Registry) Start(ctx context.Context, question, projectContext string, opts Options) string {
	if opts.ConsultationID == "" {
		opts.ConsultationID = uuid.NewString()
	}
	id := opts.ConsultationID

	r.mu.Lock()
	r.results[id] = &ConsultationResult{ConsultationID: id, State: StateEstimating, Question: question, Timestamp: time.Now()}
	r.started[id] = true
	r.mu.Unlock()

	go func() {
		// Consult always returns a well-formed result with a nil error
		// (see its doc comment); no fallback synthesis needed here.
		result, _ := r.engine.Consult(ctx, question, projectContext, opts)
		r.mu.Lock()
		r.results[id] = result
		r.mu.Unlock()
	}()

	return id
}

// Get retrieves a (possibly still-running, possibly absent) consultation
// result by id.
func (r *Registry) Get(id string) (*ConsultationResult, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res, ok := r.results[id]
	return res, ok
}

// cleanup drops results older than 24h, mirroring the teacher's
// DebateManager.cleanup sweep cadence.
func (r *Registry) cleanup() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-24 * time.Hour)
		r.mu.Lock()
		for id, res := range r.results {
			if res.Timestamp.Before(cutoff) {
				delete(r.results, id)
			}
		}
		r.mu.Unlock()
	}
}
