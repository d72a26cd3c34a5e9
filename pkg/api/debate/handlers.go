// Package debate exposes the consultation engine over HTTP: start a
// consultation, stream its events over SSE, and fetch its current result.
// Grounded on the teacher's pkg/api/debate handlers — same CORS/SSE/
// heartbeat shape, generalised from ticker/fiscal-year debate requests to
// spec.md §6's question/projectContext/options request.
package debate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"agentic_debate/pkg/core/consult"
	"agentic_debate/pkg/core/events"
)

// Handler wires HTTP endpoints to one Registry. Each in-flight
// consultation has its own events.Bus, created by Engine.Consult and
// reachable via Registry.Engine().Bus(id) — genuinely scoped per
// consultation so concurrent streams never cross-talk.
type Handler struct {
	Registry *consult.Registry
}

func NewHandler(registry *consult.Registry) *Handler {
	return &Handler{Registry: registry}
}

type StartRequest struct {
	Question       string `json:"question"`
	ProjectContext string `json:"project_context"`
	ProjectPath    string `json:"project_path"`
	Mode           string `json:"mode"` // "consult" or "quick"
	Verbose        bool   `json:"verbose"`
	Interactive    bool   `json:"interactive"`
	TimeoutMs      int    `json:"timeout_ms"`
}

type StartResponse struct {
	ConsultationID string `json:"consultation_id"`
}

func cors(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

// HandleStart launches a consultation in the background and returns its id.
func (h *Handler) HandleStart(w http.ResponseWriter, r *http.Request) {
	cors(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.Question == "" {
		http.Error(w, "question is required", http.StatusBadRequest)
		return
	}

	mode := consult.ModeConsult
	if req.Mode == "quick" {
		mode = consult.ModeQuick
	}

	opts := consult.Options{
		Mode:        mode,
		Verbose:     req.Verbose,
		TimeoutMs:   req.TimeoutMs,
		Interactive: req.Interactive,
		ProjectPath: req.ProjectPath,
	}

	// Not r.Context(): net/http cancels it as soon as this handler returns,
	// which would cancel the background consultation with it.
	id := h.Registry.Start(context.Background(), req.Question, req.ProjectContext, opts)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(StartResponse{ConsultationID: id})
}

// HandleResult returns the current (possibly still-running) result.
func (h *Handler) HandleResult(w http.ResponseWriter, r *http.Request) {
	cors(w)
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "Missing 'id' query parameter", http.StatusBadRequest)
		return
	}
	result, ok := h.Registry.Get(id)
	if !ok {
		http.Error(w, "Consultation ID not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// HandleStream provides an SSE stream fed by the consultation's own
// scoped event bus (Registry.Engine().Bus(id)) rather than by polling —
// each consultation gets its own Bus instance from Engine.Consult, so
// two concurrent streams never see each other's events. Falls back to a
// poll-based terminal check for the case where the bus isn't registered
// yet (a request that races Registry.Start before Consult has entered
// its goroutine).
func (h *Handler) HandleStream(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Content-Type", "text/event-stream")

	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "Missing 'id' query parameter", http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	// Buffered and drop-on-full: OnAny listeners run synchronously inside
	// Emit (events.Bus's contract), so this channel must never block the
	// consultation's own goroutine.
	eventsCh := make(chan eventFrame, 32)
	subscribed := false
	subscribe := func() {
		if subscribed {
			return
		}
		bus, ok := h.Registry.Engine().Bus(id)
		if !ok {
			return
		}
		bus.OnAny(func(topic events.Topic, payload events.Payload) {
			select {
			case eventsCh <- eventFrame{topic: string(topic), payload: payload}:
			default:
			}
		})
		subscribed = true
	}
	subscribe()

	pollTicker := time.NewTicker(2 * time.Second)
	defer pollTicker.Stop()
	heartbeat := time.NewTicker(15 * time.Second)
	defer heartbeat.Stop()

	var lastState consult.State
	checkTerminal := func() bool {
		result, ok := h.Registry.Get(id)
		if !ok {
			return false
		}
		if result.State != lastState {
			lastState = result.State
			sendSSE(w, flusher, result)
		}
		return isTerminal(result.State)
	}

	for {
		select {
		case evt := <-eventsCh:
			sendSSEEvent(w, flusher, evt.topic, payloadToJSON(evt.payload))
			if checkTerminal() {
				sendSSEEvent(w, flusher, "status", "completed")
				return
			}
		case <-pollTicker.C:
			// Retries the subscription in case the consultation's
			// goroutine hadn't registered its bus yet on the first try.
			subscribe()
			if checkTerminal() {
				sendSSEEvent(w, flusher, "status", "completed")
				return
			}
		case <-heartbeat.C:
			fmt.Fprintf(w, ": heartbeat\n\n")
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

type eventFrame struct {
	topic   string
	payload events.Payload
}

func payloadToJSON(p events.Payload) string {
	b, err := json.Marshal(p)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func isTerminal(s consult.State) bool {
	switch s {
	case consult.StateComplete, consult.StateAborted, consult.StateTimedOut,
		consult.StateAllAgentsFailed, consult.StateCostRejected:
		return true
	default:
		return false
	}
}

func sendSSE(w http.ResponseWriter, flusher http.Flusher, data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
	flusher.Flush()
}

func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, event string, data string) {
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	flusher.Flush()
}
