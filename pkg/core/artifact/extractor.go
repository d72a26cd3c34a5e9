package artifact

import (
	"fmt"
	"strings"
	"time"

	"agentic_debate/pkg/core/utils"
)

// InvalidResponseError is raised only when a required field is absent
// after every tolerant parse strategy has been tried (spec.md §4.4(e)).
type InvalidResponseError struct {
	RoundNumber int
	Reason      string
}

func (e *InvalidResponseError) Error() string {
	return fmt.Sprintf("artifact: invalid response for round %d: %s", e.RoundNumber, e.Reason)
}

// Extractor parses model free-text into typed round artifacts. It
// tolerates surrounding prose and code fences, per spec.md §4.4 and §9.
// Grounded on pkg/core/utils.SmartParse's strict-JSON -> repair ->
// Hjson fallback chain.
type Extractor struct{}

func NewExtractor() *Extractor { return &Extractor{} }

// extractJSONBlock finds the first balanced {...} block in raw, after
// stripping common code-fence markers, per spec.md §4.4(a)/(b).
func extractJSONBlock(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```JSON")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	start := strings.IndexByte(s, '{')
	if start < 0 {
		return s
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
			// skip
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return s[start:]
}

// smartUnmarshal tries strict JSON, then repaired JSON, then Hjson, in
// that order, delegating to utils.SmartParse's strategy chain.
func smartUnmarshal(block string, target any) error {
	_, err := utils.SmartParse(block, target)
	return err
}

type independentWire struct {
	Position     string   `json:"position"`
	KeyPoints    []string `json:"key_points"`
	Rationale    string   `json:"rationale"`
	Confidence   float64  `json:"confidence"`
	ProseExcerpt string   `json:"prose_excerpt"`
}

// ExtractIndependent parses a round-1 agent response into an Independent
// artifact. The only required field is Position; everything else coerces
// to its zero value per spec.md §4.4(d).
func (e *Extractor) ExtractIndependent(agentID, raw string) (Independent, error) {
	block := extractJSONBlock(raw)
	var w independentWire
	if err := smartUnmarshal(block, &w); err != nil {
		return Independent{}, &InvalidResponseError{RoundNumber: 1, Reason: err.Error()}
	}
	if w.Position == "" {
		return Independent{}, &InvalidResponseError{RoundNumber: 1, Reason: "missing required field 'position'"}
	}
	if w.KeyPoints == nil {
		w.KeyPoints = []string{}
	}
	return Independent{
		ArtifactType: TypeIndependent,
		AgentID:      agentID,
		Position:     w.Position,
		KeyPoints:    w.KeyPoints,
		Rationale:    w.Rationale,
		Confidence:   clampConfidence(w.Confidence),
		ProseExcerpt: w.ProseExcerpt,
		CreatedAt:    time.Now(),
	}, nil
}

type synthesisWire struct {
	ConsensusPoints []ConsensusPoint `json:"consensus_points"`
	Tensions        []Tension        `json:"tensions"`
	PriorityOrder   []string         `json:"priority_order"`
}

// ExtractSynthesis parses the judge's round-2 response.
func (e *Extractor) ExtractSynthesis(raw string) (Synthesis, error) {
	block := extractJSONBlock(raw)
	var w synthesisWire
	if err := smartUnmarshal(block, &w); err != nil {
		return Synthesis{}, &InvalidResponseError{RoundNumber: 2, Reason: err.Error()}
	}
	if w.ConsensusPoints == nil {
		w.ConsensusPoints = []ConsensusPoint{}
	}
	if w.Tensions == nil {
		w.Tensions = []Tension{}
	}
	if w.PriorityOrder == nil {
		w.PriorityOrder = []string{}
	}
	for i := range w.ConsensusPoints {
		w.ConsensusPoints[i].Confidence = clampConfidence(w.ConsensusPoints[i].Confidence)
		if w.ConsensusPoints[i].SupportingAgents == nil {
			w.ConsensusPoints[i].SupportingAgents = []string{}
		}
	}
	return Synthesis{
		ArtifactType:    TypeSynthesis,
		RoundNumber:     2,
		ConsensusPoints: w.ConsensusPoints,
		Tensions:        w.Tensions,
		PriorityOrder:   w.PriorityOrder,
		CreatedAt:       time.Now(),
	}, nil
}

type crossExamWire struct {
	Challenges []Challenge `json:"challenges"`
	Rebuttals  []Rebuttal  `json:"rebuttals"`
	Unresolved []string    `json:"unresolved"`
}

// ExtractCrossExam parses the judge's consolidated round-3 response.
// knownAgentIDs is the set of round-1 agent ids (spec.md's invariant I3):
// any challenge whose target_agent isn't one of them is dropped rather
// than passed through, since it can only be an LLM hallucination of an
// agent that never participated.
func (e *Extractor) ExtractCrossExam(raw string, knownAgentIDs map[string]bool) (CrossExam, error) {
	block := extractJSONBlock(raw)
	var w crossExamWire
	if err := smartUnmarshal(block, &w); err != nil {
		return CrossExam{}, &InvalidResponseError{RoundNumber: 3, Reason: err.Error()}
	}
	if w.Challenges == nil {
		w.Challenges = []Challenge{}
	}
	if w.Rebuttals == nil {
		w.Rebuttals = []Rebuttal{}
	}
	if w.Unresolved == nil {
		w.Unresolved = []string{}
	}
	valid := make([]Challenge, 0, len(w.Challenges))
	for _, c := range w.Challenges {
		if len(knownAgentIDs) > 0 && !knownAgentIDs[c.TargetAgent] {
			continue
		}
		if c.Evidence == nil {
			c.Evidence = []string{}
		}
		valid = append(valid, c)
	}
	w.Challenges = valid
	return CrossExam{
		ArtifactType: TypeCrossExam,
		RoundNumber:  3,
		Challenges:   w.Challenges,
		Rebuttals:    w.Rebuttals,
		Unresolved:   w.Unresolved,
		CreatedAt:    time.Now(),
	}, nil
}

type verdictWire struct {
	Recommendation string   `json:"recommendation"`
	Confidence     float64  `json:"confidence"`
	Evidence       []string `json:"evidence"`
	Dissent        []string `json:"dissent"`
}

// ExtractVerdict parses the judge's final round-4 response. Recommendation
// is the one required field.
func (e *Extractor) ExtractVerdict(raw string) (Verdict, error) {
	block := extractJSONBlock(raw)
	var w verdictWire
	if err := smartUnmarshal(block, &w); err != nil {
		return Verdict{}, &InvalidResponseError{RoundNumber: 4, Reason: err.Error()}
	}
	if w.Recommendation == "" {
		return Verdict{}, &InvalidResponseError{RoundNumber: 4, Reason: "missing required field 'recommendation'"}
	}
	if w.Evidence == nil {
		w.Evidence = []string{}
	}
	if w.Dissent == nil {
		w.Dissent = []string{}
	}
	return Verdict{
		ArtifactType:   TypeVerdict,
		RoundNumber:    4,
		Recommendation: w.Recommendation,
		Confidence:     clampConfidence(w.Confidence),
		Evidence:       w.Evidence,
		Dissent:        w.Dissent,
		CreatedAt:      time.Now(),
	}, nil
}
