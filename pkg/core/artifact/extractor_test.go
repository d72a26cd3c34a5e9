package artifact

import "testing"

func TestExtractIndependentStrictJSON(t *testing.T) {
	e := NewExtractor()
	raw := `{"position": "Adopt microservices", "key_points": ["scalability", "team autonomy"], "rationale": "growth", "confidence": 1.4}`
	ind, err := e.ExtractIndependent("agent-a", raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ind.Position != "Adopt microservices" {
		t.Fatalf("unexpected position: %q", ind.Position)
	}
	if ind.Confidence != 1 {
		t.Fatalf("expected confidence clamped to 1, got %v", ind.Confidence)
	}
	if len(ind.KeyPoints) != 2 {
		t.Fatalf("expected 2 key points, got %v", ind.KeyPoints)
	}
}

func TestExtractIndependentStripsCodeFenceAndProse(t *testing.T) {
	e := NewExtractor()
	raw := "Sure, here is my answer:\n```json\n{\"position\": \"Stay monolithic\", \"confidence\": 0.5}\n```\nLet me know if you need more."
	ind, err := e.ExtractIndependent("agent-b", raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ind.Position != "Stay monolithic" {
		t.Fatalf("unexpected position: %q", ind.Position)
	}
}

func TestExtractIndependentRepairsTrailingComma(t *testing.T) {
	e := NewExtractor()
	raw := `{"position": "Adopt microservices", "key_points": ["a", "b",],}`
	ind, err := e.ExtractIndependent("agent-c", raw)
	if err != nil {
		t.Fatalf("expected json-repair to recover trailing commas, got error: %v", err)
	}
	if ind.Position != "Adopt microservices" {
		t.Fatalf("unexpected position: %q", ind.Position)
	}
}

func TestExtractIndependentMissingPositionFails(t *testing.T) {
	e := NewExtractor()
	_, err := e.ExtractIndependent("agent-d", `{"confidence": 0.9}`)
	if err == nil {
		t.Fatal("expected error for missing required 'position' field")
	}
	if _, ok := err.(*InvalidResponseError); !ok {
		t.Fatalf("expected *InvalidResponseError, got %T", err)
	}
}

func TestExtractVerdictRequiresRecommendation(t *testing.T) {
	e := NewExtractor()
	_, err := e.ExtractVerdict(`{"confidence": 0.8}`)
	if err == nil {
		t.Fatal("expected error for missing 'recommendation' field")
	}
}

func TestExtractCrossExamDropsChallengesAgainstUnknownAgents(t *testing.T) {
	e := NewExtractor()
	raw := `{"challenges": [
		{"challenger": "agent-a", "target_agent": "agent-b", "challenge": "real"},
		{"challenger": "agent-a", "target_agent": "agent-ghost", "challenge": "hallucinated"}
	]}`
	known := map[string]bool{"agent-a": true, "agent-b": true}
	c, err := e.ExtractCrossExam(raw, known)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(c.Challenges) != 1 {
		t.Fatalf("expected the unknown-target challenge to be dropped, got %+v", c.Challenges)
	}
	if c.Challenges[0].TargetAgent != "agent-b" {
		t.Fatalf("unexpected surviving challenge: %+v", c.Challenges[0])
	}
}

func TestExtractCrossExamSkipsValidationWhenNoKnownAgentsGiven(t *testing.T) {
	e := NewExtractor()
	raw := `{"challenges": [{"challenger": "agent-a", "target_agent": "agent-b", "challenge": "x"}]}`
	c, err := e.ExtractCrossExam(raw, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(c.Challenges) != 1 {
		t.Fatalf("expected challenge to pass through when no known-agent set is supplied, got %+v", c.Challenges)
	}
}

func TestExtractSynthesisDefaultsNilSlicesToEmpty(t *testing.T) {
	e := NewExtractor()
	s, err := e.ExtractSynthesis(`{}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.ConsensusPoints == nil || s.Tensions == nil || s.PriorityOrder == nil {
		t.Fatalf("expected nil slices to default to empty, got %+v", s)
	}
}
