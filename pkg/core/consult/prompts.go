package consult

import (
	"fmt"
	"strings"

	"agentic_debate/pkg/core/agent"
	"agentic_debate/pkg/core/artifact"
	"agentic_debate/pkg/core/prompt"
)

// systemPromptFor resolves an agent's system prompt from the shared
// prompt library, falling back to a hardcoded default the way
// cmd/api/main.go falls back when the resource directory is absent.
func systemPromptFor(d agent.Descriptor) string {
	if p, err := prompt.GetAdvisorPrompt(d.Role); err == nil && p != "" {
		return p
	}
	return fmt.Sprintf(
		"You are %s, an advisor in a structured multi-model debate. Respond ONLY with a JSON object: "+
			`{"position": "...", "key_points": ["..."], "rationale": "...", "confidence": 0.0, "prose_excerpt": "..."}.`,
		d.DisplayName,
	)
}

func judgeSystemPrompt(phase string) string {
	if p, err := prompt.GetJudgePrompt(phase); err == nil && p != "" {
		return p
	}
	switch phase {
	case "synthesis":
		return "You are the judge. Read every advisor's independent position and respond ONLY with a JSON object: " +
			`{"consensus_points": [{"point": "...", "supporting_agents": ["..."], "confidence": 0.0}], ` +
			`"tensions": [{"topic": "...", "viewpoints": [{"agent": "...", "viewpoint": "..."}]}], "priority_order": ["..."]}.`
	case "cross_exam":
		return "You are the judge. Consolidate the advisors' cross-examination contributions into ONE JSON object: " +
			`{"challenges": [{"challenger": "...", "target_agent": "...", "challenge": "...", "evidence": ["..."]}], ` +
			`"rebuttals": [{"agent": "...", "rebuttal": "..."}], "unresolved": ["..."]}.`
	default: // "verdict"
		return "You are the judge. Deliver the final verdict as ONE JSON object: " +
			`{"recommendation": "...", "confidence": 0.0, "evidence": ["..."], "dissent": ["..."]}.`
	}
}

func round1UserPrompt(question, projectContext string) string {
	var b strings.Builder
	if projectContext != "" {
		b.WriteString("=== PROJECT CONTEXT ===\n")
		b.WriteString(projectContext)
		b.WriteString("\n\n")
	}
	b.WriteString("=== QUESTION ===\n")
	b.WriteString(question)
	return b.String()
}

func synthesisUserPrompt(question string, independents []artifact.Independent) string {
	var b strings.Builder
	b.WriteString("=== QUESTION ===\n")
	b.WriteString(question)
	b.WriteString("\n\n=== INDEPENDENT POSITIONS ===\n")
	for _, ind := range independents {
		fmt.Fprintf(&b, "[%s] position=%q confidence=%.2f\nkey_points=%v\nrationale=%s\n\n",
			ind.AgentID, ind.Position, ind.Confidence, ind.KeyPoints, ind.Rationale)
	}
	return b.String()
}

func crossExamAgentUserPrompt(question string, own artifact.Independent, synthesis artifact.Synthesis) string {
	var b strings.Builder
	b.WriteString("=== QUESTION ===\n")
	b.WriteString(question)
	fmt.Fprintf(&b, "\n\n=== YOUR ROUND-1 POSITION ===\n%s\n\n=== SYNTHESIS ===\n", own.Position)
	for _, cp := range synthesis.ConsensusPoints {
		fmt.Fprintf(&b, "consensus: %s (confidence=%.2f)\n", cp.Point, cp.Confidence)
	}
	for _, t := range synthesis.Tensions {
		fmt.Fprintf(&b, "tension: %s\n", t.Topic)
	}
	b.WriteString("\nChallenge another agent's position or rebut a challenge to yours, citing evidence.")
	return b.String()
}

func crossExamConsolidationPrompt(question string, contributions map[string]string) string {
	var b strings.Builder
	b.WriteString("=== QUESTION ===\n")
	b.WriteString(question)
	b.WriteString("\n\n=== AGENT CONTRIBUTIONS ===\n")
	for agentID, text := range contributions {
		fmt.Fprintf(&b, "[%s]\n%s\n\n", agentID, text)
	}
	return b.String()
}

func verdictUserPrompt(question string, synthesis artifact.Synthesis, crossExam artifact.CrossExam, round1 []artifact.Independent, verbose bool) string {
	var b strings.Builder
	b.WriteString("=== QUESTION ===\n")
	b.WriteString(question)
	b.WriteString("\n\n=== SYNTHESIS ===\n")
	for _, cp := range synthesis.ConsensusPoints {
		fmt.Fprintf(&b, "consensus: %s (confidence=%.2f)\n", cp.Point, cp.Confidence)
	}
	b.WriteString("\n=== CROSS-EXAMINATION ===\n")
	for _, c := range crossExam.Challenges {
		fmt.Fprintf(&b, "challenge: %s -> %s: %s\n", c.Challenger, c.TargetAgent, c.Challenge)
	}
	for _, u := range crossExam.Unresolved {
		fmt.Fprintf(&b, "unresolved: %s\n", u)
	}
	if verbose {
		b.WriteString("\n=== ROUND 1 (verbose) ===\n")
		for _, ind := range round1 {
			fmt.Fprintf(&b, "[%s] %s\n", ind.AgentID, ind.Position)
		}
	}
	return b.String()
}
