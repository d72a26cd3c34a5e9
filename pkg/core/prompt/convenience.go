package prompt

// Convenience functions for common prompt operations

// GetAdvisorPrompt returns an advisor agent's system prompt by role name
// (e.g. "fundamental", "skeptic", "optimist").
func GetAdvisorPrompt(role string) (string, error) {
	id := "advisor." + role
	return Get().GetSystemPrompt(id)
}

// GetJudgePrompt returns the judge's system prompt for one debate phase
// ("synthesis", "cross_exam", "verdict").
func GetJudgePrompt(phase string) (string, error) {
	id := "judge." + phase
	return Get().GetSystemPrompt(id)
}

// MustGetAdvisorPrompt is like GetAdvisorPrompt but panics on error.
func MustGetAdvisorPrompt(role string) string {
	p, err := GetAdvisorPrompt(role)
	if err != nil {
		panic(err)
	}
	return p
}

// MustGetJudgePrompt is like GetJudgePrompt but panics on error.
func MustGetJudgePrompt(phase string) string {
	p, err := GetJudgePrompt(phase)
	if err != nil {
		panic(err)
	}
	return p
}

// PromptIDs contains all known prompt identifiers for the debate engine.
var PromptIDs = struct {
	JudgeSynthesis string
	JudgeCrossExam string
	JudgeVerdict   string
}{
	JudgeSynthesis: "judge.synthesis",
	JudgeCrossExam: "judge.cross_exam",
	JudgeVerdict:   "judge.verdict",
}
