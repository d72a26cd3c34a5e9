package artifact

import "sort"

// FilterCaps configures the per-round truncation caps of spec.md §4.4.
// Exposed as configuration since the teacher's own filter methods used
// different caps in different places (spec.md §9, Open Questions).
type FilterCaps struct {
	MaxConsensusPoints int
	MaxTensions        int
	MaxChallenges      int
	MaxRebuttals       int
}

// DefaultFilterCaps is a reasonable default; callers in verbose mode skip
// filtering entirely rather than tuning these.
func DefaultFilterCaps() FilterCaps {
	return FilterCaps{
		MaxConsensusPoints: 8,
		MaxTensions:        5,
		MaxChallenges:      10,
		MaxRebuttals:       10,
	}
}

// Filter reduces artifact size between rounds to control token budget
// while preserving the highest-signal entries (spec.md §4.4). It is a
// pure function: it never allocates new facts, only drops low-priority
// ones.
type Filter struct {
	Caps    FilterCaps
	Verbose bool // when true, Filter* are identity functions
}

func NewFilter(caps FilterCaps, verbose bool) *Filter {
	return &Filter{Caps: caps, Verbose: verbose}
}

// FilterSynthesisForRound3 truncates ConsensusPoints/Tensions beyond the
// configured cap, keeping the highest-confidence consensus points and the
// first-listed tensions (treated as already priority-ordered by the judge).
func (f *Filter) FilterSynthesisForRound3(s Synthesis) Synthesis {
	if f.Verbose {
		return s
	}
	out := s

	points := append([]ConsensusPoint(nil), s.ConsensusPoints...)
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Confidence > points[j].Confidence
	})
	if len(points) > f.Caps.MaxConsensusPoints {
		points = points[:f.Caps.MaxConsensusPoints]
	}
	out.ConsensusPoints = points

	tensions := s.Tensions
	if len(tensions) > f.Caps.MaxTensions {
		tensions = tensions[:f.Caps.MaxTensions]
	}
	out.Tensions = tensions

	return out
}

// FilterCrossExamForRound4 keeps all Unresolved items (spec.md §4.4
// requires these survive filtering in full) and caps Rebuttals/Challenges.
func (f *Filter) FilterCrossExamForRound4(c CrossExam) CrossExam {
	if f.Verbose {
		return c
	}
	out := c

	challenges := c.Challenges
	if len(challenges) > f.Caps.MaxChallenges {
		challenges = challenges[:f.Caps.MaxChallenges]
	}
	out.Challenges = challenges

	rebuttals := c.Rebuttals
	if len(rebuttals) > f.Caps.MaxRebuttals {
		rebuttals = rebuttals[:f.Caps.MaxRebuttals]
	}
	out.Rebuttals = rebuttals

	// Unresolved is never truncated.
	out.Unresolved = c.Unresolved

	return out
}
