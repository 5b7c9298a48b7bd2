package judge

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Severity of a single judge issue.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return SeverityLow, nil
	case "medium", "med":
		return SeverityMedium, nil
	case "high":
		return SeverityHigh, nil
	case "critical", "crit":
		return SeverityCritical, nil
	default:
		return "", fmt.Errorf("invalid severity: %q", s)
	}
}

// Category of a judge issue. The classifier only needs to distinguish the
// known categories below; anything else is passed through as-is and handled
// by the classifier's conservative default.
type Category string

const (
	CategoryContinuity   Category = "continuity"
	CategoryStructure    Category = "structure"
	CategoryMotivation   Category = "motivation"
	CategoryPacing       Category = "pacing"
	CategoryClueFairness Category = "clue_fairness"
	CategoryProse        Category = "prose"
	CategoryHook         Category = "hook"
	CategorySafety       Category = "safety"
	CategoryWordCount    Category = "word_count"
)

// Known reports whether the category is one the classifier has a rule for.
func (c Category) Known() bool {
	switch c {
	case CategoryContinuity, CategoryStructure, CategoryMotivation, CategoryPacing,
		CategoryClueFairness, CategoryProse, CategoryHook, CategorySafety, CategoryWordCount:
		return true
	default:
		return false
	}
}

// Issue is one problem the judge found with a chapter.
type Issue struct {
	Category Category `json:"category"`
	Severity Severity `json:"severity"`
	Note     string   `json:"note,omitempty"`
	Location string   `json:"location,omitempty"`
}

// ScoreBreakdown is opaque to the retry engine; carried for reporting only.
type ScoreBreakdown struct {
	Continuity          int `json:"continuity"`
	Pacing              int `json:"pacing"`
	CharacterMotivation int `json:"character_motivation"`
	GenreFulfillment    int `json:"genre_fulfillment"`
	Prose               int `json:"prose"`
	Hook                int `json:"hook"`
	ClueFairness        int `json:"clue_fairness,omitempty"`
}

// HardFail mirrors the judge's hard-requirement block.
type HardFail struct {
	SafetyPass          bool     `json:"safety_pass"`
	ContinuityConflicts []string `json:"continuity_conflicts,omitempty"`
	WordCountInRange    bool     `json:"word_count_in_range"`
}

// Verdict is the judge stage's quality-gate report for one attempt.
type Verdict struct {
	Chapter   int  `json:"chapter,omitempty"`
	WordCount int  `json:"word_count,omitempty"`
	Passed    bool `json:"passed"`

	Scores   ScoreBreakdown `json:"scores"`
	HardFail *HardFail      `json:"hard_fail,omitempty"`

	Issues               []Issue  `json:"issues"`
	RevisionInstructions []string `json:"revision_instructions,omitempty"`
	Strengths            []string `json:"strengths,omitempty"`
}

// Categories returns the set of issue categories present in the verdict.
func (v *Verdict) Categories() map[Category]bool {
	set := make(map[Category]bool, len(v.Issues))
	for _, is := range v.Issues {
		set[is.Category] = true
	}
	return set
}

// RevisionBlock concatenates revision instructions into the single guidance
// string carried into the next attempt.
func (v *Verdict) RevisionBlock() string {
	parts := make([]string, 0, len(v.RevisionInstructions))
	for _, ins := range v.RevisionInstructions {
		if s := strings.TrimSpace(ins); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n")
}

// DecodeVerdictJSON parses a judge stage output. The canonical shape uses
// "category"; the legacy judge emitted "type" for the same field, so both
// spellings are accepted.
func DecodeVerdictJSON(b []byte) (*Verdict, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil, fmt.Errorf("verdict json is empty")
	}

	var v Verdict
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("decode verdict: %w", err)
	}

	// Legacy issue shape: {"type": "...", "severity": "..."}.
	var legacy struct {
		Issues []struct {
			Type     string `json:"type"`
			Category string `json:"category"`
			Severity string `json:"severity"`
			Note     string `json:"note"`
			Location string `json:"location"`
		} `json:"issues"`
	}
	if err := json.Unmarshal(b, &legacy); err == nil {
		for i, li := range legacy.Issues {
			if i >= len(v.Issues) {
				break
			}
			if v.Issues[i].Category == "" && li.Type != "" {
				v.Issues[i].Category = Category(strings.ToLower(strings.TrimSpace(li.Type)))
			}
		}
	}

	for i := range v.Issues {
		v.Issues[i].Category = Category(strings.ToLower(strings.TrimSpace(string(v.Issues[i].Category))))
		sev, err := ParseSeverity(string(v.Issues[i].Severity))
		if err != nil {
			// Unparseable severities degrade to medium rather than dropping
			// the issue: the category still drives retry selection.
			sev = SeverityMedium
		}
		v.Issues[i].Severity = sev
	}
	return &v, nil
}
