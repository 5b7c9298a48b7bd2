package pipeline

import (
	"testing"

	"storyloom/internal/judge"
)

func failedVerdict(issues ...judge.Issue) *judge.Verdict {
	return &judge.Verdict{Passed: false, Issues: issues}
}

func issue(cat judge.Category, sev judge.Severity) judge.Issue {
	return judge.Issue{Category: cat, Severity: sev}
}

func TestClassify_CategoryRules(t *testing.T) {
	cases := []struct {
		name   string
		issues []judge.Issue
		want   RetryLevel
	}{
		{"structure", []judge.Issue{issue(judge.CategoryStructure, judge.SeverityMedium)}, LevelFullRetry},
		{"safety critical", []judge.Issue{issue(judge.CategorySafety, judge.SeverityCritical)}, LevelFullRetry},
		{"safety high", []judge.Issue{issue(judge.CategorySafety, judge.SeverityHigh)}, LevelFullRetry},
		{"safety medium", []judge.Issue{issue(judge.CategorySafety, judge.SeverityMedium)}, LevelEditOnly},
		{"safety low", []judge.Issue{issue(judge.CategorySafety, judge.SeverityLow)}, LevelEditOnly},
		{"motivation", []judge.Issue{issue(judge.CategoryMotivation, judge.SeverityMedium)}, LevelWriteOnly},
		{"hook", []judge.Issue{issue(judge.CategoryHook, judge.SeverityLow)}, LevelWriteOnly},
		{"clue fairness", []judge.Issue{issue(judge.CategoryClueFairness, judge.SeverityHigh)}, LevelWriteOnly},
		{"continuity", []judge.Issue{issue(judge.CategoryContinuity, judge.SeverityMedium)}, LevelWriteOnly},
		{"prose", []judge.Issue{issue(judge.CategoryProse, judge.SeverityLow)}, LevelEditOnly},
		{"pacing", []judge.Issue{issue(judge.CategoryPacing, judge.SeverityMedium)}, LevelEditOnly},
		{"word count", []judge.Issue{issue(judge.CategoryWordCount, judge.SeverityLow)}, LevelEditOnly},
		{"unrecognized category", []judge.Issue{issue(judge.Category("melodrama"), judge.SeverityLow)}, LevelWriteOnly},
		{"no issues at all", nil, LevelWriteOnly},
	}
	for _, tc := range cases {
		if got := Classify(failedVerdict(tc.issues...), 0, 3); got != tc.want {
			t.Fatalf("%s: got %s want %s", tc.name, got, tc.want)
		}
	}
}

func TestClassify_WidestIssueWins(t *testing.T) {
	// A structure issue outranks everything alongside it.
	v := failedVerdict(
		issue(judge.CategoryProse, judge.SeverityLow),
		issue(judge.CategoryStructure, judge.SeverityLow),
		issue(judge.CategoryMotivation, judge.SeverityHigh),
	)
	if got := Classify(v, 0, 3); got != LevelFullRetry {
		t.Fatalf("structure among others: got %s want %s", got, LevelFullRetry)
	}

	// Content-level issues outrank surface-level ones.
	v = failedVerdict(
		issue(judge.CategoryWordCount, judge.SeverityHigh),
		issue(judge.CategoryMotivation, judge.SeverityLow),
	)
	if got := Classify(v, 0, 3); got != LevelWriteOnly {
		t.Fatalf("motivation + word_count: got %s want %s", got, LevelWriteOnly)
	}
}

func TestClassify_SeverityOnlyMattersForSafety(t *testing.T) {
	// A critical prose issue is still an editing problem.
	v := failedVerdict(issue(judge.CategoryProse, judge.SeverityCritical))
	if got := Classify(v, 0, 3); got != LevelEditOnly {
		t.Fatalf("critical prose: got %s want %s", got, LevelEditOnly)
	}
	// Safety escalates only at high/critical even next to wider categories.
	v = failedVerdict(
		issue(judge.CategorySafety, judge.SeverityLow),
		issue(judge.CategoryProse, judge.SeverityLow),
	)
	if got := Classify(v, 0, 3); got != LevelEditOnly {
		t.Fatalf("low safety + prose: got %s want %s", got, LevelEditOnly)
	}
}

func TestClassify_FinalAttemptForcesFullRetry(t *testing.T) {
	v := failedVerdict(issue(judge.CategoryProse, judge.SeverityLow))
	if got := Classify(v, 2, 3); got != LevelFullRetry {
		t.Fatalf("final attempt: got %s want %s", got, LevelFullRetry)
	}
	// With a larger budget the same attempt index is not final.
	if got := Classify(v, 2, 5); got != LevelEditOnly {
		t.Fatalf("mid-budget attempt: got %s want %s", got, LevelEditOnly)
	}
}
