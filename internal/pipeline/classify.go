package pipeline

import (
	"storyloom/internal/judge"
)

// Classify maps a failed verdict's issues to the retry level for the next
// attempt. attempt is 0-based; the caller invokes this only when
// verdict.Passed is false.
//
// Rules, first match wins:
//  1. Final allowed attempt: always FullRetry — no later chance to widen.
//  2. structure: FullRetry. A text edit cannot repair a broken scene plan.
//  3. safety: FullRetry at high/critical severity, EditOnly otherwise —
//     low-grade safety notes are fixable by the editing pass.
//  4. motivation/hook/clue_fairness/continuity: WriteOnly — new prose on the
//     existing plan.
//  5. prose/pacing/word_count: EditOnly — surface-level.
//  6. Anything else (unrecognized categories): WriteOnly. Content-level
//     regeneration is the safer guess for an issue we cannot place.
func Classify(verdict *judge.Verdict, attempt int, maxAttempts int) RetryLevel {
	if attempt >= maxAttempts-1 {
		return LevelFullRetry
	}

	cats := verdict.Categories()

	if cats[judge.CategoryStructure] {
		return LevelFullRetry
	}

	if cats[judge.CategorySafety] {
		for _, is := range verdict.Issues {
			if is.Category != judge.CategorySafety {
				continue
			}
			if is.Severity == judge.SeverityHigh || is.Severity == judge.SeverityCritical {
				return LevelFullRetry
			}
		}
		return LevelEditOnly
	}

	if cats[judge.CategoryMotivation] || cats[judge.CategoryHook] ||
		cats[judge.CategoryClueFairness] || cats[judge.CategoryContinuity] {
		return LevelWriteOnly
	}

	if cats[judge.CategoryProse] || cats[judge.CategoryPacing] || cats[judge.CategoryWordCount] {
		return LevelEditOnly
	}

	return LevelWriteOnly
}
