package pipeline

import (
	"storyloom/internal/story"
)

// RetryDecision is the execution plan for one attempt: the level actually
// run (after any degradation), the ordered stage list, and the preserved
// inputs those stages receive instead of regenerating them. Computed fresh
// per attempt, never persisted.
type RetryDecision struct {
	Level           RetryLevel
	Stages          []StageName
	PreservedInputs map[string]string

	// Degraded is set when the requested level could not be honored because
	// a preserved artifact was missing or failed validation; Reason explains
	// which fallback fired. A degraded plan is a logged event, not an error.
	Degraded bool
	Reason   string
}

// Word-budget constants for preserved scene plans. A plan whose segment
// targets drift outside the tolerance is rescaled before the draft stage
// sees it again.
const (
	DefaultTargetWords   = 3000
	DefaultWordTolerance = 100
)

// PlanFor selects the stages to execute for the requested level given the
// current state. Missing or invalid preserved artifacts degrade the level
// toward FullRetry rather than failing the attempt:
//
//	EditOnly without a draft     -> WriteOnly
//	WriteOnly without a valid plan -> FullRetry
func PlanFor(level RetryLevel, state *GenerationState, targetWords, wordTolerance int) RetryDecision {
	if targetWords <= 0 {
		targetWords = DefaultTargetWords
	}
	if wordTolerance <= 0 {
		wordTolerance = DefaultWordTolerance
	}

	degradedReason := ""
	if level == LevelEditOnly && state.DraftText == "" {
		// The classifier never picks EditOnly before a draft exists, so this
		// is a configuration fault; degrade instead of crashing.
		level = LevelWriteOnly
		degradedReason = "edit_only requested without preserved draft_text"
	}

	switch level {
	case LevelEditOnly:
		preserved := map[string]string{
			InputScenePlan: state.ScenePlanJSON,
			InputDraftText: state.DraftText,
		}
		return RetryDecision{
			Level:           LevelEditOnly,
			Stages:          LevelEditOnly.Stages(),
			PreservedInputs: preserved,
		}

	case LevelWriteOnly:
		plan, err := reusableScenePlan(state, targetWords, wordTolerance)
		if err != nil {
			reason := "write_only requested: " + err.Error()
			if degradedReason != "" {
				reason = degradedReason + "; " + reason
			}
			return RetryDecision{
				Level:    LevelFullRetry,
				Stages:   LevelFullRetry.Stages(),
				Degraded: true,
				Reason:   reason,
			}
		}
		return RetryDecision{
			Level:           LevelWriteOnly,
			Stages:          LevelWriteOnly.Stages(),
			PreservedInputs: map[string]string{InputScenePlan: plan},
			Degraded:        degradedReason != "",
			Reason:          degradedReason,
		}

	default:
		return RetryDecision{
			Level:  LevelFullRetry,
			Stages: LevelFullRetry.Stages(),
		}
	}
}

// reusableScenePlan validates the preserved plan and applies the word-budget
// correction. The stored artifact is left untouched; the corrected copy is
// what the draft stage receives. The correction is deterministic, so every
// reuse of the same stored plan produces the same input.
func reusableScenePlan(state *GenerationState, targetWords, wordTolerance int) (string, error) {
	plan, err := story.DecodeScenePlanJSON([]byte(state.ScenePlanJSON))
	if err != nil {
		return "", err
	}
	corrected := plan.RebalanceWordBudget(targetWords, wordTolerance)
	return corrected.JSON()
}
