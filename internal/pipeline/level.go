package pipeline

import (
	"fmt"
	"strings"
)

// RetryLevel is the granularity of pipeline re-execution after a quality-gate
// failure. Levels are ordered by scope: each wider level's stage list is a
// superset of the narrower one's.
type RetryLevel string

const (
	LevelEditOnly  RetryLevel = "edit_only"
	LevelWriteOnly RetryLevel = "write_only"
	LevelFullRetry RetryLevel = "full_retry"
)

func ParseRetryLevel(s string) (RetryLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "edit_only", "edit":
		return LevelEditOnly, nil
	case "write_only", "write":
		return LevelWriteOnly, nil
	case "full_retry", "full":
		return LevelFullRetry, nil
	default:
		return "", fmt.Errorf("invalid retry level: %q", s)
	}
}

func (l RetryLevel) Valid() bool {
	switch l {
	case LevelEditOnly, LevelWriteOnly, LevelFullRetry:
		return true
	default:
		return false
	}
}

// scope orders levels for comparison: wider levels re-run more stages.
func (l RetryLevel) scope() int {
	switch l {
	case LevelEditOnly:
		return 0
	case LevelWriteOnly:
		return 1
	case LevelFullRetry:
		return 2
	default:
		return -1
	}
}

// Wider reports whether l re-runs strictly more of the pipeline than other.
func (l RetryLevel) Wider(other RetryLevel) bool {
	return l.scope() > other.scope()
}

// Stages returns the ordered stage list executed at this level.
func (l RetryLevel) Stages() []StageName {
	switch l {
	case LevelEditOnly:
		return []StageName{StageEdit, StageJudge, StageContinuity}
	case LevelWriteOnly:
		return []StageName{StageDraft, StageEdit, StageJudge, StageContinuity}
	default:
		return []StageName{StagePlan, StageDraft, StageEdit, StageJudge, StageContinuity}
	}
}

// PreservedArtifacts names the state fields carried into a run at this level
// instead of being regenerated.
func (l RetryLevel) PreservedArtifacts() []string {
	switch l {
	case LevelEditOnly:
		return []string{InputScenePlan, InputDraftText}
	case LevelWriteOnly:
		return []string{InputScenePlan}
	default:
		return nil
	}
}
