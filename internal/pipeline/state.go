package pipeline

import (
	"fmt"
)

// GenerationState holds the artifacts from the last successful run of each
// stage within one chapter's generation lifetime, plus the retry bookkeeping
// the controller needs across attempts. It is created at chapter start,
// mutated after every pipeline run, and discarded when the chapter passes or
// exhausts its budget. Single-threaded by construction: chapters run one at
// a time.
type GenerationState struct {
	ScenePlanJSON string
	DraftText     string
	RevisionText  string

	CurrentAttempt int
	LastRetryLevel RetryLevel // empty until the first failure is classified

	// At most one streak is nonzero at any time; both reset when the level
	// changes away from the one being tracked.
	EditRetryStreak  int
	WriteRetryStreak int
}

func NewGenerationState() *GenerationState {
	return &GenerationState{}
}

// Absorb maps the ordered stage outputs of a run at levelUsed into the state
// fields. Empty outputs are stored as-is; empty-chapter detection is the
// caller's concern. The output count must match the level's stage list.
func (s *GenerationState) Absorb(levelUsed RetryLevel, outputs []StageOutput) error {
	want := len(levelUsed.Stages())
	if len(outputs) != want {
		return fmt.Errorf("absorb: level %s expects %d stage outputs, got %d", levelUsed, want, len(outputs))
	}
	switch levelUsed {
	case LevelFullRetry:
		s.ScenePlanJSON = outputs[0].Raw()
		s.DraftText = outputs[1].Raw()
		s.RevisionText = outputs[2].Raw()
	case LevelWriteOnly:
		s.DraftText = outputs[0].Raw()
		s.RevisionText = outputs[1].Raw()
	case LevelEditOnly:
		s.RevisionText = outputs[0].Raw()
	default:
		return fmt.Errorf("absorb: invalid retry level %q", levelUsed)
	}
	return nil
}
