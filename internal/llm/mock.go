package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"storyloom/internal/judge"
	"storyloom/internal/pipeline"
	"storyloom/internal/story"
)

// MockExecutor is a deterministic offline stage executor for --mock runs and
// tests. Every chapter passes the quality gate on the first attempt.
type MockExecutor struct {
	TargetWords int
}

func (m *MockExecutor) target() int {
	if m.TargetWords > 0 {
		return m.TargetWords
	}
	return pipeline.DefaultTargetWords
}

func (m *MockExecutor) Execute(_ context.Context, stage pipeline.StageName, inputs map[string]string) (pipeline.StageOutput, error) {
	chapter, _ := strconv.Atoi(inputs[pipeline.InputChapterNumber])
	if chapter <= 0 {
		chapter = 1
	}

	switch stage {
	case pipeline.StagePlan:
		per := m.target() / 3
		plan := story.ScenePlan{
			ChapterNumber:    chapter,
			ChapterTitle:     fmt.Sprintf("Chapter %d", chapter),
			TotalTargetWords: m.target(),
			Scenes: []story.Scene{
				{SceneNumber: 1, Purpose: "opening beat", TargetWords: per},
				{SceneNumber: 2, Purpose: "rising conflict", TargetWords: per},
				{SceneNumber: 3, Purpose: "chapter hook", TargetWords: m.target() - 2*per},
			},
		}
		b, err := json.Marshal(plan)
		if err != nil {
			return pipeline.StageOutput{}, pipeline.NewUnknownStageError(stage, err.Error())
		}
		return pipeline.StructuredOutput(b), nil

	case pipeline.StageDraft:
		return pipeline.TextOutput(mockProse(chapter, "draft")), nil

	case pipeline.StageEdit:
		base := inputs[pipeline.InputDraftText]
		if strings.TrimSpace(base) == "" {
			base = mockProse(chapter, "draft")
		}
		return pipeline.TextOutput(base + "\n\n(revised)"), nil

	case pipeline.StageJudge:
		v := judge.Verdict{
			Chapter: chapter,
			Passed:  true,
			Scores: judge.ScoreBreakdown{
				Continuity: 8, Pacing: 8, CharacterMotivation: 8,
				GenreFulfillment: 8, Prose: 8, Hook: 8,
			},
			HardFail: &judge.HardFail{SafetyPass: true, WordCountInRange: true},
		}
		b, err := json.Marshal(v)
		if err != nil {
			return pipeline.StageOutput{}, pipeline.NewUnknownStageError(stage, err.Error())
		}
		return pipeline.StructuredOutput(b), nil

	case pipeline.StageContinuity:
		bible, err := story.DecodeBibleJSON([]byte(inputs[pipeline.InputStoryBible]))
		if err != nil {
			bible = &story.Bible{}
		}
		bible.ChapterSummaries = append(bible.ChapterSummaries,
			fmt.Sprintf("Chapter %d: events unfold.", chapter))
		b, err := json.Marshal(bible)
		if err != nil {
			return pipeline.StageOutput{}, pipeline.NewUnknownStageError(stage, err.Error())
		}
		return pipeline.StructuredOutput(b), nil

	default:
		return pipeline.StageOutput{}, pipeline.NewUnknownStageError(stage, fmt.Sprintf("unknown stage %q", stage))
	}
}

func mockProse(chapter int, label string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Chapter %d (%s).\n\n", chapter, label)
	for i := 1; i <= 3; i++ {
		fmt.Fprintf(&b, "Scene %d unfolds with steady momentum, carrying the chapter toward its hook.\n\n", i)
	}
	return strings.TrimSpace(b.String())
}
