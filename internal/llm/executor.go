package llm

import (
	"context"
	"fmt"
	"strings"

	"storyloom/internal/pipeline"
)

// StageExecutor implements pipeline.Executor on top of a chat-completion
// client. It owns prompt assembly and output normalization: structured
// stages (plan, judge, continuity) must yield a JSON document, text stages
// (draft, edit) yield fence-stripped prose.
type StageExecutor struct {
	Client Client
}

func NewStageExecutor(client Client) *StageExecutor {
	return &StageExecutor{Client: client}
}

func structuredStage(stage pipeline.StageName) bool {
	switch stage {
	case pipeline.StagePlan, pipeline.StageJudge, pipeline.StageContinuity:
		return true
	default:
		return false
	}
}

func (e *StageExecutor) Execute(ctx context.Context, stage pipeline.StageName, inputs map[string]string) (pipeline.StageOutput, error) {
	prompt, err := BuildPrompt(stage, inputs)
	if err != nil {
		return pipeline.StageOutput{}, pipeline.NewUnknownStageError(stage, err.Error())
	}

	raw, err := e.Client.Complete(ctx, prompt.System, prompt.User)
	if err != nil {
		return pipeline.StageOutput{}, stageErrorFromClientError(stage, err)
	}

	if structuredStage(stage) {
		doc, ok := ExtractJSONBlock(raw)
		if !ok {
			return pipeline.StageOutput{}, pipeline.NewMalformedOutputError(stage,
				fmt.Sprintf("no JSON document in output (%d chars)", len(raw)))
		}
		return pipeline.StructuredOutput([]byte(doc)), nil
	}

	text := StripFences(raw)
	if strings.TrimSpace(text) == "" && strings.TrimSpace(raw) != "" {
		// Fence stripping should never eat the whole output.
		text = strings.TrimSpace(raw)
	}
	return pipeline.TextOutput(text), nil
}
