package pipeline

import (
	"context"
	"fmt"
	"strings"
)

// StageName identifies one black-box generation step.
type StageName string

const (
	StagePlan       StageName = "plan"
	StageDraft      StageName = "draft"
	StageEdit       StageName = "edit"
	StageJudge      StageName = "judge"
	StageContinuity StageName = "continuity_update"
)

func ParseStageName(s string) (StageName, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "plan":
		return StagePlan, nil
	case "draft", "write":
		return StageDraft, nil
	case "edit":
		return StageEdit, nil
	case "judge":
		return StageJudge, nil
	case "continuity_update", "continuity":
		return StageContinuity, nil
	default:
		return "", fmt.Errorf("invalid stage name: %q", s)
	}
}

// OutputKind discriminates the two stage output variants.
type OutputKind string

const (
	OutputStructured OutputKind = "structured"
	OutputText       OutputKind = "text"
)

// StageOutput is the normalized result of one stage execution. The executor
// is responsible for unwrapping whatever its backend returns into exactly
// one of the two variants before control returns to the pipeline.
type StageOutput struct {
	Kind       OutputKind
	Text       string
	Structured []byte // JSON document, already fence-stripped
}

func TextOutput(s string) StageOutput {
	return StageOutput{Kind: OutputText, Text: s}
}

func StructuredOutput(b []byte) StageOutput {
	return StageOutput{Kind: OutputStructured, Structured: b}
}

// Raw returns the output payload regardless of variant.
func (o StageOutput) Raw() string {
	if o.Kind == OutputStructured {
		return string(o.Structured)
	}
	return o.Text
}

// Executor runs one named stage with string inputs. Implementations own
// prompt content, model selection, and output repair; the pipeline treats
// them as opaque. A failed execution returns a StageError so the controller
// can branch on its kind instead of probing error text.
type Executor interface {
	Execute(ctx context.Context, stage StageName, inputs map[string]string) (StageOutput, error)
}

// Input keys shared between the controller and executors.
const (
	InputChapterNumber        = "chapter_number"
	InputChapterOutline       = "chapter_outline"
	InputStorySpec            = "story_spec"
	InputStoryBible           = "story_bible"
	InputScenePlan            = "scene_plan"
	InputDraftText            = "draft_text"
	InputRevisionText         = "revision_text"
	InputRevisionInstructions = "revision_instructions"
)
