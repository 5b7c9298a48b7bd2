package pipeline

import (
	"strings"
	"testing"
)

func TestAbsorb_FullRetryReplacesEverything(t *testing.T) {
	s := NewGenerationState()
	s.ScenePlanJSON = "old-plan"
	s.DraftText = "old-draft"
	s.RevisionText = "old-rev"

	outputs := []StageOutput{
		StructuredOutput([]byte(`{"plan":1}`)),
		TextOutput("new draft"),
		TextOutput("new revision"),
		StructuredOutput([]byte(`{"passed":true}`)),
		StructuredOutput([]byte(`{"characters":[]}`)),
	}
	if err := s.Absorb(LevelFullRetry, outputs); err != nil {
		t.Fatalf("absorb: %v", err)
	}
	if s.ScenePlanJSON != `{"plan":1}` || s.DraftText != "new draft" || s.RevisionText != "new revision" {
		t.Fatalf("full absorb: %+v", s)
	}
}

func TestAbsorb_WriteOnlyKeepsScenePlan(t *testing.T) {
	s := NewGenerationState()
	s.ScenePlanJSON = "kept-plan"

	outputs := []StageOutput{
		TextOutput("new draft"),
		TextOutput("new revision"),
		StructuredOutput([]byte(`{"passed":false}`)),
		StructuredOutput([]byte(`{}`)),
	}
	if err := s.Absorb(LevelWriteOnly, outputs); err != nil {
		t.Fatalf("absorb: %v", err)
	}
	if s.ScenePlanJSON != "kept-plan" {
		t.Fatalf("write_only must not touch the scene plan: %q", s.ScenePlanJSON)
	}
	if s.DraftText != "new draft" || s.RevisionText != "new revision" {
		t.Fatalf("write_only absorb: %+v", s)
	}
}

func TestAbsorb_EditOnlyKeepsPlanAndDraft(t *testing.T) {
	s := NewGenerationState()
	s.ScenePlanJSON = "kept-plan"
	s.DraftText = "kept-draft"

	outputs := []StageOutput{
		TextOutput("new revision"),
		StructuredOutput([]byte(`{"passed":false}`)),
		StructuredOutput([]byte(`{}`)),
	}
	if err := s.Absorb(LevelEditOnly, outputs); err != nil {
		t.Fatalf("absorb: %v", err)
	}
	if s.ScenePlanJSON != "kept-plan" || s.DraftText != "kept-draft" {
		t.Fatalf("edit_only must preserve plan and draft: %+v", s)
	}
	if s.RevisionText != "new revision" {
		t.Fatalf("edit_only absorb revision: %q", s.RevisionText)
	}
}

func TestAbsorb_EmptyOutputsStoredAsIs(t *testing.T) {
	s := NewGenerationState()
	outputs := []StageOutput{
		TextOutput(""),
		StructuredOutput([]byte(`{}`)),
		StructuredOutput([]byte(`{}`)),
	}
	if err := s.Absorb(LevelEditOnly, outputs); err != nil {
		t.Fatalf("absorb: %v", err)
	}
	if s.RevisionText != "" {
		t.Fatalf("empty output should be stored verbatim: %q", s.RevisionText)
	}
}

func TestAbsorb_OutputCountMismatch(t *testing.T) {
	s := NewGenerationState()
	err := s.Absorb(LevelFullRetry, []StageOutput{TextOutput("only one")})
	if err == nil {
		t.Fatalf("expected error for wrong output count")
	}
	if !strings.Contains(err.Error(), "expects 5") {
		t.Fatalf("unexpected error: %v", err)
	}
}
