package pipeline

import (
	"reflect"
	"testing"
)

func TestParseRetryLevel(t *testing.T) {
	cases := map[string]RetryLevel{
		"edit_only":  LevelEditOnly,
		"edit":       LevelEditOnly,
		"write_only": LevelWriteOnly,
		"write":      LevelWriteOnly,
		"full_retry": LevelFullRetry,
		"full":       LevelFullRetry,
		" FULL ":     LevelFullRetry,
	}
	for in, want := range cases {
		got, err := ParseRetryLevel(in)
		if err != nil {
			t.Fatalf("ParseRetryLevel(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseRetryLevel(%q): got %s want %s", in, got, want)
		}
	}
	if _, err := ParseRetryLevel("partial"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestRetryLevel_WiderOrdering(t *testing.T) {
	if !LevelWriteOnly.Wider(LevelEditOnly) {
		t.Fatalf("write_only should be wider than edit_only")
	}
	if !LevelFullRetry.Wider(LevelWriteOnly) {
		t.Fatalf("full_retry should be wider than write_only")
	}
	if LevelEditOnly.Wider(LevelEditOnly) {
		t.Fatalf("a level is not wider than itself")
	}
	if LevelEditOnly.Wider(LevelFullRetry) {
		t.Fatalf("edit_only is not wider than full_retry")
	}
}

func TestRetryLevel_StagesAreNestedSuffixes(t *testing.T) {
	edit := LevelEditOnly.Stages()
	write := LevelWriteOnly.Stages()
	full := LevelFullRetry.Stages()

	wantEdit := []StageName{StageEdit, StageJudge, StageContinuity}
	if !reflect.DeepEqual(edit, wantEdit) {
		t.Fatalf("edit stages: got %v want %v", edit, wantEdit)
	}
	if !reflect.DeepEqual(write, append([]StageName{StageDraft}, wantEdit...)) {
		t.Fatalf("write stages: got %v", write)
	}
	if !reflect.DeepEqual(full, append([]StageName{StagePlan, StageDraft}, wantEdit...)) {
		t.Fatalf("full stages: got %v", full)
	}
}

func TestRetryLevel_PreservedArtifacts(t *testing.T) {
	if got := LevelEditOnly.PreservedArtifacts(); !reflect.DeepEqual(got, []string{InputScenePlan, InputDraftText}) {
		t.Fatalf("edit_only preserved: got %v", got)
	}
	if got := LevelWriteOnly.PreservedArtifacts(); !reflect.DeepEqual(got, []string{InputScenePlan}) {
		t.Fatalf("write_only preserved: got %v", got)
	}
	if got := LevelFullRetry.PreservedArtifacts(); got != nil {
		t.Fatalf("full_retry preserved: got %v want nil", got)
	}
}
