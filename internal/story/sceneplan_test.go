package story

import (
	"testing"
)

func plan(words ...int) *ScenePlan {
	p := &ScenePlan{ChapterNumber: 1}
	for i, w := range words {
		p.Scenes = append(p.Scenes, Scene{SceneNumber: i + 1, Purpose: "beat", TargetWords: w})
	}
	return p
}

func TestDecodeScenePlanJSON_Valid(t *testing.T) {
	in := `{"chapter_number":2,"chapter_title":"The Locked Door","scenes":[
		{"scene_number":1,"purpose":"discovery","target_words":1200},
		{"scene_number":2,"purpose":"interrogation","target_words":1800}
	]}`
	p, err := DecodeScenePlanJSON([]byte(in))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.ChapterNumber != 2 || len(p.Scenes) != 2 {
		t.Fatalf("plan: %+v", p)
	}
	if p.SegmentWordSum() != 3000 {
		t.Fatalf("sum: %d", p.SegmentWordSum())
	}
}

func TestDecodeScenePlanJSON_SchemaViolations(t *testing.T) {
	cases := []string{
		``,
		`not json`,
		`{"scenes":[{"scene_number":1,"purpose":"x","target_words":100}]}`, // no chapter_number
		`{"chapter_number":1,"scenes":[]}`,                                 // empty scene list
		`{"chapter_number":1,"scenes":[{"scene_number":1,"purpose":"x"}]}`, // no target_words
		`{"chapter_number":1,"scenes":[{"scene_number":1,"purpose":"x","target_words":0}]}`,
		`{"chapter_number":0,"scenes":[{"scene_number":1,"purpose":"x","target_words":100}]}`,
	}
	for _, in := range cases {
		if _, err := DecodeScenePlanJSON([]byte(in)); err == nil {
			t.Fatalf("expected error for %q", in)
		}
	}
}

func TestRebalanceWordBudget_WithinToleranceUnchanged(t *testing.T) {
	p := plan(1000, 1000, 1050)
	got := p.RebalanceWordBudget(3000, 100)
	if got != p {
		t.Fatalf("in-tolerance plan should be returned as-is")
	}
}

func TestRebalanceWordBudget_RescalesToExactTarget(t *testing.T) {
	p := plan(2000, 1000, 1000)
	got := p.RebalanceWordBudget(3000, 100)
	if got.SegmentWordSum() != 3000 {
		t.Fatalf("sum: %d", got.SegmentWordSum())
	}
	// Clean 0.75 ratio: no rounding residue.
	want := []int{1500, 750, 750}
	for i, w := range want {
		if got.Scenes[i].TargetWords != w {
			t.Fatalf("scene %d: got %d want %d", i, got.Scenes[i].TargetWords, w)
		}
	}
	if got.TotalTargetWords != 3000 {
		t.Fatalf("total: %d", got.TotalTargetWords)
	}
}

func TestRebalanceWordBudget_RoundingResidueLandsOnLastScene(t *testing.T) {
	p := plan(1000, 1000, 1001)
	got := p.RebalanceWordBudget(2000, 50)
	if got.SegmentWordSum() != 2000 {
		t.Fatalf("sum: %d", got.SegmentWordSum())
	}
	// Every scene except the last keeps its plainly rounded share.
	if got.Scenes[0].TargetWords != got.Scenes[1].TargetWords {
		t.Fatalf("equal inputs must scale equally: %v", got.Scenes)
	}
}

func TestRebalanceWordBudget_InputNeverMutated(t *testing.T) {
	p := plan(2000, 1000, 1000)
	_ = p.RebalanceWordBudget(3000, 100)
	if p.Scenes[0].TargetWords != 2000 || p.SegmentWordSum() != 4000 {
		t.Fatalf("input plan was mutated: %+v", p.Scenes)
	}
}

func TestRebalanceWordBudget_Deterministic(t *testing.T) {
	p := plan(1234, 987, 1779)
	a := p.RebalanceWordBudget(3000, 100)
	b := p.RebalanceWordBudget(3000, 100)
	aj, err := a.JSON()
	if err != nil {
		t.Fatalf("json: %v", err)
	}
	bj, err := b.JSON()
	if err != nil {
		t.Fatalf("json: %v", err)
	}
	if aj != bj {
		t.Fatalf("rebalance not deterministic:\n%s\n%s", aj, bj)
	}
}

func TestRebalanceWordBudget_TinySceneClampedToOne(t *testing.T) {
	p := plan(1, 10000)
	got := p.RebalanceWordBudget(100, 10)
	if got.Scenes[0].TargetWords < 1 {
		t.Fatalf("scene target below 1: %d", got.Scenes[0].TargetWords)
	}
	if got.SegmentWordSum() != 100 {
		t.Fatalf("sum: %d", got.SegmentWordSum())
	}
}

func TestRebalanceWordBudget_TinyTrailingSceneStillSumsExactly(t *testing.T) {
	// The last scene rescales to 0 and gets clamped up; the overshoot must
	// come out of a scene with room so the corrected sum stays exact.
	p := plan(10000, 1)
	got := p.RebalanceWordBudget(3000, 100)
	if got.SegmentWordSum() != 3000 {
		t.Fatalf("sum: got %d want 3000 (scenes %v)", got.SegmentWordSum(), got.Scenes)
	}
	for i, sc := range got.Scenes {
		if sc.TargetWords < 1 {
			t.Fatalf("scene %d target below 1: %d", i, sc.TargetWords)
		}
	}
}

func TestRebalanceWordBudget_ManyTinyScenesSumExactly(t *testing.T) {
	p := plan(5000, 1, 1, 1)
	got := p.RebalanceWordBudget(1000, 50)
	if got.SegmentWordSum() != 1000 {
		t.Fatalf("sum: got %d want 1000 (scenes %v)", got.SegmentWordSum(), got.Scenes)
	}
}

func TestRebalanceWordBudget_DegenerateInputsPassThrough(t *testing.T) {
	empty := &ScenePlan{ChapterNumber: 1}
	if got := empty.RebalanceWordBudget(3000, 100); got != empty {
		t.Fatalf("empty plan should pass through")
	}
	zeroed := plan(0, 0)
	if got := zeroed.RebalanceWordBudget(3000, 100); got != zeroed {
		t.Fatalf("zero-sum plan should pass through")
	}
}
