package story

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Scene is one segment of a chapter's scene plan, with its own word budget.
type Scene struct {
	SceneNumber int      `json:"scene_number"`
	Purpose     string   `json:"purpose"`
	Setting     string   `json:"setting,omitempty"`
	Characters  []string `json:"characters,omitempty"`

	Conflict      string `json:"conflict,omitempty"`
	ActionBeat    string `json:"action_beat,omitempty"`
	DialogueFocus string `json:"dialogue_focus,omitempty"`

	InformationRevealed string `json:"information_revealed,omitempty"`
	EmotionalShift      string `json:"emotional_shift,omitempty"`
	ExitHook            string `json:"exit_hook,omitempty"`

	TargetWords int `json:"target_words"`
}

// ScenePlan is the planning stage's structured breakdown of a chapter.
type ScenePlan struct {
	ChapterNumber int     `json:"chapter_number"`
	ChapterTitle  string  `json:"chapter_title,omitempty"`
	Scenes        []Scene `json:"scenes"`

	TotalTargetWords int `json:"total_target_words,omitempty"`

	CluesToPlant  []string `json:"clues_to_plant,omitempty"`
	CluesToReveal []string `json:"clues_to_reveal,omitempty"`

	ChapterGoal          string `json:"chapter_goal,omitempty"`
	RequiredEmotionalArc string `json:"required_emotional_arc,omitempty"`
}

// scenePlanSchema is the structural contract a preserved plan must satisfy
// before it can be reused as a drafting input on a partial retry.
const scenePlanSchema = `{
  "type": "object",
  "required": ["chapter_number", "scenes"],
  "properties": {
    "chapter_number": {"type": "integer", "minimum": 1},
    "scenes": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["scene_number", "purpose", "target_words"],
        "properties": {
          "scene_number": {"type": "integer", "minimum": 1},
          "purpose": {"type": "string", "minLength": 1},
          "target_words": {"type": "integer", "minimum": 1}
        }
      }
    }
  }
}`

var compiledScenePlanSchema = mustCompileSchema("scene_plan.json", scenePlanSchema)

func mustCompileSchema(name, src string) *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	if err := c.AddResource(name, strings.NewReader(src)); err != nil {
		panic(err)
	}
	s, err := c.Compile(name)
	if err != nil {
		panic(err)
	}
	return s
}

// DecodeScenePlanJSON parses a planning-stage output. The executor strips
// markdown fences before the JSON reaches this point.
func DecodeScenePlanJSON(b []byte) (*ScenePlan, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil, fmt.Errorf("scene plan json is empty")
	}
	var doc any
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("decode scene plan: %w", err)
	}
	if err := compiledScenePlanSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("scene plan schema: %w", err)
	}
	var plan ScenePlan
	if err := json.Unmarshal(b, &plan); err != nil {
		return nil, fmt.Errorf("decode scene plan: %w", err)
	}
	return &plan, nil
}

func (p *ScenePlan) JSON() (string, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// SegmentWordSum returns the sum of per-scene word targets.
func (p *ScenePlan) SegmentWordSum() int {
	sum := 0
	for _, s := range p.Scenes {
		sum += s.TargetWords
	}
	return sum
}

// RebalanceWordBudget validates the plan's per-scene word targets against
// targetTotal. Plans already within tolerance are returned unchanged.
// Out-of-tolerance plans get every scene target rescaled by
// targetTotal/currentSum and rounded to nearest; any rounding residue lands
// on the last scene so the corrected sum is exactly targetTotal. The input
// plan is never mutated.
func (p *ScenePlan) RebalanceWordBudget(targetTotal, tolerance int) *ScenePlan {
	if len(p.Scenes) == 0 || targetTotal <= 0 {
		return p
	}
	sum := p.SegmentWordSum()
	if sum <= 0 {
		return p
	}
	diff := sum - targetTotal
	if diff < 0 {
		diff = -diff
	}
	if diff <= tolerance {
		return p
	}

	out := *p
	out.Scenes = append([]Scene(nil), p.Scenes...)
	ratio := float64(targetTotal) / float64(sum)
	corrected := 0
	for i := range out.Scenes {
		w := int(math.Round(float64(out.Scenes[i].TargetWords) * ratio))
		if w < 1 {
			w = 1
		}
		out.Scenes[i].TargetWords = w
		corrected += w
	}
	// Absorb rounding residue into the last scene.
	last := len(out.Scenes) - 1
	out.Scenes[last].TargetWords += targetTotal - corrected
	if out.Scenes[last].TargetWords < 1 {
		out.Scenes[last].TargetWords = 1
	}
	// Clamping can push the sum back over the target; take the overshoot out
	// of whichever scenes still have room above the floor.
	if over := out.SegmentWordSum() - targetTotal; over > 0 {
		for i := last; i >= 0 && over > 0; i-- {
			room := out.Scenes[i].TargetWords - 1
			if room <= 0 {
				continue
			}
			if room > over {
				room = over
			}
			out.Scenes[i].TargetWords -= room
			over -= room
		}
	}
	out.TotalTargetWords = targetTotal
	return &out
}
