package llm

import (
	"fmt"
	"strings"

	"storyloom/internal/pipeline"
)

// Prompt is one assembled stage request.
type Prompt struct {
	System string
	User   string
}

const (
	plannerSystem = "You are a chapter planner. Break the chapter outline into a scene-by-scene plan. " +
		"Respond with a single JSON object: chapter_number, chapter_title, scenes (scene_number, purpose, " +
		"setting, characters, conflict, information_revealed, emotional_shift, exit_hook, target_words), " +
		"total_target_words, clues_to_plant, clues_to_reveal, chapter_goal."

	drafterSystem = "You are a chapter writer. Write the full chapter prose following the scene plan, " +
		"the story spec's style guide, and the continuity bible. Respect each scene's word target. " +
		"Respond with prose only, no commentary."

	editorSystem = "You are a line editor. Revise the draft for prose quality, pacing, and word count " +
		"without changing plot events or established facts. Respond with the revised chapter text only."

	judgeSystem = "You are a strict quality judge. Evaluate the chapter against the outline, spec, and " +
		"continuity bible. Respond with a single JSON object: passed (bool), scores (continuity, pacing, " +
		"character_motivation, genre_fulfillment, prose, hook, clue_fairness; 0-10), issues (category in " +
		"[continuity, structure, motivation, pacing, clue_fairness, prose, hook, safety, word_count], " +
		"severity in [low, medium, high, critical], note, location), revision_instructions (strings), " +
		"hard_fail (safety_pass, continuity_conflicts, word_count_in_range)."

	continuitySystem = "You are the continuity keeper. Update the story bible with facts, clues, timeline " +
		"events, and a one-line chapter summary from the final chapter text. Respond with the complete " +
		"updated bible as a single JSON object."
)

// BuildPrompt assembles the request for one stage from the controller's
// string inputs.
func BuildPrompt(stage pipeline.StageName, inputs map[string]string) (Prompt, error) {
	var b strings.Builder
	section := func(name, key string) {
		v := strings.TrimSpace(inputs[key])
		if v == "" {
			return
		}
		fmt.Fprintf(&b, "## %s\n%s\n\n", name, v)
	}

	section("Chapter", pipeline.InputChapterNumber)
	section("Story spec", pipeline.InputStorySpec)
	section("Chapter outline", pipeline.InputChapterOutline)
	section("Continuity bible", pipeline.InputStoryBible)

	switch stage {
	case pipeline.StagePlan:
		section("Revision instructions from the previous attempt", pipeline.InputRevisionInstructions)
		return Prompt{System: plannerSystem, User: b.String()}, nil
	case pipeline.StageDraft:
		section("Scene plan", pipeline.InputScenePlan)
		section("Revision instructions from the previous attempt", pipeline.InputRevisionInstructions)
		return Prompt{System: drafterSystem, User: b.String()}, nil
	case pipeline.StageEdit:
		section("Scene plan", pipeline.InputScenePlan)
		section("Draft", pipeline.InputDraftText)
		section("Revision instructions from the previous attempt", pipeline.InputRevisionInstructions)
		return Prompt{System: editorSystem, User: b.String()}, nil
	case pipeline.StageJudge:
		section("Scene plan", pipeline.InputScenePlan)
		section("Chapter text", pipeline.InputRevisionText)
		return Prompt{System: judgeSystem, User: b.String()}, nil
	case pipeline.StageContinuity:
		section("Final chapter text", pipeline.InputRevisionText)
		return Prompt{System: continuitySystem, User: b.String()}, nil
	default:
		return Prompt{}, fmt.Errorf("unknown stage: %q", stage)
	}
}
