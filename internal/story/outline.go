package story

// SceneSketch is the outline-level scene description, before the planning
// stage expands it into a full ScenePlan segment.
type SceneSketch struct {
	Purpose         string `json:"purpose" yaml:"purpose"`
	Conflict        string `json:"conflict,omitempty" yaml:"conflict,omitempty"`
	InformationGain string `json:"information_gain,omitempty" yaml:"information_gain,omitempty"`
	EmotionalShift  string `json:"emotional_shift,omitempty" yaml:"emotional_shift,omitempty"`
}

// ChapterOutline is a single chapter's entry in the book outline.
type ChapterOutline struct {
	ChapterNumber int      `json:"chapter_number" yaml:"chapter_number"`
	Title         string   `json:"title,omitempty" yaml:"title,omitempty"`
	Summary       string   `json:"summary,omitempty" yaml:"summary,omitempty"`
	Goals         []string `json:"goals,omitempty" yaml:"goals,omitempty"`
	Conflict      string   `json:"conflict,omitempty" yaml:"conflict,omitempty"`
	ChapterHook   string   `json:"chapter_hook,omitempty" yaml:"chapter_hook,omitempty"`

	PlantsThisChapter  []string `json:"plants_this_chapter,omitempty" yaml:"plants_this_chapter,omitempty"`
	PayoffsThisChapter []string `json:"payoffs_this_chapter,omitempty" yaml:"payoffs_this_chapter,omitempty"`

	Scenes []SceneSketch `json:"scenes,omitempty" yaml:"scenes,omitempty"`

	// Zero means inherit spec.target_words_per_chapter.
	TargetWords int `json:"target_words,omitempty" yaml:"target_words,omitempty"`
}
