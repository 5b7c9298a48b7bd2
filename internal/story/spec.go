package story

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// NarrationConfig fixes point of view and tense for the whole book.
type NarrationConfig struct {
	POV   string `json:"pov" yaml:"pov"`
	Tense string `json:"tense" yaml:"tense"`
}

// StyleGuide constrains the prose the drafting and editing stages produce.
type StyleGuide struct {
	Language       string   `json:"language" yaml:"language"`
	Tone           []string `json:"tone,omitempty" yaml:"tone,omitempty"`
	Pacing         string   `json:"pacing,omitempty" yaml:"pacing,omitempty"`
	ImageryDensity string   `json:"imagery_density,omitempty" yaml:"imagery_density,omitempty"`
	DialogueRatio  float64  `json:"dialogue_ratio,omitempty" yaml:"dialogue_ratio,omitempty"`
	ForbiddenWords []string `json:"forbidden_words,omitempty" yaml:"forbidden_words,omitempty"`
	StyleNotes     []string `json:"style_notes,omitempty" yaml:"style_notes,omitempty"`
}

// Spec is the complete story specification the pipeline generates against.
type Spec struct {
	Genre    string `json:"genre" yaml:"genre"`
	Subgenre string `json:"subgenre,omitempty" yaml:"subgenre,omitempty"`

	TotalChapters         int     `json:"total_chapters" yaml:"total_chapters"`
	TargetWordsPerChapter int     `json:"target_words_per_chapter" yaml:"target_words_per_chapter"`
	ChapterWordTolerance  float64 `json:"chapter_word_tolerance,omitempty" yaml:"chapter_word_tolerance,omitempty"`

	Narration NarrationConfig `json:"narration" yaml:"narration"`
	Style     StyleGuide      `json:"style" yaml:"style"`

	Taboos   []string `json:"taboos,omitempty" yaml:"taboos,omitempty"`
	MustHave []string `json:"must_have,omitempty" yaml:"must_have,omitempty"`

	// Mystery-specific. Empty for other genres.
	MysteryQuestion string `json:"mystery_question,omitempty" yaml:"mystery_question,omitempty"`
	FairPlayRule    string `json:"fair_play_rule,omitempty" yaml:"fair_play_rule,omitempty"`

	ThemeStatement string `json:"theme_statement,omitempty" yaml:"theme_statement,omitempty"`
	EndingContract string `json:"ending_contract,omitempty" yaml:"ending_contract,omitempty"`
}

// Book is the top-level document loaded from the --spec YAML file:
// the story spec plus the per-chapter outline.
type Book struct {
	Title   string           `json:"title" yaml:"title"`
	Spec    Spec             `json:"spec" yaml:"spec"`
	Outline []ChapterOutline `json:"outline" yaml:"outline"`
}

const (
	defaultTargetWordsPerChapter = 3000
	defaultChapterWordTolerance  = 0.1
)

func (s *Spec) applyDefaults() {
	if s.TargetWordsPerChapter <= 0 {
		s.TargetWordsPerChapter = defaultTargetWordsPerChapter
	}
	if s.ChapterWordTolerance <= 0 {
		s.ChapterWordTolerance = defaultChapterWordTolerance
	}
	if s.Narration.POV == "" {
		s.Narration.POV = "third_person"
	}
	if s.Narration.Tense == "" {
		s.Narration.Tense = "past"
	}
	if s.Style.Language == "" {
		s.Style.Language = "en"
	}
}

// LoadBookFile reads and validates a book YAML document.
func LoadBookFile(path string) (*Book, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return DecodeBookYAML(b)
}

func DecodeBookYAML(b []byte) (*Book, error) {
	var book Book
	if err := yaml.Unmarshal(b, &book); err != nil {
		return nil, fmt.Errorf("decode book yaml: %w", err)
	}
	book.Spec.applyDefaults()
	if book.Spec.TotalChapters <= 0 {
		book.Spec.TotalChapters = len(book.Outline)
	}
	if err := book.Validate(); err != nil {
		return nil, err
	}
	return &book, nil
}

func (b *Book) Validate() error {
	if strings.TrimSpace(b.Title) == "" {
		return fmt.Errorf("book title is required")
	}
	if strings.TrimSpace(b.Spec.Genre) == "" {
		return fmt.Errorf("spec.genre is required")
	}
	if len(b.Outline) == 0 {
		return fmt.Errorf("outline must contain at least one chapter")
	}
	if b.Spec.TotalChapters != len(b.Outline) {
		return fmt.Errorf("spec.total_chapters=%d but outline has %d chapters", b.Spec.TotalChapters, len(b.Outline))
	}
	seen := map[int]bool{}
	for i, ch := range b.Outline {
		if ch.ChapterNumber <= 0 {
			return fmt.Errorf("outline[%d]: chapter_number must be >= 1", i)
		}
		if seen[ch.ChapterNumber] {
			return fmt.Errorf("outline: duplicate chapter_number %d", ch.ChapterNumber)
		}
		seen[ch.ChapterNumber] = true
	}
	return nil
}

// OutlineFor returns the outline for the given chapter number.
func (b *Book) OutlineFor(chapter int) (*ChapterOutline, error) {
	for i := range b.Outline {
		if b.Outline[i].ChapterNumber == chapter {
			return &b.Outline[i], nil
		}
	}
	return nil, fmt.Errorf("no outline for chapter %d", chapter)
}
