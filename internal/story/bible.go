package story

import (
	"encoding/json"
	"fmt"
)

// Character is one entry in the continuity snapshot's character list.
type Character struct {
	Name        string   `json:"name"`
	Role        string   `json:"role,omitempty"`
	Occupation  string   `json:"occupation,omitempty"`
	Personality []string `json:"personality,omitempty"`
	Motivation  string   `json:"motivation,omitempty"`
	Secrets     []string `json:"secrets,omitempty"`
	Backstory   string   `json:"backstory,omitempty"`
}

type Relationship struct {
	CharacterA string `json:"character_a"`
	CharacterB string `json:"character_b"`
	Kind       string `json:"kind,omitempty"`
	Status     string `json:"status,omitempty"`
	History    string `json:"history,omitempty"`
}

// Clue tracks a planted mystery clue and whether its payoff has landed.
type Clue struct {
	ClueID            string `json:"clue_id"`
	Description       string `json:"description"`
	ChapterIntroduced int    `json:"chapter_introduced"`
	IsRedHerring      bool   `json:"is_red_herring,omitempty"`
	Resolved          bool   `json:"resolved,omitempty"`
	ResolutionChapter int    `json:"resolution_chapter,omitempty"`
}

type TimelineEvent struct {
	Chapter            int      `json:"chapter"`
	Event              string   `json:"event"`
	CharactersInvolved []string `json:"characters_involved,omitempty"`
	FactsEstablished   []string `json:"facts_established,omitempty"`
}

// Bible is the cross-chapter continuity snapshot. One chapter's successful
// run produces the next chapter's input; within a chapter it is read-only.
type Bible struct {
	Characters    []Character    `json:"characters"`
	Relationships []Relationship `json:"relationships,omitempty"`

	Clues []Clue `json:"clues,omitempty"`

	Timeline         []TimelineEvent `json:"timeline,omitempty"`
	ChapterSummaries []string        `json:"chapter_summaries,omitempty"`
	ImmutableFacts   []string        `json:"immutable_facts,omitempty"`

	UsedImagery   []string `json:"used_imagery,omitempty"`
	UsedMetaphors []string `json:"used_metaphors,omitempty"`

	Genre string `json:"genre,omitempty"`
}

// DecodeBibleJSON parses a continuity-update stage output. An empty input
// yields an empty bible rather than an error so a degraded continuity stage
// never takes the chapter down with it.
func DecodeBibleJSON(b []byte) (*Bible, error) {
	var bible Bible
	if len(b) == 0 {
		return &bible, nil
	}
	if err := json.Unmarshal(b, &bible); err != nil {
		return nil, fmt.Errorf("decode bible json: %w", err)
	}
	return &bible, nil
}

func (b *Bible) JSON() (string, error) {
	out, err := json.Marshal(b)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
