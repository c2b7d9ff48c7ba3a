// Package question holds the topical question domain model and its stores.
package question

import (
	"fmt"
	"time"
)

// Season is an exam sitting period.
type Season string

const (
	SeasonSummer Season = "Summer"
	SeasonWinter Season = "Winter"
	SeasonSpring Season = "Spring"
)

// seasonCodes maps seasons to the codes used inside paper codes.
var seasonCodes = map[Season]string{
	SeasonSummer: "MJ",
	SeasonWinter: "ON",
	SeasonSpring: "FM",
}

// Code returns the paper-code abbreviation for the season (MJ, ON, FM).
func (s Season) Code() string {
	return seasonCodes[s]
}

// Valid reports whether s is one of the known seasons.
func (s Season) Valid() bool {
	_, ok := seasonCodes[s]
	return ok
}

// ParseSeason converts a season name to a Season.
func ParseSeason(v string) (Season, error) {
	s := Season(v)
	if !s.Valid() {
		return "", fmt.Errorf("unknown season: %q", v)
	}
	return s, nil
}

// Answer is one answer entry: either an image URL or a literal
// multiple-choice letter.
type Answer struct {
	ImageURL string `json:"imageUrl,omitempty"`
	Letter   string `json:"letter,omitempty"`
}

// Question is a single topical question record. The ID is deterministically
// derived from subject, paper code and question number; once created it is
// immutable except through upserts targeting the same ID.
type Question struct {
	ID         string    `json:"id"`
	SubjectKey string    `json:"subject"`
	PaperCode  string    `json:"paperCode"`
	Number     int       `json:"number"`
	Year       int       `json:"year"`
	Season     Season    `json:"season"`
	PaperType  int       `json:"paperType"`
	Variant    int       `json:"variant"`
	Topics     []string  `json:"topics"`
	ImageURLs  []string  `json:"imageUrls"`
	Answers    []Answer  `json:"answers"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Criteria selects questions within one subject. Set fields are disjunctive
// within a dimension and conjunctive across dimensions: a question matches
// when, for every non-empty set, at least one of its values is selected.
type Criteria struct {
	SubjectKey string
	Topics     []string
	Years      []int
	PaperTypes []int
	Seasons    []Season
}

// Matches reports whether q satisfies c.
func (c Criteria) Matches(q Question) bool {
	if q.SubjectKey != c.SubjectKey {
		return false
	}
	if len(c.Years) > 0 && !containsInt(c.Years, q.Year) {
		return false
	}
	if len(c.PaperTypes) > 0 && !containsInt(c.PaperTypes, q.PaperType) {
		return false
	}
	if len(c.Seasons) > 0 && !containsSeason(c.Seasons, q.Season) {
		return false
	}
	if len(c.Topics) > 0 && !anyTopic(c.Topics, q.Topics) {
		return false
	}
	return true
}

func containsInt(set []int, v int) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func containsSeason(set []Season, v Season) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func anyTopic(selected, have []string) bool {
	for _, h := range have {
		for _, s := range selected {
			if s == h {
				return true
			}
		}
	}
	return false
}
