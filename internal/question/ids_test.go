package question_test

import (
	"testing"

	"github.com/noteoverflow/noteoverflow/internal/question"
)

func TestPaperCode(t *testing.T) {
	tests := []struct {
		name        string
		subjectCode string
		paperType   int
		variant     int
		season      question.Season
		year        int
		want        string
	}{
		{"summer", "9702", 1, 2, question.SeasonSummer, 2023, "9702_12_MJ_23"},
		{"winter", "9701", 4, 1, question.SeasonWinter, 2022, "9701_41_ON_22"},
		{"spring", "9709", 2, 3, question.SeasonSpring, 2024, "9709_23_FM_24"},
		{"single-digit-year", "9702", 1, 1, question.SeasonSummer, 2009, "9702_11_MJ_09"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := question.PaperCode(tt.subjectCode, tt.paperType, tt.variant, tt.season, tt.year)
			if got != tt.want {
				t.Errorf("PaperCode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestID(t *testing.T) {
	got := question.ID("Physics (9702)", "9702_12_MJ_23", 4)
	want := "Physics (9702)-9702_12_MJ_23-questions-Q4"
	if got != want {
		t.Errorf("ID() = %q, want %q", got, want)
	}
}

func TestSeasonCodes(t *testing.T) {
	tests := []struct {
		season question.Season
		code   string
	}{
		{question.SeasonSummer, "MJ"},
		{question.SeasonWinter, "ON"},
		{question.SeasonSpring, "FM"},
	}

	for _, tt := range tests {
		if got := tt.season.Code(); got != tt.code {
			t.Errorf("%s.Code() = %q, want %q", tt.season, got, tt.code)
		}
	}
}

func TestParseSeason(t *testing.T) {
	if _, err := question.ParseSeason("Summer"); err != nil {
		t.Errorf("ParseSeason(Summer) error = %v", err)
	}
	if _, err := question.ParseSeason("Autumn"); err == nil {
		t.Error("ParseSeason(Autumn) should return error")
	}
	if _, err := question.ParseSeason(""); err == nil {
		t.Error("ParseSeason(empty) should return error")
	}
}
