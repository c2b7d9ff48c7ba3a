package browse_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/noteoverflow/noteoverflow/internal/browse"
	"github.com/noteoverflow/noteoverflow/internal/question"
	"github.com/noteoverflow/noteoverflow/internal/reference"
)

func newTestRef(t *testing.T) *reference.Loader {
	t.Helper()
	dir := t.TempDir()

	os.WriteFile(filepath.Join(dir, "cie-a-level.yaml"), []byte(`
id: cie-a-level
name: "CIE A-LEVEL"
subjects:
  - code: "9702"
    name: "Physics (9702)"
    topics: [Kinematics, Waves, Electricity]
    years: [2022, 2023]
    paper_types: [1, 2, 4]
    seasons: [Summer, Winter, Spring]
`), 0o644)

	ref, err := reference.NewLoader(dir)
	if err != nil {
		t.Fatalf("NewLoader() error = %v", err)
	}
	return ref
}

func validFilter() browse.Filter {
	return browse.Filter{
		Curriculum: "cie-a-level",
		Subject:    "9702",
		Topics:     []string{"Kinematics"},
		Years:      []int{2023},
		PaperTypes: []int{1},
		Seasons:    []question.Season{question.SeasonSummer},
	}
}

func TestFilter_Validate(t *testing.T) {
	ref := newTestRef(t)

	sub, err := validFilter().Validate(ref)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if sub.Name != "Physics (9702)" {
		t.Errorf("resolved subject = %q, want Physics (9702)", sub.Name)
	}
}

func TestFilter_Validate_Rejections(t *testing.T) {
	ref := newTestRef(t)

	tests := []struct {
		name   string
		mutate func(*browse.Filter)
	}{
		{"missing-curriculum", func(f *browse.Filter) { f.Curriculum = "" }},
		{"missing-subject", func(f *browse.Filter) { f.Subject = "" }},
		{"unknown-curriculum", func(f *browse.Filter) { f.Curriculum = "ib-diploma" }},
		{"subject-wrong-curriculum", func(f *browse.Filter) { f.Subject = "0000" }},
		{"empty-topics", func(f *browse.Filter) { f.Topics = nil }},
		{"empty-years", func(f *browse.Filter) { f.Years = nil }},
		{"empty-paper-types", func(f *browse.Filter) { f.PaperTypes = nil }},
		{"empty-seasons", func(f *browse.Filter) { f.Seasons = nil }},
		{"unknown-topic", func(f *browse.Filter) { f.Topics = []string{"Astrophysics"} }},
		{"unknown-year", func(f *browse.Filter) { f.Years = []int{1999} }},
		{"unknown-paper-type", func(f *browse.Filter) { f.PaperTypes = []int{9} }},
		{"unknown-season", func(f *browse.Filter) { f.Seasons = []question.Season{"Autumn"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validFilter()
			tt.mutate(&f)
			if _, err := f.Validate(ref); err == nil {
				t.Error("Validate() should reject filter")
			}
		})
	}
}

func TestFilter_Key_OrderIndependent(t *testing.T) {
	a := validFilter()
	a.Topics = []string{"Waves", "Kinematics"}
	a.Years = []int{2023, 2022}

	b := validFilter()
	b.Topics = []string{"Kinematics", "Waves"}
	b.Years = []int{2022, 2023}

	if a.Key() != b.Key() {
		t.Errorf("Key() should normalize set order: %q != %q", a.Key(), b.Key())
	}
}

func TestFilter_Key_Distinguishes(t *testing.T) {
	a := validFilter()
	b := validFilter()
	b.Years = []int{2022}

	if a.Key() == b.Key() {
		t.Error("Key() should differ for different filters")
	}
}
