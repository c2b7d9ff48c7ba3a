// Package browse implements the question browsing pipeline: filter
// validation, the cached query executor, score-based ordering, chunking and
// page/feed state machines.
package browse

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/noteoverflow/noteoverflow/internal/question"
	"github.com/noteoverflow/noteoverflow/internal/reference"
)

// Filter is a confirmed set of browsing criteria. Curriculum and subject are
// required; each dimension needs at least one selection before a query runs.
type Filter struct {
	Curriculum string            `json:"curriculumId"`
	Subject    string            `json:"subjectId"`
	Topics     []string          `json:"topic"`
	Years      []int             `json:"year"`
	PaperTypes []int             `json:"paperType"`
	Seasons    []question.Season `json:"season"`
}

// Validate checks the filter against live reference data: the curriculum
// must exist, the subject must belong to it, and every selected value must
// belong to the subject's known value sets. It returns the resolved subject
// on success.
func (f Filter) Validate(ref *reference.Loader) (reference.Subject, error) {
	if f.Curriculum == "" {
		return reference.Subject{}, fmt.Errorf("curriculum is required")
	}
	if f.Subject == "" {
		return reference.Subject{}, fmt.Errorf("subject is required")
	}

	if _, ok := ref.Curriculum(f.Curriculum); !ok {
		return reference.Subject{}, fmt.Errorf("unknown curriculum: %s", f.Curriculum)
	}
	sub, ok := ref.Subject(f.Curriculum, f.Subject)
	if !ok {
		return reference.Subject{}, fmt.Errorf("subject %s does not belong to curriculum %s", f.Subject, f.Curriculum)
	}

	if len(f.Topics) == 0 || len(f.Years) == 0 || len(f.PaperTypes) == 0 || len(f.Seasons) == 0 {
		return reference.Subject{}, fmt.Errorf("every dimension needs at least one selection")
	}

	for _, t := range f.Topics {
		if !sub.KnowsTopic(t) {
			return reference.Subject{}, fmt.Errorf("unknown topic for subject %s: %q", f.Subject, t)
		}
	}
	for _, y := range f.Years {
		if !sub.KnowsYear(y) {
			return reference.Subject{}, fmt.Errorf("unknown year for subject %s: %d", f.Subject, y)
		}
	}
	for _, pt := range f.PaperTypes {
		if !sub.KnowsPaperType(pt) {
			return reference.Subject{}, fmt.Errorf("unknown paper type for subject %s: %d", f.Subject, pt)
		}
	}
	for _, se := range f.Seasons {
		if !sub.KnowsSeason(string(se)) {
			return reference.Subject{}, fmt.Errorf("unknown season for subject %s: %s", f.Subject, se)
		}
	}

	return sub, nil
}

// Criteria converts the filter into store search criteria for the resolved
// subject.
func (f Filter) Criteria(sub reference.Subject) question.Criteria {
	return question.Criteria{
		SubjectKey: sub.Name,
		Topics:     f.Topics,
		Years:      f.Years,
		PaperTypes: f.PaperTypes,
		Seasons:    f.Seasons,
	}
}

// Key is the canonical serialization of the filter, used as the result
// cache key. Set ordering is normalized so logically equal filters share a
// key.
func (f Filter) Key() string {
	topics := append([]string(nil), f.Topics...)
	sort.Strings(topics)

	years := append([]int(nil), f.Years...)
	sort.Ints(years)

	paperTypes := append([]int(nil), f.PaperTypes...)
	sort.Ints(paperTypes)

	seasons := make([]string, len(f.Seasons))
	for i, s := range f.Seasons {
		seasons[i] = string(s)
	}
	sort.Strings(seasons)

	var b strings.Builder
	b.WriteString(f.Curriculum)
	b.WriteByte('|')
	b.WriteString(f.Subject)
	b.WriteByte('|')
	b.WriteString(strings.Join(topics, ","))
	b.WriteByte('|')
	b.WriteString(joinInts(years))
	b.WriteByte('|')
	b.WriteString(joinInts(paperTypes))
	b.WriteByte('|')
	b.WriteString(strings.Join(seasons, ","))
	return b.String()
}

func joinInts(vs []int) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}
