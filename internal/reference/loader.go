// Package reference loads and serves curriculum reference data: the set of
// curricula, their subjects, and each subject's known topic, year, paper
// type and season values.
package reference

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"
)

var fold = cases.Fold()

// Loader loads and caches reference data from the filesystem.
type Loader struct {
	rootDir   string
	curricula map[string]Curriculum
	mu        sync.RWMutex
}

// NewLoader creates a reference loader and loads all curriculum files.
func NewLoader(rootDir string) (*Loader, error) {
	l := &Loader{
		rootDir:   rootDir,
		curricula: make(map[string]Curriculum),
	}

	if err := l.loadAll(); err != nil {
		return nil, fmt.Errorf("loading reference data: %w", err)
	}

	slog.Info("reference data loaded", "curricula", len(l.curricula))
	return l, nil
}

// Curricula returns all loaded curricula.
func (l *Loader) Curricula() []Curriculum {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Curriculum, 0, len(l.curricula))
	for _, c := range l.curricula {
		out = append(out, c)
	}
	return out
}

// Curriculum returns a curriculum by ID.
func (l *Loader) Curriculum(id string) (Curriculum, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	c, ok := l.curricula[id]
	return c, ok
}

// Subject returns a subject by curriculum ID and subject code.
func (l *Loader) Subject(curriculumID, code string) (Subject, bool) {
	c, ok := l.Curriculum(curriculumID)
	if !ok {
		return Subject{}, false
	}
	for _, s := range c.Subjects {
		if s.Code == code {
			return s, true
		}
	}
	return Subject{}, false
}

func (l *Loader) loadAll() error {
	return filepath.Walk(l.rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if !strings.HasSuffix(path, ".yaml") && !strings.HasSuffix(path, ".yml") {
			return nil
		}
		return l.loadCurriculum(path)
	})
}

func (l *Loader) loadCurriculum(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var c Curriculum
	if err := yaml.Unmarshal(data, &c); err != nil {
		slog.Warn("skipping invalid curriculum YAML", "path", path, "error", err)
		return nil
	}

	if c.ID == "" {
		return nil // Not a curriculum file
	}

	l.mu.Lock()
	l.curricula[c.ID] = c
	l.mu.Unlock()

	return nil
}

// KnowsTopic reports whether the subject has the given topic. Topic labels
// compare case-insensitively under Unicode case folding.
func (s Subject) KnowsTopic(topic string) bool {
	folded := fold.String(topic)
	for _, t := range s.Topics {
		if fold.String(t) == folded {
			return true
		}
	}
	return false
}

// KnowsYear reports whether the subject has papers for the given year.
func (s Subject) KnowsYear(year int) bool {
	for _, y := range s.Years {
		if y == year {
			return true
		}
	}
	return false
}

// KnowsPaperType reports whether the subject has the given paper type.
func (s Subject) KnowsPaperType(pt int) bool {
	for _, p := range s.PaperTypes {
		if p == pt {
			return true
		}
	}
	return false
}

// KnowsSeason reports whether the subject sits exams in the given season.
func (s Subject) KnowsSeason(season string) bool {
	for _, se := range s.Seasons {
		if se == season {
			return true
		}
	}
	return false
}
