package question

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Metadata dimensions tracked per subject.
const (
	DimYear      = "year"
	DimSeason    = "season"
	DimPaperType = "paper_type"
	DimTopic     = "topic"
)

// Store persists questions and per-subject metadata values.
type Store interface {
	// Upsert inserts the question or, when the ID already exists, overwrites
	// its mutable fields and bumps UpdatedAt.
	Upsert(ctx context.Context, q Question) error
	Get(ctx context.Context, id string) (*Question, error)
	Exists(ctx context.Context, id string) (bool, error)
	Search(ctx context.Context, c Criteria) ([]Question, error)

	// EnsureValue records that a metadata value exists for the subject
	// (exists-then-create; idempotent).
	EnsureValue(ctx context.Context, subjectKey, dimension, value string) error
	KnownValues(ctx context.Context, subjectKey, dimension string) ([]string, error)
}

// MemoryStore is an in-memory Store implementation.
type MemoryStore struct {
	questions map[string]Question
	values    map[string]map[string]struct{} // subjectKey+dimension -> value set
	mu        sync.RWMutex
}

// NewMemoryStore creates a new in-memory question store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		questions: make(map[string]Question),
		values:    make(map[string]map[string]struct{}),
	}
}

func (s *MemoryStore) Upsert(_ context.Context, q Question) error {
	if q.ID == "" {
		return fmt.Errorf("question id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if existing, ok := s.questions[q.ID]; ok {
		q.CreatedAt = existing.CreatedAt
	} else {
		q.CreatedAt = now
	}
	q.UpdatedAt = now
	s.questions[q.ID] = q
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q, ok := s.questions[id]
	if !ok {
		return nil, fmt.Errorf("question not found: %s", id)
	}
	return &q, nil
}

func (s *MemoryStore) Exists(_ context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.questions[id]
	return ok, nil
}

func (s *MemoryStore) Search(_ context.Context, c Criteria) ([]Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []Question{}
	for _, q := range s.questions {
		if c.Matches(q) {
			out = append(out, q)
		}
	}
	// Map iteration order is random; return a deterministic order so the
	// downstream stable sort has a meaningful input order.
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) EnsureValue(_ context.Context, subjectKey, dimension, value string) error {
	if value == "" {
		return fmt.Errorf("metadata value is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := subjectKey + "/" + dimension
	set, ok := s.values[key]
	if !ok {
		set = make(map[string]struct{})
		s.values[key] = set
	}
	set[value] = struct{}{}
	return nil
}

func (s *MemoryStore) KnownValues(_ context.Context, subjectKey, dimension string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []string{}
	for v := range s.values[subjectKey+"/"+dimension] {
		out = append(out, v)
	}
	sort.Strings(out)
	return out, nil
}
