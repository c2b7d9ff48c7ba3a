package bookmark

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Store persists bookmark lists and their items.
type Store interface {
	CreateList(ctx context.Context, l List) error
	// GetList returns the list with items ordered most recent first.
	GetList(ctx context.Context, id string) (*List, error)
	DeleteList(ctx context.Context, id string) error
	ListsForOwner(ctx context.Context, ownerID string) ([]List, error)
	CountLists(ctx context.Context, ownerID string) (int, error)
	// PutItem inserts the bookmark or refreshes its recency when present.
	PutItem(ctx context.Context, listID, questionID string, at time.Time) error
	RemoveItem(ctx context.Context, listID, questionID string) error
}

// FinishedStore persists per-user finished-question marks.
type FinishedStore interface {
	// Toggle flips the mark; returns true when the question is marked
	// finished after the call.
	Toggle(ctx context.Context, userID, questionID string) (bool, error)
	All(ctx context.Context, userID string) ([]string, error)
}

// MemoryStore is an in-memory Store implementation.
type MemoryStore struct {
	lists map[string]*List
	mu    sync.RWMutex
}

// NewMemoryStore creates an in-memory bookmark store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{lists: make(map[string]*List)}
}

func (s *MemoryStore) CreateList(_ context.Context, l List) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := l
	cp.Items = append([]Item(nil), l.Items...)
	s.lists[l.ID] = &cp
	return nil
}

func (s *MemoryStore) GetList(_ context.Context, id string) (*List, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.lists[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *l
	cp.Items = append([]Item(nil), l.Items...)
	sort.SliceStable(cp.Items, func(i, j int) bool { return cp.Items[i].AddedAt.After(cp.Items[j].AddedAt) })
	return &cp, nil
}

func (s *MemoryStore) DeleteList(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lists[id]; !ok {
		return ErrNotFound
	}
	delete(s.lists, id)
	return nil
}

func (s *MemoryStore) ListsForOwner(_ context.Context, ownerID string) ([]List, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []List{}
	for _, l := range s.lists {
		if l.OwnerID == ownerID {
			cp := *l
			cp.Items = append([]Item(nil), l.Items...)
			out = append(out, cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) CountLists(_ context.Context, ownerID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, l := range s.lists {
		if l.OwnerID == ownerID {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) PutItem(_ context.Context, listID, questionID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.lists[listID]
	if !ok {
		return ErrNotFound
	}
	for i, it := range l.Items {
		if it.QuestionID == questionID {
			l.Items[i].AddedAt = at
			return nil
		}
	}
	l.Items = append(l.Items, Item{QuestionID: questionID, AddedAt: at})
	return nil
}

func (s *MemoryStore) RemoveItem(_ context.Context, listID, questionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.lists[listID]
	if !ok {
		return ErrNotFound
	}
	for i, it := range l.Items {
		if it.QuestionID == questionID {
			l.Items = append(l.Items[:i], l.Items[i+1:]...)
			return nil
		}
	}
	return nil
}

// MemoryFinishedStore is an in-memory FinishedStore implementation.
type MemoryFinishedStore struct {
	marks map[string]map[string]struct{}
	mu    sync.Mutex
}

// NewMemoryFinishedStore creates an in-memory finished-question store.
func NewMemoryFinishedStore() *MemoryFinishedStore {
	return &MemoryFinishedStore{marks: make(map[string]map[string]struct{})}
}

func (s *MemoryFinishedStore) Toggle(_ context.Context, userID, questionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.marks[userID]
	if !ok {
		set = make(map[string]struct{})
		s.marks[userID] = set
	}
	if _, marked := set[questionID]; marked {
		delete(set, questionID)
		return false, nil
	}
	set[questionID] = struct{}{}
	return true, nil
}

func (s *MemoryFinishedStore) All(_ context.Context, userID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []string{}
	for q := range s.marks[userID] {
		out = append(out, q)
	}
	sort.Strings(out)
	return out, nil
}
