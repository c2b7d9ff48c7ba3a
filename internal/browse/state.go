package browse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/noteoverflow/noteoverflow/internal/platform/cache"
	"github.com/noteoverflow/noteoverflow/internal/question"
	"github.com/noteoverflow/noteoverflow/internal/reference"
)

// Selection is the mutable filter state a user builds up before confirming
// a query. Setters cascade: changing the curriculum clears everything below
// it, changing the subject clears the dimension selections.
type Selection struct {
	filter Filter
}

// NewSelection returns an empty selection.
func NewSelection() *Selection {
	return &Selection{}
}

// Filter returns a copy of the current filter state.
func (s *Selection) Filter() Filter {
	return s.filter
}

// SetCurriculum selects a curriculum and resets subject, topics, years,
// paper types and seasons.
func (s *Selection) SetCurriculum(id string) {
	s.filter = Filter{Curriculum: id}
}

// SetSubject selects a subject and resets the dimension selections.
func (s *Selection) SetSubject(code string) {
	s.filter = Filter{Curriculum: s.filter.Curriculum, Subject: code}
}

// SetTopics replaces the topic selection.
func (s *Selection) SetTopics(topics []string) {
	s.filter.Topics = append([]string(nil), topics...)
}

// SetYears replaces the year selection.
func (s *Selection) SetYears(years []int) {
	s.filter.Years = append([]int(nil), years...)
}

// SetPaperTypes replaces the paper type selection.
func (s *Selection) SetPaperTypes(pts []int) {
	s.filter.PaperTypes = append([]int(nil), pts...)
}

// SetSeasons replaces the season selection.
func (s *Selection) SetSeasons(seasons []question.Season) {
	s.filter.Seasons = append([]question.Season(nil), seasons...)
}

// FilterStore persists each user's most recent confirmed filter, scoped by
// curriculum and subject so switching subjects does not clobber another
// subject's saved filter.
type FilterStore interface {
	Save(ctx context.Context, userID string, f Filter) error
	// Load returns the saved filter for the scope, or found=false when there
	// is none (or the persisted blob was malformed and has been discarded).
	Load(ctx context.Context, userID, curriculum, subject string) (Filter, bool, error)
}

func scopeKey(curriculum, subject string) string {
	return curriculum + "/" + subject
}

// MemoryFilterStore is an in-memory FilterStore implementation.
type MemoryFilterStore struct {
	blobs map[string][]byte
	mu    sync.RWMutex
}

// NewMemoryFilterStore creates an in-memory saved-filter store.
func NewMemoryFilterStore() *MemoryFilterStore {
	return &MemoryFilterStore{blobs: make(map[string][]byte)}
}

func (s *MemoryFilterStore) Save(_ context.Context, userID string, f Filter) error {
	if userID == "" {
		return fmt.Errorf("user id is required")
	}
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("encode filter: %w", err)
	}

	s.mu.Lock()
	s.blobs[userID+"/"+scopeKey(f.Curriculum, f.Subject)] = data
	s.mu.Unlock()
	return nil
}

func (s *MemoryFilterStore) Load(_ context.Context, userID, curriculum, subject string) (Filter, bool, error) {
	key := userID + "/" + scopeKey(curriculum, subject)

	s.mu.RLock()
	data, ok := s.blobs[key]
	s.mu.RUnlock()
	if !ok {
		return Filter{}, false, nil
	}

	var f Filter
	if err := json.Unmarshal(data, &f); err != nil {
		// Malformed blobs are discarded wholesale rather than partially
		// trusted.
		s.mu.Lock()
		delete(s.blobs, key)
		s.mu.Unlock()
		return Filter{}, false, nil
	}
	return f, true, nil
}

// RedisFilterStore is a Redis-backed FilterStore implementation.
type RedisFilterStore struct {
	client *redis.Client
}

// NewRedisFilterStore creates a Redis-backed saved-filter store.
func NewRedisFilterStore(client *redis.Client) *RedisFilterStore {
	return &RedisFilterStore{client: client}
}

func (s *RedisFilterStore) key(userID, curriculum, subject string) string {
	return cache.Key("recent-query", userID, scopeKey(curriculum, subject))
}

func (s *RedisFilterStore) Save(ctx context.Context, userID string, f Filter) error {
	if userID == "" {
		return fmt.Errorf("user id is required")
	}
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("encode filter: %w", err)
	}
	if err := s.client.Set(ctx, s.key(userID, f.Curriculum, f.Subject), data, 0).Err(); err != nil {
		return fmt.Errorf("save filter: %w", err)
	}
	return nil
}

func (s *RedisFilterStore) Load(ctx context.Context, userID, curriculum, subject string) (Filter, bool, error) {
	key := s.key(userID, curriculum, subject)
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Filter{}, false, nil
		}
		return Filter{}, false, fmt.Errorf("load filter: %w", err)
	}

	var f Filter
	if err := json.Unmarshal(data, &f); err != nil {
		_ = s.client.Del(ctx, key).Err()
		return Filter{}, false, nil
	}
	return f, true, nil
}

// Restore loads the saved filter for the scope and revalidates it against
// live reference data. A missing, malformed or no-longer-valid filter falls
// back silently to an empty selection for that scope.
func Restore(ctx context.Context, store FilterStore, ref *reference.Loader, userID, curriculum, subject string) Filter {
	f, found, err := store.Load(ctx, userID, curriculum, subject)
	if err != nil || !found {
		return Filter{Curriculum: curriculum, Subject: subject}
	}
	if _, err := f.Validate(ref); err != nil {
		return Filter{Curriculum: curriculum, Subject: subject}
	}
	return f
}
