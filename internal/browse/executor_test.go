package browse_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/noteoverflow/noteoverflow/internal/browse"
	"github.com/noteoverflow/noteoverflow/internal/question"
)

// countingStore wraps a MemoryStore and counts Search calls.
type countingStore struct {
	question.Store
	searches atomic.Int64
	block    chan struct{} // when non-nil, Search waits on it
}

func (s *countingStore) Search(ctx context.Context, c question.Criteria) ([]question.Question, error) {
	s.searches.Add(1)
	if s.block != nil {
		<-s.block
	}
	return s.Store.Search(ctx, c)
}

func newExecutorFixture(t *testing.T, questions int) (*browse.Executor, *countingStore, *browse.MemoryResultCache) {
	t.Helper()

	mem := question.NewMemoryStore()
	for i := 0; i < questions; i++ {
		q := testBrowseQuestion(i + 1)
		if err := mem.Upsert(t.Context(), q); err != nil {
			t.Fatalf("seeding store: %v", err)
		}
	}

	store := &countingStore{Store: mem}
	cache := browse.NewMemoryResultCache()
	limiter := browse.NewMemoryLimiter(1000, time.Minute)
	exec := browse.NewExecutor(store, newTestRef(t), cache, limiter, 60*time.Second)
	return exec, store, cache
}

func testBrowseQuestion(number int) question.Question {
	paperCode := question.PaperCode("9702", 1, 2, question.SeasonSummer, 2023)
	return question.Question{
		ID:         question.ID("Physics (9702)", paperCode, number),
		SubjectKey: "Physics (9702)",
		PaperCode:  paperCode,
		Number:     number,
		Year:       2023,
		Season:     question.SeasonSummer,
		PaperType:  1,
		Variant:    2,
		Topics:     []string{"Kinematics"},
	}
}

func TestExecutor_Execute(t *testing.T) {
	exec, store, _ := newExecutorFixture(t, 3)

	res, err := exec.Execute(t.Context(), "user-1", validFilter())
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(res.Data) != 3 {
		t.Errorf("Execute() returned %d questions, want 3", len(res.Data))
	}
	if res.IsRateLimited {
		t.Error("IsRateLimited should be false under quota")
	}
	if store.searches.Load() != 1 {
		t.Errorf("store searched %d times, want 1", store.searches.Load())
	}
}

func TestExecutor_InvalidFilterRejectedBeforeSearch(t *testing.T) {
	exec, store, _ := newExecutorFixture(t, 3)

	bad := validFilter()
	bad.Topics = nil
	if _, err := exec.Execute(t.Context(), "user-1", bad); err == nil {
		t.Fatal("Execute() should reject an invalid filter")
	}
	if store.searches.Load() != 0 {
		t.Error("invalid filter must be rejected before querying")
	}
}

func TestExecutor_CacheHitSkipsSearch(t *testing.T) {
	exec, store, _ := newExecutorFixture(t, 3)
	ctx := t.Context()

	if _, err := exec.Execute(ctx, "user-1", validFilter()); err != nil {
		t.Fatalf("first Execute() error = %v", err)
	}
	if _, err := exec.Execute(ctx, "user-1", validFilter()); err != nil {
		t.Fatalf("second Execute() error = %v", err)
	}

	if store.searches.Load() != 1 {
		t.Errorf("store searched %d times, want 1 (second query should hit cache)", store.searches.Load())
	}
}

func TestExecutor_CacheExpiryBoundary(t *testing.T) {
	exec, store, cache := newExecutorFixture(t, 3)
	ctx := t.Context()

	base := time.Now()
	now := base
	var mu sync.Mutex
	cache.SetClock(func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	})

	// Cache at t=0 with TTL 60s.
	if _, err := exec.Execute(ctx, "user-1", validFilter()); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	// t=59: still served from cache.
	mu.Lock()
	now = base.Add(59 * time.Second)
	mu.Unlock()
	if _, err := exec.Execute(ctx, "user-1", validFilter()); err != nil {
		t.Fatalf("Execute() at t=59 error = %v", err)
	}
	if store.searches.Load() != 1 {
		t.Errorf("t=59: store searched %d times, want 1", store.searches.Load())
	}

	// t=61: expired, treated as a miss.
	mu.Lock()
	now = base.Add(61 * time.Second)
	mu.Unlock()
	if _, err := exec.Execute(ctx, "user-1", validFilter()); err != nil {
		t.Fatalf("Execute() at t=61 error = %v", err)
	}
	if store.searches.Load() != 2 {
		t.Errorf("t=61: store searched %d times, want 2", store.searches.Load())
	}
}

func TestExecutor_EmptyResultNotCached(t *testing.T) {
	exec, store, _ := newExecutorFixture(t, 0)
	ctx := t.Context()

	for i := 0; i < 2; i++ {
		res, err := exec.Execute(ctx, "user-1", validFilter())
		if err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		if len(res.Data) != 0 {
			t.Fatalf("Execute() returned %d questions, want 0", len(res.Data))
		}
	}

	// An empty result may reflect a transient issue; it must be retried,
	// not permanently cached as empty.
	if store.searches.Load() != 2 {
		t.Errorf("store searched %d times, want 2", store.searches.Load())
	}
}

func TestExecutor_RateLimitTruncates(t *testing.T) {
	mem := question.NewMemoryStore()
	for i := 0; i < 15; i++ {
		mem.Upsert(t.Context(), testBrowseQuestion(i+1))
	}
	store := &countingStore{Store: mem}
	cache := browse.NewMemoryResultCache()
	limiter := browse.NewMemoryLimiter(0, time.Minute) // everything over quota
	exec := browse.NewExecutor(store, newTestRef(t), cache, limiter, 60*time.Second)
	ctx := t.Context()

	res, err := exec.Execute(ctx, "user-1", validFilter())
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !res.IsRateLimited {
		t.Error("IsRateLimited should be set over quota")
	}
	if len(res.Data) != 10 {
		t.Errorf("Execute() returned %d questions, want truncated 10", len(res.Data))
	}

	// Truncated results are not cached.
	exec.Execute(ctx, "user-1", validFilter())
	if store.searches.Load() != 2 {
		t.Errorf("store searched %d times, want 2 (rate-limited result must not be cached)", store.searches.Load())
	}
}

func TestExecutor_InflightDedup(t *testing.T) {
	mem := question.NewMemoryStore()
	mem.Upsert(t.Context(), testBrowseQuestion(1))
	store := &countingStore{Store: mem, block: make(chan struct{})}
	cache := browse.NewMemoryResultCache()
	exec := browse.NewExecutor(store, newTestRef(t), cache, browse.NewMemoryLimiter(1000, time.Minute), time.Minute)
	ctx := t.Context()

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := exec.Execute(ctx, "user-1", validFilter()); err != nil {
				t.Errorf("Execute() error = %v", err)
			}
		}()
	}

	// Give the goroutines time to pile onto the in-flight entry, then let
	// the single search proceed.
	time.Sleep(50 * time.Millisecond)
	close(store.block)
	wg.Wait()

	if got := store.searches.Load(); got != 1 {
		t.Errorf("store searched %d times, want 1 (identical in-flight queries must share a result)", got)
	}
}

func TestMemoryLimiter_WindowReset(t *testing.T) {
	l := browse.NewMemoryLimiter(2, time.Minute)
	ctx := t.Context()

	for i := 0; i < 2; i++ {
		over, err := l.Over(ctx, "user-1")
		if err != nil || over {
			t.Fatalf("query %d: over = %v, err = %v; want under quota", i+1, over, err)
		}
	}
	over, _ := l.Over(ctx, "user-1")
	if !over {
		t.Error("third query should be over a quota of 2")
	}

	// A different user has an independent window.
	over, _ = l.Over(ctx, "user-2")
	if over {
		t.Error("user-2 should be under quota")
	}
}
