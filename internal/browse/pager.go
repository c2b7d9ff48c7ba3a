package browse

import (
	"fmt"

	"github.com/noteoverflow/noteoverflow/internal/question"
)

// ErrPageOutOfRange is returned when a jump target falls outside
// [1, PageCount]. Out-of-range jumps are rejected, not clamped, so the user
// gets explicit feedback.
var ErrPageOutOfRange = fmt.Errorf("page out of range")

// Pager tracks the currently visible chunk of a partitioned result list.
// Navigation methods report whether a transition actually happened, so the
// caller can trigger its scroll-to-top side effect exactly once per
// effective transition.
type Pager struct {
	chunks [][]question.Question
	index  int
}

// NewPager creates a pager positioned at the first chunk.
func NewPager(chunks [][]question.Question) *Pager {
	if len(chunks) == 0 {
		chunks = [][]question.Question{{}}
	}
	return &Pager{chunks: chunks}
}

// Current returns the visible chunk.
func (p *Pager) Current() []question.Question {
	return p.chunks[p.index]
}

// Page returns the 1-based current page number.
func (p *Pager) Page() int {
	return p.index + 1
}

// PageCount returns the number of pages.
func (p *Pager) PageCount() int {
	return len(p.chunks)
}

// HasPrev reports whether a previous page exists.
func (p *Pager) HasPrev() bool {
	return p.index > 0
}

// HasNext reports whether a next page exists.
func (p *Pager) HasNext() bool {
	return p.index < len(p.chunks)-1
}

// First moves to the first page. Returns true if the page changed.
func (p *Pager) First() bool {
	if p.index == 0 {
		return false
	}
	p.index = 0
	return true
}

// Last moves to the last page. Returns true if the page changed.
func (p *Pager) Last() bool {
	last := len(p.chunks) - 1
	if p.index == last {
		return false
	}
	p.index = last
	return true
}

// Prev moves one page back; a no-op at the first page.
func (p *Pager) Prev() bool {
	if !p.HasPrev() {
		return false
	}
	p.index--
	return true
}

// Next moves one page forward; a no-op at the last page.
func (p *Pager) Next() bool {
	if !p.HasNext() {
		return false
	}
	p.index++
	return true
}

// JumpTo moves to 1-based page k. Targets outside [1, PageCount] leave the
// state unchanged and return ErrPageOutOfRange.
func (p *Pager) JumpTo(k int) error {
	if k < 1 || k > len(p.chunks) {
		return fmt.Errorf("%w: %d not in [1, %d]", ErrPageOutOfRange, k, len(p.chunks))
	}
	p.index = k - 1
	return nil
}

// Feed accumulates chunks for infinite scrolling: each AppendNext
// concatenates the next chunk onto the visible list and advances the
// cursor.
type Feed struct {
	chunks  [][]question.Question
	cursor  int
	visible []question.Question
}

// NewFeed creates a feed with the first chunk already visible.
func NewFeed(chunks [][]question.Question) *Feed {
	if len(chunks) == 0 {
		chunks = [][]question.Question{{}}
	}
	f := &Feed{chunks: chunks, cursor: 1}
	f.visible = append(f.visible, chunks[0]...)
	return f
}

// Visible returns the accumulated list.
func (f *Feed) Visible() []question.Question {
	return f.visible
}

// Exhausted reports whether every chunk has been appended.
func (f *Feed) Exhausted() bool {
	return f.cursor >= len(f.chunks)
}

// AppendNext appends the next chunk. Returns false once the feed is
// exhausted.
func (f *Feed) AppendNext() bool {
	if f.Exhausted() {
		return false
	}
	f.visible = append(f.visible, f.chunks[f.cursor]...)
	f.cursor++
	return true
}
