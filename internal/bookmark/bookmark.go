// Package bookmark manages user-owned bookmark lists of saved questions and
// per-user finished-question marks.
package bookmark

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const maxNameLen = 100

// Sentinel errors surfaced to the HTTP layer.
var (
	ErrInvalidName = errors.New("list name must be non-empty and within length limit")
	ErrListLimit   = errors.New("bookmark list limit exceeded")
	ErrItemLimit   = errors.New("bookmark limit for list exceeded")
	ErrNotFound    = errors.New("bookmark list not found")
	ErrForbidden   = errors.New("not the list owner")
)

// Item is one bookmarked question reference.
type Item struct {
	QuestionID string    `json:"questionId"`
	AddedAt    time.Time `json:"addedAt"`
}

// List is a named collection of bookmarked questions. Items are ordered by
// recency, most recent first.
type List struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	Name      string    `json:"name"`
	Public    bool      `json:"isPublic"`
	Items     []Item    `json:"items"`
	CreatedAt time.Time `json:"createdAt"`
}

// Service enforces naming rules, ownership and the list/item caps on top of
// a Store.
type Service struct {
	store    Store
	maxLists int
	maxItems int
}

// NewService creates a bookmark service.
func NewService(store Store, maxLists, maxItems int) *Service {
	return &Service{store: store, maxLists: maxLists, maxItems: maxItems}
}

// CreateList creates a list for the owner. The name is trimmed and must be
// non-empty and within the length limit; owners may not exceed the list cap.
func (s *Service) CreateList(ctx context.Context, ownerID, name string, public bool) (*List, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxNameLen {
		return nil, ErrInvalidName
	}

	count, err := s.store.CountLists(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("counting lists: %w", err)
	}
	if count >= s.maxLists {
		return nil, ErrListLimit
	}

	id, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("generating list id: %w", err)
	}

	l := List{
		ID:        id,
		OwnerID:   ownerID,
		Name:      name,
		Public:    public,
		CreatedAt: time.Now(),
	}
	if err := s.store.CreateList(ctx, l); err != nil {
		return nil, fmt.Errorf("creating list: %w", err)
	}
	return &l, nil
}

// GetList returns a list if it is public or owned by the requester.
func (s *Service) GetList(ctx context.Context, requesterID, listID string) (*List, error) {
	l, err := s.store.GetList(ctx, listID)
	if err != nil {
		return nil, err
	}
	if !l.Public && l.OwnerID != requesterID {
		return nil, ErrForbidden
	}
	return l, nil
}

// ListsForOwner returns all of the owner's lists, private included.
func (s *Service) ListsForOwner(ctx context.Context, ownerID string) ([]List, error) {
	return s.store.ListsForOwner(ctx, ownerID)
}

// DeleteList removes an owned list.
func (s *Service) DeleteList(ctx context.Context, ownerID, listID string) error {
	l, err := s.store.GetList(ctx, listID)
	if err != nil {
		return err
	}
	if l.OwnerID != ownerID {
		return ErrForbidden
	}
	return s.store.DeleteList(ctx, listID)
}

// AddItem bookmarks a question on an owned list, subject to the item cap.
// Re-adding an existing bookmark refreshes its recency instead of consuming
// cap space.
func (s *Service) AddItem(ctx context.Context, ownerID, listID, questionID string) error {
	l, err := s.store.GetList(ctx, listID)
	if err != nil {
		return err
	}
	if l.OwnerID != ownerID {
		return ErrForbidden
	}

	exists := false
	for _, it := range l.Items {
		if it.QuestionID == questionID {
			exists = true
			break
		}
	}
	if !exists && len(l.Items) >= s.maxItems {
		return ErrItemLimit
	}

	return s.store.PutItem(ctx, listID, questionID, time.Now())
}

// RemoveItem deletes a bookmark from an owned list.
func (s *Service) RemoveItem(ctx context.Context, ownerID, listID, questionID string) error {
	l, err := s.store.GetList(ctx, listID)
	if err != nil {
		return err
	}
	if l.OwnerID != ownerID {
		return ErrForbidden
	}
	return s.store.RemoveItem(ctx, listID, questionID)
}

// Toggle adds the bookmark if absent and removes it if present. Returns
// true when the question is bookmarked after the call.
func (s *Service) Toggle(ctx context.Context, ownerID, listID, questionID string) (bool, error) {
	l, err := s.store.GetList(ctx, listID)
	if err != nil {
		return false, err
	}
	if l.OwnerID != ownerID {
		return false, ErrForbidden
	}

	for _, it := range l.Items {
		if it.QuestionID == questionID {
			if err := s.store.RemoveItem(ctx, listID, questionID); err != nil {
				return false, err
			}
			return false, nil
		}
	}

	if len(l.Items) >= s.maxItems {
		return false, ErrItemLimit
	}
	if err := s.store.PutItem(ctx, listID, questionID, time.Now()); err != nil {
		return false, err
	}
	return true, nil
}
