package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/noteoverflow/noteoverflow/internal/bookmark"
)

// bookmarkError maps bookmark service errors onto the envelope taxonomy.
func bookmarkError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, bookmark.ErrInvalidName):
		respondError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
	case errors.Is(err, bookmark.ErrListLimit):
		respondError(w, http.StatusConflict, CodeListLimit, err.Error())
	case errors.Is(err, bookmark.ErrItemLimit):
		respondError(w, http.StatusConflict, CodeBookmarkLimit, err.Error())
	case errors.Is(err, bookmark.ErrNotFound):
		respondError(w, http.StatusNotFound, CodeNotFound, "list not found")
	case errors.Is(err, bookmark.ErrForbidden):
		respondError(w, http.StatusForbidden, CodeForbidden, "not your list")
	default:
		respondError(w, http.StatusInternalServerError, CodeInternal, "bookmark operation failed")
	}
}

func (s *Server) handleListBookmarkLists(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())

	lists, err := s.bookmarks.ListsForOwner(r.Context(), claims.UserID())
	if err != nil {
		s.logger.Error("list bookmark lists", "user", claims.UserID(), "error", err)
		bookmarkError(w, err)
		return
	}
	respond(w, http.StatusOK, lists)
}

func (s *Server) handleCreateBookmarkList(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())

	var body struct {
		Name   string `json:"name"`
		Public bool   `json:"public"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, CodeBadRequest, "invalid body")
		return
	}

	list, err := s.bookmarks.CreateList(r.Context(), claims.UserID(), body.Name, body.Public)
	if err != nil {
		bookmarkError(w, err)
		return
	}
	respond(w, http.StatusCreated, list)
}

func (s *Server) handleGetBookmarkList(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())

	list, err := s.bookmarks.GetList(r.Context(), claims.UserID(), r.PathValue("listID"))
	if err != nil {
		bookmarkError(w, err)
		return
	}
	respond(w, http.StatusOK, list)
}

func (s *Server) handleDeleteBookmarkList(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())

	if err := s.bookmarks.DeleteList(r.Context(), claims.UserID(), r.PathValue("listID")); err != nil {
		bookmarkError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]string{"deleted": r.PathValue("listID")})
}

// handleToggleBookmark adds the question to the list, or removes it when
// already bookmarked.
func (s *Server) handleToggleBookmark(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())

	var body struct {
		QuestionID string `json:"questionId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.QuestionID == "" {
		respondError(w, http.StatusBadRequest, CodeBadRequest, "questionId is required")
		return
	}

	bookmarked, err := s.bookmarks.Toggle(r.Context(), claims.UserID(), r.PathValue("listID"), body.QuestionID)
	if err != nil {
		bookmarkError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{
		"questionId": body.QuestionID,
		"bookmarked": bookmarked,
	})
}

func (s *Server) handleRemoveBookmark(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())

	err := s.bookmarks.RemoveItem(r.Context(), claims.UserID(), r.PathValue("listID"), r.PathValue("questionID"))
	if err != nil {
		bookmarkError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]string{"removed": r.PathValue("questionID")})
}
