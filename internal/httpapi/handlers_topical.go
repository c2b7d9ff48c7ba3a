package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/noteoverflow/noteoverflow/internal/browse"
	"github.com/noteoverflow/noteoverflow/internal/question"
)

// filterFromQuery decodes the browsing filter from URL query parameters.
// Multi-value dimensions repeat the parameter (?topic=a&topic=b).
func filterFromQuery(values url.Values) (browse.Filter, error) {
	f := browse.Filter{
		Curriculum: values.Get("curriculumId"),
		Subject:    values.Get("subjectId"),
		Topics:     values["topic"],
	}
	for _, v := range values["year"] {
		year, err := strconv.Atoi(v)
		if err != nil {
			return browse.Filter{}, errors.New("year must be an integer")
		}
		f.Years = append(f.Years, year)
	}
	for _, v := range values["paperType"] {
		pt, err := strconv.Atoi(v)
		if err != nil {
			return browse.Filter{}, errors.New("paperType must be an integer")
		}
		f.PaperTypes = append(f.PaperTypes, pt)
	}
	for _, v := range values["season"] {
		season, err := question.ParseSeason(v)
		if err != nil {
			return browse.Filter{}, err
		}
		f.Seasons = append(f.Seasons, season)
	}
	return f, nil
}

// queryPage is one page of ranked results.
type queryPage struct {
	Questions     []question.Question `json:"questions"`
	Page          int                 `json:"page"`
	PageCount     int                 `json:"pageCount"`
	Total         int                 `json:"total"`
	HasPrev       bool                `json:"hasPrev"`
	HasNext       bool                `json:"hasNext"`
	IsRateLimited bool                `json:"isRateLimited"`
}

// handleTopicalQuery runs a confirmed query and returns the requested
// page of score-ordered results.
func (s *Server) handleTopicalQuery(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())

	f, err := filterFromQuery(r.URL.Query())
	if err != nil {
		respondError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	page := 1
	if v := r.URL.Query().Get("page"); v != "" {
		page, err = strconv.Atoi(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, CodeBadRequest, "page must be an integer")
			return
		}
	}

	res, err := s.executor.Execute(r.Context(), claims.UserID(), f)
	if err != nil {
		if errors.Is(err, browse.ErrInvalidFilter) {
			respondError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
			return
		}
		s.logger.Error("query failed", "user", claims.UserID(), "error", err)
		respondError(w, http.StatusInternalServerError, CodeInternal, "query failed")
		return
	}

	ranked := browse.SortByScore(res.Data, browse.DefaultWeights(f))
	pager := browse.NewPager(browse.Chunk(ranked, s.pageSize))
	if err := pager.JumpTo(page); err != nil {
		respondError(w, http.StatusBadRequest, CodeBadRequest, "page out of range")
		return
	}

	respond(w, http.StatusOK, queryPage{
		Questions:     pager.Current(),
		Page:          pager.Page(),
		PageCount:     pager.PageCount(),
		Total:         len(ranked),
		HasPrev:       pager.HasPrev(),
		HasNext:       pager.HasNext(),
		IsRateLimited: res.IsRateLimited,
	})
}

// handleRecentQueryGet returns the user's last confirmed filter for a
// curriculum/subject scope, revalidated against current reference data.
func (s *Server) handleRecentQueryGet(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())

	curriculum := r.URL.Query().Get("curriculumId")
	subject := r.URL.Query().Get("subjectId")
	if curriculum == "" || subject == "" {
		respondError(w, http.StatusBadRequest, CodeBadRequest, "curriculumId and subjectId are required")
		return
	}

	f := browse.Restore(r.Context(), s.filters, s.ref, claims.UserID(), curriculum, subject)
	respond(w, http.StatusOK, f)
}

// handleRecentQueryPut saves a confirmed filter as the user's recent
// query for its curriculum/subject scope.
func (s *Server) handleRecentQueryPut(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())

	var f browse.Filter
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		respondError(w, http.StatusBadRequest, CodeBadRequest, "invalid filter body")
		return
	}
	if _, err := f.Validate(s.ref); err != nil {
		respondError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	if err := s.filters.Save(r.Context(), claims.UserID(), f); err != nil {
		s.logger.Error("save recent query", "user", claims.UserID(), "error", err)
		respondError(w, http.StatusInternalServerError, CodeInternal, "save failed")
		return
	}
	respond(w, http.StatusOK, f)
}

// handleFinishedGet lists the question ids the user marked as finished.
func (s *Server) handleFinishedGet(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())

	ids, err := s.finished.All(r.Context(), claims.UserID())
	if err != nil {
		s.logger.Error("list finished", "user", claims.UserID(), "error", err)
		respondError(w, http.StatusInternalServerError, CodeInternal, "lookup failed")
		return
	}
	respond(w, http.StatusOK, map[string]any{"questionIds": ids})
}

// handleFinishedToggle flips the finished mark on one question.
func (s *Server) handleFinishedToggle(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())

	var body struct {
		QuestionID string `json:"questionId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.QuestionID == "" {
		respondError(w, http.StatusBadRequest, CodeBadRequest, "questionId is required")
		return
	}

	finished, err := s.finished.Toggle(r.Context(), claims.UserID(), body.QuestionID)
	if err != nil {
		s.logger.Error("toggle finished", "user", claims.UserID(), "error", err)
		respondError(w, http.StatusInternalServerError, CodeInternal, "toggle failed")
		return
	}
	respond(w, http.StatusOK, map[string]any{
		"questionId": body.QuestionID,
		"finished":   finished,
	})
}
