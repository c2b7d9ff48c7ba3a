package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/golang-jwt/jwt/v5"

	"github.com/noteoverflow/noteoverflow/internal/browse"
	"github.com/noteoverflow/noteoverflow/internal/question"
)

// feedRequest is a client message on the feed socket.
type feedRequest struct {
	Op string `json:"op"`
}

// feedChunk is one scroll batch pushed to the client. Questions holds
// only the newly revealed slice, not everything visible so far.
type feedChunk struct {
	Questions     []question.Question `json:"questions"`
	Exhausted     bool                `json:"exhausted"`
	IsRateLimited bool                `json:"isRateLimited,omitempty"`
}

// handleFeed serves infinite scroll over a websocket. The filter rides
// in the query string; the client sends {"op":"next"} for each further
// batch and {"op":"done"} to hang up. Browsers cannot set headers on
// websocket dials, so the bearer token is accepted as a query
// parameter too.
func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.feedUser(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, CodeUnauthorized, "missing or invalid token")
		return
	}

	f, err := filterFromQuery(r.URL.Query())
	if err != nil {
		respondError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	res, err := s.executor.Execute(r.Context(), userID, f)
	if err != nil {
		if errors.Is(err, browse.ErrInvalidFilter) {
			respondError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
			return
		}
		s.logger.Error("feed query failed", "user", userID, "error", err)
		respondError(w, http.StatusInternalServerError, CodeInternal, "query failed")
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.allowedOrigins,
	})
	if err != nil {
		s.logger.Warn("feed accept failed", "error", err)
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()
	ranked := browse.SortByScore(res.Data, browse.DefaultWeights(f))
	feed := browse.NewFeed(browse.Chunk(ranked, s.chunkSize))

	// First batch goes out immediately; it carries the rate limit flag.
	first := feedChunk{
		Questions:     feed.Visible(),
		Exhausted:     feed.Exhausted(),
		IsRateLimited: res.IsRateLimited,
	}
	if err := wsjson.Write(ctx, conn, first); err != nil {
		return
	}

	for {
		var req feedRequest
		if err := wsjson.Read(ctx, conn, &req); err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure ||
				websocket.CloseStatus(err) == websocket.StatusGoingAway {
				return
			}
			s.logger.Debug("feed read", "user", userID, "error", err)
			return
		}

		switch req.Op {
		case "next":
			before := len(feed.Visible())
			feed.AppendNext()
			chunk := feedChunk{
				Questions: feed.Visible()[before:],
				Exhausted: feed.Exhausted(),
			}
			if err := wsjson.Write(ctx, conn, chunk); err != nil {
				return
			}
		case "done":
			conn.Close(websocket.StatusNormalClosure, "")
			return
		default:
			conn.Close(websocket.StatusUnsupportedData, "unknown op")
			return
		}
	}
}

// feedUser authenticates the feed dial from either the Authorization
// header or the token query parameter.
func (s *Server) feedUser(r *http.Request) (string, bool) {
	token := r.URL.Query().Get("token")
	if token == "" {
		header := r.Header.Get("Authorization")
		token, _ = strings.CutPrefix(header, "Bearer ")
	}
	if token == "" {
		return "", false
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return []byte(s.jwtSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || claims.Subject == "" {
		return "", false
	}
	return claims.Subject, true
}
