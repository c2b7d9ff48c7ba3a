// Package httpapi exposes the question browsing, bookmarking, upload and
// export operations over HTTP, plus a websocket feed for infinite scroll.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/rs/cors"

	"github.com/noteoverflow/noteoverflow/internal/bookmark"
	"github.com/noteoverflow/noteoverflow/internal/browse"
	"github.com/noteoverflow/noteoverflow/internal/export"
	"github.com/noteoverflow/noteoverflow/internal/reference"
	"github.com/noteoverflow/noteoverflow/internal/upload"
)

// Pinger is anything whose liveness gates readiness.
type Pinger interface {
	HealthCheck(ctx context.Context) error
}

// Options carries the wiring for a Server.
type Options struct {
	Logger         *slog.Logger
	JWTSecret      string
	AllowedOrigins []string
	PageSize       int
	ChunkSize      int
	MaxUploadBytes int64

	Reference *reference.Loader
	Executor  *browse.Executor
	Filters   browse.FilterStore
	Bookmarks *bookmark.Service
	Finished  bookmark.FinishedStore
	Uploader  *upload.Uploader
	Exporter  *export.Exporter
	Ready     []Pinger
}

// Server handles the public API.
type Server struct {
	logger         *slog.Logger
	jwtSecret      string
	allowedOrigins []string
	pageSize       int
	chunkSize      int
	maxUploadBytes int64

	ref       *reference.Loader
	executor  *browse.Executor
	filters   browse.FilterStore
	bookmarks *bookmark.Service
	finished  bookmark.FinishedStore
	uploader  *upload.Uploader
	exporter  *export.Exporter
	ready     []Pinger
}

// New creates a Server from opts.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = 10
	}
	chunkSize := opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = 30
	}
	maxUpload := opts.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = 4 << 20
	}
	return &Server{
		logger:         logger,
		jwtSecret:      opts.JWTSecret,
		allowedOrigins: opts.AllowedOrigins,
		pageSize:       pageSize,
		chunkSize:      chunkSize,
		maxUploadBytes: maxUpload,
		ref:            opts.Reference,
		executor:       opts.Executor,
		filters:        opts.Filters,
		bookmarks:      opts.Bookmarks,
		finished:       opts.Finished,
		uploader:       opts.Uploader,
		exporter:       opts.Exporter,
		ready:          opts.Ready,
	}
}

// Routes builds the HTTP handler, CORS included.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)

	mux.HandleFunc("GET /api/reference", s.handleReference)

	mux.HandleFunc("GET /api/topical", s.requireAuth(s.handleTopicalQuery))
	mux.HandleFunc("GET /api/topical/feed", s.handleFeed)

	mux.HandleFunc("GET /api/topical/recent-query", s.requireAuth(s.handleRecentQueryGet))
	mux.HandleFunc("PUT /api/topical/recent-query", s.requireAuth(s.handleRecentQueryPut))

	mux.HandleFunc("GET /api/topical/finished", s.requireAuth(s.handleFinishedGet))
	mux.HandleFunc("POST /api/topical/finished", s.requireAuth(s.handleFinishedToggle))

	mux.HandleFunc("GET /api/topical/bookmark", s.requireAuth(s.handleListBookmarkLists))
	mux.HandleFunc("POST /api/topical/bookmark", s.requireAuth(s.handleCreateBookmarkList))
	mux.HandleFunc("GET /api/topical/bookmark/{listID}", s.requireAuth(s.handleGetBookmarkList))
	mux.HandleFunc("DELETE /api/topical/bookmark/{listID}", s.requireAuth(s.handleDeleteBookmarkList))
	mux.HandleFunc("POST /api/topical/bookmark/{listID}/items", s.requireAuth(s.handleToggleBookmark))
	mux.HandleFunc("DELETE /api/topical/bookmark/{listID}/items/{questionID}", s.requireAuth(s.handleRemoveBookmark))

	mux.HandleFunc("POST /api/topical/upload", s.requireAdmin(s.handleUpload))
	mux.HandleFunc("GET /api/topical/export", s.requireAdmin(s.handleExport))

	c := cors.New(cors.Options{
		AllowedOrigins:   s.allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})
	return c.Handler(mux)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	respond(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	for _, p := range s.ready {
		if err := p.HealthCheck(r.Context()); err != nil {
			s.logger.Warn("readiness check failed", "error", err)
			respondError(w, http.StatusServiceUnavailable, CodeInternal, "dependency not ready")
			return
		}
	}
	respond(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleReference returns the loaded curricula so clients can populate
// the filter selectors.
func (s *Server) handleReference(w http.ResponseWriter, _ *http.Request) {
	respond(w, http.StatusOK, s.ref.Curricula())
}
