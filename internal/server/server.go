package server

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/lazypower/resurface/internal/cache"
	"github.com/lazypower/resurface/internal/config"
	"github.com/lazypower/resurface/internal/journal"
)

// Server is the resurface HTTP API server.
type Server struct {
	journal     *journal.Journal
	router      chi.Router
	version     string
	started     time.Time
	backgrounds *cache.Backgrounds
	writes      *RateLimiter
	ui          fs.FS
}

// New creates a Server over j using the server and display settings in cfg.
func New(j *journal.Journal, cfg config.Config, version string) (*Server, error) {
	lru, err := cache.NewLRU[string, int](cfg.Display.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("background cache: %w", err)
	}

	s := &Server{
		journal:     j,
		version:     version,
		started:     time.Now(),
		backgrounds: cache.NewBackgrounds(cfg.Display.Backgrounds, lru),
		writes:      NewRateLimiter(cfg.Server.WritesPerSecond, cfg.Server.WriteBurst),
	}
	s.routes()
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Get("/highlights", s.handleList)
		r.Get("/highlights/export", s.handleExport)
		r.Get("/highlights/{id}", s.handleGet)

		r.Get("/next", s.handleNext)
		r.Get("/review/stats", s.handleReviewStats)
		r.Get("/review/focus", s.handleFocusReview)
		r.Get("/stats", s.handleStats)
		r.Get("/tags", s.handleTags)
		r.Get("/on-this-day", s.handleOnThisDay)

		r.Group(func(r chi.Router) {
			r.Use(s.writes.Middleware)

			r.Post("/highlights", s.handleCreate)
			r.Post("/highlights/import", s.handleImport)
			r.Patch("/highlights/{id}", s.handleEdit)
			r.Delete("/highlights/{id}", s.handleDelete)

			r.Post("/highlights/{id}/view", s.handleView)
			r.Post("/highlights/{id}/comment", s.handleComment)
			r.Post("/highlights/{id}/recall", s.handleRecall)
			r.Post("/highlights/{id}/tags", s.handleTag)
			r.Delete("/highlights/{id}/tags/{tag}", s.handleUntag)
		})
	})

	r.Get("/*", s.handleUI)

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbOK := true
	if err := s.journal.DB.Ping(); err != nil {
		dbOK = false
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"uptime":  time.Since(s.started).Seconds(),
		"db":      dbOK,
		"db_path": s.journal.DB.Path,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
