// Package httpapi exposes the gateway's REST and SSE surface for the web
// player: session lifecycle, dubbing control, the history feed and the
// platform glue endpoints.
package httpapi

import (
	"context"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/eduvoice/dubsession/internal/history"
	"github.com/eduvoice/dubsession/internal/platform"
	"github.com/eduvoice/dubsession/internal/session"
)

type historyStore interface {
	Recent(ctx context.Context, limit int) ([]history.Entry, error)
}

type Server struct {
	sessions *session.Manager
	platform *platform.Client
	history  historyStore

	maintenanceCron string
	startedAt       time.Time

	uiEnabled   bool
	uiStaticDir string

	mux    *http.ServeMux
	server *http.Server
}

type Option func(*Server)

func WithUI(staticDir string, enabled bool) Option {
	return func(s *Server) {
		s.uiStaticDir = staticDir
		s.uiEnabled = enabled
	}
}

func WithHistory(store historyStore) Option {
	return func(s *Server) {
		s.history = store
	}
}

func WithMaintenanceCron(expr string) Option {
	return func(s *Server) {
		s.maintenanceCron = expr
	}
}

func NewServer(sessions *session.Manager, platformClient *platform.Client, opts ...Option) *Server {
	s := &Server{
		sessions:  sessions,
		platform:  platformClient,
		startedAt: time.Now(),
		uiEnabled: false,
		mux:       http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/sessions", s.handleSessions)
	s.mux.HandleFunc("/api/sessions/", s.handleSessionByID)
	s.mux.HandleFunc("/api/dubbing/history", s.handleHistory)
	s.mux.HandleFunc("/api/status", s.handleStatus)

	s.mux.HandleFunc("/api/courses", s.handleCourses)
	s.mux.HandleFunc("/api/courses/", s.handleCourseByID)
	s.mux.HandleFunc("/api/enrollments", s.handleEnrollments)
	s.mux.HandleFunc("/api/progress", s.handleProgress)
	s.mux.HandleFunc("/api/quizzes/", s.handleQuizByID)
	s.mux.HandleFunc("/api/community/posts", s.handlePosts)
	s.mux.HandleFunc("/api/community/leaderboard", s.handleLeaderboard)

	s.mux.HandleFunc("/", s.handleStatic)
}

func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	if !s.uiEnabled || s.uiStaticDir == "" {
		http.NotFound(w, r)
		return
	}

	rel := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
	indexPath := filepath.Join(s.uiStaticDir, "index.html")

	if rel == "" || !strings.Contains(filepath.Base(rel), ".") {
		http.ServeFile(w, r, indexPath)
		return
	}

	filePath := filepath.Join(s.uiStaticDir, rel)
	if _, err := os.Stat(filePath); err != nil {
		// SPA fallback: non-existing static file path returns index
		http.ServeFile(w, r, indexPath)
		return
	}
	http.ServeFile(w, r, filePath)
}
