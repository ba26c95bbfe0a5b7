// Package httpapi exposes the WebSocket voice endpoint, the Google OAuth
// flow, and the read-only REST surface over conversation history.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/voxcal/voxcal/internal/auth"
	"github.com/voxcal/voxcal/internal/bridge"
	"github.com/voxcal/voxcal/internal/config"
	"github.com/voxcal/voxcal/internal/repository"
)

const sessionCookieName = "session"

type Server struct {
	cfg           *config.Config
	repo          repository.Repository
	registry      *bridge.Registry
	authenticator auth.Authenticator
	logger        *slog.Logger
	httpServer    *http.Server
}

func NewServer(cfg *config.Config, repo repository.Repository, registry *bridge.Registry, authenticator auth.Authenticator) *Server {
	s := &Server{
		cfg:           cfg,
		repo:          repo,
		registry:      registry,
		authenticator: authenticator,
		logger:        slog.Default().With("component", "httpapi"),
	}
	s.httpServer = &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           corsMiddleware(s.routes()),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /ws", s.handleWebSocket)

	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/conversations", s.handleListConversations)
	mux.HandleFunc("GET /api/conversations/{id}", s.handleGetConversation)
	mux.HandleFunc("GET /api/events", s.handleListEvents)
	mux.HandleFunc("GET /api/stats", s.handleStats)

	mux.HandleFunc("GET /auth/login", s.handleLogin)
	mux.HandleFunc("GET /auth/callback", s.handleCallback)
	mux.HandleFunc("GET /auth/logout", s.handleLogout)
	mux.HandleFunc("GET /auth/status", s.handleAuthStatus)

	return mux
}

// Handler exposes the routed handler for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) ListenAndServe() error {
	s.logger.Info("http server listening", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// The browser client is served from a different origin during development,
// so every response carries permissive CORS headers.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// currentUser resolves the logged-in user from the session cookie, with a
// query-parameter fallback for clients that cannot send cookies (the
// WebSocket handshake from some browsers). A missing or expired session
// resolves to nil without error.
func (s *Server) currentUser(r *http.Request) *repository.User {
	token := ""
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		token = cookie.Value
	}
	if token == "" {
		token = r.URL.Query().Get(sessionCookieName)
	}
	if token == "" {
		return nil
	}
	user, err := s.repo.GetUserByAuthToken(r.Context(), token)
	if err != nil {
		s.logger.Warn("session lookup failed", "error", err)
		return nil
	}
	return user
}
