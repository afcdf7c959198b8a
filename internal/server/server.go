package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/hongminglow/approval-desk/internal/auth"
	"github.com/hongminglow/approval-desk/internal/config"
	"github.com/hongminglow/approval-desk/internal/http/handlers"
	"github.com/hongminglow/approval-desk/internal/middleware"
	"github.com/hongminglow/approval-desk/internal/sandbox"
)

// Server wraps an http.Server with the sandbox routes.
type Server struct {
	inner   *http.Server
	handler http.Handler
}

// New wires up middleware, routes, and returns a ready server.
func New(cfg config.SandboxConfig, store *sandbox.Store, logger *slog.Logger) *Server {
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	handler := Routes(store, tokens, cfg.CORSOrigins, logger)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return &Server{inner: httpServer, handler: handler}
}

// Routes builds the full handler chain. Exposed so tests can mount it on
// an httptest server.
func Routes(store *sandbox.Store, tokens *auth.TokenManager, origins []string, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	handlers.NewHealthHandler(time.Now()).Register(mux)
	handlers.NewAuthHandler(store, tokens, logger).Register(mux)
	handlers.NewTransactionHandler(store, tokens, logger).Register(mux)
	return middleware.CORS(origins, middleware.AccessLog(logger, mux))
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
