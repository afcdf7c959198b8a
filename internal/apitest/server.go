// Package apitest runs the sandbox service on an httptest server with hooks
// for counting calls and scripting one-off responses.
package apitest

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/hongminglow/approval-desk/internal/auth"
	"github.com/hongminglow/approval-desk/internal/models"
	"github.com/hongminglow/approval-desk/internal/sandbox"
	"github.com/hongminglow/approval-desk/internal/server"
)

const (
	secret = "apitest-secret"
	issuer = "apitest"
)

type scripted struct {
	status int
	body   string
}

// Server is a running fake transaction service.
type Server struct {
	*httptest.Server
	Store  *sandbox.Store
	Tokens *auth.TokenManager

	mu      sync.Mutex
	calls   map[string]int
	scripts map[string][]scripted
}

// NewServer starts a server that is closed when t finishes.
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		Store:   sandbox.NewStore(),
		Tokens:  auth.NewTokenManager(secret, issuer, time.Hour),
		calls:   make(map[string]int),
		scripts: make(map[string][]scripted),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	routes := server.Routes(s.Store, s.Tokens, nil, logger)
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		s.mu.Lock()
		s.calls[key]++
		var next *scripted
		if queue := s.scripts[key]; len(queue) > 0 {
			next = &queue[0]
			s.scripts[key] = queue[1:]
		}
		s.mu.Unlock()
		if next != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(next.status)
			_, _ = io.WriteString(w, next.body)
			return
		}
		routes.ServeHTTP(w, r)
	}))
	t.Cleanup(s.Close)
	return s
}

// AddUser registers a login and fails the test on error.
func (s *Server) AddUser(t testing.TB, username, password string, role models.Role) models.Identity {
	t.Helper()
	identity, err := s.Store.AddUser(username, username+"@test.com", password, role)
	if err != nil {
		t.Fatalf("add user %s: %v", username, err)
	}
	return identity
}

// TokenFor issues a valid token for identity.
func (s *Server) TokenFor(t testing.TB, identity models.Identity) string {
	t.Helper()
	token, err := s.Tokens.Generate(identity)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

// Seed stores a transaction verbatim.
func (s *Server) Seed(txn models.Transaction) models.Transaction {
	s.Store.Put(txn)
	return txn
}

// Respond makes the next request to method+path answer with a raw body.
func (s *Server) Respond(method, path string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := method + " " + path
	s.scripts[key] = append(s.scripts[key], scripted{status: status, body: body})
}

// FailNext makes the next request to method+path fail with a detail message.
func (s *Server) FailNext(method, path string, status int, detail string) {
	body, _ := json.Marshal(map[string]string{"detail": detail})
	s.Respond(method, path, status, string(body))
}

// Calls counts requests to method+path.
func (s *Server) Calls(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method+" "+path]
}

// TotalCalls counts every request served.
func (s *Server) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.calls {
		total += n
	}
	return total
}
