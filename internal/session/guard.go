package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hongminglow/approval-desk/internal/auth"
	"github.com/hongminglow/approval-desk/internal/models"
	"github.com/hongminglow/approval-desk/internal/models/dto"
	"github.com/hongminglow/approval-desk/internal/storage"
)

var (
	// ErrAuthentication wraps every login failure.
	ErrAuthentication = errors.New("authentication failed")
	// ErrSuperseded is returned by a login whose result was overtaken by a
	// later login on the same guard.
	ErrSuperseded = errors.New("login superseded by a newer attempt")
)

// Authenticator performs the credential exchange.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (dto.LoginResponse, error)
}

// Guard owns the current identity. It is the only place tokens are decoded.
type Guard struct {
	store  storage.TokenStore
	auth   Authenticator
	now    func() time.Time
	logger *slog.Logger

	mu        sync.Mutex
	identity  *models.Identity
	token     string
	expiresAt time.Time
	loginSeq  uint64
}

// Option customises a Guard.
type Option func(*Guard)

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(g *Guard) { g.now = now }
}

// WithLogger sets the guard's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Guard) { g.logger = logger }
}

// NewGuard creates a logged-out guard. Call Restore to pick up a persisted token.
func NewGuard(store storage.TokenStore, authenticator Authenticator, opts ...Option) *Guard {
	g := &Guard{
		store:  store,
		auth:   authenticator,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Restore loads and decodes the persisted token. An unreadable, malformed or
// expired token is purged and the guard stays logged out.
func (g *Guard) Restore() (models.Identity, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.clearLocked()
	token, err := g.store.Load()
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			g.logger.Warn("read persisted token", "error", err)
			g.purgeLocked()
		}
		return models.Identity{}, false
	}
	session, err := auth.Decode(token, g.now())
	if err != nil {
		g.logger.Info("discarding persisted token", "error", err)
		g.purgeLocked()
		return models.Identity{}, false
	}
	g.setLocked(token, session)
	return session.Identity, true
}

// Login exchanges credentials and establishes a session. On any failure the
// guard is left logged out with nothing persisted.
func (g *Guard) Login(ctx context.Context, username, password string) (models.Identity, error) {
	g.mu.Lock()
	g.loginSeq++
	seq := g.loginSeq
	g.mu.Unlock()

	resp, err := g.auth.Login(ctx, username, password)

	g.mu.Lock()
	defer g.mu.Unlock()
	if seq != g.loginSeq {
		return models.Identity{}, ErrSuperseded
	}
	if err != nil {
		g.purgeLocked()
		return models.Identity{}, fmt.Errorf("%w: %w", ErrAuthentication, err)
	}
	session, err := auth.Decode(resp.AccessToken, g.now())
	if err != nil {
		g.purgeLocked()
		return models.Identity{}, fmt.Errorf("%w: invalid token received: %w", ErrAuthentication, err)
	}
	if err := g.store.Save(resp.AccessToken); err != nil {
		g.purgeLocked()
		return models.Identity{}, fmt.Errorf("%w: persist token: %w", ErrAuthentication, err)
	}
	g.setLocked(resp.AccessToken, session)
	g.logger.Info("logged in", "subject", session.Identity.ID, "role", session.Identity.Role)
	return session.Identity, nil
}

// Logout purges the token and clears the identity. Safe to call repeatedly.
func (g *Guard) Logout() {
	g.mu.Lock()
	defer g.mu.Unlock()
	// Bump the sequence so an in-flight login cannot resurrect the session.
	g.loginSeq++
	g.purgeLocked()
}

// Current returns the live identity. A session whose expiry has passed is
// purged here.
func (g *Guard) Current() (models.Identity, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.identity == nil {
		return models.Identity{}, false
	}
	if !g.now().Before(g.expiresAt) {
		g.logger.Info("session expired", "subject", g.identity.ID)
		g.purgeLocked()
		return models.Identity{}, false
	}
	return *g.identity, true
}

// ExpiresAt reports when the current session ends.
func (g *Guard) ExpiresAt() (time.Time, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.identity == nil {
		return time.Time{}, false
	}
	return g.expiresAt, true
}

// Invalidate handles a server-side rejection of token. It purges only if
// token is still the active one, so a burst of 401s for the same token
// purges once and a late 401 for an old token cannot end a newer session.
// It reports whether a purge happened.
func (g *Guard) Invalidate(token string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.identity == nil || token == "" || token != g.token {
		return false
	}
	g.logger.Warn("session rejected by server", "subject", g.identity.ID)
	g.purgeLocked()
	return true
}

func (g *Guard) setLocked(token string, session auth.Session) {
	identity := session.Identity
	g.identity = &identity
	g.token = token
	g.expiresAt = session.ExpiresAt
}

func (g *Guard) clearLocked() {
	g.identity = nil
	g.token = ""
	g.expiresAt = time.Time{}
}

func (g *Guard) purgeLocked() {
	g.clearLocked()
	if err := g.store.Delete(); err != nil {
		g.logger.Warn("delete persisted token", "error", err)
	}
}
