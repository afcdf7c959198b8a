package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/approval-desk/internal/auth"
	"github.com/hongminglow/approval-desk/internal/models"
	"github.com/hongminglow/approval-desk/internal/models/dto"
	"github.com/hongminglow/approval-desk/internal/storage"
	"github.com/hongminglow/approval-desk/internal/storage/memory"
)

var now = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

func clock() time.Time { return now }

type authFunc func(ctx context.Context, username, password string) (dto.LoginResponse, error)

func (f authFunc) Login(ctx context.Context, username, password string) (dto.LoginResponse, error) {
	return f(ctx, username, password)
}

func issue(t *testing.T, role models.Role, issuedAt time.Time, ttl time.Duration) string {
	t.Helper()
	token, err := auth.NewTokenManager("secret", "test", ttl).GenerateAt(
		models.Identity{ID: "u-1", Email: "ana@example.com", Role: role}, issuedAt)
	require.NoError(t, err)
	return token
}

func stored(t *testing.T, store storage.TokenStore) string {
	t.Helper()
	token, err := store.Load()
	if errors.Is(err, storage.ErrNotFound) {
		return ""
	}
	require.NoError(t, err)
	return token
}

func TestRestoreValidToken(t *testing.T) {
	store := memory.NewTokenStore(issue(t, models.Approver, now.Add(-time.Minute), time.Hour))
	g := NewGuard(store, nil, WithClock(clock))

	identity, ok := g.Restore()
	require.True(t, ok)
	assert.Equal(t, models.Approver, identity.Role)
	assert.Equal(t, "ana@example.com", identity.Email)

	current, ok := g.Current()
	require.True(t, ok)
	assert.Equal(t, identity, current)
}

func TestRestoreExpiredTokenPurges(t *testing.T) {
	// exp = now - 1s
	store := memory.NewTokenStore(issue(t, models.Operator, now.Add(-time.Hour-time.Second), time.Hour))
	g := NewGuard(store, nil, WithClock(clock))

	_, ok := g.Restore()
	assert.False(t, ok)
	assert.Empty(t, stored(t, store))
}

func TestRestoreTokenExpiringNowPurges(t *testing.T) {
	store := memory.NewTokenStore(issue(t, models.Operator, now.Add(-time.Hour), time.Hour))
	g := NewGuard(store, nil, WithClock(clock))

	_, ok := g.Restore()
	assert.False(t, ok)
	assert.Empty(t, stored(t, store))
}

func TestRestoreMalformedTokenPurges(t *testing.T) {
	store := memory.NewTokenStore("garbage")
	g := NewGuard(store, nil, WithClock(clock))

	_, ok := g.Restore()
	assert.False(t, ok)
	assert.Empty(t, stored(t, store))
}

func TestRestoreWithoutToken(t *testing.T) {
	g := NewGuard(memory.NewTokenStore(""), nil, WithClock(clock))
	_, ok := g.Restore()
	assert.False(t, ok)
}

func TestLoginPersistsAndDecodes(t *testing.T) {
	token := issue(t, models.Operator, now, time.Hour)
	store := memory.NewTokenStore("")
	g := NewGuard(store, authFunc(func(_ context.Context, u, p string) (dto.LoginResponse, error) {
		assert.Equal(t, "ana", u)
		assert.Equal(t, "pw", p)
		return dto.LoginResponse{AccessToken: token, TokenType: "bearer"}, nil
	}), WithClock(clock))

	identity, err := g.Login(context.Background(), "ana", "pw")
	require.NoError(t, err)
	assert.Equal(t, models.Operator, identity.Role)
	assert.Equal(t, token, stored(t, store))

	expires, ok := g.ExpiresAt()
	require.True(t, ok)
	assert.True(t, expires.Equal(now.Add(time.Hour)))
}

func TestLoginFailureLeavesNoSession(t *testing.T) {
	tests := map[string]authFunc{
		"exchange refused": func(context.Context, string, string) (dto.LoginResponse, error) {
			return dto.LoginResponse{}, errors.New("401 invalid credentials")
		},
		"undecodable token": func(context.Context, string, string) (dto.LoginResponse, error) {
			return dto.LoginResponse{AccessToken: "not-a-jwt"}, nil
		},
		"expired token": func(context.Context, string, string) (dto.LoginResponse, error) {
			return dto.LoginResponse{AccessToken: issue(t, models.Operator, now.Add(-2*time.Hour), time.Hour)}, nil
		},
	}
	for name, exchange := range tests {
		t.Run(name, func(t *testing.T) {
			store := memory.NewTokenStore(issue(t, models.Approver, now, time.Hour))
			g := NewGuard(store, exchange, WithClock(clock))
			_, ok := g.Restore()
			require.True(t, ok)

			_, err := g.Login(context.Background(), "ana", "pw")
			require.ErrorIs(t, err, ErrAuthentication)

			_, ok = g.Current()
			assert.False(t, ok)
			assert.Empty(t, stored(t, store))
		})
	}
}

func TestLoginLastWriteWins(t *testing.T) {
	first := issue(t, models.Operator, now, time.Hour)
	second := issue(t, models.Approver, now, time.Hour)

	release := make(chan struct{})
	started := make(chan struct{})
	store := memory.NewTokenStore("")
	g := NewGuard(store, authFunc(func(_ context.Context, u, _ string) (dto.LoginResponse, error) {
		if u == "slow" {
			close(started)
			<-release
			return dto.LoginResponse{AccessToken: first}, nil
		}
		return dto.LoginResponse{AccessToken: second}, nil
	}), WithClock(clock))

	slowErr := make(chan error, 1)
	go func() {
		_, err := g.Login(context.Background(), "slow", "pw")
		slowErr <- err
	}()
	<-started

	identity, err := g.Login(context.Background(), "fast", "pw")
	require.NoError(t, err)
	assert.Equal(t, models.Approver, identity.Role)

	close(release)
	assert.ErrorIs(t, <-slowErr, ErrSuperseded)

	current, ok := g.Current()
	require.True(t, ok)
	assert.Equal(t, models.Approver, current.Role)
	assert.Equal(t, second, stored(t, store))
}

func TestLogoutIdempotent(t *testing.T) {
	store := memory.NewTokenStore(issue(t, models.Operator, now, time.Hour))
	g := NewGuard(store, nil, WithClock(clock))
	g.Restore()

	g.Logout()
	_, ok1 := g.Current()
	token1 := stored(t, store)

	g.Logout()
	_, ok2 := g.Current()
	token2 := stored(t, store)

	assert.False(t, ok1)
	assert.False(t, ok2)
	assert.Empty(t, token1)
	assert.Equal(t, token1, token2)
}

func TestCurrentExpiresSession(t *testing.T) {
	at := now
	store := memory.NewTokenStore(issue(t, models.Operator, now, time.Minute))
	g := NewGuard(store, nil, WithClock(func() time.Time { return at }))
	_, ok := g.Restore()
	require.True(t, ok)

	at = now.Add(time.Minute)
	_, ok = g.Current()
	assert.False(t, ok)
	assert.Empty(t, stored(t, store))
}

func TestInvalidatePurgesOncePerToken(t *testing.T) {
	token := issue(t, models.Operator, now, time.Hour)
	store := memory.NewTokenStore(token)
	g := NewGuard(store, nil, WithClock(clock))
	g.Restore()

	assert.False(t, g.Invalidate("some-older-token"))
	_, ok := g.Current()
	assert.True(t, ok, "a stale rejection must not end the current session")

	assert.True(t, g.Invalidate(token))
	assert.False(t, g.Invalidate(token), "second report of the same invalidity is a no-op")
	_, ok = g.Current()
	assert.False(t, ok)
	assert.Empty(t, stored(t, store))
}
