package memory

import (
	"sync"

	"github.com/hongminglow/approval-desk/internal/storage"
)

var _ storage.TokenStore = (*Store)(nil)

// Store holds the token in process memory. Used by tests and by --ephemeral
// sessions that must not touch disk.
type Store struct {
	mu    sync.Mutex
	token string
}

// NewTokenStore returns an empty store, optionally seeded with a token.
func NewTokenStore(seed string) *Store {
	return &Store{token: seed}
}

func (s *Store) Load() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == "" {
		return "", storage.ErrNotFound
	}
	return s.token, nil
}

func (s *Store) Save(token string) error {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	return nil
}

func (s *Store) Delete() error {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
	return nil
}
