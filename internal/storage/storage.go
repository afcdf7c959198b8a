package storage

import "errors"

// ErrNotFound indicates no token is persisted.
var ErrNotFound = errors.New("token not found")

// DefaultKey is the single well-known key the credential token lives under.
const DefaultKey = "access_token"

// TokenStore persists the one piece of durable client state: the credential
// token. Save overwrites wholesale; Delete is idempotent.
type TokenStore interface {
	Load() (string, error)
	Save(token string) error
	Delete() error
}
