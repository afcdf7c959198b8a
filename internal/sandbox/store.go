// Package sandbox is an in-memory stand-in for the remote transaction
// service. It backs the local demo server and the package tests; it is not
// a transaction-processing engine.
package sandbox

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/hongminglow/approval-desk/internal/lifecycle"
	"github.com/hongminglow/approval-desk/internal/models"
)

var (
	// ErrNotFound indicates a record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists indicates a uniqueness conflict.
	ErrAlreadyExists = errors.New("record already exists")
	// ErrInvalidCredentials is returned for an unknown user or wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrForbidden means the actor's role may not perform the action.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidTransition means the transaction's status does not allow the action.
	ErrInvalidTransition = errors.New("invalid transition")
)

type user struct {
	identity     models.Identity
	passwordHash []byte
}

// Store holds users and transactions in memory. Transactions are listed
// newest first.
type Store struct {
	mu      sync.Mutex
	now     func() time.Time
	users   map[string]user
	txns    []*models.Transaction
	nextRef int
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{now: time.Now, users: make(map[string]user), nextRef: 1}
}

// AddUser registers a login. Username and email both identify the user.
func (s *Store) AddUser(username, email, password string, role models.Role) (models.Identity, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return models.Identity{}, fmt.Errorf("hash password: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(strings.TrimSpace(username))
	if _, ok := s.users[key]; ok {
		return models.Identity{}, ErrAlreadyExists
	}
	identity := models.Identity{ID: uuid.NewString(), Email: email, Role: role}
	u := user{identity: identity, passwordHash: hash}
	s.users[key] = u
	if mail := strings.ToLower(strings.TrimSpace(email)); mail != "" && mail != key {
		s.users[mail] = u
	}
	return identity, nil
}

// Authenticate checks a username (or email) and password.
func (s *Store) Authenticate(username, password string) (models.Identity, error) {
	s.mu.Lock()
	u, ok := s.users[strings.ToLower(strings.TrimSpace(username))]
	s.mu.Unlock()
	if !ok {
		return models.Identity{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(u.passwordHash, []byte(password)); err != nil {
		return models.Identity{}, ErrInvalidCredentials
	}
	return u.identity, nil
}

// Create adds a draft owned by creator.
func (s *Store) Create(creator models.Identity, amount decimal.Decimal, currency string) (models.Transaction, error) {
	if creator.Role != models.Operator {
		return models.Transaction{}, ErrForbidden
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	txn := &models.Transaction{
		ID:             uuid.NewString(),
		Reference:      fmt.Sprintf("TRX-%03d", s.nextRef),
		Amount:         amount,
		Currency:       strings.ToUpper(currency),
		Status:         models.Draft,
		CreatedBy:      creator.ID,
		CreatedByEmail: creator.Email,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	s.nextRef++
	s.txns = append([]*models.Transaction{txn}, s.txns...)
	return *txn, nil
}

// Put inserts or replaces a transaction verbatim. Used to seed fixtures.
func (s *Store) Put(txn models.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.txns {
		if existing.ID == txn.ID {
			s.txns[i] = &txn
			return
		}
	}
	s.txns = append([]*models.Transaction{&txn}, s.txns...)
}

// List returns what viewer may see: operators see their own transactions,
// approvers see all. An empty status matches every status.
func (s *Store) List(viewer models.Identity, status models.Status) []models.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Transaction, 0, len(s.txns))
	for _, txn := range s.txns {
		if !visible(viewer, txn) {
			continue
		}
		if status != "" && txn.Status != status {
			continue
		}
		out = append(out, *txn)
	}
	return out
}

// Get returns a single transaction visible to viewer.
func (s *Store) Get(viewer models.Identity, id string) (models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	txn, ok := s.find(id)
	if !ok || !visible(viewer, txn) {
		return models.Transaction{}, ErrNotFound
	}
	return *txn, nil
}

// Stats counts the transactions visible to viewer.
func (s *Store) Stats(viewer models.Identity) models.Stats {
	var stats models.Stats
	for _, txn := range s.List(viewer, "") {
		stats.Total++
		switch txn.Status {
		case models.Draft:
			stats.Draft++
		case models.PendingApproval:
			stats.PendingApproval++
		case models.Approved:
			stats.Approved++
		case models.Rejected:
			stats.Rejected++
		case models.Executed:
			stats.Executed++
		}
	}
	return stats
}

// Transition applies action for actor using the same table the console
// mirrors.
func (s *Store) Transition(actor models.Identity, id string, action lifecycle.Action) (models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	txn, ok := s.find(id)
	if !ok || !visible(actor, txn) {
		return models.Transaction{}, ErrNotFound
	}
	row, ok := lifecycle.Lookup(txn.Status, action)
	if !ok {
		return models.Transaction{}, fmt.Errorf("%w: cannot %s a %s transaction", ErrInvalidTransition, action, txn.Status)
	}
	if !row.Permits(actor.Role) {
		return models.Transaction{}, ErrForbidden
	}
	txn.Status = row.To
	txn.UpdatedAt = s.now().UTC()
	if action == lifecycle.Approve || action == lifecycle.Reject {
		txn.ApprovedBy = actor.ID
		txn.ApprovedByEmail = actor.Email
	}
	return *txn, nil
}

func (s *Store) find(id string) (*models.Transaction, bool) {
	for _, txn := range s.txns {
		if txn.ID == id {
			return txn, true
		}
	}
	return nil, false
}

func visible(viewer models.Identity, txn *models.Transaction) bool {
	return viewer.Role == models.Approver || txn.CreatedBy == viewer.ID
}
