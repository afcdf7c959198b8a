package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hongminglow/approval-desk/internal/models"
)

var (
	// ErrNotPermitted means the (status, action, role) triple is not in the
	// table; no request was issued.
	ErrNotPermitted = errors.New("action not permitted")
	// ErrBusy means a transition for the same transaction is still in flight.
	ErrBusy = errors.New("transition already in progress")
)

// Transitioner is the slice of the remote service the controller drives.
type Transitioner interface {
	Submit(ctx context.Context, id string) (models.Transaction, error)
	Approve(ctx context.Context, id string) (models.Transaction, error)
	Reject(ctx context.Context, id string) (models.Transaction, error)
	Execute(ctx context.Context, id string) (models.Transaction, error)
	GetTransaction(ctx context.Context, id string) (models.Transaction, error)
}

// TransitionError is a transition the server refused or could not complete.
// The caller keeps rendering the status it had.
type TransitionError struct {
	Action    Action
	Reference string
	Err       error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Action, e.Reference, e.Err)
}

func (e *TransitionError) Unwrap() error {
	return e.Err
}

// Controller issues transitions with a per-transaction busy flag.
type Controller struct {
	api    Transitioner
	logger *slog.Logger

	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewController returns a controller driving api. A nil logger uses slog.Default.
func NewController(api Transitioner, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{api: api, logger: logger, inflight: make(map[string]struct{})}
}

// Busy reports whether a transition for id is outstanding. Views disable
// the row's controls while it is.
func (c *Controller) Busy(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.inflight[id]
	return ok
}

// Confirm runs a confirmed pending action.
func (c *Controller) Confirm(ctx context.Context, pending PendingAction, identity models.Identity) (models.Transaction, error) {
	return c.RequestTransition(ctx, pending.Transaction, pending.Action, identity)
}

// RequestTransition asks the server to apply action to txn and returns the
// re-read record. Only the id is sent; the server decides the new status.
func (c *Controller) RequestTransition(ctx context.Context, txn models.Transaction, action Action, identity models.Identity) (models.Transaction, error) {
	if !Allowed(txn.Status, action, identity.Role) {
		return models.Transaction{}, fmt.Errorf("%w: %s from %s as %s", ErrNotPermitted, action, txn.Status, identity.Role)
	}
	if !c.acquire(txn.ID) {
		return models.Transaction{}, fmt.Errorf("%w: %s", ErrBusy, txn.Reference)
	}
	defer c.release(txn.ID)

	updated, err := c.call(ctx, action, txn.ID)
	if err != nil {
		c.logger.Warn("transition failed", "action", action, "id", txn.ID, "reference", txn.Reference, "error", err)
		return models.Transaction{}, &TransitionError{Action: action, Reference: txn.Reference, Err: err}
	}

	fresh, err := c.api.GetTransaction(ctx, txn.ID)
	if err != nil {
		c.logger.Warn("re-fetch after transition failed", "action", action, "id", txn.ID, "error", err)
		return updated, nil
	}
	return fresh, nil
}

func (c *Controller) call(ctx context.Context, action Action, id string) (models.Transaction, error) {
	switch action {
	case Submit:
		return c.api.Submit(ctx, id)
	case Approve:
		return c.api.Approve(ctx, id)
	case Reject:
		return c.api.Reject(ctx, id)
	case Execute:
		return c.api.Execute(ctx, id)
	}
	return models.Transaction{}, fmt.Errorf("%w: %q", ErrUnknownAction, action)
}

func (c *Controller) acquire(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.inflight[id]; ok {
		return false
	}
	c.inflight[id] = struct{}{}
	return true
}

func (c *Controller) release(id string) {
	c.mu.Lock()
	delete(c.inflight, id)
	c.mu.Unlock()
}
