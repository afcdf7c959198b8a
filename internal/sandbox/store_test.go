package sandbox

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/approval-desk/internal/lifecycle"
	"github.com/hongminglow/approval-desk/internal/models"
)

func TestStoreWorkflow(t *testing.T) {
	s := NewStore()
	op, err := s.AddUser("operator", "operator@test.com", "operator123", models.Operator)
	require.NoError(t, err)
	ap, err := s.AddUser("approver", "approver@test.com", "approver123", models.Approver)
	require.NoError(t, err)

	_, err = s.AddUser("operator", "x@test.com", "pw", models.Operator)
	assert.ErrorIs(t, err, ErrAlreadyExists)

	got, err := s.Authenticate("OPERATOR@test.com", "operator123")
	require.NoError(t, err)
	assert.Equal(t, op.ID, got.ID)
	_, err = s.Authenticate("operator", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = s.Create(ap, decimal.NewFromInt(1), "USD")
	assert.ErrorIs(t, err, ErrForbidden)

	txn, err := s.Create(op, decimal.NewFromInt(5000), "mxn")
	require.NoError(t, err)
	assert.Equal(t, "TRX-001", txn.Reference)
	assert.Equal(t, "MXN", txn.Currency)
	assert.Equal(t, models.Draft, txn.Status)

	_, err = s.Transition(ap, txn.ID, lifecycle.Submit)
	assert.ErrorIs(t, err, ErrForbidden)

	txn, err = s.Transition(op, txn.ID, lifecycle.Submit)
	require.NoError(t, err)
	assert.Equal(t, models.PendingApproval, txn.Status)

	_, err = s.Transition(op, txn.ID, lifecycle.Execute)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	txn, err = s.Transition(ap, txn.ID, lifecycle.Approve)
	require.NoError(t, err)
	assert.Equal(t, models.Approved, txn.Status)
	assert.Equal(t, "approver@test.com", txn.ApprovedByEmail)

	txn, err = s.Transition(op, txn.ID, lifecycle.Execute)
	require.NoError(t, err)
	assert.Equal(t, models.Executed, txn.Status)

	stats := s.Stats(ap)
	assert.Equal(t, models.Stats{Total: 1, Executed: 1}, stats)
}

func TestStoreVisibility(t *testing.T) {
	s := NewStore()
	alice, _ := s.AddUser("alice", "alice@test.com", "pw", models.Operator)
	bob, _ := s.AddUser("bob", "bob@test.com", "pw", models.Operator)
	ap, _ := s.AddUser("ap", "ap@test.com", "pw", models.Approver)

	first, _ := s.Create(alice, decimal.NewFromInt(1), "USD")
	second, _ := s.Create(bob, decimal.NewFromInt(2), "USD")

	assert.Len(t, s.List(alice, ""), 1)
	assert.Len(t, s.List(ap, ""), 2)
	assert.Equal(t, second.ID, s.List(ap, "")[0].ID, "newest first")

	_, err := s.Get(bob, first.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, s.List(ap, models.Approved))
}
