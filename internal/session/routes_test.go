package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hongminglow/approval-desk/internal/models"
	"github.com/hongminglow/approval-desk/internal/storage/memory"
)

func TestGate(t *testing.T) {
	operator := &models.Identity{ID: "op", Role: models.Operator}
	approver := &models.Identity{ID: "ap", Role: models.Approver}
	stranger := &models.Identity{ID: "x", Role: models.Role("APROBADOR")}

	tests := []struct {
		name     string
		identity *models.Identity
		path     string
		want     Decision
	}{
		{"login is public", nil, PathLogin, Decision{Outcome: Allow, Location: PathLogin}},
		{"anonymous to login with from", nil, "/transactions/abc", Decision{Outcome: RedirectLogin, Location: PathLogin, From: "/transactions/abc"}},
		{"root goes to dashboard", operator, "/", Decision{Outcome: Allow, Location: PathDashboard}},
		{"operator dashboard", operator, PathDashboard, Decision{Outcome: Allow, Location: PathDashboard}},
		{"operator create", operator, PathCreate, Decision{Outcome: Allow, Location: PathCreate}},
		{"approver create goes home", approver, PathCreate, Decision{Outcome: RedirectHome, Location: PathDashboard}},
		{"operator approvals goes home", operator, PathApprovals, Decision{Outcome: RedirectHome, Location: PathDashboard}},
		{"approver approvals", approver, PathApprovals, Decision{Outcome: Allow, Location: PathApprovals}},
		{"detail carries id", approver, "/transactions/t%2F1", Decision{Outcome: Allow, Location: "/transactions/t%2F1", ID: "t/1"}},
		{"unknown role is not authorized", stranger, PathApprovals, Decision{Outcome: RedirectHome, Location: PathDashboard}},
		{"unknown path", operator, "/settings", Decision{Outcome: NotFound, Location: "/settings"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Gate(tt.identity, tt.path))
		})
	}
}

func TestAuthorizeUsesCurrentIdentity(t *testing.T) {
	g := NewGuard(memory.NewTokenStore(""), nil, WithClock(func() time.Time { return now }))
	d := g.Authorize(PathApprovals)
	assert.Equal(t, RedirectLogin, d.Outcome)
	assert.Equal(t, PathApprovals, d.From)
}

func TestNavigation(t *testing.T) {
	labels := func(items []NavItem) []string {
		var out []string
		for _, item := range items {
			out = append(out, item.Label)
		}
		return out
	}
	assert.Equal(t, []string{"Create Transaction", "My Transactions"}, labels(Navigation(models.Operator)))
	assert.Equal(t, []string{"Pending Approvals", "All Transactions"}, labels(Navigation(models.Approver)))
	assert.Empty(t, Navigation(models.Role("OPERADOR")))
}

func TestTransactionPath(t *testing.T) {
	assert.Equal(t, "/transactions/a%20b", TransactionPath("a b"))
	_, id, ok := Match(TransactionPath("a b"))
	assert.True(t, ok)
	assert.Equal(t, "a b", id)
}
