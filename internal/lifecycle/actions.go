package lifecycle

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/hongminglow/approval-desk/internal/models"
)

// Action names a server-mediated transition.
type Action string

const (
	Submit  Action = "submit"
	Approve Action = "approve"
	Reject  Action = "reject"
	Execute Action = "execute"
)

// ErrUnknownAction is returned by ParseAction for anything else.
var ErrUnknownAction = errors.New("unknown action")

// Actions lists every action in table order.
var Actions = []Action{Submit, Approve, Reject, Execute}

// ParseAction accepts an action name in any case.
func ParseAction(value string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(value)))
	if slices.Contains(Actions, a) {
		return a, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAction, value)
}

// Label is the text of the control that triggers the action.
func (a Action) Label() string {
	switch a {
	case Submit:
		return "Submit for Approval"
	case Approve:
		return "Approve"
	case Reject:
		return "Reject"
	case Execute:
		return "Execute Transaction"
	}
	return string(a)
}

// Transition is one row of the lifecycle table. A nil Roles slice means any
// authenticated role.
type Transition struct {
	From   models.Status
	Action Action
	To     models.Status
	Roles  []models.Role
}

var table = []Transition{
	{From: models.Draft, Action: Submit, To: models.PendingApproval, Roles: []models.Role{models.Operator}},
	{From: models.PendingApproval, Action: Approve, To: models.Approved, Roles: []models.Role{models.Approver}},
	{From: models.PendingApproval, Action: Reject, To: models.Rejected, Roles: []models.Role{models.Approver}},
	{From: models.Approved, Action: Execute, To: models.Executed},
}

// Table returns a copy of the transition table.
func Table() []Transition {
	out := make([]Transition, len(table))
	copy(out, table)
	return out
}

// Lookup finds the row for (from, action).
func Lookup(from models.Status, action Action) (Transition, bool) {
	for _, t := range table {
		if t.From == from && t.Action == action {
			return t, true
		}
	}
	return Transition{}, false
}

// Permits reports whether role may invoke the transition.
func (t Transition) Permits(role models.Role) bool {
	if !role.Valid() {
		return false
	}
	return t.Roles == nil || slices.Contains(t.Roles, role)
}

// Allowed reports whether role may invoke action on a transaction in from.
func Allowed(from models.Status, action Action, role models.Role) bool {
	t, ok := Lookup(from, action)
	return ok && t.Permits(role)
}

// Available returns the actions role may invoke from status, in table
// order. An empty result means only "view details" is offered.
func Available(status models.Status, role models.Role) []Action {
	var out []Action
	for _, t := range table {
		if t.From == status && t.Permits(role) {
			out = append(out, t.Action)
		}
	}
	return out
}
