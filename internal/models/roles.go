package models

import (
	"errors"
	"fmt"
	"strings"
)

// Role is the closed set of roles a session may carry.
type Role string

const (
	Operator Role = "OPERATOR"
	Approver Role = "APPROVER"
)

// ErrUnknownRole is returned for any role value outside the closed set.
var ErrUnknownRole = errors.New("unknown role")

// Roles lists every recognised role.
var Roles = []Role{Operator, Approver}

// ParseRole accepts only the canonical role names. Localised or lower-case
// variants are rejected rather than mapped.
func ParseRole(value string) (Role, error) {
	switch r := Role(strings.TrimSpace(value)); r {
	case Operator, Approver:
		return r, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, value)
	}
}

// Valid reports whether r is one of the recognised roles.
func (r Role) Valid() bool {
	return r == Operator || r == Approver
}

func (r Role) String() string {
	return string(r)
}
