package models

import (
	"errors"
	"fmt"
	"strings"
)

// Status is the lifecycle state of a transaction.
type Status string

const (
	Draft           Status = "DRAFT"
	PendingApproval Status = "PENDING_APPROVAL"
	Approved        Status = "APPROVED"
	Rejected        Status = "REJECTED"
	Executed        Status = "EXECUTED"
)

// ErrUnknownStatus is returned when a status string is not part of the lifecycle.
var ErrUnknownStatus = errors.New("unknown status")

// Statuses lists every status in lifecycle order, rejected last.
var Statuses = []Status{Draft, PendingApproval, Approved, Executed, Rejected}

var statusLabels = map[Status]string{
	Draft:           "Draft",
	PendingApproval: "Pending Approval",
	Approved:        "Approved",
	Rejected:        "Rejected",
	Executed:        "Executed",
}

// ParseStatus converts a wire value into a Status. Matching is case-insensitive.
func ParseStatus(value string) (Status, error) {
	s := Status(strings.ToUpper(strings.TrimSpace(value)))
	if _, ok := statusLabels[s]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, value)
	}
	return s, nil
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Label is the human readable badge text.
func (s Status) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

// Terminal reports whether no transition leaves s.
func (s Status) Terminal() bool {
	return s == Rejected || s == Executed
}

func (s Status) String() string {
	return string(s)
}
