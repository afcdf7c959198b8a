package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a read-through copy of a record owned by the remote service.
type Transaction struct {
	ID              string          `json:"id"`
	Reference       string          `json:"reference"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	Status          Status          `json:"status"`
	CreatedBy       string          `json:"created_by"`
	CreatedByEmail  string          `json:"created_by_email,omitempty"`
	ApprovedBy      string          `json:"approved_by,omitempty"`
	ApprovedByEmail string          `json:"approved_by_email,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Stats holds per-status counts as reported by the service.
type Stats struct {
	Total           int `json:"total"`
	Draft           int `json:"draft"`
	PendingApproval int `json:"pending_approval"`
	Approved        int `json:"approved"`
	Rejected        int `json:"rejected"`
	Executed        int `json:"executed"`
}

// Count returns the counter for a single status.
func (s Stats) Count(status Status) int {
	switch status {
	case Draft:
		return s.Draft
	case PendingApproval:
		return s.PendingApproval
	case Approved:
		return s.Approved
	case Rejected:
		return s.Rejected
	case Executed:
		return s.Executed
	}
	return 0
}

// ApprovedRate is approved/total as a whole percentage.
func (s Stats) ApprovedRate() int {
	return percent(s.Approved, s.Total)
}

// ExecutionRate is executed/approved as a whole percentage.
func (s Stats) ExecutionRate() int {
	return percent(s.Executed, s.Approved)
}

// RejectionRate is rejected/total as a whole percentage.
func (s Stats) RejectionRate() int {
	return percent(s.Rejected, s.Total)
}

func percent(part, whole int) int {
	if whole == 0 {
		whole = 1
	}
	return int(decimal.NewFromInt(int64(part)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(whole))).
		Round(0).
		IntPart())
}
