package api

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hongminglow/approval-desk/internal/models"
)

// wireTransaction is what the service actually sends. Ids may arrive as
// transaction_id, amounts as strings, and timestamps without a zone.
type wireTransaction struct {
	ID              string          `json:"id"`
	TransactionID   string          `json:"transaction_id"`
	Reference       string          `json:"reference"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	Status          string          `json:"status"`
	CreatedBy       string          `json:"created_by"`
	CreatedByEmail  string          `json:"created_by_email"`
	ApprovedBy      string          `json:"approved_by"`
	ApprovedByEmail string          `json:"approved_by_email"`
	CreatedAt       string          `json:"created_at"`
	UpdatedAt       string          `json:"updated_at"`
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
}

func (w wireTransaction) normalize(now time.Time) models.Transaction {
	id := w.ID
	if id == "" {
		id = w.TransactionID
	}
	status := models.Draft
	if strings.TrimSpace(w.Status) != "" {
		parsed, err := models.ParseStatus(w.Status)
		if err != nil {
			// Kept verbatim so it renders, but it matches no transition.
			parsed = models.Status(strings.ToUpper(strings.TrimSpace(w.Status)))
		}
		status = parsed
	}
	return models.Transaction{
		ID:              id,
		Reference:       w.Reference,
		Amount:          w.Amount,
		Currency:        strings.ToUpper(w.Currency),
		Status:          status,
		CreatedBy:       w.CreatedBy,
		CreatedByEmail:  w.CreatedByEmail,
		ApprovedBy:      w.ApprovedBy,
		ApprovedByEmail: w.ApprovedByEmail,
		CreatedAt:       parseTimestamp(w.CreatedAt, now),
		UpdatedAt:       parseTimestamp(w.UpdatedAt, now),
	}
}

func parseTimestamp(value string, fallback time.Time) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return fallback
}
