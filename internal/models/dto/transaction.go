package dto

import "github.com/shopspring/decimal"

// CreateTransactionRequest carries the operator's input for a new draft.
type CreateTransactionRequest struct {
	Amount   decimal.Decimal `json:"amount" validate:"required,gt=0"`
	Currency string          `json:"currency" validate:"required,iso4217"`
}
