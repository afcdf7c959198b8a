package validation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/approval-desk/internal/models/dto"
)

func TestStructAcceptsValidRequest(t *testing.T) {
	err := Struct(dto.CreateTransactionRequest{Amount: decimal.RequireFromString("10.50"), Currency: "USD"})
	assert.NoError(t, err)
}

func TestStructFieldMessages(t *testing.T) {
	cases := []struct {
		name     string
		req      dto.CreateTransactionRequest
		field    string
		expected string
	}{
		{"zero amount", dto.CreateTransactionRequest{Amount: decimal.Zero, Currency: "MXN"}, "amount", "must be greater than 0"},
		{"negative amount", dto.CreateTransactionRequest{Amount: decimal.NewFromInt(-5), Currency: "MXN"}, "amount", "must be greater than 0"},
		{"missing currency", dto.CreateTransactionRequest{Amount: decimal.NewFromInt(1)}, "currency", "is required"},
		{"unknown currency", dto.CreateTransactionRequest{Amount: decimal.NewFromInt(1), Currency: "ZZZ"}, "currency", "must be a valid ISO 4217 currency code"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Struct(tc.req)
			require.ErrorIs(t, err, ErrInvalid)

			var fields *Errors
			require.ErrorAs(t, err, &fields)
			assert.Equal(t, tc.expected, fields.Field(tc.field))
		})
	}
}

func TestErrorsListEveryField(t *testing.T) {
	err := Struct(dto.LoginRequest{})
	var fields *Errors
	require.ErrorAs(t, err, &fields)
	assert.Len(t, fields.Fields, 2)
	assert.Equal(t, "is required", fields.Field("username"))
	assert.Empty(t, fields.Field("amount"))
	assert.Contains(t, err.Error(), "password: is required")
}

func TestStructKeepsSignOfTinyAmounts(t *testing.T) {
	tiny := decimal.RequireFromString("1e-400")
	assert.NoError(t, Struct(dto.CreateTransactionRequest{Amount: tiny, Currency: "USD"}))

	err := Struct(dto.CreateTransactionRequest{Amount: tiny.Neg(), Currency: "USD"})
	var fields *Errors
	require.ErrorAs(t, err, &fields)
	assert.Equal(t, "must be greater than 0", fields.Field("amount"))
}
