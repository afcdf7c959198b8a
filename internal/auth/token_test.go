package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/approval-desk/internal/models"
)

var issuedAt = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func TestDecodeRoundTrip(t *testing.T) {
	tokens := NewTokenManager("secret", "test", time.Hour)
	in := models.Identity{ID: "u-42", Email: "ana@example.com", Role: models.Approver}

	token, err := tokens.GenerateAt(in, issuedAt)
	require.NoError(t, err)

	session, err := Decode(token, issuedAt.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "u-42", session.Identity.ID)
	assert.Equal(t, in.Email, session.Identity.Email)
	assert.Equal(t, in.Role, session.Identity.Role)
	assert.Equal(t, "ana", session.Identity.DisplayName)
	assert.True(t, session.ExpiresAt.Equal(issuedAt.Add(time.Hour)))
}

func TestDecodeExpiryBoundary(t *testing.T) {
	tokens := NewTokenManager("secret", "test", time.Hour)
	token, err := tokens.GenerateAt(models.Identity{ID: "u", Email: "u@example.com", Role: models.Operator}, issuedAt)
	require.NoError(t, err)

	expiry := issuedAt.Add(time.Hour)
	_, err = Decode(token, expiry.Add(-time.Second))
	require.NoError(t, err)

	_, err = Decode(token, expiry)
	assert.ErrorIs(t, err, ErrExpiredToken, "expiry equal to now must be expired")

	_, err = Decode(token, expiry.Add(time.Second))
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestDecodeRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"empty":     "",
		"garbage":   "not-a-token",
		"two parts": "abc.def",
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(token, issuedAt)
			assert.ErrorIs(t, err, ErrMalformedToken)
		})
	}
}

func TestDecodeRequiresKnownRole(t *testing.T) {
	for _, role := range []string{"", "OPERADOR", "admin"} {
		claims := Claims{
			Email: "x@example.com",
			Role:  role,
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "x",
				ExpiresAt: jwt.NewNumericDate(issuedAt.Add(time.Hour)),
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("k"))
		require.NoError(t, err)

		_, err = Decode(token, issuedAt)
		assert.ErrorIs(t, err, ErrMalformedToken, "role %q", role)
	}
}

func TestDecodeFallsBackToSubjectForEmail(t *testing.T) {
	claims := Claims{
		Role: "OPERATOR",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "op@example.com",
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("k"))
	require.NoError(t, err)

	session, err := Decode(token, issuedAt)
	require.NoError(t, err)
	assert.Equal(t, "op@example.com", session.Identity.Email)
	assert.Equal(t, "User", session.Identity.DisplayName)
}

func TestVerify(t *testing.T) {
	tokens := NewTokenManager("secret", "test", time.Hour)
	token, err := tokens.Generate(models.Identity{ID: "u", Email: "u@example.com", Role: models.Operator})
	require.NoError(t, err)

	claims, err := tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "OPERATOR", claims.Role)

	other := NewTokenManager("different", "test", time.Hour)
	_, err = other.Verify(token)
	assert.ErrorIs(t, err, ErrMalformedToken)

	tampered := token[:strings.LastIndex(token, ".")] + ".AAAA"
	_, err = tokens.Verify(tampered)
	assert.ErrorIs(t, err, ErrMalformedToken)
}
