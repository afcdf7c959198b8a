package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hongminglow/approval-desk/internal/models"
)

var (
	// ErrMalformedToken covers anything that cannot be parsed as a JWT or
	// lacks a required claim.
	ErrMalformedToken = errors.New("malformed credential token")
	// ErrExpiredToken is returned once now has reached the token's expiry.
	ErrExpiredToken = errors.New("credential token expired")
)

// Claims is the payload carried by a credential token.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Session is the decoded result of a usable token.
type Session struct {
	Identity  models.Identity
	ExpiresAt time.Time
}

// Decode reads a token's claims without verifying its signature and turns
// them into an identity. The signature is the server's concern; the client
// only uses the claims for UI gating.
func Decode(token string, now time.Time) (Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Session{}, fmt.Errorf("%w: empty token", ErrMalformedToken)
	}

	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	if claims.ExpiresAt == nil {
		return Session{}, fmt.Errorf("%w: missing exp", ErrMalformedToken)
	}
	expiresAt := claims.ExpiresAt.Time
	if !now.Before(expiresAt) {
		return Session{}, fmt.Errorf("%w at %s", ErrExpiredToken, expiresAt.UTC().Format(time.RFC3339))
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return Session{}, fmt.Errorf("%w: missing sub", ErrMalformedToken)
	}
	role, err := models.ParseRole(claims.Role)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	email := strings.TrimSpace(claims.Email)
	if email == "" {
		email = claims.Subject
	}
	return Session{
		Identity: models.Identity{
			ID:          claims.Subject,
			Email:       email,
			Role:        role,
			DisplayName: displayName(claims.Email),
		},
		ExpiresAt: expiresAt,
	}, nil
}

func displayName(email string) string {
	local, _, _ := strings.Cut(strings.TrimSpace(email), "@")
	if local == "" {
		return "User"
	}
	return local
}

// TokenManager issues and verifies signed JWTs. The console itself only
// decodes; issuing backs the fake service used in tests.
type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewTokenManager creates a manager with the provided secret, issuer, and lifetime.
func NewTokenManager(secret, issuer string, ttl time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
	}
}

// Generate issues a token for the identity that expires ttl from now.
func (t *TokenManager) Generate(identity models.Identity) (string, error) {
	return t.GenerateAt(identity, time.Now())
}

// GenerateAt issues a token as if the current time were now.
func (t *TokenManager) GenerateAt(identity models.Identity, now time.Time) (string, error) {
	claims := Claims{
		Email: identity.Email,
		Role:  string(identity.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   identity.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Verify checks the signature and expiry and returns the claims.
func (t *TokenManager) Verify(token string) (Claims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(tok *jwt.Token) (any, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(t.issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, fmt.Errorf("%w: %v", ErrExpiredToken, err)
		}
		return Claims{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	if !parsed.Valid {
		return Claims{}, ErrMalformedToken
	}
	return claims, nil
}
