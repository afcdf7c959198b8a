package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/approval-desk/internal/auth"
	"github.com/hongminglow/approval-desk/internal/models"
	"github.com/hongminglow/approval-desk/internal/models/dto"
	"github.com/hongminglow/approval-desk/internal/sandbox"
)

type fixture struct {
	mux      *http.ServeMux
	tokens   *auth.TokenManager
	operator models.Identity
	approver models.Identity
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := sandbox.NewStore()
	op, err := store.AddUser("operator", "operator@test.com", "operator123", models.Operator)
	require.NoError(t, err)
	ap, err := store.AddUser("approver", "approver@test.com", "approver123", models.Approver)
	require.NoError(t, err)

	tokens := auth.NewTokenManager("secret", "test", time.Hour)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mux := http.NewServeMux()
	NewHealthHandler(time.Now()).Register(mux)
	NewAuthHandler(store, tokens, logger).Register(mux)
	NewTransactionHandler(store, tokens, logger).Register(mux)
	return fixture{mux: mux, tokens: tokens, operator: op, approver: ap}
}

func (f fixture) do(t *testing.T, method, path string, who *models.Identity, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if who != nil {
		token, err := f.tokens.Generate(*who)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestLogin(t *testing.T) {
	f := newFixture(t)

	form := url.Values{"username": {"operator"}, "password": {"operator123"}}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var out dto.LoginResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	assert.Equal(t, "bearer", out.TokenType)
	session, err := auth.Decode(out.AccessToken, time.Now())
	require.NoError(t, err)
	assert.Equal(t, models.Operator, session.Identity.Role)

	form.Set("password", "wrong")
	req = httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"detail":"Incorrect username or password"}`, rec.Body.String())
}

func TestTransactionsRequireBearer(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/v2/transactions", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v2/transactions", nil)
	req.Header.Set("Authorization", "Bearer forged")
	rec = httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTransactionLifecycleOverHTTP(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v2/transactions", &f.operator, `{"amount": 5000, "currency": "mxn"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var txn models.Transaction
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&txn))
	assert.Equal(t, models.Draft, txn.Status)
	assert.Equal(t, "MXN", txn.Currency)

	rec = f.do(t, http.MethodPost, "/api/v2/transactions/"+txn.ID+"/approve", &f.approver, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v2/transactions/"+txn.ID+"/submit", &f.approver, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v2/transactions/"+txn.ID+"/submit", &f.operator, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v2/transactions?status=pending_approval", &f.approver, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var pending []models.Transaction
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&pending))
	require.Len(t, pending, 1)

	rec = f.do(t, http.MethodPost, "/api/v2/transactions/"+txn.ID+"/teleport", &f.approver, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v2/transactions/stats", &f.approver, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var stats models.Stats
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&stats))
	assert.Equal(t, 1, stats.PendingApproval)

	rec = f.do(t, http.MethodGet, "/api/v2/transactions/missing", &f.operator, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateValidatesBody(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/api/v2/transactions", &f.operator, `{"amount": 0, "currency": "ABC"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v2/transactions", &f.approver, `{"amount": 10, "currency": "USD"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
