package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hongminglow/approval-desk/internal/auth"
	"github.com/hongminglow/approval-desk/internal/http/respond"
	"github.com/hongminglow/approval-desk/internal/lifecycle"
	"github.com/hongminglow/approval-desk/internal/middleware"
	"github.com/hongminglow/approval-desk/internal/models"
	"github.com/hongminglow/approval-desk/internal/models/dto"
	"github.com/hongminglow/approval-desk/internal/sandbox"
	"github.com/hongminglow/approval-desk/internal/validation"
)

// TransactionHandler serves the v2 transaction endpoints. Every route
// requires a valid bearer token.
type TransactionHandler struct {
	store  *sandbox.Store
	tokens *auth.TokenManager
	logger *slog.Logger
}

// NewTransactionHandler constructs the handler.
func NewTransactionHandler(store *sandbox.Store, tokens *auth.TokenManager, logger *slog.Logger) *TransactionHandler {
	return &TransactionHandler{store: store, tokens: tokens, logger: logger}
}

// Register attaches transaction routes to the mux.
func (h *TransactionHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v2/transactions", h.authenticated(h.handleList))
	mux.HandleFunc("POST /api/v2/transactions", h.authenticated(h.handleCreate))
	mux.HandleFunc("GET /api/v2/transactions/stats", h.authenticated(h.handleStats))
	mux.HandleFunc("GET /api/v2/transactions/{id}", h.authenticated(h.handleGet))
	mux.HandleFunc("POST /api/v2/transactions/{id}/{action}", h.authenticated(h.handleTransition))
}

type identityHandler func(w http.ResponseWriter, r *http.Request, caller models.Identity)

func (h *TransactionHandler) authenticated(next identityHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := middleware.BearerToken(r)
		if token == "" {
			respond.Error(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		claims, err := h.tokens.Verify(token)
		if err != nil {
			respond.Error(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		role, err := models.ParseRole(claims.Role)
		if err != nil {
			respond.Error(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		next(w, r, models.Identity{ID: claims.Subject, Email: claims.Email, Role: role})
	}
}

func (h *TransactionHandler) handleList(w http.ResponseWriter, r *http.Request, caller models.Identity) {
	var status models.Status
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		parsed, err := models.ParseStatus(raw)
		if err != nil {
			respond.Error(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		status = parsed
	}
	respond.JSON(w, http.StatusOK, h.store.List(caller, status))
}

func (h *TransactionHandler) handleCreate(w http.ResponseWriter, r *http.Request, caller models.Identity) {
	var req dto.CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	req.Currency = strings.ToUpper(strings.TrimSpace(req.Currency))
	if err := validation.Struct(req); err != nil {
		respond.Error(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	txn, err := h.store.Create(caller, req.Amount, req.Currency)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	respond.JSON(w, http.StatusCreated, txn)
}

func (h *TransactionHandler) handleStats(w http.ResponseWriter, r *http.Request, caller models.Identity) {
	respond.JSON(w, http.StatusOK, h.store.Stats(caller))
}

func (h *TransactionHandler) handleGet(w http.ResponseWriter, r *http.Request, caller models.Identity) {
	txn, err := h.store.Get(caller, r.PathValue("id"))
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, txn)
}

func (h *TransactionHandler) handleTransition(w http.ResponseWriter, r *http.Request, caller models.Identity) {
	action, err := lifecycle.ParseAction(r.PathValue("action"))
	if err != nil {
		respond.Error(w, http.StatusNotFound, "Not Found")
		return
	}
	txn, err := h.store.Transition(caller, r.PathValue("id"), action)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	h.logger.Info("transaction transitioned", "id", txn.ID, "action", action, "status", txn.Status, "actor", caller.Email)
	respond.JSON(w, http.StatusOK, txn)
}

func (h *TransactionHandler) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, sandbox.ErrNotFound):
		respond.Error(w, http.StatusNotFound, "Transaction not found")
	case errors.Is(err, sandbox.ErrForbidden):
		respond.Error(w, http.StatusForbidden, "Not permitted for this role")
	case errors.Is(err, sandbox.ErrInvalidTransition):
		respond.Error(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("transaction store error", "error", err)
		respond.Error(w, http.StatusInternalServerError, "internal error")
	}
}
