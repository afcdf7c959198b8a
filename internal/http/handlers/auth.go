package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hongminglow/approval-desk/internal/auth"
	"github.com/hongminglow/approval-desk/internal/http/respond"
	"github.com/hongminglow/approval-desk/internal/models/dto"
	"github.com/hongminglow/approval-desk/internal/sandbox"
)

// AuthHandler owns the credential exchange endpoint.
type AuthHandler struct {
	store  *sandbox.Store
	tokens *auth.TokenManager
	logger *slog.Logger
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(store *sandbox.Store, tokens *auth.TokenManager, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{store: store, tokens: tokens, logger: logger}
}

// Register attaches auth routes to the mux.
func (h *AuthHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/auth/login", h.handleLogin)
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid form payload")
		return
	}
	req := dto.LoginRequest{
		Username: strings.TrimSpace(r.PostForm.Get("username")),
		Password: r.PostForm.Get("password"),
	}
	if req.Username == "" || req.Password == "" {
		respond.Error(w, http.StatusUnprocessableEntity, "username and password are required")
		return
	}

	identity, err := h.store.Authenticate(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, sandbox.ErrInvalidCredentials) {
			h.logger.Info("login refused", "username", req.Username)
			respond.Error(w, http.StatusUnauthorized, "Incorrect username or password")
			return
		}
		h.logger.Error("login failed", "username", req.Username, "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to authenticate")
		return
	}
	token, err := h.tokens.Generate(identity)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to generate token")
		return
	}
	respond.JSON(w, http.StatusOK, dto.LoginResponse{AccessToken: token, TokenType: "bearer"})
}
