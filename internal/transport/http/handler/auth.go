package handler

import (
	"fmt"
	"net/http"

	"github.com/kinboost-api/internal/application/identity"
	"github.com/kinboost-api/internal/domain"
	"github.com/kinboost-api/internal/pkg/validate"
	"github.com/kinboost-api/internal/transport/http/middleware"
)

// AuthHandler exposes the identity provider's session endpoints.
type AuthHandler struct {
	svc identity.Service
}

func NewAuthHandler(svc identity.Service) *AuthHandler {
	return &AuthHandler{svc: svc}
}

func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	var req domain.SignInRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, r, fmt.Errorf("decode: %v: %w", err, domain.ErrInvalidInput), signInRules)
		return
	}
	if err := validate.Struct(req); err != nil {
		writeDomainError(w, r, err, signInRules)
		return
	}
	sess, err := h.svc.SignInWithPassword(r.Context(), req.Email, req.Password)
	if err != nil {
		writeDomainError(w, r, err, signInRules)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := decodeJSON(r, &req); err != nil || req.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, "refresh_token requis")
		return
	}
	sess, err := h.svc.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeDomainError(w, r, err, sessionRules)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *AuthHandler) User(w http.ResponseWriter, r *http.Request) {
	token, ok := middleware.BearerToken(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}
	u, err := h.svc.GetUser(r.Context(), token)
	if err != nil {
		writeDomainError(w, r, err, sessionRules)
		return
	}
	writeJSON(w, http.StatusOK, UserEnvelope{User: u})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}
	if err := h.svc.SignOut(r.Context(), claims.SessionID); err != nil {
		writeDomainError(w, r, err, sessionRules)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Success: true})
}
