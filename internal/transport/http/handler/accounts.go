package handler

import (
	"fmt"
	"net/http"

	"github.com/kinboost-api/internal/application/account"
	"github.com/kinboost-api/internal/domain"
	"github.com/kinboost-api/internal/pkg/validate"
)

// AccountHandler handles account provisioning.
type AccountHandler struct {
	svc account.Service
}

func NewAccountHandler(svc account.Service) *AccountHandler {
	return &AccountHandler{svc: svc}
}

func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, r, fmt.Errorf("decode: %v: %w", err, domain.ErrInvalidInput), createAccountRules)
		return
	}
	if err := validate.Struct(req); err != nil {
		writeDomainError(w, r, err, createAccountRules)
		return
	}
	ref, err := h.svc.Create(r.Context(), req)
	if err != nil {
		writeDomainError(w, r, err, createAccountRules)
		return
	}
	writeJSON(w, http.StatusOK, AccountEnvelope{Success: true, User: ref})
}
