package handler

import (
	"fmt"
	"net/http"

	"github.com/kinboost-api/internal/application/shop"
	"github.com/kinboost-api/internal/domain"
	"github.com/kinboost-api/internal/pkg/validate"
	"github.com/kinboost-api/internal/transport/http/middleware"
)

// ShopHandler handles the caller's shop.
type ShopHandler struct {
	svc shop.Service
}

func NewShopHandler(svc shop.Service) *ShopHandler {
	return &ShopHandler{svc: svc}
}

func (h *ShopHandler) Mine(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}
	sh, err := h.svc.GetByUser(r.Context(), claims.AccountID)
	if err != nil {
		writeDomainError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, ShopEnvelope{Shop: sh})
}

func (h *ShopHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}
	var req domain.CreateShopRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, r, fmt.Errorf("decode: %v: %w", err, domain.ErrInvalidInput), createShopRules)
		return
	}
	if err := validate.Struct(req); err != nil {
		writeDomainError(w, r, err, createShopRules)
		return
	}
	sh, err := h.svc.Create(r.Context(), claims.AccountID, req)
	if err != nil {
		writeDomainError(w, r, err, createShopRules)
		return
	}
	writeJSON(w, http.StatusCreated, ShopEnvelope{Shop: sh})
}
