package handler

import (
	"fmt"
	"net/http"

	"github.com/kinboost-api/internal/application/otp"
	"github.com/kinboost-api/internal/domain"
	"github.com/kinboost-api/internal/pkg/validate"
)

// OTPHandler handles one-time code issuance and verification.
type OTPHandler struct {
	svc otp.Service
}

func NewOTPHandler(svc otp.Service) *OTPHandler {
	return &OTPHandler{svc: svc}
}

func (h *OTPHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req domain.SendOTPRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, r, fmt.Errorf("decode: %v: %w", err, domain.ErrInvalidInput), sendOTPRules)
		return
	}
	if err := validate.Struct(req); err != nil {
		writeDomainError(w, r, err, sendOTPRules)
		return
	}
	if err := h.svc.Issue(r.Context(), req.Email); err != nil {
		writeDomainError(w, r, err, sendOTPRules)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Success: true, Message: msgCodeSent})
}

func (h *OTPHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req domain.VerifyOTPRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, r, fmt.Errorf("decode: %v: %w", err, domain.ErrInvalidInput), verifyOTPRules)
		return
	}
	if err := validate.Struct(req); err != nil {
		writeDomainError(w, r, err, verifyOTPRules)
		return
	}
	if err := h.svc.Verify(r.Context(), req.Email, req.Code); err != nil {
		writeDomainError(w, r, err, verifyOTPRules)
		return
	}
	writeJSON(w, http.StatusOK, VerifyEnvelope{Success: true, Verified: true})
}
