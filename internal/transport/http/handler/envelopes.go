package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/kinboost-api/internal/domain"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Success bool   `json:"success,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// VerifyEnvelope is the /verify-otp success body.
type VerifyEnvelope struct {
	Success  bool `json:"success"`
	Verified bool `json:"verified"`
}

// AccountEnvelope is the /create-account success body.
type AccountEnvelope struct {
	Success bool               `json:"success"`
	User    *domain.AccountRef `json:"user"`
}

// UserEnvelope wraps the current user.
type UserEnvelope struct {
	User *domain.Account `json:"user"`
}

// ShopEnvelope wraps a shop; Shop is null when the user has none.
type ShopEnvelope struct {
	Shop *domain.Shop `json:"shop"`
}

type HealthEnvelope struct {
	Status string `json:"status"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// decodeJSON reads a bounded JSON body into v. An empty body leaves v zeroed.
func decodeJSON(r *http.Request, v interface{}) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v)
	if err == io.EOF {
		return nil
	}
	return err
}
