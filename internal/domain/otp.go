package domain

import "time"

// OTPToken is a one-time code issued to an email address.
// Several unused, unexpired tokens may coexist for the same email; the most
// recently created one wins at verification time.
type OTPToken struct {
	ID        string    `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"` // lowercased
	Code      string    `json:"-" db:"code"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	Used      bool      `json:"used" db:"used"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Expired reports whether the token is no longer valid at now.
func (t *OTPToken) Expired(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}

type SendOTPRequest struct {
	Email string `json:"email" validate:"required,contains=@"`
}

type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required"`
	Code  string `json:"code" validate:"required"`
}
