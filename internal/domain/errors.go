package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")

	// Signup protocol taxonomy.
	ErrInvalidInput          = errors.New("invalid input")
	ErrInvalidOrExpiredCode  = errors.New("invalid or expired code")
	ErrEmailTaken            = errors.New("email already registered")
	ErrWeakPassword          = errors.New("weak password")
	ErrStorage               = errors.New("storage error")
	ErrProvider              = errors.New("identity provider error")
	ErrProfileCreationFailed = errors.New("profile creation failed")
	ErrDelivery              = errors.New("delivery error")
	ErrConfig                = errors.New("missing configuration")
	ErrShopExists            = errors.New("shop already exists")
)
