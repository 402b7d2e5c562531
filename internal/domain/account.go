package domain

import "time"

// Account is the identity-provider owned user record.
// PK: email (case-folded). GSI: account_id-index.
type Account struct {
	AccountID      string    `json:"id" dynamodbav:"account_id"`
	Email          string    `json:"email" dynamodbav:"email"`
	PasswordHash   string    `json:"-" dynamodbav:"password_hash"`
	EmailConfirmed bool      `json:"email_confirmed" dynamodbav:"email_confirmed"`
	CreatedAt      time.Time `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" dynamodbav:"updated_at"`
}

// Profile is the legacy store-name row attached to an account at creation time.
type Profile struct {
	UserID    string    `json:"user_id" db:"user_id"`
	StoreName string    `json:"store_name" db:"store_name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type CreateAccountRequest struct {
	Email     string  `json:"email" validate:"required"`
	Password  string  `json:"password" validate:"required"`
	StoreName *string `json:"storeName"`
}

// AccountRef is the public shape returned after provisioning.
type AccountRef struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}
