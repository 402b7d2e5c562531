package domain

import "time"

// Shop is the single storefront owned by an account. user_id is unique at the
// storage layer.
type Shop struct {
	ID          string    `json:"id" db:"id"`
	UserID      string    `json:"user_id" db:"user_id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

type CreateShopRequest struct {
	Name        string  `json:"name" validate:"required"`
	Description *string `json:"description"`
}
