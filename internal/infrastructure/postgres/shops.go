package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kinboost-api/internal/domain"
)

// ShopRepo reads and creates shops. The shops_user_id_key constraint is the
// only guard against two concurrent creations for the same user.
type ShopRepo struct {
	db *sql.DB
}

func NewShopRepo(db *sql.DB) *ShopRepo {
	return &ShopRepo{db: db}
}

func (r *ShopRepo) GetByUserID(ctx context.Context, userID string) (*domain.Shop, error) {
	row := r.db.QueryRowContext(ctx,
		`select id, user_id, name, description, created_at from shops where user_id = $1`, userID,
	)
	var (
		s    domain.Shop
		desc sql.NullString
	)
	if err := row.Scan(&s.ID, &s.UserID, &s.Name, &desc, &s.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("shop not found: %w", domain.ErrNotFound)
		}
		return nil, err
	}
	if desc.Valid {
		s.Description = &desc.String
	}
	return &s, nil
}

func (r *ShopRepo) Insert(ctx context.Context, s *domain.Shop) error {
	var desc sql.NullString
	if s.Description != nil {
		desc = sql.NullString{String: *s.Description, Valid: true}
	}
	_, err := r.db.ExecContext(ctx,
		`insert into shops(id, user_id, name, description, created_at) values($1,$2,$3,$4,$5)`,
		s.ID, s.UserID, s.Name, desc, s.CreatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("user %s: %w", s.UserID, domain.ErrShopExists)
	}
	return err
}
