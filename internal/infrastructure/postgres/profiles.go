package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kinboost-api/internal/domain"
)

// ProfileRepo writes legacy store-name profiles.
type ProfileRepo struct {
	db *sql.DB
}

func NewProfileRepo(db *sql.DB) *ProfileRepo {
	return &ProfileRepo{db: db}
}

func (r *ProfileRepo) Insert(ctx context.Context, p *domain.Profile) error {
	_, err := r.db.ExecContext(ctx,
		`insert into profiles(user_id, store_name, created_at) values($1,$2,$3)`,
		p.UserID, p.StoreName, p.CreatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("profile exists for %s: %w", p.UserID, domain.ErrConflict)
	}
	return err
}

// DeleteByUser removes the profile row of userID. Used as a saga compensation.
func (r *ProfileRepo) DeleteByUser(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `delete from profiles where user_id = $1`, userID)
	return err
}
