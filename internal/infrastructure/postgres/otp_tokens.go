package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kinboost-api/internal/domain"
)

// OTPRepo stores issued one-time codes in the otp_tokens table.
type OTPRepo struct {
	db *sql.DB
}

func NewOTPRepo(db *sql.DB) *OTPRepo {
	return &OTPRepo{db: db}
}

func (r *OTPRepo) Insert(ctx context.Context, t *domain.OTPToken) error {
	_, err := r.db.ExecContext(ctx,
		`insert into otp_tokens(id, email, code, expires_at, used, created_at) values($1,$2,$3,$4,$5,$6)`,
		t.ID, t.Email, t.Code, t.ExpiresAt, t.Used, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert otp token: %w", err)
	}
	return nil
}

// FindLatestValid returns the most recently created token matching (email, code)
// that is unused and still valid at now.
func (r *OTPRepo) FindLatestValid(ctx context.Context, email, code string, now time.Time) (*domain.OTPToken, error) {
	row := r.db.QueryRowContext(ctx, `
		select id, email, code, expires_at, used, created_at
		from otp_tokens
		where email = $1 and code = $2 and used = false and expires_at > $3
		order by created_at desc
		limit 1`,
		email, code, now,
	)
	var t domain.OTPToken
	if err := row.Scan(&t.ID, &t.Email, &t.Code, &t.ExpiresAt, &t.Used, &t.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("otp token not found: %w", domain.ErrNotFound)
		}
		return nil, err
	}
	return &t, nil
}

// Consume flips used to true only if the token is still unused and unexpired.
// It reports false when another caller got there first.
func (r *OTPRepo) Consume(ctx context.Context, tokenID string, now time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`update otp_tokens set used = true where id = $1 and used = false and expires_at > $2`,
		tokenID, now,
	)
	if err != nil {
		return false, fmt.Errorf("consume otp token: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// DeleteExpired removes every token whose expiry is at or before now.
func (r *OTPRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `delete from otp_tokens where expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired otp tokens: %w", err)
	}
	return res.RowsAffected()
}
