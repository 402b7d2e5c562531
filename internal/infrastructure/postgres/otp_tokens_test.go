package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/kinboost-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*OTPRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewOTPRepo(db), mock
}

var otpColumns = []string{"id", "email", "code", "expires_at", "used", "created_at"}

func TestOTPRepo_Insert(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Now().UTC()
	tok := &domain.OTPToken{ID: "01J", Email: "a@b.com", Code: "123456", ExpiresAt: now.Add(10 * time.Minute), CreatedAt: now}

	mock.ExpectExec("insert into otp_tokens").
		WithArgs("01J", "a@b.com", "123456", tok.ExpiresAt, false, now).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Insert(context.Background(), tok))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOTPRepo_Insert_Error(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectExec("insert into otp_tokens").WillReturnError(errors.New("connection reset"))

	err := repo.Insert(context.Background(), &domain.OTPToken{})
	assert.ErrorContains(t, err, "insert otp token")
}

func TestOTPRepo_FindLatestValid(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`select id, email, code, expires_at, used, created_at\s+from otp_tokens\s+where email = \$1 and code = \$2 and used = false and expires_at > \$3\s+order by created_at desc`).
		WithArgs("a@b.com", "123456", now).
		WillReturnRows(sqlmock.NewRows(otpColumns).AddRow("01J", "a@b.com", "123456", now.Add(time.Minute), false, now))

	tok, err := repo.FindLatestValid(context.Background(), "a@b.com", "123456", now)
	require.NoError(t, err)
	assert.Equal(t, "01J", tok.ID)
	assert.False(t, tok.Used)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOTPRepo_FindLatestValid_NoRows(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery("from otp_tokens").WillReturnRows(sqlmock.NewRows(otpColumns))

	_, err := repo.FindLatestValid(context.Background(), "a@b.com", "000000", time.Now())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestOTPRepo_Consume(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Now()

	mock.ExpectExec(`update otp_tokens set used = true where id = \$1 and used = false`).
		WithArgs("01J", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`update otp_tokens set used = true where id = \$1 and used = false`).
		WithArgs("01J", now).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.Consume(context.Background(), "01J", now)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Consume(context.Background(), "01J", now)
	require.NoError(t, err)
	assert.False(t, ok, "second consume must lose the compare-and-swap")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOTPRepo_DeleteExpired(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Now()
	mock.ExpectExec(`delete from otp_tokens where expires_at <= \$1`).
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.DeleteExpired(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}
