// Package identity is the account and session provider: password accounts in
// DynamoDB, RS256 access tokens and rotating opaque refresh tokens.
package identity

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/kinboost-api/internal/domain"
	jwtinfra "github.com/kinboost-api/internal/infrastructure/jwt"
	"github.com/kinboost-api/internal/pkg/id"
	"github.com/kinboost-api/internal/pkg/validate"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest password the provider accepts.
const MinPasswordLength = 6

// AccountStore is the persistence the provider needs for accounts.
type AccountStore interface {
	Create(ctx context.Context, a *domain.Account) error
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	Get(ctx context.Context, accountID string) (*domain.Account, error)
	Delete(ctx context.Context, email, accountID string) error
}

// SessionStore is the persistence the provider needs for sessions.
type SessionStore interface {
	Put(ctx context.Context, s *domain.Session) error
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
	GetByRefreshToken(ctx context.Context, token string) (*domain.Session, error)
	RotateRefreshToken(ctx context.Context, sessionID, oldToken, newToken string, newExpiry int64) error
	Revoke(ctx context.Context, sessionID string) error
}

// TokenSigner issues and checks access tokens.
type TokenSigner interface {
	Sign(accountID, email, sessionID string) (string, time.Time, error)
	Verify(token string) (*jwtinfra.Claims, error)
}

type Service interface {
	CreateUser(ctx context.Context, email, password string, emailConfirmed bool) (*domain.Account, error)
	DeleteUser(ctx context.Context, accountID, email string) error
	SignInWithPassword(ctx context.Context, email, password string) (*domain.AuthSession, error)
	Refresh(ctx context.Context, refreshToken string) (*domain.AuthSession, error)
	Authenticate(ctx context.Context, accessToken string) (*jwtinfra.Claims, error)
	GetUser(ctx context.Context, accessToken string) (*domain.Account, error)
	SignOut(ctx context.Context, sessionID string) error
}

// ServiceDeps holds all dependencies for the identity service.
type ServiceDeps struct {
	Accounts        AccountStore
	Sessions        SessionStore
	Tokens          TokenSigner
	RefreshTokenDur time.Duration
	BcryptCost      int // zero means bcrypt.DefaultCost
	Now             func() time.Time
}

type service struct {
	accounts        AccountStore
	sessions        SessionStore
	tokens          TokenSigner
	refreshTokenDur time.Duration
	bcryptCost      int
	now             func() time.Time
}

func NewService(d ServiceDeps) Service {
	s := &service{
		accounts:        d.Accounts,
		sessions:        d.Sessions,
		tokens:          d.Tokens,
		refreshTokenDur: d.RefreshTokenDur,
		bcryptCost:      d.BcryptCost,
		now:             d.Now,
	}
	if s.bcryptCost == 0 {
		s.bcryptCost = bcrypt.DefaultCost
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *service) CreateUser(ctx context.Context, email, password string, emailConfirmed bool) (*domain.Account, error) {
	email = validate.Email(email)
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return nil, fmt.Errorf("password shorter than %d: %w", MinPasswordLength, domain.ErrWeakPassword)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", domain.ErrProvider)
	}
	now := s.now().UTC()
	a := &domain.Account{
		AccountID:      id.NewAt(now),
		Email:          email,
		PasswordHash:   string(hash),
		EmailConfirmed: emailConfirmed,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.accounts.Create(ctx, a); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, fmt.Errorf("%s: %w", email, domain.ErrEmailTaken)
		}
		return nil, fmt.Errorf("create account: %v: %w", err, domain.ErrProvider)
	}
	return a, nil
}

// DeleteUser removes the account keyed by email if it is still accountID's.
// A missing account counts as deleted: the lookup is strongly consistent.
func (s *service) DeleteUser(ctx context.Context, accountID, email string) error {
	if err := s.accounts.Delete(ctx, validate.Email(email), accountID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("delete account %s: %v: %w", accountID, err, domain.ErrProvider)
	}
	return nil
}

func (s *service) SignInWithPassword(ctx context.Context, email, password string) (*domain.AuthSession, error) {
	a, err := s.accounts.GetByEmail(ctx, validate.Email(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}

	refreshToken, err := newRefreshToken()
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	sess := &domain.Session{
		SessionID:        id.NewAt(now),
		AccountID:        a.AccountID,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: now.Add(s.refreshTokenDur).Unix(),
		Enable:           true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.sessions.Put(ctx, sess); err != nil {
		return nil, err
	}
	bearer, exp, err := s.tokens.Sign(a.AccountID, a.Email, sess.SessionID)
	if err != nil {
		return nil, err
	}
	slog.Info("session opened", "account_id", a.AccountID, "session_id", sess.SessionID)
	return &domain.AuthSession{AccessToken: bearer, RefreshToken: refreshToken, ExpiresAt: exp, User: a}, nil
}

func (s *service) Refresh(ctx context.Context, refreshToken string) (*domain.AuthSession, error) {
	sess, err := s.sessions.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("invalid or expired refresh token: %w", domain.ErrUnauthorized)
	}
	now := s.now()
	if sess.RefreshExpiresAt < now.Unix() {
		return nil, fmt.Errorf("refresh token expired: %w", domain.ErrUnauthorized)
	}
	a, err := s.accounts.Get(ctx, sess.AccountID)
	if err != nil {
		return nil, fmt.Errorf("account for session %s: %w", sess.SessionID, domain.ErrUnauthorized)
	}
	newToken, err := newRefreshToken()
	if err != nil {
		return nil, err
	}
	if err := s.sessions.RotateRefreshToken(ctx, sess.SessionID, refreshToken, newToken, now.Add(s.refreshTokenDur).Unix()); err != nil {
		return nil, err
	}
	bearer, exp, err := s.tokens.Sign(a.AccountID, a.Email, sess.SessionID)
	if err != nil {
		return nil, err
	}
	return &domain.AuthSession{AccessToken: bearer, RefreshToken: newToken, ExpiresAt: exp, User: a}, nil
}

// Authenticate verifies the access token and that its session is still open.
func (s *service) Authenticate(ctx context.Context, accessToken string) (*jwtinfra.Claims, error) {
	claims, err := s.tokens.Verify(accessToken)
	if err != nil {
		return nil, fmt.Errorf("invalid or expired token: %w", domain.ErrUnauthorized)
	}
	sess, err := s.sessions.Get(ctx, claims.SessionID)
	if err != nil || !sess.Enable {
		return nil, fmt.Errorf("session closed: %w", domain.ErrUnauthorized)
	}
	return claims, nil
}

func (s *service) GetUser(ctx context.Context, accessToken string) (*domain.Account, error) {
	claims, err := s.Authenticate(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	a, err := s.accounts.Get(ctx, claims.AccountID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("account deleted: %w", domain.ErrUnauthorized)
		}
		return nil, err
	}
	return a, nil
}

func (s *service) SignOut(ctx context.Context, sessionID string) error {
	return s.sessions.Revoke(ctx, sessionID)
}

func newRefreshToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
