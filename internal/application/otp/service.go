// Package otp issues and verifies the one-time email codes that gate signup.
package otp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kinboost-api/internal/domain"
	"github.com/kinboost-api/internal/infrastructure/metrics"
	"github.com/kinboost-api/internal/infrastructure/smtp"
	"github.com/kinboost-api/internal/pkg/id"
	"github.com/kinboost-api/internal/pkg/otpcode"
	"github.com/kinboost-api/internal/pkg/validate"
	"golang.org/x/time/rate"
)

// DefaultTTL is how long an issued code stays valid.
const DefaultTTL = 10 * time.Minute

// Store is the persistence the service needs for codes.
type Store interface {
	Insert(ctx context.Context, t *domain.OTPToken) error
	FindLatestValid(ctx context.Context, email, code string, now time.Time) (*domain.OTPToken, error)
	Consume(ctx context.Context, tokenID string, now time.Time) (bool, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// unavailable is implemented by mailers that cannot send at all, such as one
// built without transport configuration.
type unavailable interface {
	Unavailable() error
}

type Service interface {
	Issue(ctx context.Context, email string) error
	Verify(ctx context.Context, email, code string) error
}

// ServiceDeps holds all dependencies for the OTP service.
type ServiceDeps struct {
	Store         Store
	Mailer        smtp.Mailer
	Metrics       *metrics.Metrics
	TTL           time.Duration // zero means DefaultTTL
	SweepInterval time.Duration // minimum gap between expiry sweeps; zero sweeps on every issue
	Now           func() time.Time
	Generate      func() (string, error)
}

type service struct {
	store    Store
	mailer   smtp.Mailer
	metrics  *metrics.Metrics
	ttl      time.Duration
	sweep    *rate.Sometimes
	now      func() time.Time
	generate func() (string, error)
}

func NewService(d ServiceDeps) Service {
	s := &service{
		store:    d.Store,
		mailer:   d.Mailer,
		metrics:  d.Metrics,
		ttl:      d.TTL,
		sweep:    &rate.Sometimes{Interval: d.SweepInterval},
		now:      d.Now,
		generate: d.Generate,
	}
	if s.ttl <= 0 {
		s.ttl = DefaultTTL
	}
	if d.SweepInterval <= 0 {
		s.sweep = &rate.Sometimes{Every: 1}
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.generate == nil {
		s.generate = otpcode.Generate
	}
	return s
}

func (s *service) Issue(ctx context.Context, email string) error {
	email = validate.Email(email)
	if email == "" || !strings.Contains(email, "@") {
		return fmt.Errorf("email %q: %w", email, domain.ErrInvalidInput)
	}
	if s.mailer == nil {
		return fmt.Errorf("no mailer: %w", domain.ErrConfig)
	}
	if u, ok := s.mailer.(unavailable); ok {
		if err := u.Unavailable(); err != nil {
			slog.Error("email transport not configured", "err", err)
			return err
		}
	}

	now := s.now().UTC()
	s.sweep.Do(func() { s.sweepExpired(ctx, now) })

	code, err := s.generate()
	if err != nil {
		s.metrics.IncOTPIssued(metrics.ResultError)
		return fmt.Errorf("generate code: %v: %w", err, domain.ErrStorage)
	}
	t := &domain.OTPToken{
		ID:        id.NewAt(now),
		Email:     email,
		Code:      code,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}
	if err := s.store.Insert(ctx, t); err != nil {
		slog.Error("failed to store otp", "email", email, "err", err)
		s.metrics.IncOTPIssued(metrics.ResultError)
		return fmt.Errorf("store code: %v: %w", err, domain.ErrStorage)
	}

	body, err := smtp.RenderOTP(code, s.ttl)
	if err == nil {
		err = s.mailer.SendEmail(ctx, email, smtp.OTPSubject, body)
	}
	if err != nil {
		slog.Error("failed to send otp email", "email", email, "err", err)
		s.metrics.IncOTPIssued(metrics.ResultError)
		if errors.Is(err, domain.ErrConfig) {
			return err
		}
		return fmt.Errorf("send code: %v: %w", err, domain.ErrDelivery)
	}

	slog.Info("otp issued", "email", email, "otp_id", t.ID)
	s.metrics.IncOTPIssued(metrics.ResultOK)
	return nil
}

// sweepExpired deletes expired codes. Failures are logged and otherwise ignored.
func (s *service) sweepExpired(ctx context.Context, now time.Time) {
	n, err := s.store.DeleteExpired(ctx, now)
	if err != nil {
		slog.Warn("otp expiry sweep failed", "err", err)
		return
	}
	s.metrics.AddOTPSwept(n)
}

func (s *service) Verify(ctx context.Context, email, code string) error {
	email = validate.Email(email)
	if email == "" || code == "" {
		return fmt.Errorf("email and code required: %w", domain.ErrInvalidInput)
	}

	now := s.now().UTC()
	t, err := s.store.FindLatestValid(ctx, email, code, now)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.metrics.IncOTPVerification(metrics.ResultInvalid)
			return fmt.Errorf("no matching code for %s: %w", email, domain.ErrInvalidOrExpiredCode)
		}
		slog.Error("otp lookup failed", "email", email, "err", err)
		s.metrics.IncOTPVerification(metrics.ResultError)
		return fmt.Errorf("lookup code: %v: %w", err, domain.ErrStorage)
	}

	ok, err := s.store.Consume(ctx, t.ID, now)
	if err != nil {
		slog.Error("otp consume failed", "otp_id", t.ID, "err", err)
		s.metrics.IncOTPVerification(metrics.ResultError)
		return fmt.Errorf("consume code: %v: %w", err, domain.ErrStorage)
	}
	if !ok {
		s.metrics.IncOTPVerification(metrics.ResultInvalid)
		return fmt.Errorf("code %s already used: %w", t.ID, domain.ErrInvalidOrExpiredCode)
	}

	s.metrics.IncOTPVerification(metrics.ResultOK)
	return nil
}
