// Package account provisions a verified visitor into an identity account and
// its legacy profile row.
package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kinboost-api/internal/domain"
	"github.com/kinboost-api/internal/infrastructure/metrics"
	"github.com/kinboost-api/internal/infrastructure/sns"
	"github.com/kinboost-api/internal/pkg/validate"
)

const (
	// MinPasswordLength is the shortest password accepted at provisioning.
	MinPasswordLength = 6
	// MinStoreNameLength gates the legacy profile row.
	MinStoreNameLength = 3
)

// Identity is the part of the identity provider the provisioner drives.
type Identity interface {
	CreateUser(ctx context.Context, email, password string, emailConfirmed bool) (*domain.Account, error)
	DeleteUser(ctx context.Context, accountID, email string) error
}

// ProfileStore writes legacy profile rows.
type ProfileStore interface {
	Insert(ctx context.Context, p *domain.Profile) error
	DeleteByUser(ctx context.Context, userID string) error
}

type Service interface {
	Create(ctx context.Context, req domain.CreateAccountRequest) (*domain.AccountRef, error)
}

// ServiceDeps holds all dependencies for the provisioning service.
type ServiceDeps struct {
	Identity Identity
	Profiles ProfileStore
	Events   sns.Publisher
	Metrics  *metrics.Metrics
	Now      func() time.Time
}

type service struct {
	identity Identity
	profiles ProfileStore
	events   sns.Publisher
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewService(d ServiceDeps) Service {
	s := &service{
		identity: d.Identity,
		profiles: d.Profiles,
		events:   d.Events,
		metrics:  d.Metrics,
		now:      d.Now,
	}
	if s.events == nil {
		s.events = sns.Nop{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

type accountEvent struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Step  string `json:"step,omitempty"`
	Error string `json:"error,omitempty"`
}

func (s *service) Create(ctx context.Context, req domain.CreateAccountRequest) (*domain.AccountRef, error) {
	email := validate.Email(req.Email)
	if email == "" || req.Password == "" {
		return nil, fmt.Errorf("email and password required: %w", domain.ErrInvalidInput)
	}
	if utf8.RuneCountInString(req.Password) < MinPasswordLength {
		return nil, fmt.Errorf("password shorter than %d: %w", MinPasswordLength, domain.ErrWeakPassword)
	}

	var acct *domain.Account
	saga := &Saga{
		OnCompensated: func(_ context.Context, step string) {
			s.metrics.IncCompensation(metrics.ResultOK)
			slog.Info("provisioning step compensated", "step", step, "email", email)
		},
		OnCompensationError: func(ctx context.Context, step string, err error) {
			s.metrics.IncCompensation(metrics.ResultError)
			ev := accountEvent{Email: email, Step: step, Error: err.Error()}
			if acct != nil {
				ev.ID = acct.AccountID
			}
			slog.Error("provisioning compensation failed", "step", step, "account_id", ev.ID, "email", email, "err", err)
			if perr := s.events.Publish(ctx, sns.EventAccountOrphaned, ev); perr != nil {
				slog.Warn("failed to publish orphaned account", "account_id", ev.ID, "err", perr)
			}
		},
	}

	saga.Add(Step{
		Name: "create_account",
		Do: func(ctx context.Context) error {
			a, err := s.identity.CreateUser(ctx, email, req.Password, true)
			if err != nil {
				return err
			}
			acct = a
			return nil
		},
		Compensate: func(ctx context.Context) error {
			return s.identity.DeleteUser(ctx, acct.AccountID, acct.Email)
		},
	})

	if req.StoreName != nil {
		storeName := strings.TrimSpace(*req.StoreName)
		if utf8.RuneCountInString(storeName) >= MinStoreNameLength {
			saga.Add(Step{
				Name: "create_profile",
				Do: func(ctx context.Context) error {
					err := s.profiles.Insert(ctx, &domain.Profile{
						UserID:    acct.AccountID,
						StoreName: storeName,
						CreatedAt: s.now().UTC(),
					})
					if err != nil {
						return fmt.Errorf("%v: %w", err, domain.ErrProfileCreationFailed)
					}
					return nil
				},
				Compensate: func(ctx context.Context) error {
					return s.profiles.DeleteByUser(ctx, acct.AccountID)
				},
			})
		}
	}

	if err := saga.Run(ctx); err != nil {
		s.recordFailure(email, err)
		return nil, err
	}

	s.metrics.IncAccountProvisioned(metrics.ResultOK)
	slog.Info("account provisioned", "account_id", acct.AccountID, "email", acct.Email)
	if err := s.events.Publish(ctx, sns.EventAccountCreated, accountEvent{ID: acct.AccountID, Email: acct.Email}); err != nil {
		slog.Warn("failed to publish account created", "account_id", acct.AccountID, "err", err)
	}
	return &domain.AccountRef{ID: acct.AccountID, Email: acct.Email}, nil
}

func (s *service) recordFailure(email string, err error) {
	switch {
	case errors.Is(err, domain.ErrEmailTaken), errors.Is(err, domain.ErrWeakPassword):
		s.metrics.IncAccountProvisioned(metrics.ResultConflict)
		slog.Warn("account provisioning rejected", "email", email, "err", err)
	default:
		s.metrics.IncAccountProvisioned(metrics.ResultError)
		slog.Error("account provisioning failed", "email", email, "err", err)
	}
}
