// Package shop creates and looks up the single shop owned by an account.
package shop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kinboost-api/internal/domain"
	"github.com/kinboost-api/internal/pkg/id"
)

// MinNameLength is the shortest accepted shop name, after trimming.
const MinNameLength = 3

// Store is the persistence the service needs for shops.
type Store interface {
	GetByUserID(ctx context.Context, userID string) (*domain.Shop, error)
	Insert(ctx context.Context, s *domain.Shop) error
}

type Service interface {
	// GetByUser returns the user's shop, or nil when there is none.
	GetByUser(ctx context.Context, userID string) (*domain.Shop, error)
	Create(ctx context.Context, userID string, req domain.CreateShopRequest) (*domain.Shop, error)
}

type service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) Service {
	return &service{store: store, now: time.Now}
}

func (s *service) GetByUser(ctx context.Context, userID string) (*domain.Shop, error) {
	sh, err := s.store.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("shop lookup: %v: %w", err, domain.ErrStorage)
	}
	return sh, nil
}

func (s *service) Create(ctx context.Context, userID string, req domain.CreateShopRequest) (*domain.Shop, error) {
	name := strings.TrimSpace(req.Name)
	if utf8.RuneCountInString(name) < MinNameLength {
		return nil, fmt.Errorf("name shorter than %d: %w", MinNameLength, domain.ErrInvalidInput)
	}
	var desc *string
	if req.Description != nil {
		if d := strings.TrimSpace(*req.Description); d != "" {
			desc = &d
		}
	}

	now := s.now().UTC()
	sh := &domain.Shop{
		ID:          id.NewAt(now),
		UserID:      userID,
		Name:        name,
		Description: desc,
		CreatedAt:   now,
	}
	if err := s.store.Insert(ctx, sh); err != nil {
		if errors.Is(err, domain.ErrShopExists) {
			return nil, err
		}
		slog.Error("failed to create shop", "user_id", userID, "err", err)
		return nil, fmt.Errorf("insert shop: %v: %w", err, domain.ErrStorage)
	}
	slog.Info("shop created", "user_id", userID, "shop_id", sh.ID)
	return sh, nil
}
