package authsync

import (
	"context"

	"github.com/kinboost-api/internal/domain"
)

// ShopAPI is the remote shop endpoint. *api.Client satisfies it.
type ShopAPI interface {
	MyShop(ctx context.Context, accessToken string) (*domain.Shop, error)
}

// SessionSource yields the current access token holder. *auth.Client satisfies it.
type SessionSource interface {
	GetSession(ctx context.Context) (*domain.AuthSession, error)
}

// RemoteShops looks shops up through the API with the current session.
type RemoteShops struct {
	Sessions SessionSource
	API      ShopAPI
}

func (r RemoteShops) LookupShop(ctx context.Context, userID string) (*domain.Shop, error) {
	sess, err := r.Sessions.GetSession(ctx)
	if err != nil {
		return nil, err
	}
	if sess == nil || sess.User == nil || sess.User.AccountID != userID {
		return nil, nil
	}
	return r.API.MyShop(ctx, sess.AccessToken)
}
