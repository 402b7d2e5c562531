// Package authsync keeps a (user, session, shop, loading) tuple in step with
// the client session and the shop owned by the signed-in user.
package authsync

import "github.com/kinboost-api/internal/domain"

// State is an immutable snapshot. Its pointers must not be mutated.
type State struct {
	User    *domain.Account
	Session *domain.AuthSession
	Shop    *domain.Shop
	Loading bool
}

type Phase int

const (
	PhaseLoading Phase = iota
	PhaseAnonymous
	PhaseNoShop
	PhaseWithShop
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseAnonymous:
		return "anonymous"
	case PhaseNoShop:
		return "authenticated-no-shop"
	case PhaseWithShop:
		return "authenticated-with-shop"
	}
	return "unknown"
}

func (s State) Phase() Phase {
	switch {
	case s.Loading:
		return PhaseLoading
	case s.User == nil:
		return PhaseAnonymous
	case s.Shop == nil:
		return PhaseNoShop
	default:
		return PhaseWithShop
	}
}
