package authsync

// Route paths the gate redirects to.
const (
	RouteHome       = "/"
	RouteCreateShop = "/create-shop"
	RouteDashboard  = "/dashboard"
)

type Action int

const (
	ActionAllow Action = iota
	ActionWait
	ActionRedirect
)

// Decision is what a protected page should do. Target is set for ActionRedirect.
type Decision struct {
	Action Action
	Target string
}

// Gate decides access for protected pages.
type Gate struct {
	// RequireShop marks routes that are useless without a shop.
	RequireShop bool
}

// Decide returns the decision for st on route.
func (g Gate) Decide(st State, route string) Decision {
	switch {
	case st.Loading:
		return Decision{Action: ActionWait}
	case st.User == nil:
		return Decision{Action: ActionRedirect, Target: RouteHome}
	case st.Shop != nil && route == RouteCreateShop:
		return Decision{Action: ActionRedirect, Target: RouteDashboard}
	case g.RequireShop && st.Shop == nil && route != RouteCreateShop:
		return Decision{Action: ActionRedirect, Target: RouteCreateShop}
	}
	return Decision{Action: ActionAllow}
}
