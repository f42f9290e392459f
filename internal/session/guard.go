package session

import "strings"

// Decision is the outcome of a route check.
type Decision int

const (
	// Loading means the session is not initialized yet; render nothing.
	Loading Decision = iota
	// Allow lets the route render.
	Allow
	// Redirect sends the user to the login route.
	Redirect
)

func (d Decision) String() string {
	switch d {
	case Loading:
		return "loading"
	case Allow:
		return "allow"
	case Redirect:
		return "redirect"
	}
	return "unknown"
}

// Guard gates routes that need a session.
type Guard struct {
	LoginRoute   string
	PublicRoutes []string
}

// NewGuard returns a guard; the login route is always public.
func NewGuard(loginRoute string, public ...string) Guard {
	return Guard{LoginRoute: loginRoute, PublicRoutes: append([]string{loginRoute}, public...)}
}

// IsPublic reports whether route, or a path route below it, needs no session.
func (g Guard) IsPublic(route string) bool {
	for _, p := range g.PublicRoutes {
		if route == p {
			return true
		}
		if p != "/" && strings.HasPrefix(p, "/") && strings.HasPrefix(route, strings.TrimRight(p, "/")+"/") {
			return true
		}
	}
	return false
}

// Decide returns Loading until the session is initialized, then Allow or Redirect.
func (g Guard) Decide(st State, route string) Decision {
	switch {
	case !st.Initialized:
		return Loading
	case g.IsPublic(route) || st.Authenticated():
		return Allow
	default:
		return Redirect
	}
}
