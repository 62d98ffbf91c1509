// Package guard decides whether a session may render a route. It never performs
// I/O: every decision is computed from a session.Snapshot.
package guard

import (
	"slices"
	"strings"

	"github.com/i3m/tenant-guard/internal/client/session"
	"github.com/i3m/tenant-guard/internal/core/domain"
)

// DefaultLoginPath is where unauthenticated and refused sessions are sent.
const DefaultLoginPath = "/login"

// Action is the outcome of a guard evaluation.
type Action int

const (
	Allow Action = iota
	Redirect
)

func (a Action) String() string {
	if a == Allow {
		return "allow"
	}
	return "redirect"
}

// Decision is the result of Evaluate. Reason is nil when Action is Allow.
type Decision struct {
	Action Action
	Target string
	Reason error
}

// Route is a guarded route. An empty Roles admits any authenticated session.
type Route struct {
	Pattern string
	Roles   []domain.Role
}

// Permits reports whether role may render the route.
func (r Route) Permits(role domain.Role) bool {
	return len(r.Roles) == 0 || slices.Contains(r.Roles, role)
}

// Guard evaluates routes against a session.
type Guard struct {
	// LoginPath defaults to DefaultLoginPath.
	LoginPath string
	// ForbiddenPath, when set, receives role refusals instead of LoginPath.
	ForbiddenPath string
}

// Evaluate runs the authentication, role and tenant-path checks in that order.
// The first failing check decides the redirect.
func (g Guard) Evaluate(snap session.Snapshot, route Route, currentPath string) Decision {
	login := g.LoginPath
	if login == "" {
		login = DefaultLoginPath
	}

	if !snap.Authenticated() {
		return Decision{Action: Redirect, Target: login, Reason: session.ErrUnauthenticated}
	}

	role := snap.Role()
	if !route.Permits(role) {
		target := login
		if g.ForbiddenPath != "" {
			target = g.ForbiddenPath
		}
		return Decision{Action: Redirect, Target: target, Reason: &UnauthorizedError{Role: role}}
	}

	if role.TenantScoped() {
		// The binding comes from the user record, not the mutable snapshot tenant.
		bound := snap.User.TenantID
		if bound == "" {
			return Decision{Action: Redirect, Target: login, Reason: ErrTenantUnbound}
		}
		if id, _ := TenantFromPath(currentPath); id != bound {
			return Decision{Action: Redirect, Target: TenantHome(bound), Reason: ErrTenantMismatch}
		}
	}

	return Decision{Action: Allow}
}

// TenantFromPath extracts {id} from a /tenant/{id}/... path.
func TenantFromPath(p string) (string, bool) {
	parts := strings.Split(strings.TrimPrefix(p, "/"), "/")
	if len(parts) < 2 || parts[0] != "tenant" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// TenantHome is the canonical route of a tenant.
func TenantHome(tenantID string) string {
	return "/tenant/" + tenantID + "/dashboard"
}
