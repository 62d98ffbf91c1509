package guard

import (
	"path"

	"github.com/i3m/tenant-guard/internal/core/domain"
)

// Table is an ordered route table. The first matching pattern wins.
type Table []Route

// Match finds the route for p. Patterns use path.Match syntax.
func (t Table) Match(p string) (Route, bool) {
	for _, r := range t {
		if ok, err := path.Match(r.Pattern, p); err == nil && ok {
			return r, true
		}
	}
	return Route{}, false
}

var (
	tenantRoles   = []domain.Role{domain.RoleTenantAdmin, domain.RoleTenantUser}
	platformRoles = []domain.Role{domain.RolePlatformAdmin, domain.RolePlatformUser}
)

// DefaultTable is the dashboard's route table.
var DefaultTable = Table{
	{Pattern: "/"},
	{Pattern: "/dashboard"},
	{Pattern: "/overview"},
	{Pattern: "/developer/dashboard", Roles: []domain.Role{domain.RoleMarketplaceDeveloper}},
	{Pattern: "/tenant/*/dashboard", Roles: tenantRoles},
	{Pattern: "/tenant/*/users", Roles: []domain.Role{domain.RoleTenantAdmin}},
	{Pattern: "/tenants", Roles: platformRoles},
	{Pattern: "/users", Roles: []domain.Role{domain.RolePlatformAdmin}},
	{Pattern: "/settings"},
}
