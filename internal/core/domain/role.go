package domain

// Role is the tag on a user that selects the dashboard variant and the routes the
// user can reach.
type Role string

const (
	RolePlatformAdmin        Role = "PLATFORM_ADMIN"
	RolePlatformUser         Role = "PLATFORM_USER"
	RoleTenantAdmin          Role = "TENANT_ADMIN"
	RoleTenantUser           Role = "TENANT_USER"
	RoleMarketplaceDeveloper Role = "MARKETPLACE_DEVELOPER"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RolePlatformAdmin, RolePlatformUser, RoleTenantAdmin, RoleTenantUser, RoleMarketplaceDeveloper:
		return true
	}
	return false
}

// TenantScoped reports whether r is bound to exactly one tenant. A tenant-scoped
// user must always carry a tenant id and tenant record.
func (r Role) TenantScoped() bool {
	return r == RoleTenantAdmin || r == RoleTenantUser
}

// PlatformScoped reports whether r operates across tenants.
func (r Role) PlatformScoped() bool {
	return r == RolePlatformAdmin || r == RolePlatformUser
}

func (r Role) String() string { return string(r) }
