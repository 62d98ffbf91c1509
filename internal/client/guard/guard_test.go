package guard

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i3m/tenant-guard/internal/client/session"
	"github.com/i3m/tenant-guard/internal/core/domain"
)

func acmeAdmin() session.Snapshot {
	return session.Snapshot{
		State: session.StateAuthenticated,
		Token: "T1",
		User: &domain.User{
			ID:       "u-1",
			Role:     domain.RoleTenantAdmin,
			TenantID: "acme",
			Tenant:   &domain.TenantRef{ID: "acme", Name: "Acme"},
		},
		TenantID: "acme",
	}
}

func platformAdmin() session.Snapshot {
	return session.Snapshot{
		State: session.StateAuthenticated,
		Token: "P1",
		User:  &domain.User{ID: "p-1", Role: domain.RolePlatformAdmin},
	}
}

var tenantDashboard = Route{Pattern: "/tenant/*/dashboard", Roles: []domain.Role{domain.RoleTenantAdmin, domain.RoleTenantUser}}

func TestEvaluate_TenantAdminOwnDashboard(t *testing.T) {
	snap := acmeAdmin()
	d := Guard{}.Evaluate(snap, tenantDashboard, "/tenant/acme/dashboard")

	assert.Equal(t, Allow, d.Action)
	assert.NoError(t, d.Reason)
	assert.Equal(t, DashboardTenant, SelectDashboard(snap.User))
}

func TestEvaluate_OtherTenantRedirectsHome(t *testing.T) {
	d := Guard{}.Evaluate(acmeAdmin(), tenantDashboard, "/tenant/beta/dashboard")

	assert.Equal(t, Redirect, d.Action)
	assert.Equal(t, "/tenant/acme/dashboard", d.Target)
	assert.ErrorIs(t, d.Reason, ErrTenantMismatch)
}

func TestEvaluate_TenantRoleOnNonTenantPath(t *testing.T) {
	d := Guard{}.Evaluate(acmeAdmin(), Route{Pattern: "/dashboard"}, "/dashboard")

	assert.Equal(t, Redirect, d.Action)
	assert.Equal(t, "/tenant/acme/dashboard", d.Target)
}

func TestEvaluate_Unauthenticated(t *testing.T) {
	snaps := map[string]session.Snapshot{
		"initialized":     {State: session.StateInitialized},
		"unauthenticated": {State: session.StateUnauthenticated},
		"no token":        {State: session.StateAuthenticated, User: &domain.User{Role: domain.RolePlatformAdmin}},
		"no user":         {State: session.StateAuthenticated, Token: "T1"},
	}
	for name, snap := range snaps {
		t.Run(name, func(t *testing.T) {
			for _, r := range DefaultTable {
				d := Guard{}.Evaluate(snap, r, "/tenant/acme/dashboard")
				assert.Equal(t, Redirect, d.Action, r.Pattern)
				assert.Equal(t, DefaultLoginPath, d.Target, r.Pattern)
				assert.ErrorIs(t, d.Reason, session.ErrUnauthenticated)
			}
		})
	}
}

func TestEvaluate_RoleNotPermitted(t *testing.T) {
	d := Guard{}.Evaluate(platformAdmin(), tenantDashboard, "/tenant/acme/dashboard")

	assert.Equal(t, Redirect, d.Action)
	assert.Equal(t, DefaultLoginPath, d.Target)
	assert.ErrorIs(t, d.Reason, ErrUnauthorized)

	var ue *UnauthorizedError
	require.True(t, errors.As(d.Reason, &ue))
	assert.Equal(t, domain.RolePlatformAdmin, ue.Role)
}

func TestEvaluate_ForbiddenPath(t *testing.T) {
	g := Guard{LoginPath: "/signin", ForbiddenPath: "/forbidden"}

	d := g.Evaluate(platformAdmin(), tenantDashboard, "/tenant/acme/dashboard")
	assert.Equal(t, "/forbidden", d.Target)

	d = g.Evaluate(session.Snapshot{}, tenantDashboard, "/tenant/acme/dashboard")
	assert.Equal(t, "/signin", d.Target)
}

// Role is checked before the tenant path.
func TestEvaluate_RoleBeforeTenant(t *testing.T) {
	route := Route{Pattern: "/tenant/*/users", Roles: []domain.Role{domain.RoleTenantAdmin}}
	snap := acmeAdmin()
	snap.User.Role = domain.RoleTenantUser

	d := Guard{}.Evaluate(snap, route, "/tenant/beta/users")
	assert.ErrorIs(t, d.Reason, ErrUnauthorized)
	assert.Equal(t, DefaultLoginPath, d.Target)
}

func TestEvaluate_TenantUnbound(t *testing.T) {
	snap := acmeAdmin()
	snap.User.TenantID = ""
	snap.TenantID = ""

	d := Guard{}.Evaluate(snap, tenantDashboard, "/tenant/acme/dashboard")
	assert.Equal(t, DefaultLoginPath, d.Target)
	assert.ErrorIs(t, d.Reason, ErrTenantUnbound)
}

func TestEvaluate_StaleSnapshotTenant(t *testing.T) {
	snap := acmeAdmin()
	snap.TenantID = "beta"

	d := Guard{}.Evaluate(snap, tenantDashboard, "/tenant/beta/dashboard")
	assert.Equal(t, Redirect, d.Action)
	assert.Equal(t, "/tenant/acme/dashboard", d.Target)
	assert.ErrorIs(t, d.Reason, ErrTenantMismatch)

	d = Guard{}.Evaluate(snap, tenantDashboard, "/tenant/acme/dashboard")
	assert.Equal(t, Allow, d.Action)
}

func TestEvaluate_PlatformIgnoresTenantPath(t *testing.T) {
	route := Route{Pattern: "/tenant/*/dashboard", Roles: []domain.Role{domain.RolePlatformAdmin}}
	d := Guard{}.Evaluate(platformAdmin(), route, "/tenant/beta/dashboard")
	assert.Equal(t, Allow, d.Action)
}

func TestTenantFromPath(t *testing.T) {
	cases := map[string]string{
		"/tenant/acme/dashboard": "acme",
		"/tenant/acme":           "acme",
		"tenant/acme/users":      "acme",
		"/tenant/":               "",
		"/tenants":               "",
		"/dashboard":             "",
		"":                       "",
	}
	for in, want := range cases {
		got, ok := TenantFromPath(in)
		assert.Equal(t, want, got, in)
		assert.Equal(t, want != "", ok, in)
	}
}

func TestSelectDashboard(t *testing.T) {
	ref := &domain.TenantRef{ID: "acme"}
	cases := []struct {
		name string
		user *domain.User
		want Dashboard
	}{
		{"loading", nil, DashboardLoading},
		{"developer", &domain.User{Role: domain.RoleMarketplaceDeveloper}, DashboardDeveloper},
		{"tenant admin", &domain.User{Role: domain.RoleTenantAdmin, TenantID: "acme", Tenant: ref}, DashboardTenant},
		{"tenant user", &domain.User{Role: domain.RoleTenantUser, TenantID: "acme", Tenant: ref}, DashboardTenant},
		{"tenant without record", &domain.User{Role: domain.RoleTenantUser, TenantID: "acme"}, DashboardTenantUnavailable},
		{"tenant without id", &domain.User{Role: domain.RoleTenantAdmin, Tenant: ref}, DashboardTenantUnavailable},
		{"platform admin", &domain.User{Role: domain.RolePlatformAdmin}, DashboardPlatform},
		{"platform user", &domain.User{Role: domain.RolePlatformUser}, DashboardPlatform},
		{"unknown", &domain.User{Role: "END_CUSTOMER"}, DashboardInvalidRole},
		{"empty", &domain.User{}, DashboardInvalidRole},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, SelectDashboard(tc.user))
		})
	}
	assert.Equal(t, "tenant information not available", DashboardTenantUnavailable.String())
}

func TestTable_Match(t *testing.T) {
	r, ok := DefaultTable.Match("/tenant/acme/dashboard")
	require.True(t, ok)
	assert.Equal(t, "/tenant/*/dashboard", r.Pattern)

	r, ok = DefaultTable.Match("/developer/dashboard")
	require.True(t, ok)
	assert.True(t, r.Permits(domain.RoleMarketplaceDeveloper))
	assert.False(t, r.Permits(domain.RolePlatformAdmin))

	_, ok = DefaultTable.Match("/tenant/acme/dashboard/extra")
	assert.False(t, ok)
}
