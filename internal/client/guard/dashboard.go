package guard

import "github.com/i3m/tenant-guard/internal/core/domain"

// Dashboard is the dashboard variant rendered for a user.
type Dashboard int

const (
	DashboardLoading Dashboard = iota
	DashboardDeveloper
	DashboardTenant
	DashboardTenantUnavailable
	DashboardPlatform
	DashboardInvalidRole
)

var dashboardNames = map[Dashboard]string{
	DashboardLoading:           "loading",
	DashboardDeveloper:         "developer",
	DashboardTenant:            "tenant",
	DashboardTenantUnavailable: "tenant information not available",
	DashboardPlatform:          "platform",
	DashboardInvalidRole:       "invalid role",
}

func (d Dashboard) String() string {
	if s, ok := dashboardNames[d]; ok {
		return s
	}
	return "unknown"
}

// SelectDashboard picks the dashboard variant from the user's role. Unknown roles
// get DashboardInvalidRole, never a privileged default.
func SelectDashboard(user *domain.User) Dashboard {
	if user == nil {
		return DashboardLoading
	}
	switch {
	case user.Role == domain.RoleMarketplaceDeveloper:
		return DashboardDeveloper
	case user.Role.TenantScoped():
		if !user.HasTenantBinding() {
			return DashboardTenantUnavailable
		}
		return DashboardTenant
	case user.Role.PlatformScoped():
		return DashboardPlatform
	}
	return DashboardInvalidRole
}
