package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/i3m/tenant-guard/internal/api/response"
	"github.com/i3m/tenant-guard/internal/core/domain"
	"github.com/i3m/tenant-guard/internal/core/ports"
)

// TenantKey is the echo context key holding the resolved *domain.Tenant.
const TenantKey = "tenant"

// TenantScope resolves the tenant named by the X-Tenant-ID header and checks that
// the caller may act in it. Tenant-scoped roles may only use the tenant their token
// was issued for; platform roles and developers may name any active tenant.
// It must run after AccessGuard.
func TenantScope(resolver ports.TenantResolver, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := IdentityFrom(c)
			if !ok {
				return response.Fail(c, http.StatusUnauthorized, msgMissingToken)
			}

			if id.Claims.Role.TenantScoped() && id.Claims.TenantID != id.TenantID {
				log.Warn().
					Str("user_id", id.Claims.SubjectID()).
					Str("token_tenant", id.Claims.TenantID).
					Str("header_tenant", id.TenantID).
					Msg("tenant mismatch")
				return response.Fail(c, http.StatusForbidden, "Tenant access denied")
			}

			tenant, err := resolver.Resolve(c.Request().Context(), id.TenantID)
			switch {
			case errors.Is(err, domain.ErrTenantNotFound):
				log.Warn().Str("tenant_id", id.TenantID).Msg("invalid tenant")
				return response.Fail(c, http.StatusBadRequest, "Invalid or inactive tenant")
			case errors.Is(err, domain.ErrTenantInactive):
				return response.Fail(c, http.StatusBadRequest, "Tenant is not active")
			case err != nil:
				log.Error().Err(err).Str("tenant_id", id.TenantID).Msg("tenant resolution failed")
				return response.Fail(c, http.StatusServiceUnavailable, "Service unavailable")
			}

			c.Set(TenantKey, tenant)
			return next(c)
		}
	}
}

// TenantFrom returns the tenant resolved by TenantScope.
func TenantFrom(c echo.Context) (*domain.Tenant, bool) {
	t, ok := c.Get(TenantKey).(*domain.Tenant)
	return t, ok && t != nil
}
