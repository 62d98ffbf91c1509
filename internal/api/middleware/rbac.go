package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/i3m/tenant-guard/internal/api/response"
	"github.com/i3m/tenant-guard/internal/core/domain"
)

// RBAC enforces role-based access control on the identity attached by
// AccessGuard. Requests without an identity are rejected with 401.
func RBAC(allowedRoles ...domain.Role) echo.MiddlewareFunc {
	allowed := make(map[domain.Role]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := IdentityFrom(c)
			if !ok {
				return response.Fail(c, http.StatusUnauthorized, msgMissingToken)
			}
			if _, ok := allowed[id.Claims.Role]; !ok {
				return response.Fail(c, http.StatusForbidden, "Access forbidden")
			}
			return next(c)
		}
	}
}
