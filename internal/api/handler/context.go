package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/i3m/tenant-guard/internal/api/middleware"
	"github.com/i3m/tenant-guard/internal/core/domain"
)

// ctxIdentity extracts the identity attached by the access guard and performs a
// fast-fail check before any service call: a tenant-scoped role without a tenant
// claim is structurally valid but operationally unusable, so it is rejected with 401.
func ctxIdentity(c echo.Context) (*domain.Identity, error) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "No token provided, authorization denied")
	}
	if id.Claims.Role.TenantScoped() && id.Claims.TenantID == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Token missing tenant identity")
	}
	return id, nil
}

// bindAndValidate decodes the request body into req and runs the registered
// validator. Both failures surface as 400.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}
