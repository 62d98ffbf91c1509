package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/i3m/tenant-guard/internal/api/response"
	"github.com/i3m/tenant-guard/internal/core/domain"
)

type errorMapping struct {
	err     error
	status  int
	message string
}

// Checked in order with errors.Is. Verification sub-causes share one message.
var errorMappings = []errorMapping{
	{domain.ErrMissingToken, http.StatusUnauthorized, "No token provided, authorization denied"},
	{domain.ErrInvalidToken, http.StatusUnauthorized, "Token is not valid"},
	{domain.ErrTokenRevoked, http.StatusUnauthorized, "Token is not valid"},
	{domain.ErrMissingTenant, http.StatusBadRequest, "Tenant ID is required"},
	{domain.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid credentials"},
	{domain.ErrTenantForbidden, http.StatusForbidden, "Tenant access denied"},
	{domain.ErrTenantNotFound, http.StatusBadRequest, "Invalid or inactive tenant"},
	{domain.ErrTenantInactive, http.StatusBadRequest, "Tenant is not active"},
	{domain.ErrTenantRequired, http.StatusBadRequest, "Tenant-scoped role requires a tenant"},
	{domain.ErrInvalidRole, http.StatusBadRequest, "Invalid role"},
	{domain.ErrUserNotFound, http.StatusNotFound, "User not found"},
	{domain.ErrUserExists, http.StatusConflict, "User already exists"},
	{domain.ErrRateLimited, http.StatusTooManyRequests, "Tenant rate limit exceeded"},
}

// NewHTTPErrorHandler renders handler errors as the failure envelope. Domain
// errors get fixed statuses; anything unrecognised is logged and reported as a
// bare 500.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, msg, known := classify(err)
		if !known {
			log.Error().
				Err(err).
				Str("method", c.Request().Method).
				Str("route", c.Path()).
				Msg("unhandled error")
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = response.Fail(c, status, msg)
	}
}

func classify(err error) (int, string, bool) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprint(he.Message), true
	}
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			return m.status, m.message, true
		}
	}
	return http.StatusInternalServerError, "internal server error", false
}
