package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/i3m/tenant-guard/internal/api/response"
	"github.com/i3m/tenant-guard/internal/core/ports"
	"github.com/i3m/tenant-guard/internal/infrastructure/metrics"
)

// Revocation rejects access tokens that were logged out before expiry. It must run
// after AccessGuard. When the revocation store is unreachable the request is
// refused with 503.
func Revocation(list ports.RevocationList, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := IdentityFrom(c)
			if !ok {
				return response.Fail(c, http.StatusUnauthorized, msgMissingToken)
			}

			revoked, err := list.IsRevoked(c.Request().Context(), id.Token)
			if err != nil {
				log.Error().Err(err).
					Str("user_id", id.Claims.SubjectID()).
					Msg("revocation check failed")
				return response.Fail(c, http.StatusServiceUnavailable, "Service unavailable")
			}
			if revoked {
				metrics.GuardDecisionsTotal.WithLabelValues(metrics.OutcomeRevoked).Inc()
				log.Warn().
					Str("user_id", id.Claims.SubjectID()).
					Str("tenant_id", id.TenantID).
					Msg("revoked token presented")
				return response.Fail(c, http.StatusUnauthorized, msgInvalidToken)
			}
			return next(c)
		}
	}
}
