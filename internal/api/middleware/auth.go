package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/i3m/tenant-guard/internal/api/response"
	"github.com/i3m/tenant-guard/internal/core/domain"
	"github.com/i3m/tenant-guard/internal/core/ports"
	"github.com/i3m/tenant-guard/internal/infrastructure/metrics"
)

// Header names read by the access guard.
const (
	HeaderTenantID    = "X-Tenant-ID"
	HeaderLegacyToken = "x-auth-token"
)

// IdentityKey is the echo context key holding the *domain.Identity.
const IdentityKey = "identity"

// Client-facing failure messages. They do not distinguish verification sub-causes.
const (
	msgMissingToken  = "No token provided, authorization denied"
	msgMissingTenant = "Tenant ID is required"
	msgInvalidToken  = "Token is not valid"
)

// AccessGuardConfig configures AccessGuard.
type AccessGuardConfig struct {
	Verifier ports.TokenVerifier
	Logger   zerolog.Logger
}

// AccessGuard authenticates a request and binds it to a tenant.
//
// Checks run in a fixed order: token presence (401), tenant header presence (400),
// then signature/expiry verification (401). A request with a bad token and no
// tenant header therefore gets 400. On success the decoded claims and the tenant id
// are stored both in the echo context (IdentityKey) and in the request's
// context.Context. Failures are rendered as {success:false, message} and never
// returned as errors.
func AccessGuard(cfg AccessGuardConfig) echo.MiddlewareFunc {
	log := cfg.Logger
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			raw := extractToken(req.Header)
			if raw == "" {
				metrics.GuardDecisionsTotal.WithLabelValues(metrics.OutcomeMissingToken).Inc()
				log.Warn().
					Str("path", req.URL.Path).
					Str("reason", domain.ErrMissingToken.Error()).
					Msg("authentication failed")
				return response.Fail(c, http.StatusUnauthorized, msgMissingToken)
			}

			tenantID := strings.TrimSpace(req.Header.Get(HeaderTenantID))
			if tenantID == "" {
				metrics.GuardDecisionsTotal.WithLabelValues(metrics.OutcomeMissingTenant).Inc()
				log.Warn().
					Str("path", req.URL.Path).
					Str("token_fp", fingerprint(raw)).
					Str("reason", domain.ErrMissingTenant.Error()).
					Msg("authentication failed")
				return response.Fail(c, http.StatusBadRequest, msgMissingTenant)
			}

			claims, err := cfg.Verifier.Verify(raw)
			if err != nil {
				metrics.GuardDecisionsTotal.WithLabelValues(metrics.OutcomeInvalidToken).Inc()
				log.Warn().
					Err(err).
					Str("path", req.URL.Path).
					Str("tenant_id", tenantID).
					Str("token_fp", fingerprint(raw)).
					Msg("authentication failed")
				return response.Fail(c, http.StatusUnauthorized, msgInvalidToken)
			}

			identity := &domain.Identity{Claims: *claims, TenantID: tenantID, Token: raw}
			c.Set(IdentityKey, identity)
			c.SetRequest(req.WithContext(domain.WithIdentity(req.Context(), identity)))

			metrics.GuardDecisionsTotal.WithLabelValues(metrics.OutcomeAllowed).Inc()
			log.Debug().
				Str("user_id", claims.SubjectID()).
				Str("tenant_id", tenantID).
				Msg("user authenticated")

			return next(c)
		}
	}
}

// IdentityFrom returns the identity attached by AccessGuard.
func IdentityFrom(c echo.Context) (*domain.Identity, bool) {
	id, ok := c.Get(IdentityKey).(*domain.Identity)
	return id, ok && id != nil
}

// extractToken reads "Authorization: Bearer <token>", a bare token in
// Authorization, or the legacy x-auth-token header, in that order.
func extractToken(h http.Header) string {
	if auth := strings.TrimSpace(h.Get(echo.HeaderAuthorization)); auth != "" {
		scheme, rest, found := strings.Cut(auth, " ")
		switch {
		case found && strings.EqualFold(scheme, "bearer"):
			if tok := strings.TrimSpace(rest); tok != "" {
				return tok
			}
		case !found:
			return auth
		}
	}
	return strings.TrimSpace(h.Get(HeaderLegacyToken))
}

// fingerprint identifies a credential in logs without revealing it.
func fingerprint(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:6])
}
