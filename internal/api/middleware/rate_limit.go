package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/i3m/tenant-guard/internal/api/response"
	"github.com/i3m/tenant-guard/internal/core/domain"
	"github.com/i3m/tenant-guard/internal/infrastructure/metrics"
)

// PlanLimits maps a tenant plan to its request budget per minute.
type PlanLimits map[string]int

// DefaultPlanLimits are the per-minute budgets by plan.
var DefaultPlanLimits = PlanLimits{
	domain.PlanBasic:      100,
	domain.PlanPro:        500,
	domain.PlanEnterprise: 2000,
}

const defaultPerMinute = 60

func (p PlanLimits) perMinute(plan string) int {
	if n, ok := p[plan]; ok && n > 0 {
		return n
	}
	return defaultPerMinute
}

type tenantLimiter struct {
	limiter  *rate.Limiter
	plan     string
	lastSeen time.Time
}

// TenantRateLimiter applies a per-tenant token bucket sized by the tenant's plan.
type TenantRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*tenantLimiter
	limits   PlanLimits
}

// NewTenantRateLimiter creates a limiter using limits (DefaultPlanLimits when nil).
func NewTenantRateLimiter(limits PlanLimits) *TenantRateLimiter {
	if limits == nil {
		limits = DefaultPlanLimits
	}
	return &TenantRateLimiter{
		limiters: make(map[string]*tenantLimiter),
		limits:   limits,
	}
}

// getLimiter returns the limiter for the tenant, rebuilding it when the plan changed.
func (rl *TenantRateLimiter) getLimiter(tenant *domain.Tenant) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if l, ok := rl.limiters[tenant.ID]; ok && l.plan == tenant.Plan {
		l.lastSeen = time.Now()
		return l.limiter
	}

	n := rl.limits.perMinute(tenant.Plan)
	limiter := rate.NewLimiter(rate.Limit(float64(n)/60.0), n)
	rl.limiters[tenant.ID] = &tenantLimiter{limiter: limiter, plan: tenant.Plan, lastSeen: time.Now()}
	return limiter
}

// Sweep drops limiters idle for longer than idle.
func (rl *TenantRateLimiter) Sweep(idle time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for id, l := range rl.limiters {
		if time.Since(l.lastSeen) > idle {
			delete(rl.limiters, id)
		}
	}
}

// Middleware returns an Echo middleware enforcing the tenant budget. It must run
// after TenantScope; requests without a resolved tenant pass through.
func (rl *TenantRateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tenant, ok := TenantFrom(c)
			if !ok {
				return next(c)
			}

			limiter := rl.getLimiter(tenant)
			if !limiter.Allow() {
				metrics.TenantRateLimitedTotal.WithLabelValues(tenant.Plan).Inc()
				retryAfter := max(int(60/rl.limits.perMinute(tenant.Plan)), 1)
				c.Response().Header().Set("Retry-After", strconv.Itoa(retryAfter))
				return response.Fail(c, http.StatusTooManyRequests, "Tenant rate limit exceeded")
			}
			return next(c)
		}
	}
}
