// Package metrics defines and registers all custom Prometheus metrics for the
// tenant guard service. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry on package init
// through promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tenant_guard"

// Guard outcomes.
const (
	OutcomeAllowed       = "allowed"
	OutcomeMissingToken  = "missing_token"
	OutcomeMissingTenant = "missing_tenant"
	OutcomeInvalidToken  = "invalid_token"
	OutcomeRevoked       = "revoked"
)

// ── Access guard metrics ──────────────────────────────────────────────────────

// GuardDecisionsTotal counts access guard evaluations.
// Label:
//   - outcome: "allowed", "missing_token", "missing_tenant", "invalid_token", "revoked"
var GuardDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "guard_decisions_total",
		Help:      "Total number of access guard decisions, by outcome.",
	},
	[]string{"outcome"},
)

// ── Tenant metrics ────────────────────────────────────────────────────────────

// TenantResolutionsTotal counts tenant lookups.
// Labels:
//   - source: "cache" or "store"
//   - result: "active", "inactive", "not_found", "error"
var TenantResolutionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tenant_resolutions_total",
		Help:      "Total number of tenant resolutions, by source and result.",
	},
	[]string{"source", "result"},
)

// TenantRateLimitedTotal counts requests rejected by the per-tenant limiter.
// Label:
//   - plan: the tenant plan whose budget was exhausted
var TenantRateLimitedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tenant_rate_limited_total",
		Help:      "Total number of requests rejected by tenant rate limiting.",
	},
	[]string{"plan"},
)

// ── Login metrics ─────────────────────────────────────────────────────────────

// LoginAttemptsTotal counts login attempts.
// Label:
//   - result: "success", "invalid_credentials", "tenant_denied", "error"
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)
