package ports

import (
	"context"

	"github.com/i3m/tenant-guard/internal/core/domain"
)

// TenantRepository is the authoritative tenant directory.
type TenantRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Tenant, error)
	Upsert(ctx context.Context, tenant *domain.Tenant) error
}

// TenantCache holds recently resolved tenants. A miss is reported with ok=false
// and a nil error.
type TenantCache interface {
	Get(ctx context.Context, id string) (tenant *domain.Tenant, ok bool, err error)
	Set(ctx context.Context, tenant *domain.Tenant) error
}

// TenantResolver resolves a tenant id to an active tenant.
type TenantResolver interface {
	Resolve(ctx context.Context, id string) (*domain.Tenant, error)
}

// TenantService resolves tenants and maintains the tenant directory.
type TenantService interface {
	TenantResolver
	Save(ctx context.Context, tenant *domain.Tenant) error
}
