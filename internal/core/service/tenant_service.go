package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/i3m/tenant-guard/internal/core/domain"
	"github.com/i3m/tenant-guard/internal/core/ports"
	"github.com/i3m/tenant-guard/internal/infrastructure/metrics"
)

// TenantService resolves tenant ids, reading through a cache in front of the
// tenant directory. Cache failures are logged and fall through to the directory.
type TenantService struct {
	repo   ports.TenantRepository
	cache  ports.TenantCache
	logger zerolog.Logger
}

func NewTenantService(repo ports.TenantRepository, cache ports.TenantCache, logger zerolog.Logger) *TenantService {
	return &TenantService{repo: repo, cache: cache, logger: logger}
}

// Resolve returns the tenant for id. Unknown tenants yield ErrTenantNotFound and
// inactive ones ErrTenantInactive.
func (s *TenantService) Resolve(ctx context.Context, id string) (*domain.Tenant, error) {
	if id == "" {
		return nil, domain.ErrTenantNotFound
	}

	if s.cache != nil {
		tenant, ok, err := s.cache.Get(ctx, id)
		if err != nil {
			s.logger.Warn().Err(err).Str("tenant_id", id).Msg("tenant cache unavailable")
		}
		if ok {
			return s.checkActive("cache", tenant)
		}
	}

	tenant, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, domain.ErrTenantNotFound) {
		metrics.TenantResolutionsTotal.WithLabelValues("store", "not_found").Inc()
		return nil, err
	}
	if err != nil {
		metrics.TenantResolutionsTotal.WithLabelValues("store", "error").Inc()
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, tenant); err != nil {
			s.logger.Warn().Err(err).Str("tenant_id", id).Msg("tenant cache write failed")
		}
	}
	return s.checkActive("store", tenant)
}

func (s *TenantService) checkActive(source string, tenant *domain.Tenant) (*domain.Tenant, error) {
	if !tenant.Active() {
		metrics.TenantResolutionsTotal.WithLabelValues(source, "inactive").Inc()
		return nil, domain.ErrTenantInactive
	}
	metrics.TenantResolutionsTotal.WithLabelValues(source, "active").Inc()
	return tenant, nil
}

// Save validates and stores a tenant, then refreshes its cache entry so the new
// status takes effect on the next request.
func (s *TenantService) Save(ctx context.Context, tenant *domain.Tenant) error {
	tenant.ID = strings.TrimSpace(tenant.ID)
	if tenant.ID == "" {
		return domain.ErrTenantNotFound
	}
	if tenant.Status == "" {
		tenant.Status = domain.TenantStatusActive
	}
	if tenant.Plan == "" {
		tenant.Plan = domain.PlanBasic
	}
	if err := s.repo.Upsert(ctx, tenant); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, tenant); err != nil {
			s.logger.Warn().Err(err).Str("tenant_id", tenant.ID).Msg("tenant cache write failed")
		}
	}
	s.logger.Info().Str("tenant_id", tenant.ID).Str("status", tenant.Status).Msg("tenant saved")
	return nil
}
