package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/i3m/tenant-guard/internal/core/domain"
)

const defaultTenantTTL = time.Hour

// TenantCache caches resolved tenants.
// Key format: tenant:<id>  Value: <status>:<plan>:<subdomain>:<name>
// Implements ports.TenantCache.
type TenantCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTenantCache creates a TenantCache. A non-positive ttl selects one hour.
func NewTenantCache(client *redis.Client, ttl time.Duration) *TenantCache {
	if ttl <= 0 {
		ttl = defaultTenantTTL
	}
	return &TenantCache{client: client, ttl: ttl}
}

// Get returns the cached tenant. A miss is reported as ok=false with a nil error.
func (c *TenantCache) Get(ctx context.Context, id string) (*domain.Tenant, bool, error) {
	val, err := c.client.Get(ctx, c.key(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("tenant cache get: %w", err)
	}

	parts := strings.SplitN(val, ":", 4)
	if len(parts) != 4 {
		// Unreadable entry: treat as a miss so the directory is consulted.
		return nil, false, nil
	}
	return &domain.Tenant{
		ID:        id,
		Status:    parts[0],
		Plan:      parts[1],
		Subdomain: parts[2],
		Name:      parts[3],
	}, true, nil
}

// Set stores tenant for the cache TTL.
func (c *TenantCache) Set(ctx context.Context, tenant *domain.Tenant) error {
	val := strings.Join([]string{tenant.Status, tenant.Plan, tenant.Subdomain, tenant.Name}, ":")
	if err := c.client.Set(ctx, c.key(tenant.ID), val, c.ttl).Err(); err != nil {
		return fmt.Errorf("tenant cache set: %w", err)
	}
	return nil
}

func (c *TenantCache) key(id string) string {
	return "tenant:" + id
}
