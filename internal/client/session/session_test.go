package session

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i3m/tenant-guard/internal/client/storage"
	"github.com/i3m/tenant-guard/internal/core/domain"
)

func tenantAdmin() *domain.User {
	return &domain.User{
		ID:       "u-1",
		Email:    "alice@acme.test",
		Role:     domain.RoleTenantAdmin,
		TenantID: "acme",
		Tenant:   &domain.TenantRef{ID: "acme", Name: "Acme", Subdomain: "acme"},
	}
}

func TestNew_Initialized(t *testing.T) {
	s := New(storage.NewMemoryStore())
	snap := s.Snapshot()
	assert.Equal(t, StateInitialized, snap.State)
	assert.False(t, snap.Authenticated())
	assert.Empty(t, snap.Role())
}

func TestBegin_PersistsAndRestores(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()

	s := New(store)
	require.NoError(t, s.Begin(ctx, "T1", "R1", tenantAdmin()))

	snap := s.Snapshot()
	assert.True(t, snap.Authenticated())
	assert.Equal(t, domain.RoleTenantAdmin, snap.Role())
	assert.Equal(t, "acme", snap.TenantID)

	for key, want := range map[string]string{
		storage.KeyAuthToken:     "T1",
		storage.KeyRefreshToken:  "R1",
		storage.KeyCurrentTenant: "acme",
	} {
		got, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	restored := New(store)
	require.NoError(t, restored.Restore(ctx))
	rs := restored.Snapshot()
	assert.True(t, rs.Authenticated())
	assert.Equal(t, "T1", rs.Token)
	assert.Equal(t, "acme", rs.TenantID)
	assert.Equal(t, "Acme", rs.User.Tenant.Name)
}

func TestBegin_PlatformUserClearsTenant(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(ctx, storage.KeyCurrentTenant, "stale"))

	s := New(store)
	require.NoError(t, s.Begin(ctx, "T2", "", &domain.User{ID: "p-1", Role: domain.RolePlatformAdmin}))

	_, err := store.Get(ctx, storage.KeyCurrentTenant)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = store.Get(ctx, storage.KeyRefreshToken)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.Empty(t, s.Snapshot().TenantID)
}

func TestBegin_RejectsEmpty(t *testing.T) {
	s := New(storage.NewMemoryStore())
	assert.ErrorIs(t, s.Begin(context.Background(), "", "", tenantAdmin()), ErrUnauthenticated)
	assert.ErrorIs(t, s.Begin(context.Background(), "T1", "", nil), ErrUnauthenticated)
	assert.Equal(t, StateInitialized, s.Snapshot().State)
}

func TestRestore_Empty(t *testing.T) {
	s := New(storage.NewMemoryStore())
	assert.ErrorIs(t, s.Restore(context.Background()), ErrUnauthenticated)
	assert.Equal(t, StateUnauthenticated, s.Snapshot().State)
}

func TestRestore_UnreadableProfile(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(ctx, storage.KeyAuthToken, "T1"))
	require.NoError(t, store.Set(ctx, storage.KeyUserData, "{broken"))

	s := New(store)
	err := s.Restore(ctx)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnauthenticated)
	assert.False(t, s.Snapshot().Authenticated())
}

func TestRestore_TenantFallsBackToProfile(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(ctx, storage.KeyAuthToken, "T1"))
	require.NoError(t, store.Set(ctx, storage.KeyUserData, `{"id":"u-1","role":"TENANT_USER","tenantId":"acme"}`))

	s := New(store)
	require.NoError(t, s.Restore(ctx))
	assert.Equal(t, "acme", s.Snapshot().TenantID)
}

func TestRestore_TenantRoleIgnoresStoredTenant(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(ctx, storage.KeyAuthToken, "T1"))
	require.NoError(t, store.Set(ctx, storage.KeyUserData, `{"id":"u-1","role":"TENANT_ADMIN","tenantId":"acme"}`))
	require.NoError(t, store.Set(ctx, storage.KeyCurrentTenant, "beta"))

	s := New(store)
	require.NoError(t, s.Restore(ctx))
	assert.Equal(t, "acme", s.Snapshot().TenantID)
}

func TestRestore_PlatformUsesStoredTenant(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(ctx, storage.KeyAuthToken, "T1"))
	require.NoError(t, store.Set(ctx, storage.KeyUserData, `{"id":"u-9","role":"PLATFORM_ADMIN"}`))
	require.NoError(t, store.Set(ctx, storage.KeyCurrentTenant, "beta"))

	s := New(store)
	require.NoError(t, s.Restore(ctx))
	assert.Equal(t, "beta", s.Snapshot().TenantID)
}

func TestReset_Concurrent(t *testing.T) {
	s := New(storage.NewMemoryStore())
	require.NoError(t, s.Begin(context.Background(), "T1", "", tenantAdmin()))

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Reset()
			_ = s.Snapshot()
		}()
	}
	wg.Wait()

	assert.Equal(t, StateUnauthenticated, s.Snapshot().State)
	assert.Equal(t, "unauthenticated", s.Snapshot().State.String())
}
