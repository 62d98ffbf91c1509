package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/i3m/tenant-guard/internal/core/domain"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestConnect(t *testing.T) {
	mr, _ := newTestClient(t)

	client, err := Connect(context.Background(), Config{Addr: mr.Addr()})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	_ = client.Close()

	mr.Close()
	if _, err := Connect(context.Background(), Config{Addr: mr.Addr(), Timeout: 200 * time.Millisecond}); err == nil {
		t.Fatalf("expected error connecting to a stopped server")
	}
}

func TestRevocationList(t *testing.T) {
	mr, client := newTestClient(t)
	list := NewRevocationList(client)
	ctx := context.Background()

	revoked, err := list.IsRevoked(ctx, "tok")
	if err != nil || revoked {
		t.Fatalf("expected not revoked, got %v, %v", revoked, err)
	}

	if err := list.Revoke(ctx, "tok", time.Now().Add(time.Minute)); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if revoked, _ := list.IsRevoked(ctx, "tok"); !revoked {
		t.Fatalf("expected revoked")
	}
	for _, k := range mr.Keys() {
		if k == "revoked:tok" {
			t.Fatalf("raw token stored as key")
		}
	}

	mr.FastForward(2 * time.Minute)
	if revoked, _ := list.IsRevoked(ctx, "tok"); revoked {
		t.Fatalf("expected revocation to expire with the token")
	}
}

func TestRevocationList_SkipsExpiredTokens(t *testing.T) {
	mr, client := newTestClient(t)
	list := NewRevocationList(client)

	if err := list.Revoke(context.Background(), "old", time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if n := len(mr.Keys()); n != 0 {
		t.Fatalf("expected no keys, got %d", n)
	}
}

func TestTenantCache(t *testing.T) {
	mr, client := newTestClient(t)
	cache := NewTenantCache(client, time.Minute)
	ctx := context.Background()

	if _, ok, err := cache.Get(ctx, "acme"); ok || err != nil {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}

	want := &domain.Tenant{ID: "acme", Name: "Acme: West", Subdomain: "acme", Status: domain.TenantStatusActive, Plan: domain.PlanPro}
	if err := cache.Set(ctx, want); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, ok, err := cache.Get(ctx, "acme")
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if *got != *want {
		t.Fatalf("got %+v, want %+v", got, want)
	}

	mr.FastForward(2 * time.Minute)
	if _, ok, _ := cache.Get(ctx, "acme"); ok {
		t.Fatalf("expected entry to expire")
	}
}

func TestTenantCache_UnreadableEntryIsMiss(t *testing.T) {
	mr, client := newTestClient(t)
	if err := mr.Set("tenant:acme", "garbage"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, ok, err := NewTenantCache(client, 0).Get(context.Background(), "acme"); ok || err != nil {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
}
