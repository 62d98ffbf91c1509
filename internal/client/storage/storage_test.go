package storage

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*miniredis.Miniredis, *RedisStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewRedisStore(client, "alice")
}

func TestStores(t *testing.T) {
	_, rs := newRedisStore(t)
	stores := map[string]Store{
		"memory": NewMemoryStore(),
		"redis":  rs,
	}

	for name, s := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := s.Get(ctx, KeyAuthToken)
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Set(ctx, KeyAuthToken, "tok"))
			require.NoError(t, s.Set(ctx, KeyCurrentTenant, "acme"))

			v, err := s.Get(ctx, KeyAuthToken)
			require.NoError(t, err)
			assert.Equal(t, "tok", v)

			require.NoError(t, s.Delete(ctx, KeyAuthToken))
			_, err = s.Get(ctx, KeyAuthToken)
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Clear(ctx))
			_, err = s.Get(ctx, KeyCurrentTenant)
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestRedisStore_ProfileIsolation(t *testing.T) {
	mr, alice := newRedisStore(t)
	bob := NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "bob")
	ctx := context.Background()

	require.NoError(t, alice.Set(ctx, KeyAuthToken, "a"))
	_, err := bob.Get(ctx, KeyAuthToken)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.True(t, mr.Exists("session:alice"))

	keys, err := alice.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{KeyAuthToken}, keys)
}

type failingStore struct{ *MemoryStore }

func (f failingStore) Clear(context.Context) error { return errors.New("disk full") }

func TestScopes_ClearAll(t *testing.T) {
	ctx := context.Background()
	persistent, session := NewMemoryStore(), NewMemoryStore()
	require.NoError(t, persistent.Set(ctx, KeyAuthToken, "tok"))
	require.NoError(t, session.Set(ctx, "draft", "x"))

	require.NoError(t, Scopes{Persistent: persistent, Session: session}.ClearAll(ctx))
	assert.Zero(t, persistent.Len())
	assert.Zero(t, session.Len())
}

func TestScopes_ClearAll_AttemptsBoth(t *testing.T) {
	ctx := context.Background()
	session := NewMemoryStore()
	require.NoError(t, session.Set(ctx, "draft", "x"))

	err := Scopes{Persistent: failingStore{NewMemoryStore()}, Session: session}.ClearAll(ctx)
	assert.ErrorContains(t, err, "disk full")
	assert.Zero(t, session.Len(), "session scope must be cleared even when the persistent one fails")
}

func TestMigrate(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	legacy := map[string]string{
		"user_data":        `{"id":"u1","email":"a@acme.test","platformRoles":[{"groupId":"g1"}],"tenantId":"acme"}`,
		"authUser":         `{"id":"stale"}`,
		"authRefreshToken": "refresh-1",
		"i3m-language":     "es",
		"token":            "tok-1",
		"user":             "whatever",
	}
	for k, v := range legacy {
		require.NoError(t, s.Set(ctx, k, v))
	}
	require.NoError(t, s.Set(ctx, KeyLanguage, "en"))

	report, err := Migrate(ctx, s, zerolog.Nop())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"user_data", "authRefreshToken", "i3m-language", "token"}, report.Migrated)
	assert.Len(t, report.Removed, len(legacy))

	for k := range legacy {
		_, err := s.Get(ctx, k)
		assert.ErrorIs(t, err, ErrNotFound, "legacy key %s should be removed", k)
	}

	profile, err := s.Get(ctx, KeyUserData)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"u1","email":"a@acme.test","userGroups":[{"groupId":"g1"}],"tenantId":"acme"}`, profile)

	for key, want := range map[string]string{KeyRefreshToken: "refresh-1", KeyLanguage: "es", KeyAuthToken: "tok-1"} {
		got, err := s.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	again, err := Migrate(ctx, s, zerolog.Nop())
	require.NoError(t, err)
	assert.Empty(t, again.Removed)
}

func TestMigrate_KeepsCurrentValues(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Set(ctx, KeyUserData, `{"id":"current"}`))
	require.NoError(t, s.Set(ctx, "user_data", `{"id":"old"}`))
	require.NoError(t, s.Set(ctx, KeyAuthToken, "new-token"))
	require.NoError(t, s.Set(ctx, "token", "old-token"))

	_, err := Migrate(ctx, s, zerolog.Nop())
	require.NoError(t, err)

	profile, _ := s.Get(ctx, KeyUserData)
	assert.Equal(t, `{"id":"current"}`, profile)
	tok, _ := s.Get(ctx, KeyAuthToken)
	assert.Equal(t, "new-token", tok)
	_, err = s.Get(ctx, "user_data")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMigrate_UnreadableProfileDropped(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Set(ctx, "user_data", "{not json"))

	report, err := Migrate(ctx, s, zerolog.Nop())
	require.NoError(t, err)
	assert.Empty(t, report.Migrated)
	assert.Equal(t, []string{"user_data"}, report.Removed)
	_, err = s.Get(ctx, KeyUserData)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRenamePlatformRoles(t *testing.T) {
	in := `{"id":"u1","firstName":"Ann","platformRoles":[{"groupId":"g1","groupName":"Ops","role":"member"}],"meta":{"n":1}}`

	out, err := RenamePlatformRoles(in)
	require.NoError(t, err)

	var before, after map[string]any
	require.NoError(t, json.Unmarshal([]byte(in), &before))
	require.NoError(t, json.Unmarshal([]byte(out), &after))

	assert.NotContains(t, after, "platformRoles")
	assert.Equal(t, before["platformRoles"], after["userGroups"])
	delete(before, "platformRoles")
	delete(after, "userGroups")
	assert.Equal(t, before, after, "other fields must be unchanged")

	same, err := RenamePlatformRoles(`{"id":"u1"}`)
	require.NoError(t, err)
	assert.Equal(t, `{"id":"u1"}`, same)

	_, err = RenamePlatformRoles("[]")
	assert.Error(t, err)
}
