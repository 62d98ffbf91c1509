// Package storage holds the client's two key/value scopes: a persistent store
// that survives restarts and a session-scoped store that lives for one process.
package storage

import (
	"context"
	"errors"
	"sync"
)

// Keys in the persistent store.
const (
	KeyAuthToken     = "authToken"
	KeyRefreshToken  = "refreshToken"
	KeyTenantToken   = "tenantToken"
	KeyUserData      = "userData"
	KeyCurrentTenant = "currentTenant"
	KeyLanguage      = "language"
)

// ErrNotFound is returned by Get for a missing key.
var ErrNotFound = errors.New("storage: key not found")

// Store is a string key/value scope.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
	// Clear removes every key in the scope.
	Clear(ctx context.Context) error
}

// Scopes groups the persistent and session-scoped stores.
type Scopes struct {
	Persistent Store
	Session    Store
}

// ClearAll empties both scopes. Both are attempted even when the first fails;
// the returned error joins every failure.
func (s Scopes) ClearAll(ctx context.Context) error {
	var errs []error
	for _, st := range []Store{s.Persistent, s.Session} {
		if st == nil {
			continue
		}
		if err := st.Clear(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// MemoryStore is an in-process Store, used as the session scope.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *MemoryStore) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.data)
	return nil
}

// Len returns the number of stored keys.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
