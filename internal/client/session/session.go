// Package session holds the client's explicit session object. Route guarding and
// invalidation read and reset it; nothing else keeps authentication state.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/i3m/tenant-guard/internal/client/storage"
	"github.com/i3m/tenant-guard/internal/core/domain"
)

// State is a point in the session lifecycle:
// initialized -> authenticated <-> unauthenticated.
type State int

const (
	StateInitialized State = iota
	StateAuthenticated
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateInitialized:
		return "initialized"
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// ErrUnauthenticated is returned when no usable session exists.
var ErrUnauthenticated = errors.New("session: not authenticated")

// Snapshot is an immutable view of the session at one instant.
type Snapshot struct {
	State    State
	User     *domain.User
	Token    string
	TenantID string
}

// Authenticated reports whether the snapshot carries a logged-in user.
func (s Snapshot) Authenticated() bool {
	return s.State == StateAuthenticated && s.User != nil && s.Token != ""
}

// Role returns the user's role, or "" when unauthenticated.
func (s Snapshot) Role() domain.Role {
	if s.User == nil {
		return ""
	}
	return s.User.Role
}

// Session is safe for concurrent use. The response interceptor and the liveness
// probe may reset it at the same time.
type Session struct {
	mu    sync.RWMutex
	store storage.Store
	snap  Snapshot
}

// New creates a session in the initialized state backed by the persistent store.
func New(store storage.Store) *Session {
	return &Session{store: store, snap: Snapshot{State: StateInitialized}}
}

// Restore loads a previously persisted session. It returns ErrUnauthenticated
// when no token or profile is stored, and a decode error when the stored profile
// is unreadable; in both cases the session becomes unauthenticated.
func (s *Session) Restore(ctx context.Context) error {
	token, err := s.get(ctx, storage.KeyAuthToken)
	if err != nil {
		return s.fail(err)
	}
	raw, err := s.get(ctx, storage.KeyUserData)
	if err != nil {
		return s.fail(err)
	}

	var user domain.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return s.fail(fmt.Errorf("session: decode stored profile: %w", err))
	}

	// Tenant roles are bound to the tenant on their own profile; the stored
	// current tenant only applies to platform users.
	tenantID := user.TenantID
	if !user.Role.TenantScoped() {
		current, err := s.get(ctx, storage.KeyCurrentTenant)
		if err != nil && !errors.Is(err, ErrUnauthenticated) {
			return s.fail(err)
		}
		if current != "" {
			tenantID = current
		}
	}

	s.mu.Lock()
	s.snap = Snapshot{State: StateAuthenticated, User: &user, Token: token, TenantID: tenantID}
	s.mu.Unlock()
	return nil
}

// Begin records a successful login and persists it.
func (s *Session) Begin(ctx context.Context, token, refreshToken string, user *domain.User) error {
	if token == "" || user == nil {
		return ErrUnauthenticated
	}
	profile, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("session: encode profile: %w", err)
	}

	if err := s.store.Set(ctx, storage.KeyAuthToken, token); err != nil {
		return err
	}
	if refreshToken != "" {
		if err := s.store.Set(ctx, storage.KeyRefreshToken, refreshToken); err != nil {
			return err
		}
	}
	if err := s.store.Set(ctx, storage.KeyUserData, string(profile)); err != nil {
		return err
	}
	if user.TenantID != "" {
		err = s.store.Set(ctx, storage.KeyCurrentTenant, user.TenantID)
	} else {
		err = s.store.Delete(ctx, storage.KeyCurrentTenant)
	}
	if err != nil {
		return err
	}

	u := *user
	s.mu.Lock()
	s.snap = Snapshot{State: StateAuthenticated, User: &u, Token: token, TenantID: u.TenantID}
	s.mu.Unlock()
	return nil
}

// Reset drops the in-memory session. Storage is cleared by the invalidator.
func (s *Session) Reset() {
	s.mu.Lock()
	s.snap = Snapshot{State: StateUnauthenticated}
	s.mu.Unlock()
}

// Snapshot returns the current session view.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

func (s *Session) get(ctx context.Context, key string) (string, error) {
	v, err := s.store.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) || (err == nil && v == "") {
		return "", ErrUnauthenticated
	}
	return v, err
}

func (s *Session) fail(err error) error {
	s.Reset()
	return err
}
