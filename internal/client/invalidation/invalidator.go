// Package invalidation wipes client session state when the server rejects a
// credential or stops answering its liveness probe.
package invalidation

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/i3m/tenant-guard/internal/client/guard"
	"github.com/i3m/tenant-guard/internal/client/session"
	"github.com/i3m/tenant-guard/internal/client/storage"
)

// ErrServiceUnavailable is the reason recorded when the liveness probe fails.
var ErrServiceUnavailable = errors.New("invalidation: service unavailable")

// Navigator moves the host UI to another route.
type Navigator interface {
	CurrentPath() string
	Navigate(path string)
}

// Invalidator clears both storage scopes and resets the session. Safe to call
// concurrently and repeatedly.
type Invalidator struct {
	stores    storage.Scopes
	session   *session.Session
	nav       Navigator
	loginPath string
	log       zerolog.Logger
}

// NewInvalidator creates an Invalidator. nav may be nil for headless hosts.
func NewInvalidator(stores storage.Scopes, sess *session.Session, nav Navigator, log zerolog.Logger) *Invalidator {
	return &Invalidator{
		stores:    stores,
		session:   sess,
		nav:       nav,
		loginPath: guard.DefaultLoginPath,
		log:       log,
	}
}

// Clear wipes every stored key in both scopes and resets the session.
// The session is reset even when a store fails.
func (i *Invalidator) Clear(ctx context.Context, reason error) error {
	err := i.stores.ClearAll(ctx)
	if i.session != nil {
		i.session.Reset()
	}
	ev := i.log.Info()
	if err != nil {
		ev = i.log.Error().AnErr("clear_error", err)
	}
	ev.AnErr("reason", reason).Msg("session invalidated")
	return err
}

// Invalidate clears the session and navigates to login unless already there.
func (i *Invalidator) Invalidate(ctx context.Context, reason error) error {
	err := i.Clear(ctx, reason)
	if i.nav != nil && i.nav.CurrentPath() != i.loginPath {
		i.nav.Navigate(i.loginPath)
	}
	return err
}
