package ports

import (
	"context"
	"time"
)

// RevocationList records access tokens that were explicitly logged out before
// they expired.
type RevocationList interface {
	Revoke(ctx context.Context, token string, until time.Time) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}
