package ports

import (
	"context"

	"github.com/i3m/tenant-guard/internal/core/domain"
)

// AuthRepository stores login accounts keyed by lowercased email.
type AuthRepository interface {
	// FindByEmail returns domain.ErrUserNotFound for an unknown address.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// Create assigns the id and returns domain.ErrUserExists when the email is taken.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
}
