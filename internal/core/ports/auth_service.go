package ports

import (
	"context"

	"github.com/i3m/tenant-guard/internal/core/domain"
)

// NewUserInput carries the fields required to create an account.
type NewUserInput struct {
	Email      string
	Username   string
	Password   string
	FirstName  string
	LastName   string
	Department string
	Role       domain.Role
	TenantID   string
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	User         *domain.User
}

type AuthService interface {
	CreateUser(ctx context.Context, in NewUserInput) (*domain.User, error)
	Login(ctx context.Context, email, password, tenantID string) (*LoginResult, error)
	Logout(ctx context.Context, identity *domain.Identity) error
}
