package domain

import "errors"

// Access guard errors.
var (
	ErrMissingToken  = errors.New("no token provided, authorization denied")
	ErrMissingTenant = errors.New("tenant ID is required")
	ErrInvalidToken  = errors.New("token is not valid")
	ErrTokenRevoked  = errors.New("token has been revoked")
)

// Tenant errors.
var (
	ErrTenantNotFound  = errors.New("invalid or inactive tenant")
	ErrTenantInactive  = errors.New("tenant is not active")
	ErrTenantForbidden = errors.New("tenant access denied")
	ErrTenantRequired  = errors.New("tenant-scoped role requires a tenant")
)

// Account errors.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidRole        = errors.New("invalid role")
)

// Rate limiting errors.
var (
	ErrRateLimited = errors.New("rate limit exceeded")
)
