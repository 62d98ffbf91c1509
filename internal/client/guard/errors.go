package guard

import (
	"errors"
	"fmt"

	"github.com/i3m/tenant-guard/internal/core/domain"
)

var (
	ErrUnauthorized   = errors.New("guard: role not permitted")
	ErrTenantMismatch = errors.New("guard: route belongs to another tenant")
	ErrTenantUnbound  = errors.New("guard: tenant role without tenant binding")
)

// UnauthorizedError reports the role that a route refused.
type UnauthorizedError struct {
	Role domain.Role
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("guard: role %q not permitted", e.Role)
}

func (e *UnauthorizedError) Is(target error) bool {
	return target == ErrUnauthorized
}
