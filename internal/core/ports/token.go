package ports

import "github.com/i3m/tenant-guard/internal/core/domain"

// TokenVerifier checks a credential token's signature and expiry and returns the
// decoded claims. Verification is in-process; implementations must not do I/O.
type TokenVerifier interface {
	Verify(token string) (*domain.Claims, error)
}

// TokenIssuer signs credential tokens for a user.
type TokenIssuer interface {
	IssuePair(user *domain.User) (access, refresh string, err error)
}
