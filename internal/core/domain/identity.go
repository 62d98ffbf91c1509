package domain

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
)

// Token types carried in the "typ" claim.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Claims is the decoded payload of a credential token.
type Claims struct {
	UserID   string `json:"id"`
	Email    string `json:"email,omitempty"`
	Role     Role   `json:"role"`
	TenantID string `json:"tenant_id,omitempty"`
	Type     string `json:"typ,omitempty"`
	jwt.RegisteredClaims
}

// SubjectID returns the user id, falling back to the registered subject.
func (c *Claims) SubjectID() string {
	if c.UserID != "" {
		return c.UserID
	}
	return c.RegisteredClaims.Subject
}

// Identity is the authenticated principal bound to one request: the decoded token
// payload plus the tenant named by the caller.
type Identity struct {
	Claims   Claims
	TenantID string
	// Token is the raw credential, kept for revocation lookups.
	Token string
}

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the identity stored in ctx, if any.
func IdentityFrom(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(*Identity)
	return id, ok && id != nil
}
