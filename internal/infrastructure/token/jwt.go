package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/i3m/tenant-guard/internal/core/domain"
)

// Config holds JWT signing and verification settings.
type Config struct {
	Secret     string
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	// Leeway tolerates clock skew when checking exp/iat.
	Leeway time.Duration
}

// ErrWrongTokenType is returned when a refresh token is presented where an access
// token is expected.
var ErrWrongTokenType = errors.New("unexpected token type")

// JWT verifies and issues HS256 credential tokens.
// Implements ports.TokenVerifier and ports.TokenIssuer.
type JWT struct {
	cfg    Config
	secret []byte
	parser *jwt.Parser
	now    func() time.Time
}

// New creates a JWT bound to cfg.
func New(cfg Config) *JWT {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 24 * time.Hour
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 7 * 24 * time.Hour
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(cfg.Leeway),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	return &JWT{
		cfg:    cfg,
		secret: []byte(cfg.Secret),
		parser: jwt.NewParser(opts...),
		now:    time.Now,
	}
}

// Verify parses raw and checks its signature, algorithm, expiry and type. The
// returned error wraps the parser's cause so callers can log it; callers must not
// expose it.
func (j *JWT) Verify(raw string) (*domain.Claims, error) {
	claims := &domain.Claims{}
	tkn, err := j.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return j.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("verify token: %w", err)
	}
	if !tkn.Valid {
		return nil, fmt.Errorf("verify token: %w", jwt.ErrTokenSignatureInvalid)
	}
	if claims.Type != "" && claims.Type != domain.TokenTypeAccess {
		return nil, fmt.Errorf("verify token: %w: %s", ErrWrongTokenType, claims.Type)
	}
	if claims.SubjectID() == "" {
		return nil, fmt.Errorf("verify token: %w", jwt.ErrTokenRequiredClaimMissing)
	}
	return claims, nil
}

// IssuePair signs an access token and a refresh token for user.
func (j *JWT) IssuePair(user *domain.User) (string, string, error) {
	access, err := j.sign(user, domain.TokenTypeAccess, j.cfg.AccessTTL)
	if err != nil {
		return "", "", fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := j.sign(user, domain.TokenTypeRefresh, j.cfg.RefreshTTL)
	if err != nil {
		return "", "", fmt.Errorf("issue refresh token: %w", err)
	}
	return access, refresh, nil
}

func (j *JWT) sign(user *domain.User, typ string, ttl time.Duration) (string, error) {
	now := j.now()
	claims := domain.Claims{
		UserID:   user.ID,
		Email:    user.Email,
		Role:     user.Role,
		TenantID: user.TenantID,
		Type:     typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    j.cfg.Issuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
}
