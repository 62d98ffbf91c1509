package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/i3m/tenant-guard/internal/core/domain"
	"github.com/i3m/tenant-guard/internal/core/ports"
	"github.com/i3m/tenant-guard/internal/infrastructure/metrics"
)

// AuthService implements account creation, login and logout.
type AuthService struct {
	repo        ports.AuthRepository
	tenants     ports.TenantResolver
	issuer      ports.TokenIssuer
	revocations ports.RevocationList
	logger      zerolog.Logger
	now         func() time.Time
}

func NewAuthService(
	repo ports.AuthRepository,
	tenants ports.TenantResolver,
	issuer ports.TokenIssuer,
	revocations ports.RevocationList,
	logger zerolog.Logger,
) *AuthService {
	return &AuthService{
		repo:        repo,
		tenants:     tenants,
		issuer:      issuer,
		revocations: revocations,
		logger:      logger,
		now:         time.Now,
	}
}

// CreateUser hashes the password and stores a new account. Tenant-scoped roles
// must name an existing active tenant; the tenant record is embedded in the user.
func (s *AuthService) CreateUser(ctx context.Context, in ports.NewUserInput) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}
	if !in.Role.Valid() {
		return nil, domain.ErrInvalidRole
	}

	var tenant *domain.Tenant
	if in.Role.TenantScoped() {
		if in.TenantID == "" {
			return nil, domain.ErrTenantRequired
		}
		t, err := s.tenants.Resolve(ctx, in.TenantID)
		if err != nil {
			return nil, err
		}
		tenant = t
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	username := in.Username
	if username == "" {
		username, _, _ = strings.Cut(email, "@")
	}

	now := s.now().UTC()
	user := &domain.User{
		Email:        email,
		Username:     username,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: string(hash),
		Role:         in.Role,
		Department:   in.Department,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if tenant != nil {
		user.TenantID = tenant.ID
		user.Tenant = tenant.Ref()
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, err
	}
	s.logger.Info().
		Str("user_id", created.ID).
		Str("role", created.Role.String()).
		Str("tenant_id", created.TenantID).
		Msg("user created")
	return created, nil
}

// Login checks the password and issues an access and refresh token pair.
// Tenant-scoped users may only log in to their own tenant; tenantID may be empty,
// in which case their bound tenant is used.
func (s *AuthService) Login(ctx context.Context, email, password, tenantID string) (*ports.LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		metrics.LoginAttemptsTotal.WithLabelValues("invalid_credentials").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		metrics.LoginAttemptsTotal.WithLabelValues("invalid_credentials").Inc()
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("invalid_credentials").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	if user.Role.TenantScoped() {
		if err := s.bindTenant(ctx, user, tenantID); err != nil {
			metrics.LoginAttemptsTotal.WithLabelValues("tenant_denied").Inc()
			s.logger.Warn().
				Err(err).
				Str("user_id", user.ID).
				Str("tenant_id", tenantID).
				Msg("login rejected")
			return nil, err
		}
	}

	access, refresh, err := s.issuer.IssuePair(user)
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	s.logger.Info().Str("user_id", user.ID).Str("tenant_id", user.TenantID).Msg("user logged in")
	return &ports.LoginResult{AccessToken: access, RefreshToken: refresh, User: user}, nil
}

// bindTenant checks the requested tenant against the user's binding and refreshes
// the embedded tenant record.
func (s *AuthService) bindTenant(ctx context.Context, user *domain.User, tenantID string) error {
	if user.TenantID == "" {
		return domain.ErrTenantRequired
	}
	if tenantID != "" && tenantID != user.TenantID {
		return domain.ErrTenantForbidden
	}
	tenant, err := s.tenants.Resolve(ctx, user.TenantID)
	if err != nil {
		return err
	}
	user.Tenant = tenant.Ref()
	return nil
}

// Logout revokes the presented access token until it would have expired.
func (s *AuthService) Logout(ctx context.Context, identity *domain.Identity) error {
	if identity == nil || identity.Token == "" {
		return domain.ErrMissingToken
	}
	until := s.now()
	if exp := identity.Claims.ExpiresAt; exp != nil {
		until = exp.Time
	}
	if err := s.revocations.Revoke(ctx, identity.Token, until); err != nil {
		return err
	}
	s.logger.Info().Str("user_id", identity.Claims.SubjectID()).Msg("user logged out")
	return nil
}
