// Package apiclient talks to the guard API through one shared http.Client with
// the invalidation interceptor installed.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/i3m/tenant-guard/internal/client/invalidation"
	"github.com/i3m/tenant-guard/internal/client/session"
	"github.com/i3m/tenant-guard/internal/core/domain"
)

// Header names sent on guarded calls.
const (
	HeaderTenantID = "X-Tenant-ID"
)

// APIError is a non-2xx response from the API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

// Config configures a Client.
type Config struct {
	BaseURL     string
	Session     *session.Session
	Invalidator *invalidation.Invalidator
	// Tenant is sent as X-Tenant-ID when the session has no tenant binding,
	// which is the case for platform roles.
	Tenant    string
	Transport http.RoundTripper
	Timeout   time.Duration
}

// Client is the API client.
type Client struct {
	base   string
	sess   *session.Session
	inv    *invalidation.Invalidator
	tenant string
	http   *http.Client
}

// New creates a Client and installs the interceptor on its http.Client.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	hc := &http.Client{Transport: cfg.Transport, Timeout: cfg.Timeout}
	if cfg.Invalidator != nil {
		invalidation.Install(hc, cfg.Invalidator)
	}
	return &Client{
		base:   strings.TrimRight(cfg.BaseURL, "/"),
		sess:   cfg.Session,
		inv:    cfg.Invalidator,
		tenant: cfg.Tenant,
		http:   hc,
	}
}

// HTTPClient returns the shared client.
func (c *Client) HTTPClient() *http.Client { return c.http }

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	TenantID string `json:"tenantId,omitempty"`
}

// LoginResult is the data of a successful login.
type LoginResult struct {
	Token        string       `json:"token"`
	RefreshToken string       `json:"refreshToken"`
	User         *domain.User `json:"user"`
}

// Login authenticates and begins the session.
func (c *Client) Login(ctx context.Context, email, password, tenantID string) (*domain.User, error) {
	var res LoginResult
	err := c.do(ctx, http.MethodPost, "/auth/login", loginRequest{email, password, tenantID}, false, &res)
	if err != nil {
		return nil, err
	}
	if err := c.sess.Begin(ctx, res.Token, res.RefreshToken, res.User); err != nil {
		return nil, fmt.Errorf("begin session: %w", err)
	}
	return res.User, nil
}

// Logout revokes the token server side and then clears local state. Local state
// is cleared even when the server call fails.
func (c *Client) Logout(ctx context.Context) error {
	callErr := c.do(ctx, http.MethodPost, "/auth/logout", nil, true, nil)
	if c.inv != nil {
		if err := c.inv.Invalidate(ctx, session.ErrUnauthenticated); err != nil && callErr == nil {
			callErr = err
		}
	}
	return callErr
}

// Me is the identity the server bound to the request.
type Me struct {
	User struct {
		ID       string      `json:"id"`
		Email    string      `json:"email"`
		Role     domain.Role `json:"role"`
		TenantID string      `json:"tenantId"`
	} `json:"user"`
	TenantID string `json:"tenantId"`
}

// Me returns the server's view of the caller.
func (c *Client) Me(ctx context.Context) (*Me, error) {
	var me Me
	if err := c.do(ctx, http.MethodGet, "/v1/me", nil, true, &me); err != nil {
		return nil, err
	}
	return &me, nil
}

// Tenant returns the tenant the request is scoped to.
func (c *Client) Tenant(ctx context.Context) (*domain.Tenant, error) {
	var t domain.Tenant
	if err := c.do(ctx, http.MethodGet, "/v1/tenant", nil, true, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) do(ctx context.Context, method, path string, in any, guarded bool, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if guarded {
		snap := c.sess.Snapshot()
		if !snap.Authenticated() {
			return session.ErrUnauthenticated
		}
		req.Header.Set("Authorization", "Bearer "+snap.Token)
		tenant := snap.TenantID
		if tenant == "" {
			tenant = c.tenant
		}
		if tenant != "" {
			req.Header.Set(HeaderTenantID, tenant)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	decodeErr := json.NewDecoder(resp.Body).Decode(&env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Message: env.Message}
	}
	if decodeErr != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, decodeErr)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("%s %s: decode data: %w", method, path, err)
		}
	}
	return nil
}
