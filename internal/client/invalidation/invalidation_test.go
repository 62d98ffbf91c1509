package invalidation

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i3m/tenant-guard/internal/client/session"
	"github.com/i3m/tenant-guard/internal/client/storage"
	"github.com/i3m/tenant-guard/internal/core/domain"
)

type fakeNav struct {
	mu      sync.Mutex
	path    string
	visited []string
}

func (n *fakeNav) CurrentPath() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.path
}

func (n *fakeNav) Navigate(p string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.path = p
	n.visited = append(n.visited, p)
}

func (n *fakeNav) Visited() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.visited...)
}

type fixture struct {
	persistent *storage.MemoryStore
	scoped     *storage.MemoryStore
	sess       *session.Session
	nav        *fakeNav
	inv        *Invalidator
}

func newFixture(t *testing.T, path string) *fixture {
	t.Helper()
	ctx := context.Background()
	f := &fixture{
		persistent: storage.NewMemoryStore(),
		scoped:     storage.NewMemoryStore(),
		nav:        &fakeNav{path: path},
	}
	f.sess = session.New(f.persistent)
	require.NoError(t, f.sess.Begin(ctx, "T1", "R1", &domain.User{
		ID: "u-1", Role: domain.RoleTenantAdmin, TenantID: "acme",
		Tenant: &domain.TenantRef{ID: "acme"},
	}))
	require.NoError(t, f.scoped.Set(ctx, "draft", "x"))
	f.inv = NewInvalidator(storage.Scopes{Persistent: f.persistent, Session: f.scoped}, f.sess, f.nav, zerolog.Nop())
	return f
}

func (f *fixture) assertCleared(t *testing.T) {
	t.Helper()
	assert.Zero(t, f.persistent.Len(), "persistent store not empty")
	assert.Zero(t, f.scoped.Len(), "session store not empty")
	assert.Equal(t, session.StateUnauthenticated, f.sess.Snapshot().State)
}

func TestInvalidate(t *testing.T) {
	f := newFixture(t, "/tenant/acme/dashboard")

	require.NoError(t, f.inv.Invalidate(context.Background(), errors.New("test")))
	f.assertCleared(t)
	assert.Equal(t, []string{"/login"}, f.nav.Visited())

	require.NoError(t, f.inv.Invalidate(context.Background(), errors.New("again")))
	assert.Equal(t, []string{"/login"}, f.nav.Visited(), "already on login")
}

func TestInvalidate_NoNavigator(t *testing.T) {
	f := newFixture(t, "")
	inv := NewInvalidator(storage.Scopes{Persistent: f.persistent, Session: f.scoped}, f.sess, nil, zerolog.Nop())

	require.NoError(t, inv.Invalidate(context.Background(), nil))
	f.assertCleared(t)
}

func TestInterceptor_ForbiddenClearsBothStores(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `{"success":false,"message":"Tenant access denied"}`)
	}))
	defer srv.Close()

	f := newFixture(t, "/tenant/acme/dashboard")
	client := &http.Client{}
	Install(client, f.inv)

	resp, err := client.Get(srv.URL + "/v1/tenant")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "Tenant access denied")

	f.assertCleared(t)
	assert.Equal(t, "/login", f.nav.CurrentPath())
}

func TestInterceptor_StatusHandling(t *testing.T) {
	cases := map[int]bool{
		http.StatusOK:                  false,
		http.StatusBadRequest:          false,
		http.StatusUnauthorized:        true,
		http.StatusForbidden:           true,
		http.StatusTooManyRequests:     false,
		http.StatusInternalServerError: false,
	}
	for status, invalidates := range cases {
		t.Run(http.StatusText(status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(status)
			}))
			defer srv.Close()

			f := newFixture(t, "/tenant/acme/dashboard")
			client := &http.Client{}
			Install(client, f.inv)

			resp, err := client.Get(srv.URL)
			require.NoError(t, err)
			resp.Body.Close()

			assert.Equal(t, invalidates, f.persistent.Len() == 0)
			assert.Equal(t, invalidates, !f.sess.Snapshot().Authenticated())
		})
	}
}

func TestInstall_Once(t *testing.T) {
	f := newFixture(t, "/")
	client := &http.Client{}
	Install(client, f.inv)
	first := client.Transport
	Install(client, f.inv)

	assert.Same(t, first, client.Transport)
	_, nested := first.(*Interceptor).next.(*Interceptor)
	assert.False(t, nested)
}

func TestInterceptor_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	f := newFixture(t, "/")
	client := &http.Client{}
	Install(client, f.inv)

	_, err := client.Get(url)
	require.Error(t, err)
	assert.True(t, f.sess.Snapshot().Authenticated(), "transport errors are left to the probe")
}

type health struct {
	up   atomic.Bool
	hits atomic.Int32
}

func (h *health) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	h.hits.Add(1)
	if h.up.Load() {
		w.WriteHeader(http.StatusOK)
		return
	}
	w.WriteHeader(http.StatusServiceUnavailable)
}

func TestProbe_CallbackOncePerTransition(t *testing.T) {
	h := &health{}
	srv := httptest.NewServer(h)
	defer srv.Close()

	f := newFixture(t, "/tenant/acme/dashboard")
	var calls atomic.Int32
	p := NewProbe(ProbeConfig{
		URL:             srv.URL + "/health",
		Invalidator:     f.inv,
		OnServerRestart: func() { calls.Add(1) },
		Logger:          zerolog.Nop(),
	})
	ctx := context.Background()

	h.up.Store(true)
	require.NoError(t, p.Check(ctx))
	assert.False(t, p.Restarted())
	assert.True(t, f.sess.Snapshot().Authenticated())

	h.up.Store(false)
	for range 3 {
		assert.ErrorIs(t, p.Check(ctx), ErrServiceUnavailable)
	}
	assert.Equal(t, int32(1), calls.Load())
	assert.True(t, p.Restarted())
	f.assertCleared(t)

	h.up.Store(true)
	require.NoError(t, p.Check(ctx))
	assert.True(t, p.Restarted(), "latch holds until acknowledged")
	p.Acknowledge()
	assert.False(t, p.Restarted())

	h.up.Store(false)
	assert.Error(t, p.Check(ctx))
	assert.Equal(t, int32(2), calls.Load())
}

func TestProbe_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	f := newFixture(t, "/tenant/acme/dashboard")
	var calls atomic.Int32
	p := NewProbe(ProbeConfig{
		URL:             url + "/health",
		Invalidator:     f.inv,
		OnServerRestart: func() { calls.Add(1) },
	})

	assert.ErrorIs(t, p.Check(context.Background()), ErrServiceUnavailable)
	assert.ErrorIs(t, p.Check(context.Background()), ErrServiceUnavailable)
	assert.Equal(t, int32(1), calls.Load())
	f.assertCleared(t)
	assert.Empty(t, f.nav.Visited(), "the host shows an overlay instead of navigating")
}

func TestProbe_SkipsOverlappingCheck(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			close(entered)
			<-release
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := NewProbe(ProbeConfig{URL: srv.URL})

	done := make(chan error, 1)
	go func() { done <- p.Check(context.Background()) }()
	<-entered

	assert.NoError(t, p.Check(context.Background()))
	assert.Equal(t, int32(1), hits.Load())

	close(release)
	require.NoError(t, <-done)
}

func TestProbe_StartAndStop(t *testing.T) {
	h := &health{}
	h.up.Store(true)
	srv := httptest.NewServer(h)
	defer srv.Close()

	p := NewProbe(ProbeConfig{URL: srv.URL, Interval: 10 * time.Millisecond})
	handle := p.Start(context.Background())

	require.Eventually(t, func() bool { return h.hits.Load() >= 3 }, time.Second, 5*time.Millisecond)

	handle.Stop()
	handle.Stop()
	select {
	case <-handle.Done():
	default:
		t.Fatal("loop still running after Stop")
	}

	after := h.hits.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, after, h.hits.Load())
}

func TestProbe_ImmediateCheckAndContextCancel(t *testing.T) {
	h := &health{}
	h.up.Store(true)
	srv := httptest.NewServer(h)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	p := NewProbe(ProbeConfig{URL: srv.URL, Interval: time.Hour})
	handle := p.Start(ctx)

	require.Eventually(t, func() bool { return h.hits.Load() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-handle.Done():
	case <-time.After(time.Second):
		t.Fatal("loop did not exit on context cancel")
	}
}
