package invalidation

import (
	"fmt"
	"net/http"
)

// Interceptor is an http.RoundTripper that invalidates the session on every
// 401 or 403 response. The response is returned to the caller unchanged.
type Interceptor struct {
	next http.RoundTripper
	inv  *Invalidator
}

// NewInterceptor wraps next, or http.DefaultTransport when next is nil.
func NewInterceptor(next http.RoundTripper, inv *Invalidator) *Interceptor {
	if next == nil {
		next = http.DefaultTransport
	}
	return &Interceptor{next: next, inv: inv}
}

func (t *Interceptor) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.next.RoundTrip(req)
	if err != nil {
		return resp, err
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		reason := fmt.Errorf("%s %s: %s", req.Method, req.URL.Path, resp.Status)
		_ = t.inv.Invalidate(req.Context(), reason)
	}
	return resp, nil
}

// Install places an Interceptor on client. Installing twice is a no-op.
func Install(client *http.Client, inv *Invalidator) {
	if _, ok := client.Transport.(*Interceptor); ok {
		return
	}
	client.Transport = NewInterceptor(client.Transport, inv)
}
