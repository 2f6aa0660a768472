package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeWindowStore struct {
	mu     sync.Mutex
	counts map[string]int64
	err    error
}

func newFakeWindowStore() *fakeWindowStore {
	return &fakeWindowStore{counts: map[string]int64{}}
}

func (f *fakeWindowStore) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	if f.err != nil {
		return false, 0, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[scope]++
	return f.counts[scope] <= limit, f.counts[scope], nil
}

func (f *fakeWindowStore) scopes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.counts))
	for k := range f.counts {
		out = append(out, k)
	}
	return out
}

func TestAuthRateLimit_PreservesBodyForHandler(t *testing.T) {
	store := newFakeWindowStore()
	policy := RateLimitPolicy{Name: "login", Window: time.Minute, IPLimit: 5, CredentialLimit: 5}
	handler := AuthRateLimit(policy, store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read body: %v", err)
		}
		if !strings.Contains(string(body), `"email":"pastor@example.org"`) {
			t.Errorf("unexpected body: %s", body)
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/admin/login", strings.NewReader(`{"email":"pastor@example.org","password":"secret"}`))
	req.RemoteAddr = "10.0.0.1:5000"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, store.scopes(), 2)
}

func TestAuthRateLimit_EmailCredentialBlocksAcrossIPs(t *testing.T) {
	store := newFakeWindowStore()
	policy := RateLimitPolicy{Name: "login", Window: time.Minute, CredentialLimit: 2}
	handler := AuthRateLimit(policy, store, nil)(okHandler())

	for i, ip := range []string{"10.0.0.1:1", "10.0.0.2:1", "10.0.0.3:1"} {
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"email":" Pastor@Example.org "}`))
		req.RemoteAddr = ip
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if i < 2 {
			require.Equal(t, http.StatusOK, rec.Code, "attempt %d", i)
			continue
		}
		require.Equal(t, http.StatusTooManyRequests, rec.Code)
		require.Equal(t, "60", rec.Header().Get("Retry-After"))
	}
}

func TestAuthRateLimit_MemberTokenIsTheCredential(t *testing.T) {
	store := newFakeWindowStore()
	policy := RateLimitPolicy{Name: "login", Window: time.Minute, CredentialLimit: 1}
	handler := AuthRateLimit(policy, store, nil)(okHandler())

	send := func(token string) int {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	require.Equal(t, http.StatusOK, send("id-token-a"))
	require.Equal(t, http.StatusTooManyRequests, send("id-token-a"))
	require.Equal(t, http.StatusOK, send("id-token-b"))
	for _, scope := range store.scopes() {
		require.NotContains(t, scope, "id-token", "raw tokens must not reach redis keys")
	}
}

func TestAuthRateLimit_IPLimitUsesForwardedFor(t *testing.T) {
	store := newFakeWindowStore()
	policy := RateLimitPolicy{Name: "register", Window: time.Minute, IPLimit: 1}
	handler := AuthRateLimit(policy, store, nil)(okHandler())

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/register", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if i == 1 {
			require.Equal(t, http.StatusTooManyRequests, rec.Code)
		}
	}
	require.Equal(t, []string{"register:ip:203.0.113.9"}, store.scopes())
}

func TestAuthRateLimit_StoreFailureIsDependencyError(t *testing.T) {
	store := newFakeWindowStore()
	store.err = errors.New("redis down")
	policy := RateLimitPolicy{Name: "login", Window: time.Minute, IPLimit: 3}
	handler := AuthRateLimit(policy, store, nil)(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = "10.0.0.1:1"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAuthRateLimit_DisabledPolicyPassesThrough(t *testing.T) {
	policy := RateLimitPolicy{Name: "login"}
	handler := AuthRateLimit(policy, newFakeWindowStore(), nil)(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}
