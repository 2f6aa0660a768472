package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthReady(t *testing.T) {
	ok := pingerFunc(func(context.Context) error { return nil })
	down := pingerFunc(func(context.Context) error { return errors.New("connection refused") })

	cases := []struct {
		name   string
		deps   map[string]Pinger
		status int
	}{
		{name: "all up", deps: map[string]Pinger{"db": ok, "redis": ok}, status: http.StatusOK},
		{name: "redis down", deps: map[string]Pinger{"db": ok, "redis": down}, status: http.StatusServiceUnavailable},
		{name: "nil dependency skipped", deps: map[string]Pinger{"db": ok, "gcs": nil}, status: http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := httptest.NewRecorder()
			HealthReady("test", tc.deps, testLogger())(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
			if resp.Code != tc.status {
				t.Fatalf("expected %d got %d", tc.status, resp.Code)
			}
			if got := resp.Header().Get("X-ChurchHub-Env"); got != "test" {
				t.Fatalf("unexpected env header %q", got)
			}
		})
	}
}

func TestHealthLive(t *testing.T) {
	resp := httptest.NewRecorder()
	HealthLive("dev")(resp, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}
