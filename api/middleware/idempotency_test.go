package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/churchhub-backend/pkg/errors"
)

type fakeStore struct {
	data map[string]string
	// beforeWrite runs ahead of every Set and Del, while the previous value is still in place.
	beforeWrite func()
}

func (f *fakeStore) hook() {
	if f.beforeWrite != nil {
		hook := f.beforeWrite
		f.beforeWrite = nil
		hook()
	}
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string]string)}
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	if v, ok := f.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (f *fakeStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	str, _ := value.(string)
	f.data[key] = str
	return true, nil
}

func (f *fakeStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	f.hook()
	str, _ := value.(string)
	f.data[key] = str
	return nil
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	f.hook()
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("fake:%s:%s", scope, id)
}

func post(path, key, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set(IdempotencyHeader, key)
	}
	return req
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var payload struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload.Code
}

func TestIsReplayable(t *testing.T) {
	tests := []struct {
		method string
		path   string
		want   bool
	}{
		{http.MethodPost, "/api/v1/sermons", true},
		{http.MethodPost, "/api/v1/sermons/", true},
		{http.MethodPost, "/api/v1/events/5a1c/register", true},
		{http.MethodDelete, "/api/v1/events/5a1c/register", false},
		{http.MethodPost, "/api/v1/events//register", false},
		{http.MethodPost, "/api/v1/prayers/5a1c/pray", false},
		{http.MethodPost, "/api/v1/auth/login", false},
	}
	for _, tt := range tests {
		if got := isReplayable(tt.method, tt.path); got != tt.want {
			t.Fatalf("%s %s: expected %v got %v", tt.method, tt.path, tt.want, got)
		}
	}
}

func TestIdempotencyPassesThroughWithoutHeader(t *testing.T) {
	store := newFakeStore()
	calls := 0
	handler := Idempotency(store, 0, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, post("/api/v1/prayers", "", `{"title":"healing"}`))

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, 1, calls)
	require.Empty(t, store.data)
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	store := newFakeStore()
	calls := 0
	handler := Idempotency(store, 0, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"p-1"}`))
	}))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, post("/api/v1/prayers", "abc", `{"title":"healing"}`))
	require.Equal(t, http.StatusCreated, first.Code)
	require.Empty(t, first.Header().Get(ReplayedHeader))

	replay := httptest.NewRecorder()
	handler.ServeHTTP(replay, post("/api/v1/prayers", "abc", `{"title":"healing"}`))
	require.Equal(t, http.StatusCreated, replay.Code)
	require.Equal(t, "application/json", replay.Header().Get("Content-Type"))
	require.Equal(t, "true", replay.Header().Get(ReplayedHeader))
	require.JSONEq(t, `{"id":"p-1"}`, replay.Body.String())
	require.Equal(t, 1, calls)
}

func TestIdempotencyRejectsDifferentBody(t *testing.T) {
	store := newFakeStore()
	handler := Idempotency(store, 0, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), post("/api/v1/prayers", "xyz", `{"title":"a"}`))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, post("/api/v1/prayers", "xyz", `{"title":"b"}`))
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, string(pkgerrors.CodeIdempotency), errorCode(t, rec))
}

func TestIdempotencyInFlightDuplicateConflicts(t *testing.T) {
	store := newFakeStore()
	var inner http.Handler
	outer := Idempotency(store, 0, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// A duplicate arrives while the first request is still being handled.
		dup := httptest.NewRecorder()
		inner.ServeHTTP(dup, post("/api/v1/events/e1/register", "k1", `{}`))
		if dup.Code != http.StatusConflict {
			t.Errorf("expected in-flight duplicate to conflict, got %d", dup.Code)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	inner = Idempotency(store, 0, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("duplicate must not reach the handler")
	}))

	rec := httptest.NewRecorder()
	outer.ServeHTTP(rec, post("/api/v1/events/e1/register", "k1", `{}`))
	require.Equal(t, http.StatusCreated, rec.Code)
}

func TestIdempotencyServerErrorReleasesKey(t *testing.T) {
	store := newFakeStore()
	calls := 0
	handler := Idempotency(store, 0, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, post("/api/v1/blogs", "retry", `{"title":"x"}`))
	require.Equal(t, http.StatusServiceUnavailable, first.Code)
	require.Empty(t, store.data)

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, post("/api/v1/blogs", "retry", `{"title":"x"}`))
	require.Equal(t, http.StatusCreated, second.Code)
	require.Equal(t, 2, calls)
}

func TestIdempotencyMatchesBehindSubrouter(t *testing.T) {
	store := newFakeStore()
	calls := 0
	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(Idempotency(store, 0, nil))
			r.Route("/sermons", func(r chi.Router) {
				r.Post("/", func(w http.ResponseWriter, r *http.Request) {
					calls++
					w.WriteHeader(http.StatusCreated)
				})
			})
		})
	})

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, post("/api/v1/sermons", "same", `{"title":"grace"}`))
		require.Equal(t, http.StatusCreated, rec.Code)
	}
	require.Equal(t, 1, calls)
}

func TestIdempotencyKeyStaysReservedWhileResponseIsStored(t *testing.T) {
	store := newFakeStore()
	calls := 0
	handler := Idempotency(store, 0, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	}))

	var retry *httptest.ResponseRecorder
	store.beforeWrite = func() {
		// A client retry lands just as the first response is being persisted.
		retry = httptest.NewRecorder()
		handler.ServeHTTP(retry, post("/api/v1/prayers", "race", `{"title":"healing"}`))
	}

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, post("/api/v1/prayers", "race", `{"title":"healing"}`))
	require.Equal(t, http.StatusCreated, first.Code)
	require.NotNil(t, retry)
	require.Equal(t, http.StatusConflict, retry.Code)
	require.Equal(t, 1, calls)

	replay := httptest.NewRecorder()
	handler.ServeHTTP(replay, post("/api/v1/prayers", "race", `{"title":"healing"}`))
	require.Equal(t, http.StatusCreated, replay.Code)
	require.Equal(t, "true", replay.Header().Get(ReplayedHeader))
	require.Equal(t, 1, calls)
}

func TestIdempotencyCapsBufferedBody(t *testing.T) {
	store := newFakeStore()
	calls := 0
	handler := Idempotency(store, 16, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, post("/api/v1/media", "big", strings.Repeat("x", 64)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, string(pkgerrors.CodeValidation), errorCode(t, rec))
	require.Zero(t, calls)
	require.Empty(t, store.data)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, post("/api/v1/media", "small", `{"a":1}`))
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, 1, calls)
}
