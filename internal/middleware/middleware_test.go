package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/instructor-payouts/internal/auth"
	"github.com/josh-kwaku/instructor-payouts/internal/domain"
	"github.com/josh-kwaku/instructor-payouts/internal/handler"
	"github.com/josh-kwaku/instructor-payouts/internal/repository"
)

const testSecret = "middleware-secret"

func okHandler(w http.ResponseWriter, r *http.Request) {
	handler.RespondSuccess(w, http.StatusOK, map[string]string{"ok": "yes"})
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp handler.APIResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.NotNil(t, resp.Error)
	return resp.Error.Code
}

func bearer(t *testing.T, role domain.Role) string {
	t.Helper()
	token, err := auth.GenerateToken(auth.Claims{UserID: uuid.New(), Email: "u@test.com", Role: role}, testSecret, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestAuth(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantCode   string
	}{
		{name: "missing header", header: "", wantStatus: http.StatusUnauthorized, wantCode: "MISSING_TOKEN"},
		{name: "not bearer", header: "Basic abc", wantStatus: http.StatusUnauthorized, wantCode: "INVALID_TOKEN"},
		{name: "garbage token", header: "Bearer nope", wantStatus: http.StatusUnauthorized, wantCode: "INVALID_TOKEN"},
		{name: "valid token", header: bearer(t, domain.RoleInstructor), wantStatus: http.StatusOK},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/payouts", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()

			Auth(testSecret)(http.HandlerFunc(okHandler)).ServeHTTP(rec, req)

			assert.Equal(t, tc.wantStatus, rec.Code)
			if tc.wantCode != "" {
				assert.Equal(t, tc.wantCode, decodeError(t, rec))
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	chain := func(h http.Handler) http.Handler {
		return Auth(testSecret)(RequireRole(domain.RoleAdmin)(h))
	}

	t.Run("admin passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/api/v1/payouts/x/status", nil)
		req.Header.Set("Authorization", bearer(t, domain.RoleAdmin))
		rec := httptest.NewRecorder()

		chain(http.HandlerFunc(okHandler)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("instructor forbidden", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/api/v1/payouts/x/status", nil)
		req.Header.Set("Authorization", bearer(t, domain.RoleInstructor))
		rec := httptest.NewRecorder()

		chain(http.HandlerFunc(okHandler)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "FORBIDDEN", decodeError(t, rec))
	})

	t.Run("without auth", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		RequireRole(domain.RoleAdmin)(http.HandlerFunc(okHandler)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

type fakeIdempotencyRepo struct {
	mu      sync.Mutex
	entries map[string]*repository.IdempotencyCacheEntry
}

func newFakeIdempotencyRepo() *fakeIdempotencyRepo {
	return &fakeIdempotencyRepo{entries: map[string]*repository.IdempotencyCacheEntry{}}
}

func (f *fakeIdempotencyRepo) Get(_ context.Context, key string, userID uuid.UUID) (*repository.IdempotencyCacheEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.entries[key+userID.String()], nil
}

func (f *fakeIdempotencyRepo) Reserve(_ context.Context, e *repository.IdempotencyCacheEntry) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.entries[e.Key+e.UserID.String()]; ok {
		return false, nil
	}
	pending := *e
	pending.StatusCode = 0
	f.entries[e.Key+e.UserID.String()] = &pending
	return true, nil
}

func (f *fakeIdempotencyRepo) Complete(_ context.Context, e *repository.IdempotencyCacheEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := *e
	f.entries[e.Key+e.UserID.String()] = &stored
	return nil
}

func (f *fakeIdempotencyRepo) Release(_ context.Context, key string, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, key+userID.String())
	return nil
}

func TestIdempotency(t *testing.T) {
	repo := newFakeIdempotencyRepo()
	calls := 0
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		handler.RespondSuccess(w, http.StatusCreated, map[string]int{"call": calls})
	})

	claims := &auth.Claims{UserID: uuid.New(), Role: domain.RoleInstructor}
	h := Idempotency(repo)(next)

	do := func(key, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/payouts", strings.NewReader(body))
		if key != "" {
			req.Header.Set(IdempotencyKeyHeader, key)
		}
		req = req.WithContext(auth.ContextWithClaims(req.Context(), claims))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	first := do("k1", `{"amount":100}`)
	require.Equal(t, http.StatusCreated, first.Code)
	assert.Equal(t, 1, calls)

	replay := do("k1", `{"amount":100}`)
	assert.Equal(t, http.StatusCreated, replay.Code)
	assert.Equal(t, "true", replay.Header().Get("X-Idempotent-Replayed"))
	assert.Equal(t, first.Body.String(), replay.Body.String())
	assert.Equal(t, 1, calls, "replay must not reach the handler")

	conflict := do("k1", `{"amount":200}`)
	assert.Equal(t, http.StatusConflict, conflict.Code)
	assert.Equal(t, "IDEMPOTENCY_CONFLICT", decodeError(t, conflict))

	noKey := do("", `{"amount":100}`)
	assert.Equal(t, http.StatusCreated, noKey.Code)
	assert.Equal(t, 2, calls)
}

func TestIdempotency_DoesNotStoreServerErrors(t *testing.T) {
	repo := newFakeIdempotencyRepo()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler.RespondAppError(w, handler.ErrInternalError, nil)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payouts", strings.NewReader(`{}`))
	req.Header.Set(IdempotencyKeyHeader, "k2")
	req = req.WithContext(auth.ContextWithClaims(req.Context(), &auth.Claims{UserID: uuid.New(), Role: domain.RoleInstructor}))
	rec := httptest.NewRecorder()

	Idempotency(repo)(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Empty(t, repo.entries)
}

func TestIdempotency_ConcurrentSameKeyRunsOnce(t *testing.T) {
	repo := newFakeIdempotencyRepo()
	var (
		mu    sync.Mutex
		calls int
	)
	started := make(chan struct{})
	release := make(chan struct{})
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		close(started)
		<-release
		handler.RespondSuccess(w, http.StatusCreated, map[string]string{"id": "p1"})
	})
	h := Idempotency(repo)(next)
	claims := &auth.Claims{UserID: uuid.New(), Role: domain.RoleInstructor}

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/payouts", strings.NewReader(`{"amount":100}`))
		req.Header.Set(IdempotencyKeyHeader, "same-key")
		req = req.WithContext(auth.ContextWithClaims(req.Context(), claims))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	firstDone := make(chan *httptest.ResponseRecorder)
	go func() { firstDone <- do() }()
	<-started

	second := do()
	assert.Equal(t, http.StatusConflict, second.Code)
	assert.Equal(t, "IDEMPOTENCY_IN_FLIGHT", decodeError(t, second))

	close(release)
	first := <-firstDone
	assert.Equal(t, http.StatusCreated, first.Code)

	third := do()
	assert.Equal(t, http.StatusCreated, third.Code)
	assert.Equal(t, "true", third.Header().Get("X-Idempotent-Replayed"))
	assert.Equal(t, first.Body.String(), third.Body.String())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls)
}

func TestRecovery(t *testing.T) {
	panicky := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	rec := httptest.NewRecorder()
	Recovery(panicky).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "INTERNAL_ERROR", decodeError(t, rec))
}

func TestRecovery_AfterResponseStarted(t *testing.T) {
	panicky := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler.RespondSuccess(w, http.StatusCreated, map[string]string{"id": "p1"})
		panic("late failure")
	})

	rec := httptest.NewRecorder()
	Recovery(panicky).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))

	assert.Equal(t, http.StatusCreated, rec.Code)
	var resp handler.APIResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Success)
	assert.False(t, json.NewDecoder(rec.Body).More(), "no second envelope appended")
}

func TestRecovery_RepanicsOnAbort(t *testing.T) {
	aborting := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	})

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		Recovery(aborting).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

func TestTracing(t *testing.T) {
	var seen string
	h := Tracing(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "req-123", seen)
	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	for _, bad := range []string{"has space", "line\nbreak", strings.Repeat("a", 65)} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", bad)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.NotEqual(t, bad, seen)
		_, err := uuid.Parse(seen)
		assert.NoError(t, err)
	}
}
