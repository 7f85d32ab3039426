package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kassolend/console/internal/credentials"
)

type testBackend struct {
	server      *httptest.Server
	hits        atomic.Int32
	mu          sync.Mutex
	lastHeaders http.Header
	lastQuery   url.Values
}

func newTestBackend(t *testing.T, handler http.HandlerFunc) *testBackend {
	t.Helper()
	b := &testBackend{}
	b.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.hits.Add(1)
		b.mu.Lock()
		b.lastHeaders = r.Header.Clone()
		b.lastQuery = r.URL.Query()
		b.mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(b.server.Close)
	return b
}

func (b *testBackend) header(name string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastHeaders.Get(name)
}

func (b *testBackend) auth() string {
	return b.header("Authorization")
}

func (b *testBackend) query(key string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastQuery.Get(key)
}

type redirectCounter struct {
	count atomic.Int32
}

func (r *redirectCounter) redirect(string) {
	r.count.Add(1)
}

func newTestClient(t *testing.T, baseURL string, store credentials.Store, redirects *redirectCounter, mutate ...func(*Config)) *Client {
	t.Helper()
	cfg := DefaultConfig()
	cfg.BaseURL = baseURL
	cfg.RedirectDelay = time.Millisecond
	cfg.ResetWindow = time.Hour
	for _, m := range mutate {
		m(&cfg)
	}
	return New(cfg, store,
		WithClock(func() time.Time { return fixedNow }),
		WithRedirect(redirects.redirect),
	)
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func TestClient_ValidCredentialWrappedSuccess(t *testing.T) {
	backend := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/dashboard/stats", r.URL.Path)
		writeJSON(w, http.StatusOK, `{"success":true,"message":"ok","data":{"foo":1}}`)
	})
	store := credentials.NewMemoryStore()
	token := tokenExpiringAt(t, fixedNow.Add(61*time.Second))
	require.NoError(t, store.SaveToken(token))
	redirects := &redirectCounter{}
	client := newTestClient(t, backend.server.URL+"/api", store, redirects)

	out, err := Get[map[string]int](context.Background(), client, "/dashboard/stats")

	require.NoError(t, err)
	assert.Equal(t, map[string]int{"foo": 1}, out)
	assert.Equal(t, "Bearer "+token, backend.auth())
	assert.NotEmpty(t, backend.header("X-Request-ID"))

	// No side effects on the credential or the guard
	stored, _ := store.Token()
	assert.Equal(t, token, stored)
	assert.Equal(t, 0, store.Clears())
	assert.False(t, client.Guard().Active())
	assert.Equal(t, int32(0), redirects.count.Load())
}

func TestClient_BareArrayUnchanged(t *testing.T) {
	backend := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `[1,2,3]`)
	})
	client := newTestClient(t, backend.server.URL, credentials.NewMemoryStore(), &redirectCounter{})

	out, err := Get[[]int](context.Background(), client, "/numbers")

	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, out)
}

func TestClient_NoCredentialSendsNoAuthHeader(t *testing.T) {
	backend := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{}`)
	})
	client := newTestClient(t, backend.server.URL, credentials.NewMemoryStore(), &redirectCounter{})

	require.NoError(t, client.Do(context.Background(), http.MethodGet, "/ping", nil, nil))

	assert.Equal(t, int32(1), backend.hits.Load())
	assert.Empty(t, backend.auth())
}

func TestClient_ExpiredCredentialIsCancelledBeforeSend(t *testing.T) {
	backend := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{}`)
	})
	store := credentials.NewMemoryStore()
	require.NoError(t, store.SaveToken(tokenExpiringAt(t, fixedNow.Add(59*time.Second))))
	redirects := &redirectCounter{}
	client := newTestClient(t, backend.server.URL, store, redirects)

	err := client.Do(context.Background(), http.MethodGet, "/customers", nil, nil)

	assert.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, int32(0), backend.hits.Load(), "expired call must not be sent")
	token, _ := store.Token()
	assert.Empty(t, token)
	assert.True(t, client.Guard().Active())
	require.Eventually(t, func() bool { return redirects.count.Load() == 1 }, time.Second, time.Millisecond)
}

func TestClient_MalformedCredentialLetsBackendDecide(t *testing.T) {
	backend := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"success":true,"message":"ok","data":"pong"}`)
	})
	store := credentials.NewMemoryStore()
	require.NoError(t, store.SaveToken("dummy-access-token-123"))
	redirects := &redirectCounter{}
	client := newTestClient(t, backend.server.URL, store, redirects)

	out, err := Get[string](context.Background(), client, "/ping")

	require.NoError(t, err)
	assert.Equal(t, "pong", out)
	assert.Equal(t, "Bearer dummy-access-token-123", backend.auth())
	assert.False(t, client.Guard().Active())
	assert.Equal(t, 0, store.Clears())
}

func TestClient_ConcurrentUnauthorizedLogsOutOnce(t *testing.T) {
	const callers = 20
	var arrived atomic.Int32
	release := make(chan struct{})
	backend := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if arrived.Add(1) == callers {
			close(release)
		}
		select {
		case <-release:
		case <-time.After(5 * time.Second):
		}
		writeJSON(w, http.StatusUnauthorized, `{"success":false,"message":"Token expired","data":null}`)
	})
	store := credentials.NewMemoryStore()
	require.NoError(t, store.SaveToken(tokenExpiringAt(t, fixedNow.Add(time.Hour))))
	redirects := &redirectCounter{}
	client := newTestClient(t, backend.server.URL, store, redirects)

	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = client.Do(context.Background(), http.MethodGet, "/dashboard/stats", nil, nil)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		apiErr, ok := AsError(err)
		require.True(t, ok, "expected normalized error, got %v", err)
		assert.Equal(t, KindUnauthorized, apiErr.Kind)
		assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
		assert.Equal(t, "Token expired", apiErr.Message)
	}

	assert.Equal(t, 1, store.Clears())
	require.Eventually(t, func() bool { return redirects.count.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), redirects.count.Load())
}

func TestClient_CallsDuringLogoutAreCancelled(t *testing.T) {
	backend := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{}`)
	})
	store := credentials.NewMemoryStore()
	client := newTestClient(t, backend.server.URL, store, &redirectCounter{})

	require.True(t, client.ForceLogout("test"))

	for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete} {
		err := client.Do(context.Background(), method, "/customers", map[string]string{"a": "b"}, nil)
		assert.ErrorIs(t, err, ErrCancelled, method)
		_, isNormalized := AsError(err)
		assert.False(t, isNormalized, "cancellation must not be a normalized error")
	}
	assert.Equal(t, int32(0), backend.hits.Load())

	client.Guard().Reset()
	require.NoError(t, client.Do(context.Background(), http.MethodGet, "/customers", nil, nil))
	assert.Equal(t, int32(1), backend.hits.Load())
}

func TestClient_ForbiddenDependsOnConfiguredStatuses(t *testing.T) {
	backend := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusForbidden, `{"message":"Access denied"}`)
	})

	t.Run("default only 401", func(t *testing.T) {
		store := credentials.NewMemoryStore()
		require.NoError(t, store.SaveToken("opaque"))
		client := newTestClient(t, backend.server.URL, store, &redirectCounter{})

		err := client.Do(context.Background(), http.MethodGet, "/users", nil, nil)

		apiErr, ok := AsError(err)
		require.True(t, ok)
		assert.Equal(t, KindResponse, apiErr.Kind)
		assert.Equal(t, "Access denied", apiErr.Error())
		assert.False(t, client.Guard().Active())
		token, _ := store.Token()
		assert.Equal(t, "opaque", token)
	})

	t.Run("401 and 403", func(t *testing.T) {
		store := credentials.NewMemoryStore()
		require.NoError(t, store.SaveToken("opaque"))
		redirects := &redirectCounter{}
		client := newTestClient(t, backend.server.URL, store, redirects, func(c *Config) {
			c.ForcedLogoutStatuses = []int{http.StatusUnauthorized, http.StatusForbidden}
		})

		err := client.Do(context.Background(), http.MethodGet, "/users", nil, nil)

		apiErr, ok := AsError(err)
		require.True(t, ok)
		assert.Equal(t, KindUnauthorized, apiErr.Kind)
		assert.True(t, client.Guard().Active())
		token, _ := store.Token()
		assert.Empty(t, token)
		require.Eventually(t, func() bool { return redirects.count.Load() == 1 }, time.Second, time.Millisecond)
	})
}

func TestClient_ServerErrorKeepsSession(t *testing.T) {
	backend := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, `{"success":false,"data":{"message":"Loan calculator unavailable"}}`)
	})
	store := credentials.NewMemoryStore()
	require.NoError(t, store.SaveToken("opaque"))
	client := newTestClient(t, backend.server.URL, store, &redirectCounter{})

	_, err := Post[map[string]any](context.Background(), client, "/loan-calculator/installment", map[string]int{"principalAmount": 1000})

	apiErr, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, "Loan calculator unavailable", apiErr.Message)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.False(t, client.Guard().Active())
	assert.Equal(t, 0, store.Clears())
}

func TestClient_NetworkFailure(t *testing.T) {
	backend := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {})
	baseURL := backend.server.URL
	backend.server.Close()

	store := credentials.NewMemoryStore()
	require.NoError(t, store.SaveToken("opaque"))
	client := newTestClient(t, baseURL, store, &redirectCounter{})

	err := client.Do(context.Background(), http.MethodGet, "/customers", nil, nil)

	apiErr, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, KindNetwork, apiErr.Kind)
	assert.Equal(t, MsgNetwork, apiErr.Error())
	assert.False(t, client.Guard().Active(), "network failures never log out")
	assert.Equal(t, 0, store.Clears())
}

func TestClient_TimeoutIsNetworkError(t *testing.T) {
	backend := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	client := newTestClient(t, backend.server.URL, credentials.NewMemoryStore(), &redirectCounter{})

	err := client.Do(context.Background(), http.MethodGet, "/slow", nil, nil, WithTimeout(30*time.Millisecond))

	apiErr, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, KindNetwork, apiErr.Kind)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// blockingBackend holds every request until the caller gives up and reports
// when one has arrived
func blockingBackend(t *testing.T) (*testBackend, <-chan struct{}) {
	t.Helper()
	arrived := make(chan struct{}, 1)
	backend := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		arrived <- struct{}{}
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	})
	return backend, arrived
}

func TestClient_CancelDuringLogoutIsSilent(t *testing.T) {
	backend, arrived := blockingBackend(t)
	store := credentials.NewMemoryStore()
	require.NoError(t, store.SaveToken("opaque"))
	client := newTestClient(t, backend.server.URL, store, &redirectCounter{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- client.Do(ctx, http.MethodGet, "/customers", nil, nil) }()

	<-arrived
	require.True(t, client.ForceLogout("status 401 from another call"))
	cancel()

	err := <-done
	assert.ErrorIs(t, err, ErrCancelled)
	_, isNormalized := AsError(err)
	assert.False(t, isNormalized, "cancellation during a logout must not surface as a network error")
}

func TestClient_CallerCancelWithoutLogoutIsNetworkError(t *testing.T) {
	backend, arrived := blockingBackend(t)
	client := newTestClient(t, backend.server.URL, credentials.NewMemoryStore(), &redirectCounter{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- client.Do(ctx, http.MethodGet, "/customers", nil, nil) }()

	<-arrived
	cancel()

	apiErr, ok := AsError(<-done)
	require.True(t, ok)
	assert.Equal(t, KindNetwork, apiErr.Kind)
	assert.False(t, client.Guard().Active())
}

func TestClient_UnencodableBodyIsRequestError(t *testing.T) {
	backend := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {})
	client := newTestClient(t, backend.server.URL, credentials.NewMemoryStore(), &redirectCounter{})

	err := client.Do(context.Background(), http.MethodPost, "/customers", map[string]any{"bad": make(chan int)}, nil)

	apiErr, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, KindRequest, apiErr.Kind)
	assert.Equal(t, MsgUnexpected, apiErr.Error())
	assert.Equal(t, int32(0), backend.hits.Load())
}

func TestClient_AnonymousIgnoresStoredCredential(t *testing.T) {
	backend := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, `{"success":false,"message":"Invalid credentials","data":null}`)
	})
	store := credentials.NewMemoryStore()
	require.NoError(t, store.SaveToken(tokenExpiringAt(t, fixedNow.Add(-time.Hour))))
	client := newTestClient(t, backend.server.URL, store, &redirectCounter{})

	err := client.Do(context.Background(), http.MethodPost, "/auth/signin", map[string]string{"username": "x"}, nil, Anonymous())

	apiErr, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, "Invalid credentials", apiErr.Message)
	assert.Empty(t, backend.auth())
	assert.False(t, client.Guard().Active())
	assert.Equal(t, 0, store.Clears())
}

func TestClient_QueryAndHeaderOptions(t *testing.T) {
	backend := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		writeJSON(w, http.StatusOK, `{"success":true,"message":"ok","data":{"echo":"`+body["name"]+`"}}`)
	})
	client := newTestClient(t, backend.server.URL, credentials.NewMemoryStore(), &redirectCounter{})

	out, err := Put[map[string]string](context.Background(), client, "/customers/1",
		map[string]string{"name": "Wanjiru"},
		WithQuery(url.Values{"page": {"0"}, "size": {"10"}}),
		WithHeader("X-Branch", "nairobi"),
	)

	require.NoError(t, err)
	assert.Equal(t, "Wanjiru", out["echo"])
	assert.Equal(t, "nairobi", backend.header("X-Branch"))
	assert.Equal(t, "0", backend.query("page"))
	assert.Equal(t, "10", backend.query("size"))
}
