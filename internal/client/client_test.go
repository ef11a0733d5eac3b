package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intelink/console/internal/apperr"
)

// fakeBackend accepts "Bearer <valid>" on /url and issues <valid> on refresh.
type fakeBackend struct {
	valid        string
	refreshOK    bool
	refreshDelay time.Duration
	alwaysDeny   bool
	// holdStale delays 401 answers until that many stale requests arrived.
	holdStale int

	staleMu   sync.Mutex
	staleSeen int
	release   chan struct{}

	refreshCalls   atomic.Int32
	protectedCalls atomic.Int32
	lastRefresh    atomic.Value
}

func (f *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		f.refreshCalls.Add(1)
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.lastRefresh.Store(body["refresh_token"])
		if r.Header.Get("Authorization") != "" {
			http.Error(w, `{"message":"refresh must be anonymous"}`, http.StatusBadRequest)
			return
		}
		if f.refreshDelay > 0 {
			time.Sleep(f.refreshDelay)
		}
		if !f.refreshOK {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"refresh token expired"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(TokenPair{AccessToken: f.valid, RefreshToken: "refresh-2"})
	})
	mux.HandleFunc("/api/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Invalid credentials"}`))
	})
	mux.HandleFunc("/url", func(w http.ResponseWriter, r *http.Request) {
		f.protectedCalls.Add(1)
		if f.alwaysDeny || r.Header.Get("Authorization") != "Bearer "+f.valid {
			f.waitForStale()
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"Token expired"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"shortCode": "abc123"})
	})
	return mux
}

func (f *fakeBackend) waitForStale() {
	if f.holdStale == 0 {
		return
	}
	f.staleMu.Lock()
	if f.release == nil {
		f.release = make(chan struct{})
	}
	f.staleSeen++
	if f.staleSeen == f.holdStale {
		close(f.release)
	}
	release := f.release
	f.staleMu.Unlock()

	select {
	case <-release:
	case <-time.After(5 * time.Second):
	}
}

func newTestClient(t *testing.T, f *fakeBackend, access, refresh string) (*Client, *MemoryStore) {
	t.Helper()
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)
	store := NewMemoryStore(access, refresh)
	return New(srv.URL, store, WithTimeout(5*time.Second)), store
}

func TestDoAttachesBearerToken(t *testing.T) {
	f := &fakeBackend{valid: "good"}
	c, _ := newTestClient(t, f, "good", "refresh-1")

	var out map[string]string
	require.NoError(t, c.Do(context.Background(), http.MethodGet, "/url", nil, &out))
	assert.Equal(t, "abc123", out["shortCode"])
	assert.Equal(t, int32(0), f.refreshCalls.Load())
	assert.Equal(t, int32(1), f.protectedCalls.Load())
}

func TestUnauthorizedRefreshesOnceAndRetries(t *testing.T) {
	f := &fakeBackend{valid: "fresh", refreshOK: true}
	c, store := newTestClient(t, f, "stale", "refresh-1")

	var out map[string]string
	require.NoError(t, c.Do(context.Background(), http.MethodGet, "/url", nil, &out))

	assert.Equal(t, "abc123", out["shortCode"])
	assert.Equal(t, int32(1), f.refreshCalls.Load())
	assert.Equal(t, int32(2), f.protectedCalls.Load())
	assert.Equal(t, "refresh-1", f.lastRefresh.Load())

	access, refresh, _ := store.Tokens(context.Background())
	assert.Equal(t, "fresh", access)
	assert.Equal(t, "refresh-2", refresh)
}

func TestSecondUnauthorizedDoesNotRefreshAgain(t *testing.T) {
	f := &fakeBackend{valid: "fresh", refreshOK: true, alwaysDeny: true}
	c, _ := newTestClient(t, f, "stale", "refresh-1")

	err := c.Do(context.Background(), http.MethodGet, "/url", nil, nil)
	require.Error(t, err)

	assert.True(t, apperr.IsAuth(err))
	assert.Equal(t, http.StatusUnauthorized, apperr.StatusOf(err))
	assert.Equal(t, int32(1), f.refreshCalls.Load())
	assert.Equal(t, int32(2), f.protectedCalls.Load())
}

func TestFailedRefreshClearsTokensAndReturnsOriginalError(t *testing.T) {
	f := &fakeBackend{valid: "fresh", refreshOK: false}
	c, store := newTestClient(t, f, "stale", "refresh-1")

	err := c.Do(context.Background(), http.MethodGet, "/url", nil, nil)
	require.Error(t, err)

	assert.Equal(t, "Token expired", apperr.Message(err))
	assert.Equal(t, int32(1), f.refreshCalls.Load())
	assert.Equal(t, int32(1), f.protectedCalls.Load())

	access, refresh, _ := store.Tokens(context.Background())
	assert.Empty(t, access)
	assert.Empty(t, refresh)
}

func TestMissingRefreshTokenSkipsRefresh(t *testing.T) {
	f := &fakeBackend{valid: "fresh", refreshOK: true}
	c, _ := newTestClient(t, f, "stale", "")

	err := c.Do(context.Background(), http.MethodGet, "/url", nil, nil)
	require.Error(t, err)
	assert.Equal(t, int32(0), f.refreshCalls.Load())
}

func TestPublicPathsSkipTokenAndRefresh(t *testing.T) {
	f := &fakeBackend{valid: "fresh", refreshOK: true}
	c, _ := newTestClient(t, f, "stale", "refresh-1")

	err := c.Do(context.Background(), http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "a@b.c"}, nil)
	require.Error(t, err)
	assert.Equal(t, "Invalid credentials", apperr.Message(err))
	assert.Equal(t, int32(0), f.refreshCalls.Load())
}

func TestConcurrentUnauthorizedShareOneRefresh(t *testing.T) {
	f := &fakeBackend{valid: "fresh", refreshOK: true, refreshDelay: 20 * time.Millisecond, holdStale: 8}
	c, _ := newTestClient(t, f, "stale", "refresh-1")

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = c.Do(context.Background(), http.MethodGet, "/url", nil, nil)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), f.refreshCalls.Load())
	assert.Equal(t, int32(2*n), f.protectedCalls.Load())
}

func TestIsPublic(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/api/v1/auth/login", true},
		{"/api/v1/auth/register/", true},
		{"/api/v1/auth/verify-email?token=x", true},
		{"/api/v1/auth/logout", false},
		{"/api/v1/auth/profile", false},
		{"/url", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, IsPublic(tt.path))
		})
	}
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "m", errorMessage([]byte(`{"message":"m","error":"e"}`)))
	assert.Equal(t, "e", errorMessage([]byte(`{"error":"e"}`)))
	assert.Equal(t, "d", errorMessage([]byte(`{"detail":"d"}`)))
	assert.Equal(t, "", errorMessage([]byte(`{"detail":[{"loc":["body"]}]}`)))
	assert.Equal(t, "", errorMessage([]byte(`<html>`)))
	assert.Equal(t, "", errorMessage(nil))
}

func TestTransportError(t *testing.T) {
	c := New("http://127.0.0.1:1", NewMemoryStore("", ""), WithTimeout(time.Second))
	err := c.Do(context.Background(), http.MethodGet, "/url", nil, nil)
	require.Error(t, err)
	assert.Equal(t, apperr.KindTransport, apperr.KindOf(err))
}

func TestCancelledRequestIsSuppressed(t *testing.T) {
	started := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-r.Context().Done()
	}))
	defer srv.Close()

	c := New(srv.URL, NewMemoryStore("", ""))
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()
	err := c.Do(ctx, http.MethodGet, "/url/search?q=a", nil, nil)
	require.Error(t, err)
	assert.True(t, apperr.IsSuppressed(err))
}

func TestNoContentIgnoresOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := New(srv.URL+"/", nil)
	var out map[string]string
	require.NoError(t, c.Do(context.Background(), http.MethodDelete, "/url/abc", map[string]bool{"x": true}, &out))
	assert.Nil(t, out)
}
