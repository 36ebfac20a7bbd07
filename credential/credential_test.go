package credential

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tokenServer is a minimal authorization server for tests. Fields can be
// mutated between calls to steer the next response.
type tokenServer struct {
	*httptest.Server
	mu        sync.Mutex
	secret    string
	expiresIn int
	status    int
	body      string
	hits      int
	lastScope string
	lastAuth  string
}

func newTokenServer(secret string) *tokenServer {
	ret := &tokenServer{secret: secret, expiresIn: 3600}
	ret.Server = httptest.NewServer(http.HandlerFunc(ret.handle))
	return ret
}

func (s *tokenServer) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.URL.Path != "/token" {
		http.NotFound(w, r)
		return
	}
	s.hits++
	s.lastScope = r.URL.Query().Get("scope")
	s.lastAuth = r.Header.Get("Authorization")
	if s.secret != "" && s.lastAuth != "Bearer "+s.secret {
		http.Error(w, `{"error":"invalid credentials"}`, http.StatusUnauthorized)
		return
	}
	if s.status != 0 {
		http.Error(w, s.body, s.status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if s.body != "" {
		_, _ = w.Write([]byte(s.body))
		return
	}
	_, _ = fmt.Fprintf(w, `{"access_token":"token-%d","token_type":"Bearer","expires_in":%d,"scope":"%s"}`, s.hits, s.expiresIn, s.lastScope)
}

func (s *tokenServer) hitCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits
}

func (s *tokenServer) scope() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastScope
}

func (s *tokenServer) auth() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAuth
}

func (s *tokenServer) set(mutate func(s *tokenServer)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	mutate(s)
}

// fakeClock is a movable time source so expiry can be crossed without
// sleeping.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) advance(delta time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(delta)
}

func TestCredentialCachesPerScope(t *testing.T) {
	server := newTokenServer("test-secret")
	defer server.Close()

	credential, err := New(&Config{ServerURL: server.URL, Secret: "test-secret"})
	require.NoError(t, err)

	ctx := context.Background()
	first, err := credential.GetToken(ctx, "https://storage.example.com/.default")
	require.NoError(t, err)
	assert.Equal(t, "token-1", first.Value)
	assert.True(t, first.ExpiresOn.After(time.Now().Add(ExpiryMargin)))

	// Second request for the same scope must be served from the cache
	second, err := credential.GetToken(ctx, "https://storage.example.com/.default")
	require.NoError(t, err)
	assert.Equal(t, first.Value, second.Value)
	assert.Equal(t, 1, server.hitCount())

	// A different scope misses the cache and fetches its own token
	other, err := credential.GetToken(ctx, "https://vault.example.com/.default")
	require.NoError(t, err)
	assert.Equal(t, "token-2", other.Value)
	assert.Equal(t, 2, server.hitCount())
}

func TestCredentialRefetchesInsideMargin(t *testing.T) {
	server := newTokenServer("test-secret")
	server.set(func(s *tokenServer) { s.expiresIn = 90 })
	defer server.Close()

	clock := &fakeClock{now: time.Now()}
	credential, err := New(&Config{ServerURL: server.URL, Secret: "test-secret"}, WithNow(clock.Now))
	require.NoError(t, err)

	ctx := context.Background()
	first, err := credential.GetToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "token-1", first.Value)

	// 60s of remaining lifetime is not enough, the margin requires more
	clock.advance(30 * time.Second)
	second, err := credential.GetToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "token-2", second.Value)
	assert.Equal(t, 2, server.hitCount())

	// The replacement token is fresh again and served from the cache
	third, err := credential.GetToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.Value, third.Value)
	assert.Equal(t, 2, server.hitCount())
}

func TestCredentialScopeSelection(t *testing.T) {
	server := newTokenServer("test-secret")
	defer server.Close()

	credential, err := New(&Config{ServerURL: server.URL, Secret: "test-secret"})
	require.NoError(t, err)
	ctx := context.Background()

	// No scope falls back to the default scope
	_, err = credential.GetToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultScope, server.scope())

	// Only the first of several scopes is honored
	_, err = credential.GetToken(ctx, "https://first.example.com/.default", "https://second.example.com/.default")
	require.NoError(t, err)
	assert.Equal(t, "https://first.example.com/.default", server.scope())

	// An empty scope behaves like no scope and shares the default entry
	_, err = credential.GetToken(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 2, server.hitCount())
}

func TestCredentialSendsSecret(t *testing.T) {
	server := newTokenServer("expected-secret")
	defer server.Close()

	credential, err := New(&Config{ServerURL: server.URL, Secret: "expected-secret"})
	require.NoError(t, err)

	_, err = credential.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer expected-secret", server.auth())
}

func TestCredentialTransportError(t *testing.T) {
	server := newTokenServer("test-secret")
	serverURL := server.URL
	server.Close()

	credential, err := New(&Config{ServerURL: serverURL, Secret: "test-secret", Timeout: time.Second})
	require.NoError(t, err)

	_, err = credential.GetToken(context.Background())
	require.Error(t, err)
	assert.True(t, IsFetchError(err))
	assert.True(t, errors.Is(err, ErrTokenUnavailable))

	var fetchError *FetchError
	require.True(t, errors.As(err, &fetchError))
	assert.NotNil(t, fetchError.Cause)
	assert.Zero(t, fetchError.StatusCode)

	// A failed fetch must not insert anything into the cache
	credential.mu.RLock()
	assert.Empty(t, credential.tokens)
	credential.mu.RUnlock()
}

func TestCredentialServerRejection(t *testing.T) {
	server := newTokenServer("server-side-secret")
	defer server.Close()

	credential, err := New(&Config{ServerURL: server.URL, Secret: "wrong-secret"})
	require.NoError(t, err)

	_, err = credential.GetToken(context.Background())
	require.Error(t, err)

	var fetchError *FetchError
	require.True(t, errors.As(err, &fetchError))
	assert.Equal(t, http.StatusUnauthorized, fetchError.StatusCode)
	assert.Contains(t, fetchError.Body, "invalid credentials")
	assert.True(t, errors.Is(err, ErrTokenUnavailable))
}

func TestCredentialMalformedResponse(t *testing.T) {
	testCases := []struct {
		description string
		body        string
	}{
		{description: "invalid JSON", body: "not json at all"},
		{description: "missing access_token", body: `{"expires_in":3600}`},
		{description: "missing expires_in", body: `{"access_token":"abc"}`},
		{description: "non positive expires_in", body: `{"access_token":"abc","expires_in":0}`},
	}
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			server := newTokenServer("test-secret")
			server.set(func(s *tokenServer) { s.body = testCase.body })
			defer server.Close()

			credential, err := New(&Config{ServerURL: server.URL, Secret: "test-secret"})
			require.NoError(t, err)

			_, err = credential.GetToken(context.Background())
			require.Error(t, err)
			assert.True(t, IsResponseError(err), "expected a response error, got %v", err)
			assert.False(t, IsFetchError(err))
			assert.True(t, errors.Is(err, ErrTokenUnavailable))
		})
	}
}

func TestCredentialClose(t *testing.T) {
	server := newTokenServer("test-secret")
	defer server.Close()

	credential, err := New(&Config{ServerURL: server.URL, Secret: "test-secret"})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = credential.GetToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, server.hitCount())

	require.NoError(t, credential.Close())
	require.NoError(t, credential.Close())

	// The credential stays usable, the next call fetches again
	token, err := credential.GetToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "token-2", token.Value)
	assert.Equal(t, 2, server.hitCount())
}

func TestCredentialHealthCheck(t *testing.T) {
	healthy := true
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if !healthy {
			http.Error(w, "unhealthy", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	credential, err := New(&Config{ServerURL: server.URL, Secret: "test-secret"})
	require.NoError(t, err)

	ctx := context.Background()
	assert.NoError(t, credential.HealthCheck(ctx))

	healthy = false
	err = credential.HealthCheck(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestCredentialConcurrentAccess(t *testing.T) {
	server := newTokenServer("test-secret")
	defer server.Close()

	credential, err := New(&Config{ServerURL: server.URL, Secret: "test-secret"})
	require.NoError(t, err)

	ctx := context.Background()
	waitGroup := sync.WaitGroup{}
	errorsSeen := make([]error, 16)
	for i := 0; i < 16; i++ {
		waitGroup.Add(1)
		go func(index int) {
			defer waitGroup.Done()
			scope := fmt.Sprintf("https://resource%d.example.com/.default", index%4)
			_, errorsSeen[index] = credential.GetToken(ctx, scope)
		}(i)
	}
	waitGroup.Wait()
	for _, err := range errorsSeen {
		assert.NoError(t, err)
	}

	// Once warm, each of the four scopes is a cache hit
	hits := server.hitCount()
	for i := 0; i < 4; i++ {
		_, err := credential.GetToken(ctx, fmt.Sprintf("https://resource%d.example.com/.default", i))
		require.NoError(t, err)
	}
	assert.Equal(t, hits, server.hitCount())
}

func TestNewValidation(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)

	_, err = New(&Config{Secret: "secret"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), EnvServerURL)

	_, err = New(&Config{ServerURL: "http://auth.example.com"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), EnvSecret)
}

func TestCredentialTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	credential, err := New(&Config{ServerURL: server.URL, Secret: "test-secret"},
		WithHTTPClient(&http.Client{Timeout: 20 * time.Millisecond}))
	require.NoError(t, err)

	_, err = credential.GetToken(context.Background())
	require.Error(t, err)
	assert.True(t, IsFetchError(err))
}
