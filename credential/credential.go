package credential

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// tokenResponse is the wire shape of a successful token endpoint answer.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Scope       string `json:"scope"`
}

// Credential obtains bearer tokens from an authorization server and caches
// them per scope until they approach expiry.
//
// A Credential is safe for concurrent use. The cache mutex is held only
// around map lookups and updates, never across the network fetch, so two
// concurrent misses on the same scope may both fetch; the later write wins.
type Credential struct {
	config     *Config
	httpClient *http.Client
	logger     Logger
	now        func() time.Time

	mu     sync.RWMutex
	tokens map[string]Token
}

// New creates a Credential from a fully resolved configuration. It
// performs no I/O and reads no environment.
func New(config *Config, options ...Option) (*Credential, error) {
	if config == nil {
		return nil, fmt.Errorf("credential: config was nil")
	}
	config.Init()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if _, err := url.Parse(config.ServerURL); err != nil {
		return nil, fmt.Errorf("credential: invalid server URL %q: %w", config.ServerURL, err)
	}
	ret := &Credential{
		config: config,
		now:    time.Now,
		tokens: make(map[string]Token),
	}
	for _, option := range options {
		option(ret)
	}
	if ret.httpClient == nil {
		ret.httpClient = &http.Client{Timeout: config.Timeout}
	}
	return ret, nil
}

// NewFromEnv resolves the configuration from the process environment
// (AUTH_SERVER_URL, AUTH_SERVER_SECRET) and creates the credential.
func NewFromEnv(options ...Option) (*Credential, error) {
	config, err := ConfigFromEnv()
	if err != nil {
		return nil, err
	}
	return New(config, options...)
}

// GetToken returns a bearer token for the requested scope, served from the
// cache while the cached entry stays more than ExpiryMargin ahead of its
// expiry and fetched anew otherwise. Without a scope it requests
// DefaultScope; with several only the first is honored. Each call performs
// at most one fetch attempt, retry policy belongs to the caller.
func (c *Credential) GetToken(ctx context.Context, scopes ...string) (Token, error) {
	scope := DefaultScope
	if len(scopes) > 0 && scopes[0] != "" {
		scope = scopes[0]
	}
	if token, ok := c.cachedToken(scope); ok {
		return token, nil
	}
	token, err := c.fetchToken(ctx, scope)
	if err != nil {
		return Token{}, err
	}
	c.mu.Lock()
	c.tokens[scope] = token
	c.mu.Unlock()
	return token, nil
}

// cachedToken returns a fresh cached token for scope. A stale entry is
// evicted on sight so the cache never accumulates expired tokens.
func (c *Credential) cachedToken(scope string) (Token, bool) {
	c.mu.RLock()
	token, ok := c.tokens[scope]
	c.mu.RUnlock()
	if !ok {
		return Token{}, false
	}
	if token.fresh(c.now()) {
		return token, true
	}
	c.mu.Lock()
	// re-check under the write lock: a concurrent fetch may have stored
	// a fresh token since the read above
	if current, ok := c.tokens[scope]; ok && !current.fresh(c.now()) {
		delete(c.tokens, scope)
	}
	c.mu.Unlock()
	return Token{}, false
}

// fetchToken performs a single GET {server}/token?scope={scope} bounded by
// the configured timeout.
func (c *Credential) fetchToken(ctx context.Context, scope string) (Token, error) {
	endpoint := fmt.Sprintf("%v/token?scope=%v", c.config.ServerURL, url.QueryEscape(scope))
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Token{}, fmt.Errorf("failed to create token request: %w", err)
	}
	request.Header.Set("Authorization", "Bearer "+c.config.Secret)
	response, err := c.httpClient.Do(request)
	if err != nil {
		c.logf("token fetch failed: scope=%v err=%v", scope, err)
		return Token{}, &FetchError{URL: endpoint, Cause: err}
	}
	defer response.Body.Close()
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		body, _ := io.ReadAll(response.Body)
		c.logf("token fetch rejected: scope=%v status=%v", scope, response.StatusCode)
		return Token{}, &FetchError{URL: endpoint, StatusCode: response.StatusCode, Body: string(body)}
	}
	var payload tokenResponse
	if err := json.NewDecoder(response.Body).Decode(&payload); err != nil {
		c.logf("token response malformed: scope=%v err=%v", scope, err)
		return Token{}, &ResponseError{URL: endpoint, Reason: "body was not valid JSON", Cause: err}
	}
	if payload.AccessToken == "" {
		c.logf("token response malformed: scope=%v missing access_token", scope)
		return Token{}, &ResponseError{URL: endpoint, Reason: "access_token was missing"}
	}
	if payload.ExpiresIn <= 0 {
		c.logf("token response malformed: scope=%v missing expires_in", scope)
		return Token{}, &ResponseError{URL: endpoint, Reason: "expires_in was missing or not positive"}
	}
	token := Token{
		Value:     payload.AccessToken,
		ExpiresOn: c.now().Add(time.Duration(payload.ExpiresIn) * time.Second),
	}
	c.logf("obtained token: scope=%v expiresOn=%v", scope, token.ExpiresOn.Format(time.RFC3339))
	return token, nil
}

// HealthCheck probes the authorization server health endpoint.
func (c *Credential) HealthCheck(ctx context.Context) error {
	endpoint := c.config.ServerURL + "/health"
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create health request: %w", err)
	}
	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("failed to reach authorization server at %v: %w", c.config.ServerURL, err)
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("authorization server reported status %v", response.StatusCode)
	}
	return nil
}

// Close releases all cached tokens. It is idempotent and the credential
// remains usable afterwards, the next GetToken simply fetches.
func (c *Credential) Close() error {
	c.mu.Lock()
	c.tokens = make(map[string]Token)
	c.mu.Unlock()
	return nil
}

func (c *Credential) logf(format string, args ...interface{}) {
	if c.logger == nil {
		return
	}
	c.logger.Printf("credential: "+format, args...)
}
