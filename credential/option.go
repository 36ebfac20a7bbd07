package credential

import (
	"net/http"
	"time"
)

// Logger receives optional fetch diagnostics. *log.Logger satisfies it;
// when unset the credential stays silent.
type Logger interface {
	Printf(format string, args ...interface{})
}

// Option customizes a Credential.
type Option func(c *Credential)

// WithHTTPClient replaces the HTTP client used for token fetches. The
// supplied client owns its own timeout policy.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Credential) {
		c.httpClient = client
	}
}

// WithLogger sets a diagnostics logger.
func WithLogger(logger Logger) Option {
	return func(c *Credential) {
		c.logger = logger
	}
}

// WithNow overrides the time source used for freshness checks and expiry
// computation.
func WithNow(now func() time.Time) Option {
	return func(c *Credential) {
		c.now = now
	}
}
