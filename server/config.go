package server

import (
	"fmt"
	"time"
)

// Default configuration values.
const (
	// DefaultAddr is the listen address used when Config.Addr is empty.
	DefaultAddr = ":8080"
	// DefaultTokenTTL is the issued token lifetime when Config.TokenTTL is
	// unset.
	DefaultTokenTTL = 15 * time.Minute
	// DefaultTokenIssuer is stamped into the iss claim when
	// Config.TokenIssuer is empty.
	DefaultTokenIssuer = "tokenbroker"
	// DefaultRateLimit is the per client requests per minute allowance.
	DefaultRateLimit = 10
)

// Config holds the server configuration.
type Config struct {
	// Addr is the TCP listen address, i.e. ":8080" or "127.0.0.1:0".
	Addr string `yaml:"addr" json:"addr"`
	// SharedSecret authenticates token requests and signs issued tokens.
	SharedSecret string `yaml:"sharedSecret" json:"sharedSecret,omitempty"`
	// TokenTTL is the lifetime of issued tokens.
	TokenTTL time.Duration `yaml:"tokenTTL" json:"tokenTTL,omitempty"`
	// TokenIssuer is the iss claim stamped into issued tokens.
	TokenIssuer string `yaml:"tokenIssuer" json:"tokenIssuer,omitempty"`
	// RateLimit caps token requests per client per minute. Zero selects
	// DefaultRateLimit, a negative value disables limiting.
	RateLimit int `yaml:"rateLimit" json:"rateLimit,omitempty"`
	// CertFile and KeyFile enable TLS when both are set.
	CertFile string `yaml:"certFile" json:"certFile,omitempty"`
	KeyFile  string `yaml:"keyFile" json:"keyFile,omitempty"`
	// CORS, when set, decorates responses for browser based consumers and
	// answers preflight requests. Nil disables cross origin access.
	CORS *Cors `yaml:"cors,omitempty" json:"cors,omitempty"`
}

// Init fills defaults.
func (c *Config) Init() {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.TokenTTL <= 0 {
		c.TokenTTL = DefaultTokenTTL
	}
	if c.TokenIssuer == "" {
		c.TokenIssuer = DefaultTokenIssuer
	}
	if c.RateLimit == 0 {
		c.RateLimit = DefaultRateLimit
	}
}

// Validate reports the first missing required value.
func (c *Config) Validate() error {
	if c.SharedSecret == "" {
		return fmt.Errorf("server: shared secret was empty")
	}
	if c.TokenTTL < time.Minute {
		return fmt.Errorf("server: token TTL %v was shorter than one minute", c.TokenTTL)
	}
	if (c.CertFile == "") != (c.KeyFile == "") {
		return fmt.Errorf("server: TLS requires both cert and key file")
	}
	return nil
}

// mintCacheTTL is how long a minted token may be re-served. Stopping a
// minute and a second ahead of the token expiry guarantees a client
// applying a one minute freshness margin never receives a token it would
// instantly discard, even after the remaining lifetime is truncated to
// whole seconds on the wire.
func (c *Config) mintCacheTTL() time.Duration {
	return c.TokenTTL - time.Minute - time.Second
}
