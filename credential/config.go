package credential

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Environment variables consulted by ConfigFromEnv.
const (
	// EnvServerURL names the authorization server base address.
	EnvServerURL = "AUTH_SERVER_URL"
	// EnvSecret names the shared secret presented on token requests.
	EnvSecret = "AUTH_SERVER_SECRET"
)

// DefaultTimeout bounds a single token fetch when Config.Timeout is unset.
const DefaultTimeout = 30 * time.Second

// Config is a fully resolved credential configuration. Values come from
// the caller; nothing in this package reads the environment implicitly.
type Config struct {
	// ServerURL is the authorization server base address, i.e.
	// "http://auth.example.com:8080". Trailing path separators are
	// stripped by Init.
	ServerURL string `yaml:"serverURL" json:"serverURL"`
	// Secret is the shared secret sent as a bearer credential.
	Secret string `yaml:"secret" json:"secret,omitempty"`
	// Timeout bounds each token fetch, zero means DefaultTimeout.
	Timeout time.Duration `yaml:"timeout" json:"timeout,omitempty"`
}

// Init normalizes the configuration.
func (c *Config) Init() {
	c.ServerURL = strings.TrimRight(c.ServerURL, "/")
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
}

// Validate reports the first missing required value.
func (c *Config) Validate() error {
	if c.ServerURL == "" {
		return fmt.Errorf("credential: server URL was empty (set %v)", EnvServerURL)
	}
	if c.Secret == "" {
		return fmt.Errorf("credential: secret was empty (set %v)", EnvSecret)
	}
	return nil
}

// ConfigFromEnv resolves the configuration from the process environment in
// one explicit step and returns it normalized and validated.
func ConfigFromEnv() (*Config, error) {
	config := &Config{
		ServerURL: os.Getenv(EnvServerURL),
		Secret:    os.Getenv(EnvSecret),
	}
	config.Init()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}
