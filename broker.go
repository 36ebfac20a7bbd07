package tokenbroker

import (
	"time"

	"github.com/viant/tokenbroker/credential"
)

// CredentialOptions
//
// defines options for configuring a credential.
type CredentialOptions struct {
	ServerURL      string `yaml:"serverURL" json:"serverURL"  short:"s" long:"server" description:"authorization server URL"`
	Secret         string `yaml:"secret,omitempty" json:"secret,omitempty"  short:"k" long:"secret" description:"shared secret"`
	TimeoutSeconds int    `yaml:"timeoutSeconds,omitempty" json:"timeoutSeconds,omitempty"  long:"timeout" description:"request timeout in seconds"`
}

// Init fills defaults.
func (o *CredentialOptions) Init() {
	if o.TimeoutSeconds <= 0 {
		o.TimeoutSeconds = int(credential.DefaultTimeout / time.Second)
	}
}

// Config maps the options to a credential configuration.
func (o *CredentialOptions) Config() *credential.Config {
	return &credential.Config{
		ServerURL: o.ServerURL,
		Secret:    o.Secret,
		Timeout:   time.Duration(o.TimeoutSeconds) * time.Second,
	}
}

// NewCredential creates a scope caching credential configured via options.
// Construction performs no I/O and fails fast on incomplete configuration;
// environment based construction lives in credential.NewFromEnv.
func NewCredential(options *CredentialOptions, opts ...credential.Option) (*credential.Credential, error) {
	if options == nil {
		options = &CredentialOptions{}
	}
	options.Init()
	return credential.New(options.Config(), opts...)
}
