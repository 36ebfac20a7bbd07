package tokenbroker

import (
	"time"

	"github.com/viant/tokenbroker/server"
)

// ServerOptions
//
// defines options for configuring the token issuing server.
type ServerOptions struct {
	Addr            string `yaml:"addr" json:"addr"  long:"addr" description:"listen address"`
	Secret          string `yaml:"secret,omitempty" json:"secret,omitempty"  short:"k" long:"secret" description:"shared secret"`
	TokenTTLSeconds int    `yaml:"tokenTTLSeconds,omitempty" json:"tokenTTLSeconds,omitempty"  long:"token-ttl" description:"issued token lifetime in seconds"`
	Issuer          string `yaml:"issuer,omitempty" json:"issuer,omitempty"  long:"issuer" description:"issuer name stamped into tokens"`
	RateLimit       int    `yaml:"rateLimit,omitempty" json:"rateLimit,omitempty"  long:"rate-limit" description:"token requests per client per minute"`
	CertFile        string `yaml:"certFile,omitempty" json:"certFile,omitempty"  long:"cert" description:"TLS certificate file"`
	KeyFile         string `yaml:"keyFile,omitempty" json:"keyFile,omitempty"  long:"key" description:"TLS key file"`

	// CORS enables cross origin access for browser based consumers, it is
	// populated from configuration files rather than flags.
	CORS *server.Cors `yaml:"cors,omitempty" json:"cors,omitempty" no-flag:"true"`
}

// Init fills defaults.
func (o *ServerOptions) Init() {
	if o.Addr == "" {
		o.Addr = server.DefaultAddr
	}
	if o.TokenTTLSeconds <= 0 {
		o.TokenTTLSeconds = int(server.DefaultTokenTTL / time.Second)
	}
	if o.Issuer == "" {
		o.Issuer = server.DefaultTokenIssuer
	}
	if o.RateLimit == 0 {
		o.RateLimit = server.DefaultRateLimit
	}
}

// Config maps the options to a server configuration.
func (o *ServerOptions) Config() *server.Config {
	return &server.Config{
		Addr:         o.Addr,
		SharedSecret: o.Secret,
		TokenTTL:     time.Duration(o.TokenTTLSeconds) * time.Second,
		TokenIssuer:  o.Issuer,
		RateLimit:    o.RateLimit,
		CertFile:     o.CertFile,
		KeyFile:      o.KeyFile,
		CORS:         o.CORS,
	}
}

// NewServer creates a token issuing server configured via options. The
// server starts serving once Start is called.
func NewServer(options *ServerOptions, opts ...server.Option) (*server.Server, error) {
	if options == nil {
		options = &ServerOptions{}
	}
	options.Init()
	return server.New(options.Config(), opts...)
}
