package cli

// Options defines the command line surface: one subcommand per broker
// operation.
type Options struct {
	Get    GetCommand    `command:"get" description:"fetch a bearer token from the authorization server"`
	Health HealthCommand `command:"health" description:"probe the authorization server health endpoint"`
	Serve  ServeCommand  `command:"serve" description:"run the token issuing server"`
}

// SecretFlags carries the shared secret inputs: an explicit value, a scy
// resource to load it from, or the environment as a last resort.
type SecretFlags struct {
	Secret    string `short:"k" long:"secret" description:"shared secret (defaults to $AUTH_SERVER_SECRET)"`
	SecretURL string `long:"secret-url" description:"scy resource URL to load the shared secret from"`
	SecretKey string `long:"secret-key" description:"scy decryption key, e.g. blowfish://default"`
}

// ClientFlags carries the connection settings shared by the client side
// commands.
type ClientFlags struct {
	SecretFlags
	Server  string `short:"s" long:"server" description:"authorization server URL (defaults to $AUTH_SERVER_URL)"`
	Timeout int    `long:"timeout" description:"request timeout in seconds"`
	EnvFile string `long:"env-file" description:"env file loaded before resolving environment values"`
}

// GetCommand fetches a bearer token.
type GetCommand struct {
	ClientFlags
	Scope  string `long:"scope" description:"token scope, defaults to the management scope"`
	Output string `short:"o" long:"output" description:"output format" choice:"text" choice:"json" default:"text"`
}

// HealthCommand probes the authorization server.
type HealthCommand struct {
	ClientFlags
}

// ServeCommand runs the token issuing server.
type ServeCommand struct {
	SecretFlags
	ConfigURL string `short:"c" long:"config" description:"YAML server configuration, any afs supported URL, overrides other flags"`
	Addr      string `long:"addr" description:"listen address" default:":8080"`
	TokenTTL  int    `long:"token-ttl" description:"issued token lifetime in seconds"`
	Issuer    string `long:"issuer" description:"issuer name stamped into tokens"`
	RateLimit int    `long:"rate-limit" description:"token requests per client per minute"`
	CertFile  string `long:"cert" description:"TLS certificate file"`
	KeyFile   string `long:"key" description:"TLS key file"`
	EnvFile   string `long:"env-file" description:"env file loaded before resolving environment values"`
}
