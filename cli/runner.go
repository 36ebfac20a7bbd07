// Package cli implements the tokenbroker command line: fetching tokens,
// probing server health and running the token issuing server.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/viant/afs"
	"github.com/viant/scy"
	"gopkg.in/yaml.v3"

	"github.com/viant/tokenbroker"
	"github.com/viant/tokenbroker/credential"
)

// output is swapped out by tests.
var output io.Writer = os.Stdout

// Run parses args and executes the selected command.
func Run(args []string) error {
	options := &Options{}
	parser := flags.NewParser(options, flags.Default)
	if _, err := parser.ParseArgs(args); err != nil {
		if flags.WroteHelp(err) {
			return nil
		}
		return err
	}
	return nil
}

// Execute fetches a token and prints it.
func (g *GetCommand) Execute(_ []string) error {
	ctx := context.Background()
	credentialOptions, err := g.credentialOptions(ctx)
	if err != nil {
		return err
	}
	aCredential, err := tokenbroker.NewCredential(credentialOptions)
	if err != nil {
		return err
	}
	defer aCredential.Close()

	token, err := aCredential.GetToken(ctx, g.Scope)
	if err != nil {
		return fmt.Errorf("failed to get token: %w", err)
	}
	scope := g.Scope
	if scope == "" {
		scope = credential.DefaultScope
	}
	if g.Output == "json" {
		return printJSON(&tokenOutput{
			AccessToken: token.Value,
			ExpiresOn:   token.ExpiresOn.Format(time.RFC3339),
			Scope:       scope,
			Server:      credentialOptions.ServerURL,
		})
	}
	_, _ = fmt.Fprintf(output, "token for %v (expires %v)\n%v\n", scope, token.ExpiresOn.Format(time.RFC3339), truncate(token.Value))
	return nil
}

// Execute probes the authorization server health endpoint.
func (h *HealthCommand) Execute(_ []string) error {
	ctx := context.Background()
	credentialOptions, err := h.credentialOptions(ctx)
	if err != nil {
		return err
	}
	aCredential, err := tokenbroker.NewCredential(credentialOptions)
	if err != nil {
		return err
	}
	defer aCredential.Close()

	if err := aCredential.HealthCheck(ctx); err != nil {
		return fmt.Errorf("authorization server is unhealthy: %w", err)
	}
	_, _ = fmt.Fprintf(output, "authorization server at %v is healthy\n", credentialOptions.ServerURL)
	return nil
}

// Execute runs the token issuing server until interrupted.
func (s *ServeCommand) Execute(_ []string) error {
	ctx := context.Background()
	serverOptions, err := s.serverOptions(ctx)
	if err != nil {
		return err
	}
	srv, err := tokenbroker.NewServer(serverOptions)
	if err != nil {
		return err
	}
	if err := srv.Start(); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(output, "token server listening on %v\n", srv.URL())

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	<-signals

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// credentialOptions assembles the connection settings from flags, an
// optional env file and the process environment, in that order.
func (f *ClientFlags) credentialOptions(ctx context.Context) (*tokenbroker.CredentialOptions, error) {
	if err := loadEnvFile(f.EnvFile); err != nil {
		return nil, err
	}
	serverURL := f.Server
	if serverURL == "" {
		serverURL = os.Getenv(credential.EnvServerURL)
	}
	secret, err := f.resolveSecret(ctx)
	if err != nil {
		return nil, err
	}
	return &tokenbroker.CredentialOptions{
		ServerURL:      serverURL,
		Secret:         secret,
		TimeoutSeconds: f.Timeout,
	}, nil
}

// serverOptions assembles the server configuration from flags, an optional
// YAML document and the environment.
func (s *ServeCommand) serverOptions(ctx context.Context) (*tokenbroker.ServerOptions, error) {
	if err := loadEnvFile(s.EnvFile); err != nil {
		return nil, err
	}
	serverOptions := &tokenbroker.ServerOptions{
		Addr:            s.Addr,
		Secret:          s.Secret,
		TokenTTLSeconds: s.TokenTTL,
		Issuer:          s.Issuer,
		RateLimit:       s.RateLimit,
		CertFile:        s.CertFile,
		KeyFile:         s.KeyFile,
	}
	if s.ConfigURL != "" {
		fs := afs.New()
		data, err := fs.DownloadWithURL(ctx, s.ConfigURL)
		if err != nil {
			return nil, fmt.Errorf("failed to load config %v: %w", s.ConfigURL, err)
		}
		if err := yaml.Unmarshal(data, serverOptions); err != nil {
			return nil, fmt.Errorf("failed to parse config %v: %w", s.ConfigURL, err)
		}
	}
	if serverOptions.Secret == "" {
		secret, err := s.resolveSecret(ctx)
		if err != nil {
			return nil, err
		}
		serverOptions.Secret = secret
	}
	return serverOptions, nil
}

// resolveSecret returns the first secret available: the explicit flag, a
// scy resource, then the environment.
func (f *SecretFlags) resolveSecret(ctx context.Context) (string, error) {
	if f.Secret != "" {
		return f.Secret, nil
	}
	if f.SecretURL != "" {
		secrets := scy.New()
		loaded, err := secrets.Load(ctx, scy.NewResource("", f.SecretURL, f.SecretKey))
		if err != nil {
			return "", fmt.Errorf("failed to load secret from %v: %w", f.SecretURL, err)
		}
		return loaded.String(), nil
	}
	return os.Getenv(credential.EnvSecret), nil
}

// loadEnvFile loads path with godotenv; with no path the default .env is
// loaded when present.
func loadEnvFile(path string) error {
	if path == "" {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
		return godotenv.Load()
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %v: %w", path, err)
	}
	return nil
}

// tokenOutput is the JSON shape printed by get --output json.
type tokenOutput struct {
	AccessToken string `json:"access_token"`
	ExpiresOn   string `json:"expires_on"`
	Scope       string `json:"scope"`
	Server      string `json:"server"`
}

func printJSON(payload interface{}) error {
	encoder := json.NewEncoder(output)
	encoder.SetIndent("", "  ")
	return encoder.Encode(payload)
}

// truncate shortens long tokens for display.
func truncate(token string) string {
	if len(token) <= 50 {
		return token
	}
	return token[:25] + "..." + token[len(token)-25:]
}
