// Package tokenbroker provides high-level helpers for obtaining and
// issuing short-lived bearer tokens.
//
// The package glues the credential package (token fetching with a per
// scope cache) and the server package (an HS256 minting authorization
// server) behind two primary entry points:
//  1. NewCredential returns a configured scope caching credential and
//  2. NewServer returns a configured token issuing server.
//
// Both constructors accept option structures that can be populated from
// CLI flags or configuration files, making it straightforward to stand up
// either side of the token exchange.
//
// Example:
//
//	srv, _ := tokenbroker.NewServer(&tokenbroker.ServerOptions{Secret: secret})
//	_ = srv.Start()
//	defer srv.Shutdown(context.Background())
//
//	cred, _ := tokenbroker.NewCredential(&tokenbroker.CredentialOptions{
//		ServerURL: srv.URL(),
//		Secret:    secret,
//	})
//	token, _ := cred.GetToken(context.Background())
package tokenbroker
