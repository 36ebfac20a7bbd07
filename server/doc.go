// Package server implements the authorization server side of the token
// broker: an HTTP service minting short-lived HS256 bearer tokens for
// callers that present the shared secret.
//
// The token endpoint speaks the wire contract the credential package
// consumes, GET /token?scope={scope} answered with access_token,
// token_type, expires_in and scope. Minted tokens are cached per scope and
// re-served with their remaining lifetime until they near expiry. Every
// route except the health probe sits behind a constant time shared secret
// check and a per client rate limit.
//
// Callers typically construct a server via `server.New` and start it:
//
//	srv, _ := server.New(&server.Config{Addr: ":8080", SharedSecret: secret})
//	if err := srv.Start(); err != nil {
//		log.Fatal(err)
//	}
//	defer srv.Shutdown(context.Background())
package server
