package main

import (
	"context"
	"log"

	"github.com/viant/tokenbroker"
	"github.com/viant/tokenbroker/credential"
)

func main() {
	ctx := context.Background()

	// Stand up a token issuing server on a random local port
	srv, err := tokenbroker.NewServer(&tokenbroker.ServerOptions{
		Addr:   "127.0.0.1:0",
		Secret: "demo-secret",
	})
	if err != nil {
		log.Fatal(err)
	}
	if err := srv.Start(); err != nil {
		log.Fatal(err)
	}
	defer srv.Shutdown(ctx)

	// Point a credential at it and fetch a scoped token
	cred, err := tokenbroker.NewCredential(&tokenbroker.CredentialOptions{
		ServerURL: srv.URL(),
		Secret:    "demo-secret",
	}, credential.WithLogger(log.Default()))
	if err != nil {
		log.Fatal(err)
	}
	defer cred.Close()

	token, err := cred.GetToken(ctx, "https://storage.example.com/.default")
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("obtained token, expires %v", token.ExpiresOn)

	// A repeated request is served from the scope cache
	if _, err := cred.GetToken(ctx, "https://storage.example.com/.default"); err != nil {
		log.Fatal(err)
	}
}
