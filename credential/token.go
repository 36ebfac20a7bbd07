package credential

import "time"

// DefaultScope is requested when the caller does not name a scope. It
// addresses the management plane of the resource the authorization server
// fronts.
const DefaultScope = "https://management.azure.com/.default"

// ExpiryMargin is the safety buffer applied when judging cached token
// freshness. A token whose expiry is not beyond now plus ExpiryMargin is
// treated as already expired so that callers never receive a token about
// to lapse mid-flight.
const ExpiryMargin = 60 * time.Second

// Token is a bearer credential with its absolute expiry.
type Token struct {
	// Value holds the opaque bearer token.
	Value string
	// ExpiresOn is the absolute expiry derived from the authorization
	// server's relative expires_in at fetch time.
	ExpiresOn time.Time
}

// fresh reports whether the token outlives now by more than ExpiryMargin.
func (t Token) fresh(now time.Time) bool {
	return t.ExpiresOn.After(now.Add(ExpiryMargin))
}
