// Package credential obtains short-lived bearer tokens from an
// authorization server and caches them per scope until they approach
// expiry.
//
// A cache hit performs no I/O. A miss issues a single
// GET {server}/token?scope={scope} request carrying the shared secret as a
// bearer credential, then caches the resulting token keyed by scope. A
// cached token is served only while its expiry exceeds the safety margin;
// once inside the margin it is evicted and fetched anew.
//
// Construction is side effect free and fails fast on incomplete
// configuration. Environment resolution is an explicit step owned by
// NewFromEnv, never by the credential itself.
package credential
