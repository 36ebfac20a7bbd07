package server

import (
	"net/http"
	"strconv"
	"strings"
)

// CORS response headers.
const (
	allowOriginHeader      = "Access-Control-Allow-Origin"
	allowHeadersHeader     = "Access-Control-Allow-Headers"
	allowMethodsHeader     = "Access-Control-Allow-Methods"
	allowCredentialsHeader = "Access-Control-Allow-Credentials"
	maxAgeHeader           = "Access-Control-Max-Age"
)

// Cors configures cross origin access to the token endpoints for browser
// based credential consumers.
type Cors struct {
	AllowOrigins     []string `yaml:"allowOrigins,omitempty" json:"allowOrigins,omitempty"`
	AllowHeaders     []string `yaml:"allowHeaders,omitempty" json:"allowHeaders,omitempty"`
	AllowCredentials *bool    `yaml:"allowCredentials,omitempty" json:"allowCredentials,omitempty"`
	MaxAgeSeconds    *int64   `yaml:"maxAgeSeconds,omitempty" json:"maxAgeSeconds,omitempty"`
}

// originMap indexes the allowed origins.
func (c *Cors) originMap() map[string]bool {
	result := make(map[string]bool)
	for _, origin := range c.AllowOrigins {
		result[origin] = true
	}
	return result
}

// DefaultCors allows any origin to present its credential header.
func DefaultCors() *Cors {
	allowCredentials := true
	return &Cors{
		AllowOrigins:     []string{"*"},
		AllowHeaders:     []string{"*"},
		AllowCredentials: &allowCredentials,
	}
}

// CORSHandler decorates responses with CORS headers and answers preflight
// requests before they reach authentication.
func CORSHandler(cors *Cors) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cors.setHeaders(w, r)
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (c *Cors) setHeaders(w http.ResponseWriter, r *http.Request) {
	if c == nil {
		return
	}
	origin := r.Header.Get("Origin")
	allowed := c.originMap()
	switch {
	case allowed["*"] && origin != "":
		w.Header().Set(allowOriginHeader, origin)
	case allowed["*"]:
		w.Header().Set(allowOriginHeader, "*")
	case origin != "" && allowed[origin]:
		w.Header().Set(allowOriginHeader, origin)
	}
	w.Header().Set(allowMethodsHeader, http.MethodGet)
	if len(c.AllowHeaders) > 0 {
		headers := strings.Join(c.AllowHeaders, ", ")
		if headers == "*" {
			headers = "Content-Type, Authorization"
		}
		w.Header().Set(allowHeadersHeader, headers)
	}
	if c.AllowCredentials != nil {
		w.Header().Set(allowCredentialsHeader, strconv.FormatBool(*c.AllowCredentials))
	}
	if c.MaxAgeSeconds != nil {
		w.Header().Set(maxAgeHeader, strconv.FormatInt(*c.MaxAgeSeconds, 10))
	}
}
