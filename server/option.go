package server

import (
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
)

// Option is a function that configures the server.
type Option func(s *Server) error

// WithLogger sets the server logger.
func WithLogger(log *logrus.Logger) Option {
	return func(s *Server) error {
		if log == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		s.log = log
		return nil
	}
}

// WithMiddleware appends middleware applied after the built in chain,
// closest to the routes.
func WithMiddleware(middleware ...Middleware) Option {
	return func(s *Server) error {
		s.middleware = append(s.middleware, middleware...)
		return nil
	}
}

// WithHandlerFunc mounts a custom handler at path, subject to the same
// middleware chain as the built in routes.
func WithHandlerFunc(path string, handler http.HandlerFunc) Option {
	return func(s *Server) error {
		if path == "" || handler == nil {
			return fmt.Errorf("custom handler requires a path and a handler")
		}
		s.customHandlers[path] = handler
		return nil
	}
}
