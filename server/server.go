package server

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// Server exposes the token issuing service over HTTP or HTTPS. Start binds
// the listener and serves in the background, Shutdown drains in-flight
// requests.
type Server struct {
	config         *Config
	handler        *Handler
	limiter        *Limiter
	log            *logrus.Logger
	middleware     []Middleware
	customHandlers map[string]http.HandlerFunc

	mu         sync.Mutex
	listener   net.Listener
	httpServer *http.Server
}

// New creates a Server instance from config.
func New(config *Config, options ...Option) (*Server, error) {
	if config == nil {
		return nil, fmt.Errorf("server: config was nil")
	}
	config.Init()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	ret := &Server{
		config:         config,
		log:            logrus.New(),
		customHandlers: make(map[string]http.HandlerFunc),
	}
	for _, option := range options {
		if err := option(ret); err != nil {
			return nil, err
		}
	}
	ret.handler = NewHandler(config, ret.log)
	ret.limiter = NewLimiter(config.RateLimit)
	return ret, nil
}

// Handler builds the HTTP handler chain: request logging outermost, CORS
// when configured, then rate limiting, then the shared secret check, then
// the routes. Limiting before authentication keeps secret guessing
// throttled as well.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	s.handler.Register(router)
	for path, handler := range s.customHandlers {
		router.HandleFunc(path, handler)
	}
	middleware := []Middleware{RequestLogging(s.log)}
	if s.config.CORS != nil {
		// preflight requests are answered before authentication
		middleware = append(middleware, CORSHandler(s.config.CORS))
	}
	middleware = append(middleware, RateLimit(s.limiter, s.log), BearerAuth(s.config.SharedSecret, s.log))
	middleware = append(middleware, s.middleware...)
	return ChainMiddlewareHandlers(router, middleware...)
}

// Start listens on the configured address and serves in the background
// until Shutdown. It returns once the listener is bound, so callers can
// dial URL() immediately.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return fmt.Errorf("server: already started")
	}
	listener, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %v: %w", s.config.Addr, err)
	}
	s.listener = listener
	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	if s.useTLS() {
		httpServer.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	s.httpServer = httpServer
	go s.serve(httpServer, listener)
	s.log.WithField("addr", s.baseURL(listener)).Info("token server listening")
	return nil
}

// serve runs on the server captured at Start time, never on the mutable
// field, which Shutdown clears concurrently.
func (s *Server) serve(httpServer *http.Server, listener net.Listener) {
	var err error
	if s.useTLS() {
		err = httpServer.ServeTLS(listener, s.config.CertFile, s.config.KeyFile)
	} else {
		err = httpServer.Serve(listener)
	}
	if err != nil && err != http.ErrServerClosed {
		s.log.Errorf("server stopped unexpectedly: %v", err)
	}
}

// Shutdown drains in-flight requests and stops the listener. Shutting down
// a server that never started is a no-op.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	httpServer := s.httpServer
	s.httpServer = nil
	s.listener = nil
	s.mu.Unlock()
	if httpServer == nil {
		return nil
	}
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

// URL returns the base address of the running server, empty before Start.
func (s *Server) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.baseURL(s.listener)
}

func (s *Server) baseURL(listener net.Listener) string {
	scheme := "http"
	if s.useTLS() {
		scheme = "https"
	}
	return fmt.Sprintf("%v://%v", scheme, listener.Addr())
}

func (s *Server) useTLS() bool {
	return s.config.CertFile != "" && s.config.KeyFile != ""
}
