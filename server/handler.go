package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/viant/tokenbroker/credential"
)

// Route paths served by the handler.
const (
	tokenPath  = "/token"
	healthPath = "/health"
)

// scopeSuffix is required on every requested scope.
const scopeSuffix = "/.default"

// tokenPayload is the wire shape of a successful token answer.
type tokenPayload struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Scope       string `json:"scope"`
}

// errorPayload is the wire shape of every error answer.
type errorPayload struct {
	Error string `json:"error"`
}

// Handler serves the token and health endpoints.
type Handler struct {
	config    *Config
	issuer    *Issuer
	mintCache *gocache.Cache
	log       *logrus.Logger
}

// NewHandler creates a handler minting tokens per config.
func NewHandler(config *Config, log *logrus.Logger) *Handler {
	return &Handler{
		config:    config,
		issuer:    NewIssuer(config.SharedSecret, config.TokenIssuer),
		mintCache: gocache.New(config.mintCacheTTL(), 10*time.Minute),
		log:       log,
	}
}

// Register mounts the handler routes on router.
func (h *Handler) Register(router *mux.Router) {
	router.HandleFunc(tokenPath, h.handleToken).Methods(http.MethodGet)
	router.HandleFunc(healthPath, h.handleHealth).Methods(http.MethodGet)
}

// handleToken answers GET /token?scope={scope}. A previously minted token
// is re-served with its remaining lifetime while the mint cache holds it,
// otherwise a fresh token is minted and cached.
func (h *Handler) handleToken(w http.ResponseWriter, r *http.Request) {
	scope := r.URL.Query().Get("scope")
	if scope == "" {
		scope = credential.DefaultScope
	}
	if !strings.HasSuffix(scope, scopeSuffix) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("scope must end with %v", scopeSuffix))
		return
	}
	if cached, found := h.mintCache.Get(scope); found {
		h.writeToken(w, cached.(*Minted))
		return
	}
	minted, err := h.issuer.Issue(scope, h.config.TokenTTL)
	if err != nil {
		h.log.WithField("scope", scope).Errorf("failed to mint token: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to mint token")
		return
	}
	if ttl := h.config.mintCacheTTL(); ttl > 0 {
		h.mintCache.Set(scope, minted, ttl)
	}
	h.log.WithFields(logrus.Fields{"scope": scope, "expiresAt": minted.ExpiresAt.Format(time.RFC3339)}).Info("minted token")
	h.writeToken(w, minted)
}

// writeToken answers with the token and its remaining lifetime, so a
// re-served mint advertises a shorter expires_in than a fresh one.
func (h *Handler) writeToken(w http.ResponseWriter, minted *Minted) {
	expiresIn := int(time.Until(minted.ExpiresAt) / time.Second)
	writeJSON(w, http.StatusOK, &tokenPayload{
		AccessToken: minted.Token,
		TokenType:   "Bearer",
		ExpiresIn:   expiresIn,
		Scope:       minted.Scope,
	})
}

// handleHealth answers the unauthenticated health probe.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, &errorPayload{Error: message})
}
