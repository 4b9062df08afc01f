package server

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/zeusync/vectorlab/internal/core/observability/log"
)

// Authenticator admits or rejects a request before it reaches a room.
type Authenticator interface {
	Authenticate(r *http.Request) error
}

// TokenAuthenticator accepts requests carrying a shared token, either as the
// token query parameter (browsers cannot set headers on WebSocket upgrades)
// or as a bearer token. An empty token admits everyone.
type TokenAuthenticator struct {
	Token string
}

func (a TokenAuthenticator) Authenticate(r *http.Request) error {
	if a.Token == "" {
		return nil
	}

	token := r.URL.Query().Get("token")
	if token == "" {
		token, _ = strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(a.Token)) != 1 {
		return ErrUnauthorized
	}
	return nil
}

func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.auth.Authenticate(r); err != nil {
			s.logger.WithContext(r.Context()).Warn("Rejected request", log.String("path", r.URL.Path), log.Error(err))
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}
