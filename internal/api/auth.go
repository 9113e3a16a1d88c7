// internal/api/auth.go
package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// authMiddleware guards the ingest endpoints. The native event endpoint
// takes a bearer JWT; the registry webhook endpoints take HTTP basic auth
// because that is all registries speak. Health, readiness and metrics stay
// open for probes and scrapers.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.config.Auth.Enabled {
			next.ServeHTTP(w, r)
			return
		}

		switch {
		case strings.HasPrefix(r.URL.Path, "/v1/webhooks/"):
			if !s.checkBasicAuth(r) {
				s.metrics.RecordEventRejected("auth")
				w.Header().Set("WWW-Authenticate", `Basic realm="catapult"`)
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
		case strings.HasPrefix(r.URL.Path, "/v1/"):
			if err := s.checkBearerToken(r); err != nil {
				s.metrics.RecordEventRejected("auth")
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) checkBearerToken(r *http.Request) error {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return fmt.Errorf("missing bearer token")
	}

	_, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.config.Auth.JWTSecret), nil
	})
	if err != nil {
		return fmt.Errorf("parse token: %w", err)
	}
	return nil
}

func (s *Server) checkBasicAuth(r *http.Request) bool {
	user, pass, ok := r.BasicAuth()
	if !ok {
		return false
	}
	hash, ok := s.config.Auth.BasicUsers[user]
	if !ok {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pass)) == nil
}
