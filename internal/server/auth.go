package server

import (
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// authorized checks the request's bearer token against the configured
// bcrypt hash. No configured hash means open access.
func (s *Server) authorized(r *http.Request) bool {
	hash := s.cfg.Server.APITokenHash
	if hash == "" {
		return true
	}

	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(token)) == nil
}

// HashToken produces a bcrypt hash for the api_token_hash config field.
func HashToken(token string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
