package validators

import (
	"errors"
	"net/http"
	"strings"
)

var ErrMissingToken = errors.New("missing bearer token")

// BearerToken extracts the token from an Authorization header, accepting the
// value with or without the "Bearer " prefix.
func BearerToken(r *http.Request) (string, error) {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return "", ErrMissingToken
	}
	token := raw
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	if token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}
