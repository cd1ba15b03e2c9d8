package http

import (
	"net/http"
	"strings"
)

// bearerToken extracts the token from an "Authorization: Bearer xyz"
// header. Empty string when the header is missing or malformed.
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
