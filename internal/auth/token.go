package auth

import (
	"net/http"
	"strings"
)

// AccessTokenCookie is set by the booking frontend after login.
const AccessTokenCookie = "access_token"

// ExtractAccessToken reads the client token, preferring the cookie over a
// Bearer Authorization header.
func ExtractAccessToken(r *http.Request) string {
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	authHeader := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
		return strings.TrimSpace(token)
	}

	return ""
}
