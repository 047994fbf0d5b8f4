// Package session moves session credentials between HTTP requests and responses.
package session

import (
	"net/http"
	"strings"
	"time"
)

// CookieName is the cookie carrying the session credential
const CookieName = "sid"

// MaxAge is how long browsers keep the cookie. The server does not enforce it.
const MaxAge = 30 * 24 * time.Hour

// Token extracts the credential from the sid cookie, falling back to a
// bearer Authorization header for non-browser clients
func Token(r *http.Request) string {
	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}

	return ""
}

// SetCookie stores the credential in the browser
func SetCookie(w http.ResponseWriter, token string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie removes the credential from the browser
func ClearCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
