package app

import (
	"context"
	"net/http"
)

// contextKey is a custom type to use as a key for context values.
type contextKey string

// tokenContextKey is the key for storing the access token in the request context.
const tokenContextKey = contextKey("accessToken")

// requireAuth guards page routes: a browser without a session is redirected
// to the login page.
func (a *Application) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := a.Session.Token(r.Context())
		if token == "" {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, withToken(r, token))
	})
}

// requireToken guards API routes: a missing session yields a 401 instead of
// a redirect.
func (a *Application) requireToken(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := a.Session.Token(r.Context())
		if token == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not logged in"})
			return
		}
		next.ServeHTTP(w, withToken(r, token))
	})
}

// withToken adds the access token to the request's context.
func withToken(r *http.Request, token string) *http.Request {
	ctx := context.WithValue(r.Context(), tokenContextKey, token)
	return r.WithContext(ctx)
}

// tokenFromContext retrieves the access token from the request's context.
func tokenFromContext(r *http.Request) (string, bool) {
	token, ok := r.Context().Value(tokenContextKey).(string)
	return token, ok
}
