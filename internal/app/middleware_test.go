package app

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tunewave/internal/auth"
)

func TestRequireAuth_RedirectsWhenLoggedOut(t *testing.T) {
	app, _ := newTestApp(t, "https://accounts.example.com/api/token", nil, nil)

	called := false
	handler := app.requireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	location, err := rr.Result().Location()
	require.NoError(t, err)
	assert.Equal(t, "/login", location.Path)
	assert.False(t, called)
}

func TestRequireAuth_PassesTokenThrough(t *testing.T) {
	app, store := newTestApp(t, "https://accounts.example.com/api/token", nil, nil)
	require.NoError(t, store.Set(t.Context(), auth.KeyAccessToken, "tok1"))

	var gotToken string
	handler := app.requireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken, _ = tokenFromContext(r)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "tok1", gotToken)
}

func TestRequireToken_UnauthorizedJSON(t *testing.T) {
	app, _ := newTestApp(t, "https://accounts.example.com/api/token", nil, nil)

	handler := app.requireToken(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without a session")
	})

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/api/me/top/tracks", nil))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error": "not logged in"}`, rr.Body.String())
}
