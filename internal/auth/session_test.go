package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T, tokenURL string, client *http.Client) (*Session, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	cfg := testManagerConfig(tokenURL)
	cfg.HTTPClient = client
	manager := NewManager(cfg, store)
	return NewSession(manager, store, zerolog.Nop()), store
}

func TestSession_LoginIssuesFreshAttempt(t *testing.T) {
	session, store := newTestSession(t, "https://accounts.example.com/api/token", nil)
	ctx := context.Background()

	authURL, err := session.Login(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateAuthorizing, session.State())

	parsed, err := url.Parse(authURL)
	require.NoError(t, err)
	q := parsed.Query()

	verifier, err := store.Get(ctx, KeyCodeVerifier)
	require.NoError(t, err)
	require.NotEmpty(t, verifier)
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
	assert.Equal(t, ChallengeS256(verifier), q.Get("code_challenge"))
}

func TestSession_CallbackSuccess(t *testing.T) {
	var hits atomic.Int32
	srv := tokenServer(t, http.StatusOK, `{"access_token": "tok1", "token_type": "Bearer"}`, &hits)
	defer srv.Close()

	session, store := newTestSession(t, srv.URL+"/api/token", srv.Client())
	ctx := context.Background()

	_, err := session.Login(ctx)
	require.NoError(t, err)

	token, err := session.HandleCallback(ctx, "XYZ")
	require.NoError(t, err)
	assert.Equal(t, "tok1", token)
	assert.Equal(t, StateLoggedIn, session.State())
	assert.Equal(t, "tok1", session.Token(ctx))

	// The consumed verifier is gone.
	verifier, err := store.Get(ctx, KeyCodeVerifier)
	require.NoError(t, err)
	assert.Empty(t, verifier)
	assert.Equal(t, int32(1), hits.Load())
}

func TestSession_CallbackRejected(t *testing.T) {
	srv := tokenServer(t, http.StatusBadRequest, `{"error": "invalid_grant"}`, nil)
	defer srv.Close()

	session, store := newTestSession(t, srv.URL+"/api/token", srv.Client())
	ctx := context.Background()

	_, err := session.Login(ctx)
	require.NoError(t, err)

	token, err := session.HandleCallback(ctx, "XYZ")
	require.ErrorIs(t, err, ErrExchangeFailed)
	assert.Empty(t, token)

	// Clean logged-out state: no token, no leftover verifier.
	assert.Equal(t, StateLoggedOut, session.State())
	assert.Empty(t, session.Token(ctx))
	verifier, getErr := store.Get(ctx, KeyCodeVerifier)
	require.NoError(t, getErr)
	assert.Empty(t, verifier)
}

func TestSession_CallbackMissingVerifier(t *testing.T) {
	var hits atomic.Int32
	srv := tokenServer(t, http.StatusOK, `{"access_token": "tok1"}`, &hits)
	defer srv.Close()

	session, _ := newTestSession(t, srv.URL+"/api/token", srv.Client())

	// No Login call, so no verifier was ever stored.
	_, err := session.HandleCallback(context.Background(), "XYZ")
	require.ErrorIs(t, err, ErrMissingVerifier)
	assert.Equal(t, StateLoggedOut, session.State())
	assert.Equal(t, int32(0), hits.Load())
}

func TestSession_OneExchangePerCode_Concurrent(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		time.Sleep(50 * time.Millisecond)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token": "tok1", "token_type": "Bearer"}`))
	}))
	defer srv.Close()

	session, _ := newTestSession(t, srv.URL+"/api/token", srv.Client())
	ctx := context.Background()

	_, err := session.Login(ctx)
	require.NoError(t, err)

	var wg sync.WaitGroup
	tokens := make([]string, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tokens[i], errs[i] = session.HandleCallback(ctx, "XYZ")
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, "tok1", tokens[0])
	assert.Equal(t, "tok1", tokens[1])
	assert.Equal(t, int32(1), hits.Load(), "concurrent callbacks must share one exchange")
}

func TestSession_OneExchangePerCode_Sequential(t *testing.T) {
	var hits atomic.Int32
	srv := tokenServer(t, http.StatusOK, `{"access_token": "tok1", "token_type": "Bearer"}`, &hits)
	defer srv.Close()

	session, _ := newTestSession(t, srv.URL+"/api/token", srv.Client())
	ctx := context.Background()

	_, err := session.Login(ctx)
	require.NoError(t, err)

	first, err := session.HandleCallback(ctx, "XYZ")
	require.NoError(t, err)

	// A re-render style repeat for the same code replays the first outcome
	// instead of re-submitting the consumed code.
	second, err := session.HandleCallback(ctx, "XYZ")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "tok1", session.Token(ctx))
	assert.Equal(t, int32(1), hits.Load())
}

func TestSession_Logout(t *testing.T) {
	session, store := newTestSession(t, "https://accounts.example.com/api/token", nil)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, KeyAccessToken, "tok1"))
	require.NoError(t, store.Set(ctx, KeyCodeVerifier, "leftover-verifier"))
	session.Resume(ctx)
	require.Equal(t, StateLoggedIn, session.State())

	require.NoError(t, session.Logout(ctx))

	assert.Equal(t, StateLoggedOut, session.State())
	assert.Empty(t, session.Token(ctx))
	verifier, err := store.Get(ctx, KeyCodeVerifier)
	require.NoError(t, err)
	assert.Empty(t, verifier)
}

func TestSession_Invalidate(t *testing.T) {
	session, store := newTestSession(t, "https://accounts.example.com/api/token", nil)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, KeyAccessToken, "tok1"))
	session.Resume(ctx)
	require.Equal(t, StateLoggedIn, session.State())

	// A downstream call reported the token as rejected.
	require.NoError(t, session.Invalidate(ctx))

	assert.Equal(t, StateLoggedOut, session.State())
	assert.Empty(t, session.Token(ctx))
}

func TestSession_Resume(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  State
	}{
		{
			name:  "stored token survives restart",
			token: "tok1",
			want:  StateLoggedIn,
		},
		{
			name: "empty store starts logged out",
			want: StateLoggedOut,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session, store := newTestSession(t, "https://accounts.example.com/api/token", nil)
			ctx := context.Background()
			if tt.token != "" {
				require.NoError(t, store.Set(ctx, KeyAccessToken, tt.token))
			}

			assert.Equal(t, tt.want, session.Resume(ctx))
		})
	}
}
