package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/zmb3/spotify"
	"golang.org/x/oauth2"
)

// Config carries the OAuth client settings for the accounts service. The
// client identifier always arrives from configuration, never from a
// compiled-in literal.
type Config struct {
	ClientID    string
	RedirectURL string
	Scopes      []string

	// Endpoint overrides the Spotify accounts endpoints. Tests point it at
	// a local server; production leaves it nil.
	Endpoint *oauth2.Endpoint

	// HTTPClient performs the token exchange when set.
	HTTPClient *http.Client
}

// Manager builds authorization redirect URLs and exchanges one-time codes
// for access tokens. It is a public OAuth client: no client secret, PKCE
// carries the proof instead.
type Manager struct {
	config *oauth2.Config
	store  CredentialStore
	client *http.Client
}

// NewManager creates a Manager persisting its pending verifier in store.
func NewManager(cfg Config, store CredentialStore) *Manager {
	endpoint := oauth2.Endpoint{
		AuthURL:   spotify.AuthURL,
		TokenURL:  spotify.TokenURL,
		AuthStyle: oauth2.AuthStyleInParams,
	}
	if cfg.Endpoint != nil {
		endpoint = *cfg.Endpoint
	}

	return &Manager{
		config: &oauth2.Config{
			ClientID:    cfg.ClientID,
			RedirectURL: cfg.RedirectURL,
			Scopes:      cfg.Scopes,
			Endpoint:    endpoint,
		},
		store:  store,
		client: cfg.HTTPClient,
	}
}

// AuthURL generates a fresh verifier/challenge pair, persists the verifier
// and returns the authorization redirect URL. Every call produces a new,
// independent pair; the caller is expected to navigate to the URL
// immediately.
func (m *Manager) AuthURL(ctx context.Context) (string, error) {
	verifier, err := GenerateCodeVerifier(DefaultVerifierLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate code verifier: %w", err)
	}
	if err := m.store.Set(ctx, KeyCodeVerifier, verifier); err != nil {
		return "", fmt.Errorf("failed to store code verifier: %w", err)
	}

	opts := []oauth2.AuthCodeOption{
		oauth2.SetAuthURLParam("code_challenge_method", ChallengeMethodS256),
		oauth2.SetAuthURLParam("code_challenge", ChallengeS256(verifier)),
	}
	return m.config.AuthCodeURL(uuid.NewString(), opts...), nil
}

// Exchange trades a one-time authorization code for an access token using
// the verifier stored by the most recent AuthURL call. The verifier is
// consumed by the attempt whether the server accepts it or not. On failure
// no partial token is returned or persisted.
func (m *Manager) Exchange(ctx context.Context, code string) (string, error) {
	if code == "" {
		return "", fmt.Errorf("%w: empty authorization code", ErrExchangeFailed)
	}

	verifier, err := m.store.Get(ctx, KeyCodeVerifier)
	if err != nil {
		return "", fmt.Errorf("failed to read code verifier: %w", err)
	}
	if verifier == "" {
		return "", ErrMissingVerifier
	}
	defer func() {
		_ = m.store.Delete(ctx, KeyCodeVerifier)
	}()

	if m.client != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, m.client)
	}

	token, err := m.config.Exchange(ctx, code,
		oauth2.SetAuthURLParam("code_verifier", verifier))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("%w: response missing access token", ErrExchangeFailed)
	}
	return token.AccessToken, nil
}
