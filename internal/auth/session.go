package auth

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"tunewave/internal/metrics"
)

// State identifies where a session is in the authorization lifecycle.
type State int

const (
	// StateLoggedOut is the initial state and the one every failure path
	// lands back in.
	StateLoggedOut State = iota
	// StateAuthorizing means the redirect URL has been issued and the user
	// is away at the accounts service.
	StateAuthorizing
	// StateExchanging means a code came back and its exchange is in flight.
	StateExchanging
	// StateLoggedIn means a valid token is present in the store.
	StateLoggedIn
	// StateFailed is transient: an exchange or downstream call failed and
	// the session is being demoted to StateLoggedOut.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateLoggedOut:
		return "logged_out"
	case StateAuthorizing:
		return "authorizing"
	case StateExchanging:
		return "exchanging"
	case StateLoggedIn:
		return "logged_in"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Session orchestrates the PKCE flow. It is the single writer to the
// credential store: tokens enter it through HandleCallback and leave it
// through Logout or Invalidate. Consumers read the current token with Token.
type Session struct {
	manager *Manager
	store   CredentialStore
	logger  zerolog.Logger

	// group collapses concurrent exchange attempts for one code into a
	// single token endpoint POST.
	group singleflight.Group

	mu        sync.Mutex
	state     State
	lastCode  string
	lastToken string
	lastErr   error
}

// NewSession creates a Session in the logged-out state.
func NewSession(manager *Manager, store CredentialStore, logger zerolog.Logger) *Session {
	return &Session{
		manager: manager,
		store:   store,
		logger:  logger,
		state:   StateLoggedOut,
	}
}

// Resume derives the session state from the store, typically at startup: a
// stored token means the previous login survives the restart.
func (s *Session) Resume(ctx context.Context) State {
	token, err := s.store.Get(ctx, KeyAccessToken)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil && token != "" {
		s.state = StateLoggedIn
	} else {
		s.state = StateLoggedOut
	}
	s.logger.Info().Stringer("state", s.state).Msg("session resumed")
	return s.state
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Login starts a fresh authorization attempt and returns the redirect URL.
func (s *Session) Login(ctx context.Context) (string, error) {
	url, err := s.manager.AuthURL(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("cannot start login")
		return "", err
	}

	s.setState(StateAuthorizing)
	metrics.LoginsStarted.Inc()
	return url, nil
}

// HandleCallback consumes the one-time authorization code delivered on the
// redirect back and returns the resulting access token. The exchange runs at
// most once per code: concurrent calls share one in-flight attempt and later
// calls replay its outcome instead of re-submitting an already-consumed code.
// On failure the store is left clean so the next login starts fresh.
func (s *Session) HandleCallback(ctx context.Context, code string) (string, error) {
	if code == "" {
		return "", fmt.Errorf("%w: empty authorization code", ErrExchangeFailed)
	}

	s.mu.Lock()
	if code == s.lastCode {
		token, err := s.lastToken, s.lastErr
		s.mu.Unlock()
		return token, err
	}
	s.state = StateExchanging
	s.mu.Unlock()

	v, err, _ := s.group.Do(code, func() (interface{}, error) {
		token, err := s.manager.Exchange(ctx, code)
		if err != nil {
			return "", err
		}
		if err := s.store.Set(ctx, KeyAccessToken, token); err != nil {
			return "", fmt.Errorf("failed to store access token: %w", err)
		}
		return token, nil
	})
	token, _ := v.(string)

	s.mu.Lock()
	s.lastCode = code
	s.lastToken = token
	s.lastErr = err
	s.mu.Unlock()

	if err != nil {
		s.setState(StateFailed)
		metrics.TokenExchanges.WithLabelValues("failure").Inc()
		s.logger.Warn().Err(err).Msg("token exchange failed")
		if clearErr := s.clear(ctx); clearErr != nil {
			s.logger.Error().Err(clearErr).Msg("failed to clear credentials after exchange failure")
		}
		s.setState(StateLoggedOut)
		return "", err
	}

	s.setState(StateLoggedIn)
	metrics.TokenExchanges.WithLabelValues("success").Inc()
	s.logger.Info().Msg("token exchange succeeded")
	return token, nil
}

// Token returns the current access token, or the empty string when logged
// out. Session state is exactly "token present": there is no separate flag
// to drift out of sync.
func (s *Session) Token(ctx context.Context) string {
	token, err := s.store.Get(ctx, KeyAccessToken)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to read access token")
		return ""
	}
	return token
}

// Logout removes the token and any pending verifier.
func (s *Session) Logout(ctx context.Context) error {
	metrics.Logouts.WithLabelValues("user").Inc()
	s.logger.Info().Msg("logging out")
	err := s.clear(ctx)
	s.setState(StateLoggedOut)
	return err
}

// Invalidate is the downstream authentication-failure signal: a resource
// request made with the current token was rejected, so the token is dropped
// and the session demoted to logged-out. The user must log in again.
func (s *Session) Invalidate(ctx context.Context) error {
	metrics.Logouts.WithLabelValues("downstream").Inc()
	s.logger.Warn().Msg("access token rejected downstream, clearing session")
	s.setState(StateFailed)
	err := s.clear(ctx)
	s.setState(StateLoggedOut)
	return err
}

// clear removes both durable entries.
func (s *Session) clear(ctx context.Context) error {
	tokenErr := s.store.Delete(ctx, KeyAccessToken)
	verifierErr := s.store.Delete(ctx, KeyCodeVerifier)
	if tokenErr != nil {
		return fmt.Errorf("failed to clear access token: %w", tokenErr)
	}
	if verifierErr != nil {
		return fmt.Errorf("failed to clear code verifier: %w", verifierErr)
	}
	return nil
}

func (s *Session) setState(next State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != next {
		s.logger.Debug().Stringer("from", s.state).Stringer("to", next).Msg("session state change")
		s.state = next
	}
}
