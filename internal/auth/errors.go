package auth

import "errors"

var (
	// ErrMissingVerifier means an exchange was attempted without a stored
	// code verifier, e.g. the store was wiped between the redirect out and
	// the redirect back. No request is sent in that case.
	ErrMissingVerifier = errors.New("no pending code verifier")

	// ErrExchangeFailed covers every terminal failure of a token exchange
	// attempt: network error, non-2xx response, or a response without an
	// access token. The attempt is not retried.
	ErrExchangeFailed = errors.New("token exchange failed")
)
