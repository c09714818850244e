package auth

import "context"

// Names of the two durable credential entries.
const (
	KeyAccessToken  = "access_token"
	KeyCodeVerifier = "code_verifier"
)

// CredentialStore is the durable storage behind a session. Both entries are
// plain opaque strings. Get returns the empty string with a nil error for an
// absent entry; Delete of an absent entry is not an error.
//
// Only the session controller writes to the store.
type CredentialStore interface {
	Get(ctx context.Context, name string) (string, error)
	Set(ctx context.Context, name, value string) error
	Delete(ctx context.Context, name string) error
}
