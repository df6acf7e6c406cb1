package ports

import "context"

// CredentialStore is persisted key/value storage that survives agent
// restarts. Implementations must make SetMany atomic: after a failure,
// either all entries are visible or none are.
type CredentialStore interface {
	// Get returns the stored value, or "" when the key is absent.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	// SetMany stores all entries as a single atomic write.
	SetMany(ctx context.Context, entries map[string]string) error
	Remove(ctx context.Context, key string) error
	// Clear removes every key, including ones this component never wrote.
	Clear(ctx context.Context) error
	// Ping verifies the backing storage is reachable and writable.
	Ping(ctx context.Context) error
}
