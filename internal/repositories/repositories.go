package repositories

import (
	"context"
	"fmt"

	"github.com/desertthunder/filmx/internal/shared"
)

// CredentialStore persists string values under string keys.
//
// Backends perform no validation of the stored value.
type CredentialStore interface {
	Save(ctx context.Context, key, value string) error          // Save upserts value under key
	Load(ctx context.Context, key string) (string, bool, error) // Load returns the value and whether it exists
	Delete(ctx context.Context, key string) error               // Delete removes key; deleting a missing key is not an error
	Name() string                                               // Name identifies the backend in logs
}

// storageError wraps err so callers can match [shared.ErrStorageUnavailable].
func storageError(op, backend string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", shared.ErrStorageUnavailable, backend, op, err)
}
