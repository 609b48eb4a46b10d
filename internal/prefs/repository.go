// Package prefs persists the user's line-filter selection across refresh
// cycles. Storage failures never escape this package; they degrade to "no
// saved preference".
package prefs

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no value is stored under a key.
var ErrNotFound = errors.New("preference not found")

// Repository defines raw key/value storage for preference payloads. The
// payload is opaque at this layer; Store owns the JSON schema.
type Repository interface {
	// Get retrieves the payload stored under key.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores the payload under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes the payload stored under key. Deleting an absent key
	// is not an error.
	Delete(ctx context.Context, key string) error
}
