package kvslot

import "context"

// Slot is a durable text-only key-value store. The persistence adapter keeps
// a single JSON blob per well-known key in it.
type Slot interface {
	// Get returns the stored value and whether the key was present.
	// Absence of a key is not an error.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
	Close(ctx context.Context) error
}
