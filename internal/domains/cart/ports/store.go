package ports

import "context"

// PersistentStore abstracts the key-value medium holding the serialized cart.
type PersistentStore interface {
	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}
