package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Read when a key has never been written. Callers
// that hold collections treat it the same as an empty collection.
var ErrNotFound = errors.New("key not found")

// Store is the shared record store: raw serialized values addressed by
// composable string keys. There is no locking and no versioning; two writers
// racing on the same key produce a last-writer-wins outcome. "Ownership" of a
// key is a naming convention, not an enforced boundary.
type Store interface {
	Read(ctx context.Context, key string) (string, error)
	Write(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
