// Package storage provides the durable key-value regions the sync layer
// persists into: a persistent region for tokens and the authoritative
// profile, and a session region for the query-cache blob.
package storage

import "errors"

// ErrQuotaExceeded is returned by Set when the backing medium refuses the
// write for capacity reasons. Callers recover by clearing and retrying once.
var ErrQuotaExceeded = errors.New("storage: quota exceeded")

// Store is a synchronous origin-scoped key-value region.
type Store interface {
	// Get returns the stored value and whether the key was present.
	Get(key string) (string, bool)
	// Set stores a value. It may fail with ErrQuotaExceeded (or a wrapped
	// I/O error) when the medium is full.
	Set(key, value string) error
	// Remove deletes a key. Removing an absent key is a no-op.
	Remove(key string)
}
