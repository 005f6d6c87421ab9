// Package storage is the read/write boundary between in-memory store state
// and the durable, shared key-value entries. Entries are plain JSON files so
// every client context on the machine can read and watch them.
package storage

import "errors"

// Fixed entry keys. The entries are the sole wire format between contexts.
const (
	KeyCart      = "cart"
	KeyFavorites = "favorites"
)

// ErrQuotaExceeded reports that the durable write failed because storage
// capacity was exhausted. The persister reacts by clearing the entry and
// retrying once.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// KV is the durable key-value storage shared by all contexts.
//
// Readers must tolerate a concurrently written value disappearing or
// changing shape between read and use; shape validation happens in the
// store decode step, not here.
type KV interface {
	// Get returns the entry bytes, or found=false when the entry is absent.
	Get(key string) (data []byte, found bool, err error)
	// Put overwrites the entry.
	Put(key string, data []byte) error
	// Delete removes the entry. Deleting an absent entry is not an error.
	Delete(key string) error
	// Close releases any resources held by the storage.
	Close() error
}
