// Package kv provides the durable key-value store backing the offline
// mutation queue.
//
// The queue needs only three primitives - get, set, remove - with the set
// being a full replacement write. BadgerDB provides them with crash-safe
// durability on disk and an in-memory mode for hermetic tests.
package kv

// Store is the durable key-value surface the queue persists through.
type Store interface {
	// Get returns the value for key. The boolean reports whether the key
	// exists; a missing key is not an error.
	Get(key string) ([]byte, bool, error)

	// Set durably replaces the value for key.
	Set(key string, value []byte) error

	// Remove deletes key. Removing a missing key is a no-op.
	Remove(key string) error

	// Close releases the underlying store.
	Close() error
}
