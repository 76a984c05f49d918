package webstorage

import "errors"

// ErrQuotaExceeded is returned by Backend.Set when a write would exceed the
// backend's capacity. Storage.Set translates it into a false result instead
// of surfacing it as an error.
var ErrQuotaExceeded = errors.New("webstorage: quota exceeded")

// Backend is the minimal contract every physical key-value store must expose.
//
// Keys and values are raw strings; Storage layers namespacing and value
// serialization on top. Enumeration via Len and Key is positional with no
// ordering guarantee, and positions are stable only in the absence of
// interleaved mutation.
type Backend interface {
	// Len returns the number of entries.
	Len() int

	// Key returns the key at position i, with false when i is at or past
	// the end. A negative i is a programmer error and panics.
	Key(i int) (string, bool)

	// Get retrieves the value for a key, with false when absent.
	Get(key string) (string, bool)

	// Set inserts or overwrites a key. It returns ErrQuotaExceeded,
	// possibly wrapped, when the write would exceed capacity. Failed
	// writes are never silently dropped.
	Set(key, value string) error

	// Remove deletes a key. Removing an absent key is not an error.
	Remove(key string) error

	// Clear removes all entries.
	Clear() error
}
