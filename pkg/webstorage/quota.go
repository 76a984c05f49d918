package webstorage

import (
	"fmt"
	"sync"
)

// QuotaBackend caps the total size of another Backend, counting key and
// value bytes. Writes that would exceed the budget fail with
// ErrQuotaExceeded, which Storage.Set reports as a false result; reads and
// removals pass through unchanged.
//
// Usage is recomputed by scanning the wrapped backend on each write, so the
// budget stays correct even when other callers mutate the backend directly.
//
// Example:
//
//	backend := webstorage.NewQuotaBackend(webstorage.NewMemoryBackend(), 4096)
//	store := webstorage.New(backend)
//	ok, err := store.Set("blob", strings.Repeat("x", 8192)) // ok == false
type QuotaBackend struct {
	next  Backend
	limit int
	mu    sync.Mutex
}

// NewQuotaBackend wraps next with a byte budget.
func NewQuotaBackend(next Backend, limit int) *QuotaBackend {
	if next == nil {
		panic("webstorage: nil backend")
	}
	return &QuotaBackend{next: next, limit: limit}
}

// Verify it implements the interface
var _ Backend = (*QuotaBackend)(nil)

// Len returns the number of entries in the wrapped backend.
func (q *QuotaBackend) Len() int { return q.next.Len() }

// Key returns the key at position i in the wrapped backend.
func (q *QuotaBackend) Key(i int) (string, bool) { return q.next.Key(i) }

// Get retrieves the value for a key from the wrapped backend.
func (q *QuotaBackend) Get(key string) (string, bool) { return q.next.Get(key) }

// Set writes through to the wrapped backend unless the write would push the
// total stored bytes past the budget.
func (q *QuotaBackend) Set(key, value string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	used := q.usage()
	if current, ok := q.next.Get(key); ok {
		used -= len(key) + len(current)
	}
	if used+len(key)+len(value) > q.limit {
		return fmt.Errorf("%w: %d of %d bytes in use", ErrQuotaExceeded, used, q.limit)
	}
	return q.next.Set(key, value)
}

// Remove deletes a key from the wrapped backend.
func (q *QuotaBackend) Remove(key string) error { return q.next.Remove(key) }

// Clear removes all entries from the wrapped backend.
func (q *QuotaBackend) Clear() error { return q.next.Clear() }

// usage sums the key and value bytes currently stored.
func (q *QuotaBackend) usage() int {
	total := 0
	n := q.next.Len()
	for i := 0; i < n; i++ {
		key, ok := q.next.Key(i)
		if !ok {
			break
		}
		if value, ok := q.next.Get(key); ok {
			total += len(key) + len(value)
		}
	}
	return total
}
