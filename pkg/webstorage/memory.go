package webstorage

import (
	"sort"
	"sync"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// MemoryBackend provides a simple in-memory Backend mostly for examples or
// testing.
//
// Entries enumerate in insertion order: overwriting a key keeps its
// position, removing and re-inserting a key moves it to the end. An RWMutex
// guards the map so facades on different goroutines can share one backend.
type MemoryBackend struct {
	entries *orderedmap.OrderedMap[string, string]
	mu      sync.RWMutex
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		entries: orderedmap.New[string, string](),
	}
}

// NewSeededMemoryBackend creates an in-memory backend pre-populated with the
// seed entries, inserted in sorted key order so enumeration is deterministic.
func NewSeededMemoryBackend(seed map[string]string) *MemoryBackend {
	b := NewMemoryBackend()
	keys := make([]string, 0, len(seed))
	for key := range seed {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		b.entries.Set(key, seed[key])
	}
	return b
}

// Verify it implements the interface
var _ Backend = (*MemoryBackend)(nil)

// Len returns the number of entries.
func (b *MemoryBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.entries.Len()
}

// Key returns the key at position i in insertion order.
func (b *MemoryBackend) Key(i int) (string, bool) {
	if i < 0 {
		panic("webstorage: negative index")
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if i >= b.entries.Len() {
		return "", false
	}
	pair := b.entries.Oldest()
	for ; i > 0; i-- {
		pair = pair.Next()
	}
	return pair.Key, true
}

// Get retrieves the value for a key.
func (b *MemoryBackend) Get(key string) (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.entries.Get(key)
}

// Set inserts or overwrites a key. It always succeeds.
func (b *MemoryBackend) Set(key, value string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries.Set(key, value)
	return nil
}

// Remove deletes a key.
func (b *MemoryBackend) Remove(key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries.Delete(key)
	return nil
}

// Clear removes all entries.
func (b *MemoryBackend) Clear() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries = orderedmap.New[string, string]()
	return nil
}
