package webstorage

import "context"

// Iterator walks the (key, value) pairs of a view. The visible key set is
// snapshotted when the iterator is created; values are decoded lazily as the
// iterator advances, so a key removed mid-iteration yields a nil value and a
// key rewritten mid-iteration yields the live one.
//
// Example:
//
//	it := store.Iterate()
//	for it.Next() {
//		fmt.Println(it.Key(), it.Value())
//	}
//	if err := it.Err(); err != nil {
//		// stored text the codec could not decode
//	}
type Iterator struct {
	storage *Storage
	keys    []string
	pos     int
	key     string
	value   any
	err     error
}

// Iterate starts a new iteration over the keys visible right now. Each call
// takes a fresh snapshot, so iteration is restartable. No ordering is
// guaranteed.
func (s *Storage) Iterate() *Iterator {
	return &Iterator{
		storage: s,
		keys:    s.visibleKeys(),
		pos:     -1,
	}
}

// Next advances to the next pair. It returns false when the snapshot is
// exhausted or decoding a value failed; Err distinguishes the two.
func (it *Iterator) Next() bool {
	if it.err != nil {
		return false
	}
	it.pos++
	if it.pos >= len(it.keys) {
		return false
	}
	it.key = it.keys[it.pos]
	value, _, err := it.storage.Get(it.key)
	if err != nil {
		it.err = err
		return false
	}
	it.value = value
	return true
}

// Key returns the logical key of the current pair.
func (it *Iterator) Key() string { return it.key }

// Value returns the decoded value of the current pair, nil when the key
// vanished after the snapshot was taken.
func (it *Iterator) Value() any { return it.value }

// Err returns the decode failure that ended iteration early, if any.
func (it *Iterator) Err() error { return it.err }

// Entry is one pair produced by Stream. A failed decode is delivered as an
// Entry with Err set, after which the channel closes.
type Entry struct {
	Key   string
	Value any
	Err   error
}

// Stream iterates with the same snapshot semantics as Iterate but delivers
// the pairs on a channel, so callers in select loops can interleave
// consumption with other work. The snapshot is taken before Stream returns.
// The channel closes when the snapshot is exhausted, an entry carries a
// decode failure, or ctx is canceled.
//
// Example:
//
//	for entry := range store.Stream(ctx) {
//		if entry.Err != nil {
//			return entry.Err
//		}
//		fmt.Println(entry.Key, entry.Value)
//	}
func (s *Storage) Stream(ctx context.Context) <-chan Entry {
	keys := s.visibleKeys()
	out := make(chan Entry)

	go func() {
		defer close(out)
		for _, key := range keys {
			value, _, err := s.Get(key)
			select {
			case out <- Entry{Key: key, Value: value, Err: err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()

	return out
}
