// Package webstorage provides a namespaced, serializing facade over simple
// string key-value stores. Multiple facades can share one backend without
// key collisions by partitioning it with "<namespace>/" key prefixes, and
// values round-trip through a pluggable codec (JSON by default) so callers
// work with structured data instead of raw strings.
package webstorage

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Storage is a namespaced view over a Backend with automatic value
// serialization. The namespace is fixed at construction: a named view reads
// and writes keys under its "<namespace>/" prefix, an unnamed view works
// with bare keys and never enumerates prefixed ones.
//
// Point operations (Get, Has, Set, Delete) address exactly one encoded key;
// Len, Keys, Key, Clear and iteration apply the namespace filter.
type Storage struct {
	backend   Backend
	namespace string
	codec     Codec
	log       zerolog.Logger
}

// Option configures a Storage.
type Option func(*Storage)

// WithNamespace binds the view to a namespace. The empty string leaves the
// view unpartitioned.
func WithNamespace(namespace string) Option {
	return func(s *Storage) {
		s.namespace = namespace
	}
}

// WithSessionNamespace binds the view to a random namespace unique to this
// Storage, giving session-scoped entries on a shared backend.
func WithSessionNamespace() Option {
	return func(s *Storage) {
		s.namespace = uuid.NewString()
	}
}

// WithCodec replaces the default JSONCodec.
func WithCodec(codec Codec) Option {
	return func(s *Storage) {
		s.codec = codec
	}
}

// WithLogger sets the logger for swallowed conditions such as writes
// rejected on capacity. Logging is off by default.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Storage) {
		s.log = log
	}
}

// New creates a Storage over backend. It panics on a nil backend.
//
// Example:
//
//	backend := webstorage.NewMemoryBackend()
//	local := webstorage.New(backend)
//	scoped := webstorage.New(backend, webstorage.WithNamespace("session"))
func New(backend Backend, opts ...Option) *Storage {
	if backend == nil {
		panic("webstorage: nil backend")
	}
	s := &Storage{
		backend: backend,
		codec:   JSONCodec{},
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HasNamespace reports whether the view is bound to a namespace.
func (s *Storage) HasNamespace() bool {
	return s.namespace != ""
}

// Namespace returns the bound namespace, empty when unpartitioned.
func (s *Storage) Namespace() string {
	return s.namespace
}

// Len returns the number of keys visible in this view. It scans the backend
// and applies the namespace filter, so it always equals len(Keys()).
func (s *Storage) Len() int {
	return len(s.visibleKeys())
}

// Keys returns all logical keys visible in this view, in backend
// enumeration order. Callers must not rely on any particular order.
func (s *Storage) Keys() []string {
	return s.visibleKeys()
}

// Key returns the logical key at position i among the visible keys, with
// false when i is at or past the end. A negative i panics.
func (s *Storage) Key(i int) (string, bool) {
	if i < 0 {
		panic("webstorage: negative index")
	}
	keys := s.visibleKeys()
	if i >= len(keys) {
		return "", false
	}
	return keys[i], true
}

// Get retrieves and decodes the value stored under key.
//
// Input: logical key
// Output: decoded value, presence flag, error
// Behavior: absent keys return (nil, false, nil); stored text the codec
// cannot decode returns a *DecodeError
//
// Example:
//
//	value, ok, err := store.Get("profile")
func (s *Storage) Get(key string) (any, bool, error) {
	physical := EncodeKey(s.namespace, key)
	text, ok := s.backend.Get(physical)
	if !ok {
		return nil, false, nil
	}
	value, err := s.codec.Decode(text)
	if err != nil {
		return nil, false, &DecodeError{Key: physical, Err: err}
	}
	return value, true, nil
}

// GetDefault retrieves the value stored under key, returning def when the
// key is absent. Decode failures are still reported.
func (s *Storage) GetDefault(key string, def any) (any, error) {
	value, ok, err := s.Get(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return def, nil
	}
	return value, nil
}

// Has reports whether key exists in the backend under this view's encoding.
func (s *Storage) Has(key string) bool {
	_, ok := s.backend.Get(EncodeKey(s.namespace, key))
	return ok
}

// Set encodes value and writes it under key.
//
// Input: logical key, any codec-encodable value
// Output: success flag, error
// Behavior: a write the backend rejects for capacity returns (false, nil);
// encoding failures and other backend faults return (false, err)
//
// Example:
//
//	ok, err := store.Set("scores", []int{1, 2, 3})
func (s *Storage) Set(key string, value any) (bool, error) {
	text, err := s.codec.Encode(value)
	if err != nil {
		return false, err
	}
	physical := EncodeKey(s.namespace, key)
	if err := s.backend.Set(physical, text); err != nil {
		if errors.Is(err, ErrQuotaExceeded) {
			s.log.Debug().Str("key", physical).Msg("write rejected: quota exceeded")
			return false, nil
		}
		return false, fmt.Errorf("failed to store %q: %w", physical, err)
	}
	return true, nil
}

// Delete removes key from the view. It reports false only when the backend
// fails the removal; deleting an absent key succeeds.
func (s *Storage) Delete(key string) bool {
	physical := EncodeKey(s.namespace, key)
	if err := s.backend.Remove(physical); err != nil {
		s.log.Warn().Err(err).Str("key", physical).Msg("delete failed")
		return false
	}
	return true
}

// Clear removes every key visible in this view. Keys outside the namespace
// filter, including other namespaces on the same backend, stay untouched.
func (s *Storage) Clear() {
	for _, key := range s.visibleKeys() {
		physical := EncodeKey(s.namespace, key)
		if err := s.backend.Remove(physical); err != nil {
			s.log.Warn().Err(err).Str("key", physical).Msg("clear: delete failed")
		}
	}
}

// visibleKeys scans the backend and returns the logical keys belonging to
// this view.
func (s *Storage) visibleKeys() []string {
	n := s.backend.Len()
	keys := make([]string, 0, n)
	for i := 0; i < n; i++ {
		physical, ok := s.backend.Key(i)
		if !ok {
			break
		}
		if BelongsTo(physical, s.namespace) {
			keys = append(keys, DecodeKey(physical, s.namespace))
		}
	}
	return keys
}
