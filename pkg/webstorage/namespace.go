package webstorage

import "strings"

// Namespaced views share a backing store by prefixing each logical key with
// "<namespace>/". A view without a namespace stores logical keys verbatim
// but excludes every namespace-shaped key from enumeration, so the two kinds
// of view never overlap.

// EncodeKey translates a logical key into the physical key stored in the
// backend. With an empty namespace the logical and physical keys are
// identical.
func EncodeKey(namespace, key string) string {
	if namespace == "" {
		return key
	}
	return namespace + "/" + key
}

// BelongsTo reports whether a physical key is visible in the view bound to
// namespace. For a named namespace that means carrying its "<namespace>/"
// prefix. For the empty namespace the key must not contain a slash with
// non-empty text on both sides: such keys are reserved for namespaced views
// whether or not the prefix is in use, which also means an un-namespaced
// view can never enumerate a logical key like "a/b".
func BelongsTo(physical, namespace string) bool {
	if namespace != "" {
		return strings.HasPrefix(physical, namespace+"/")
	}
	for i := 1; i+1 < len(physical); i++ {
		if physical[i] == '/' {
			return false
		}
	}
	return true
}

// DecodeKey translates a physical key back into the logical key seen by the
// view bound to namespace. It is only meaningful when BelongsTo holds.
func DecodeKey(physical, namespace string) string {
	if namespace == "" {
		return physical
	}
	return strings.TrimPrefix(physical, namespace+"/")
}
