// ABOUTME: Semantic cache keys for the query cache
// ABOUTME: Keys are ordered tuples matched by prefix for invalidation

package querycache

import "strings"

// Key addresses a cached query: operation name, parameters, and the identity
// fingerprint when the result depends on the caller.
type Key []string

// NewKey builds a key from its parts.
func NewKey(parts ...string) Key {
	k := make(Key, len(parts))
	copy(k, parts)
	return k
}

// String renders the key with "/" separators.
func (k Key) String() string {
	return strings.Join(k, "/")
}

// HasPrefix reports whether prefix matches the leading elements of k.
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix) > len(k) {
		return false
	}
	for i := range prefix {
		if k[i] != prefix[i] {
			return false
		}
	}
	return true
}

func (k Key) clone() Key {
	return NewKey(k...)
}

// id is the map key; a NUL separator keeps ("a/b") distinct from ("a","b").
func (k Key) id() string {
	return strings.Join(k, "\x00")
}
