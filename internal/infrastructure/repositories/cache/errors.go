package cache

import "errors"

var (
	// ErrKeyNotFound is returned by a backend when the key is absent
	ErrKeyNotFound = errors.New("key not found")
	// ErrKeyExpired is returned by the memory backend for a lazily expired key
	ErrKeyExpired = errors.New("key expired")
)

// IsMiss reports whether err just means the key is not usable
func IsMiss(err error) bool {
	return errors.Is(err, ErrKeyNotFound) || errors.Is(err, ErrKeyExpired)
}
