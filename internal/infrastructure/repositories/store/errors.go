package store

import "errors"

// ErrNotFound is returned by Load when the key has never been saved
var ErrNotFound = errors.New("store: key not found")

// ErrClosed is returned after Close
var ErrClosed = errors.New("store: closed")
