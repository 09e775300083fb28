package identity

import "errors"

// Sentinel error kinds (stable for errors.Is and for mapping to API responses).
var (
	ErrInvalidInput    = errors.New("invalid_input")
	ErrNotFound        = errors.New("not_found")
	ErrConflict        = errors.New("conflict")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrStoreWrite      = errors.New("store_write_failed")
	ErrStoreRead       = errors.New("store_read_failed")
	ErrHashFailed      = errors.New("hash_failed")
)
