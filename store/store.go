// Stores serialized cache entries by key
package store

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a key has no stored entry
var ErrNotFound = errors.New("entry not found")

// BlobStore interface for storage operations
type BlobStore interface {
	// stores data at key, replacing any previous value and refreshing its modification time
	Put(key string, data []byte) error
	// returns the stored data, or ErrNotFound
	Get(key string) ([]byte, error)
	// removes the entry; no error when it does not exist
	Delete(key string) error
	Exists(key string) (bool, error)
	// returns the last write time of the entry, or ErrNotFound
	ModTime(key string) (time.Time, error)
	// removes every entry
	Flush() error
}
