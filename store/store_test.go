package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runBlobStoreTests checks the behaviour every backend shares
func runBlobStoreTests(t *testing.T, s BlobStore) {
	t.Run("missing key", func(t *testing.T) {
		_, err := s.Get("missing")
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = s.ModTime("missing")
		assert.ErrorIs(t, err, ErrNotFound)

		exists, err := s.Exists("missing")
		require.NoError(t, err)
		assert.False(t, exists)

		assert.NoError(t, s.Delete("missing"))
	})

	t.Run("put and get", func(t *testing.T) {
		before := time.Now().Add(-time.Second)
		require.NoError(t, s.Put("k1", []byte("value one")))

		data, err := s.Get("k1")
		require.NoError(t, err)
		assert.Equal(t, "value one", string(data))

		exists, err := s.Exists("k1")
		require.NoError(t, err)
		assert.True(t, exists)

		mtime, err := s.ModTime("k1")
		require.NoError(t, err)
		assert.True(t, mtime.After(before), "mtime %v should be after %v", mtime, before)
	})

	t.Run("overwrite", func(t *testing.T) {
		require.NoError(t, s.Put("k1", []byte("value two")))
		data, err := s.Get("k1")
		require.NoError(t, err)
		assert.Equal(t, "value two", string(data))
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.Delete("k1"))
		exists, err := s.Exists("k1")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("flush", func(t *testing.T) {
		require.NoError(t, s.Put("a", []byte("1")))
		require.NoError(t, s.Put("b", []byte("2")))
		require.NoError(t, s.Flush())

		for _, key := range []string{"a", "b"} {
			exists, err := s.Exists(key)
			require.NoError(t, err)
			assert.False(t, exists, "key %s should be flushed", key)
		}

		// flushing twice is a no-op
		assert.NoError(t, s.Flush())
	})
}
