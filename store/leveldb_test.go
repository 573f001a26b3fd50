package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"
)

func fixtureLevelDB(t *testing.T) *LevelDB {
	t.Helper()
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	require.NoError(t, err)
	l := NewLevelDB(db)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestLevelDB(t *testing.T) {
	runBlobStoreTests(t, fixtureLevelDB(t))
}

func TestLevelDBModTimeRoundTrip(t *testing.T) {
	l := fixtureLevelDB(t)
	stamp := time.Date(2024, 5, 1, 12, 0, 0, 123, time.UTC)
	l.now = func() time.Time { return stamp }

	require.NoError(t, l.Put("key", []byte("data")))

	mtime, err := l.ModTime("key")
	require.NoError(t, err)
	assert.True(t, stamp.Equal(mtime), "got %v, want %v", mtime, stamp)
}

func TestLevelDBFlushKeepsForeignKeys(t *testing.T) {
	l := fixtureLevelDB(t)
	require.NoError(t, l.db.Put([]byte("other/key"), []byte("keep"), nil))
	require.NoError(t, l.Put("key", []byte("data")))

	require.NoError(t, l.Flush())

	has, err := l.db.Has([]byte("other/key"), nil)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestOpenLevelDB(t *testing.T) {
	l, err := OpenLevelDB(filepath.Join(t.TempDir(), "db"))
	require.NoError(t, err)
	defer func() { _ = l.Close() }()

	require.NoError(t, l.Put("key", []byte("data")))
	data, err := l.Get("key")
	require.NoError(t, err)
	assert.Equal(t, "data", string(data))
}
