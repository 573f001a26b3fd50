package store

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

const stampSize = 8

// LevelDB implements BlobStore on a goleveldb database.
// Each value is prefixed with its write time as big-endian unix nanoseconds.
type LevelDB struct {
	db     *leveldb.DB
	prefix []byte
	now    func() time.Time
}

// OpenLevelDB opens (or creates) a database at path
func OpenLevelDB(path string) (*LevelDB, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("opening leveldb at %s: %w", path, err)
	}
	return NewLevelDB(db), nil
}

// NewLevelDB wraps an open database
func NewLevelDB(db *leveldb.DB) *LevelDB {
	return &LevelDB{
		db:     db,
		prefix: []byte("webcache/"),
		now:    time.Now,
	}
}

func (l *LevelDB) Close() error {
	return l.db.Close()
}

func (l *LevelDB) key(key string) []byte {
	return append(append([]byte{}, l.prefix...), key...)
}

func (l *LevelDB) Put(key string, data []byte) error {
	value := make([]byte, stampSize+len(data))
	binary.BigEndian.PutUint64(value, uint64(l.now().UnixNano()))
	copy(value[stampSize:], data)
	return l.db.Put(l.key(key), value, nil)
}

func (l *LevelDB) load(key string) (time.Time, []byte, error) {
	value, err := l.db.Get(l.key(key), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return time.Time{}, nil, ErrNotFound
	}
	if err != nil {
		return time.Time{}, nil, err
	}
	if len(value) < stampSize {
		return time.Time{}, nil, fmt.Errorf("corrupt leveldb entry %q", key)
	}
	stamp := int64(binary.BigEndian.Uint64(value[:stampSize]))
	return time.Unix(0, stamp), value[stampSize:], nil
}

func (l *LevelDB) Get(key string) ([]byte, error) {
	_, data, err := l.load(key)
	return data, err
}

func (l *LevelDB) Delete(key string) error {
	return l.db.Delete(l.key(key), nil)
}

func (l *LevelDB) Exists(key string) (bool, error) {
	return l.db.Has(l.key(key), nil)
}

func (l *LevelDB) ModTime(key string) (time.Time, error) {
	mtime, _, err := l.load(key)
	return mtime, err
}

func (l *LevelDB) Flush() error {
	iter := l.db.NewIterator(util.BytesPrefix(l.prefix), nil)
	batch := new(leveldb.Batch)
	for iter.Next() {
		batch.Delete(append([]byte{}, iter.Key()...))
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		return err
	}
	return l.db.Write(batch, nil)
}
