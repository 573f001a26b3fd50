package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultFileMode is used for new entry files when no mode is configured
const DefaultFileMode os.FileMode = 0644

// Disk implements BlobStore with one file per key directly under a directory
type Disk struct {
	dir  string
	perm os.FileMode
}

// NewDisk creates a disk store rooted at dir. The directory is created on the
// first Put. A zero perm selects DefaultFileMode.
func NewDisk(dir string, perm os.FileMode) *Disk {
	return &Disk{
		dir:  dir,
		perm: perm,
	}
}

// Dir returns the root directory
func (d *Disk) Dir() string {
	return d.dir
}

// Path returns the file path of key
func (d *Disk) Path(key string) string {
	return filepath.Join(d.dir, key)
}

func (d *Disk) Put(key string, data []byte) error {
	if err := os.MkdirAll(d.dir, 0755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	path := d.Path(key)
	mode := d.perm
	if mode == 0 {
		mode = DefaultFileMode
	}
	if err := os.WriteFile(path, data, mode); err != nil {
		return err
	}
	// WriteFile only applies mode on creation and is subject to umask
	if d.perm != 0 {
		if err := os.Chmod(path, d.perm); err != nil {
			return err
		}
	}

	logrus.Debugf("Stored cache file: %s", path)
	return nil
}

func (d *Disk) Get(key string) ([]byte, error) {
	data, err := os.ReadFile(d.Path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return data, err
}

func (d *Disk) Delete(key string) error {
	err := os.Remove(d.Path(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (d *Disk) Exists(key string) (bool, error) {
	_, err := os.Stat(d.Path(key))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func (d *Disk) ModTime(key string) (time.Time, error) {
	info, err := os.Stat(d.Path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return time.Time{}, ErrNotFound
	}
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

// Flush removes the whole directory. It is recreated by the next Put.
func (d *Disk) Flush() error {
	if _, err := os.Stat(d.dir); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return os.RemoveAll(d.dir)
}
