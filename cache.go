// Package webcache caches the responses of HTTP GET requests.
//
// A Cache maps each URL to a stored record named by the MD5 digest of the URL.
// Stored records expire once they are older than the configured lifetime and
// are removed lazily on the next access. Failed fetches are returned to the
// caller as a Response carrying an error and are never stored.
package webcache

import (
	"errors"
	"fmt"
	neturl "net/url"
	"os"
	"sync"
	"time"

	"github.com/iTrooz/webcache/store"
	"github.com/iTrooz/webcache/transport"
	"github.com/sirupsen/logrus"
)

const (
	DefaultDir  = "cache"
	DefaultLife = "1h"
)

// Options configures a Cache. Zero values select the documented defaults.
type Options struct {
	// Dir is the root of the default disk store. Default "cache".
	Dir string

	// Life is a lifetime literal, see ParseLife. Default "1h". "0" never expires.
	Life string

	// Auth is sent with every fetch. Default NoAuth.
	Auth transport.Auth

	// Permissions is the mode of new files in the default disk store.
	// Zero keeps store.DefaultFileMode.
	Permissions os.FileMode

	// Compress stores content zstd-compressed
	Compress bool

	// Store replaces the default disk store
	Store store.BlobStore

	// Fetcher replaces the default HTTP fetcher
	Fetcher transport.Fetcher

	// Disabled starts the cache in passthrough mode
	Disabled bool
}

// Cache is a transparent cache in front of HTTP GET requests
type Cache struct {
	mu       sync.RWMutex
	dir      string
	life     time.Duration
	auth     transport.Auth
	perm     os.FileMode
	compress bool
	enabled  bool
	store    store.BlobStore
	ownStore bool
	fetcher  transport.Fetcher
	now      func() time.Time
}

// settings is a consistent copy of the configuration used by one call
type settings struct {
	life     time.Duration
	auth     transport.Auth
	compress bool
	enabled  bool
	store    store.BlobStore
	fetcher  transport.Fetcher
}

// New creates a cache
func New(opts Options) *Cache {
	c := &Cache{
		dir:      opts.Dir,
		auth:     opts.Auth,
		perm:     opts.Permissions,
		compress: opts.Compress,
		enabled:  !opts.Disabled,
		store:    opts.Store,
		fetcher:  opts.Fetcher,
		now:      time.Now,
	}
	if c.dir == "" {
		c.dir = DefaultDir
	}
	life := opts.Life
	if life == "" {
		life = DefaultLife
	}
	c.life = ParseLife(life)
	if c.store == nil {
		c.store = store.NewDisk(c.dir, c.perm)
		c.ownStore = true
	}
	if c.fetcher == nil {
		c.fetcher = transport.NewHTTP(transport.DefaultTimeout)
	}
	return c
}

func (c *Cache) snapshot() settings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return settings{
		life:     c.life,
		auth:     c.auth,
		compress: c.compress,
		enabled:  c.enabled,
		store:    c.store,
		fetcher:  c.fetcher,
	}
}

// Get returns the cached response for url, fetching and storing it on a miss.
// The error is only set for storage failures; fetch failures are reported
// through Response.ErrorMessage.
func (c *Cache) Get(url string) (*Response, error) {
	return c.get(url, false)
}

// Refresh discards any stored response for url and fetches it again
func (c *Cache) Refresh(url string) (*Response, error) {
	return c.get(url, true)
}

func (c *Cache) get(url string, force bool) (*Response, error) {
	s := c.snapshot()
	if !s.enabled {
		CacheMisses.Inc()
		return c.fetch(s, url), nil
	}

	key := Key(url)
	if force || c.stale(s, key) {
		if err := s.store.Delete(key); err != nil {
			StoreErrors.WithLabelValues("delete").Inc()
			return nil, fmt.Errorf("deleting cache entry for %s: %w", url, err)
		}
	}

	data, err := s.store.Get(key)
	switch {
	case err == nil:
		resp, err := UnmarshalResponse(data)
		if err == nil {
			CacheHits.Inc()
			logrus.Debugf("Cache hit for %s", url)
			return resp, nil
		}
		logrus.Warnf("Discarding unreadable cache entry for %s: %v", url, err)
	case !errors.Is(err, store.ErrNotFound):
		StoreErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("reading cache entry for %s: %w", url, err)
	}

	CacheMisses.Inc()
	logrus.Debugf("Cache miss for %s", url)
	resp := c.fetch(s, url)
	if !resp.Success() {
		return resp, nil
	}

	data, err = resp.Marshal(s.compress)
	if err != nil {
		return nil, fmt.Errorf("encoding response for %s: %w", url, err)
	}
	if err := s.store.Put(key, data); err != nil {
		StoreErrors.WithLabelValues("put").Inc()
		return nil, fmt.Errorf("storing response for %s: %w", url, err)
	}
	return resp, nil
}

// fetch never fails: transport errors become error responses
func (c *Cache) fetch(s settings, url string) *Response {
	res, err := s.fetcher.Fetch(url, s.auth)
	if err != nil {
		FetchErrors.WithLabelValues("transport").Inc()
		logrus.Warnf("Failed to fetch %s: %v", url, err)
		msg := err.Error()
		if msg == "" {
			msg = "transport error"
		}
		return ErrorResponse(msg, bestEffortURI(url))
	}

	resp := NewResponse(res)
	if !resp.Success() {
		FetchErrors.WithLabelValues("status").Inc()
		logrus.Debugf("Fetched %s with error status: %s", url, resp.ErrorMessage())
	}
	return resp
}

func bestEffortURI(url string) string {
	parsed, err := neturl.Parse(url)
	if err != nil {
		return url
	}
	return parsed.String()
}

// stale reports whether key exists and is older than the lifetime.
// Storage errors count as not stale; the following read surfaces them.
func (c *Cache) stale(s settings, key string) bool {
	if s.life <= 0 {
		return false
	}
	mtime, err := s.store.ModTime(key)
	if err != nil {
		return false
	}
	return c.now().Sub(mtime) >= s.life
}

// Cached reports whether url has a stored, unexpired response.
// It neither deletes nor fetches anything.
func (c *Cache) Cached(url string) bool {
	s := c.snapshot()
	key := Key(url)
	exists, err := s.store.Exists(key)
	if err != nil {
		logrus.Debugf("Failed to check cache entry for %s: %v", url, err)
		return false
	}
	return exists && !c.stale(s, key)
}

// Clear removes the stored response for url, if any
func (c *Cache) Clear(url string) error {
	if err := c.snapshot().store.Delete(Key(url)); err != nil {
		StoreErrors.WithLabelValues("delete").Inc()
		return fmt.Errorf("clearing cache entry for %s: %w", url, err)
	}
	return nil
}

// Flush removes every stored response
func (c *Cache) Flush() error {
	if err := c.snapshot().store.Flush(); err != nil {
		StoreErrors.WithLabelValues("flush").Inc()
		return fmt.Errorf("flushing cache: %w", err)
	}
	return nil
}

func (c *Cache) Enable() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = true
}

// Disable turns Get into a passthrough to the fetcher. Stored entries are kept.
func (c *Cache) Disable() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = false
}

func (c *Cache) Enabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.enabled
}

// Life returns the lifetime of stored responses; zero or negative never expires
func (c *Cache) Life() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.life
}

// SetLife sets the lifetime from a literal, see ParseLife
func (c *Cache) SetLife(literal string) {
	c.SetLifeSeconds(int(ParseLife(literal) / time.Second))
}

func (c *Cache) SetLifeSeconds(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.life = time.Duration(n) * time.Second
}

func (c *Cache) Dir() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dir
}

// SetDir changes the cache directory. Only the default disk store follows it.
func (c *Cache) SetDir(dir string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dir = dir
	if c.ownStore {
		c.store = store.NewDisk(c.dir, c.perm)
	}
}

func (c *Cache) Auth() transport.Auth {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.auth
}

// SetAuth replaces the authentication variant
func (c *Cache) SetAuth(auth transport.Auth) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.auth = auth
}

func (c *Cache) Permissions() os.FileMode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.perm
}

// SetPermissions sets the mode of files written from now on by the default disk store
func (c *Cache) SetPermissions(mode os.FileMode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.perm = mode
	if c.ownStore {
		c.store = store.NewDisk(c.dir, c.perm)
	}
}

// Store returns the backing store
func (c *Cache) Store() store.BlobStore {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.store
}
