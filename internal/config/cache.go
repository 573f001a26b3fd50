package config

import (
	"fmt"
	"io"

	"github.com/iTrooz/webcache"
	"github.com/iTrooz/webcache/store"
	"github.com/iTrooz/webcache/transport"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewCache builds the cache described by the configuration.
// The returned closer releases the storage backend.
func (c *Config) NewCache() (*webcache.Cache, io.Closer, error) {
	perm, err := c.GetPermissions()
	if err != nil {
		return nil, nil, fmt.Errorf("invalid cache permissions: %w", err)
	}
	timeout, err := c.GetTimeout()
	if err != nil {
		return nil, nil, fmt.Errorf("invalid transport timeout: %w", err)
	}

	opts := webcache.Options{
		Dir:         c.Cache.Dir,
		Life:        c.Cache.Life,
		Auth:        c.GetAuth(),
		Permissions: perm,
		Compress:    c.Cache.Compress,
		Fetcher:     transport.NewHTTP(timeout),
		Disabled:    !c.Cache.Enabled,
	}

	var closer io.Closer = nopCloser{}
	switch c.Cache.Backend {
	case "leveldb":
		db, err := store.OpenLevelDB(c.Cache.LevelDB.Path)
		if err != nil {
			return nil, nil, err
		}
		opts.Store = db
		closer = db
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     c.Cache.Redis.Addr,
			Password: c.Cache.Redis.Password,
			DB:       c.Cache.Redis.DB,
		})
		opts.Store = store.NewRedis(client, c.Cache.Redis.Prefix)
		closer = client
	}

	logrus.Debugf("Using %s cache backend, life %s", c.Cache.Backend, c.GetLife())
	return webcache.New(opts), closer, nil
}
