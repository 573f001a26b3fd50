package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces entries inside a shared Redis database
const DefaultRedisPrefix = "webcache:"

// Redis implements BlobStore with one hash per key holding "data" and "mtime"
type Redis struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// NewRedis creates a Redis store. An empty prefix selects DefaultRedisPrefix.
func NewRedis(client *redis.Client, prefix string) *Redis {
	if client == nil {
		panic("redis client cannot be nil")
	}
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &Redis{
		client: client,
		prefix: prefix,
		now:    time.Now,
	}
}

func (r *Redis) key(key string) string {
	return r.prefix + key
}

func (r *Redis) Put(key string, data []byte) error {
	ctx := context.Background()
	err := r.client.HSet(ctx, r.key(key), "data", data, "mtime", r.now().UnixNano()).Err()
	if err != nil {
		return fmt.Errorf("redis hset: %w", err)
	}
	return nil
}

func (r *Redis) Get(key string) ([]byte, error) {
	data, err := r.client.HGet(context.Background(), r.key(key), "data").Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis hget: %w", err)
	}
	return data, nil
}

func (r *Redis) Delete(key string) error {
	if err := r.client.Del(context.Background(), r.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (r *Redis) Exists(key string) (bool, error) {
	n, err := r.client.Exists(context.Background(), r.key(key)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return n > 0, nil
}

func (r *Redis) ModTime(key string) (time.Time, error) {
	raw, err := r.client.HGet(context.Background(), r.key(key), "mtime").Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, ErrNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("redis hget: %w", err)
	}
	stamp, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid mtime for %q: %w", key, err)
	}
	return time.Unix(0, stamp), nil
}

func (r *Redis) Flush() error {
	ctx := context.Background()
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
