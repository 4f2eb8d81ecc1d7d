// Package redis stores the proxy's cache buckets in Redis, so several proxy
// instances can share one cache.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/wadjakorntonsri/linkvault/pkg/core/domain"
	"github.com/wadjakorntonsri/linkvault/pkg/ports"
)

const defaultPrefix = "linkvault:cache:"

// CacheStorage keeps bucket names in a sorted set scored by creation time
// and each bucket's entries in a hash.
type CacheStorage struct {
	client *redis.Client
	prefix string
}

// NewCacheStorage connects using a redis:// URL.
func NewCacheStorage(ctx context.Context, redisURL string) (*CacheStorage, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return NewCacheStorageWithClient(client, defaultPrefix), nil
}

func NewCacheStorageWithClient(client *redis.Client, prefix string) *CacheStorage {
	return &CacheStorage{client: client, prefix: prefix}
}

func (c *CacheStorage) Close() error {
	return c.client.Close()
}

func (c *CacheStorage) bucketsKey() string {
	return c.prefix + "buckets"
}

func (c *CacheStorage) entriesKey(bucket string) string {
	return c.prefix + "bucket:" + bucket
}

func (c *CacheStorage) OpenBucket(ctx context.Context, bucket string) error {
	return c.client.ZAddNX(ctx, c.bucketsKey(), redis.Z{
		Score:  float64(time.Now().UnixNano()),
		Member: bucket,
	}).Err()
}

func (c *CacheStorage) Put(ctx context.Context, bucket, key string, resp *domain.CachedResponse) error {
	stored := *resp
	if stored.StoredAt.IsZero() {
		stored.StoredAt = time.Now()
	}
	payload, err := json.Marshal(&stored)
	if err != nil {
		return err
	}

	pipe := c.client.TxPipeline()
	pipe.ZAddNX(ctx, c.bucketsKey(), redis.Z{Score: float64(time.Now().UnixNano()), Member: bucket})
	pipe.HSet(ctx, c.entriesKey(bucket), key, payload)
	_, err = pipe.Exec(ctx)
	return err
}

func (c *CacheStorage) Match(ctx context.Context, bucket, key string) (*domain.CachedResponse, error) {
	names := []string{bucket}
	if bucket == "" {
		var err error
		names, err = c.Buckets(ctx)
		if err != nil {
			return nil, err
		}
	}

	for _, name := range names {
		payload, err := c.client.HGet(ctx, c.entriesKey(name), key).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, err
		}
		var resp domain.CachedResponse
		if err := json.Unmarshal(payload, &resp); err != nil {
			return nil, err
		}
		return &resp, nil
	}
	return nil, nil
}

func (c *CacheStorage) Buckets(ctx context.Context) ([]string, error) {
	return c.client.ZRange(ctx, c.bucketsKey(), 0, -1).Result()
}

func (c *CacheStorage) DeleteBucket(ctx context.Context, bucket string) error {
	pipe := c.client.TxPipeline()
	pipe.Del(ctx, c.entriesKey(bucket))
	pipe.ZRem(ctx, c.bucketsKey(), bucket)
	_, err := pipe.Exec(ctx)
	return err
}

// Ensure interface compliance
var _ ports.CacheStorage = (*CacheStorage)(nil)
