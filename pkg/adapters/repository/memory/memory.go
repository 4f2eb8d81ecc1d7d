// Package memory provides in-process implementations of the storage ports.
// Contents are lost when the process exits.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/wadjakorntonsri/linkvault/pkg/core/domain"
	"github.com/wadjakorntonsri/linkvault/pkg/ports"
)

type KeyValueStore struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewKeyValueStore() *KeyValueStore {
	return &KeyValueStore{data: make(map[string]string)}
}

func (s *KeyValueStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *KeyValueStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

func (s *KeyValueStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func (s *KeyValueStore) Keys(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := []string{}
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

type CacheStorage struct {
	mu      sync.RWMutex
	order   []string
	buckets map[string]map[string]*domain.CachedResponse
}

func NewCacheStorage() *CacheStorage {
	return &CacheStorage{buckets: make(map[string]map[string]*domain.CachedResponse)}
}

func (c *CacheStorage) OpenBucket(_ context.Context, bucket string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open(bucket)
	return nil
}

func (c *CacheStorage) open(bucket string) map[string]*domain.CachedResponse {
	entries, ok := c.buckets[bucket]
	if !ok {
		entries = make(map[string]*domain.CachedResponse)
		c.buckets[bucket] = entries
		c.order = append(c.order, bucket)
	}
	return entries
}

func (c *CacheStorage) Put(_ context.Context, bucket, key string, resp *domain.CachedResponse) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	stored := *resp
	stored.Body = append([]byte(nil), resp.Body...)
	c.open(bucket)[key] = &stored
	return nil
}

func (c *CacheStorage) Match(_ context.Context, bucket, key string) (*domain.CachedResponse, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := c.order
	if bucket != "" {
		names = []string{bucket}
	}
	for _, name := range names {
		if resp, ok := c.buckets[name][key]; ok {
			out := *resp
			out.Body = append([]byte(nil), resp.Body...)
			return &out, nil
		}
	}
	return nil, nil
}

func (c *CacheStorage) Buckets(_ context.Context) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.order...), nil
}

func (c *CacheStorage) DeleteBucket(_ context.Context, bucket string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.buckets[bucket]; !ok {
		return nil
	}
	delete(c.buckets, bucket)
	for i, name := range c.order {
		if name == bucket {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

// Ensure interface compliance
var (
	_ ports.KeyValueStore = (*KeyValueStore)(nil)
	_ ports.CacheStorage  = (*CacheStorage)(nil)
)
