// Package memcache is the in-process domain.Cache used when no Redis is configured.
package memcache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/patrickmn/go-cache"

	"hostel_booking/internal/adapters/observability"
)

// Cache stores JSON bytes so readers never share memory with writers.
type Cache struct{ store *cache.Cache }

func New(defaultTTL, cleanup time.Duration) *Cache {
	return &Cache{store: cache.New(defaultTTL, cleanup)}
}

func (m *Cache) Get(ctx context.Context, key string, dst any) (bool, error) {
	v, found := m.store.Get(key)
	if !found {
		observability.ObserveCache("memory", "miss")
		return false, nil
	}
	observability.ObserveCache("memory", "hit")
	return true, json.Unmarshal(v.([]byte), dst)
}

// Set with ttlSec <= 0 uses the cache's default expiration.
func (m *Cache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	ttl := cache.DefaultExpiration
	if ttlSec > 0 {
		ttl = time.Duration(ttlSec) * time.Second
	}
	m.store.Set(key, b, ttl)
	observability.ObserveCache("memory", "set")
	return nil
}

func (m *Cache) Del(ctx context.Context, key string) error {
	m.store.Delete(key)
	observability.ObserveCache("memory", "del")
	return nil
}

func (m *Cache) Len() int { return m.store.ItemCount() }
