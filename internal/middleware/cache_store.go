package middleware

import (
    "context"
    "sync"
    "time"

    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/mechanic-shop-api/internal/config"
)

// CacheStore holds encoded responses for the cache middleware.
type CacheStore interface {
    Get(ctx context.Context, key string) ([]byte, bool)
    Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
}

// NewCacheStore picks the backend named by cfg.Backend.  The redis backend
// needs a client; without one entries are kept in process.
func NewCacheStore(cfg config.CacheConfig, rdb *redis.Client) CacheStore {
    if cfg.Backend == config.CacheBackendRedis && rdb != nil {
        return &RedisCacheStore{rdb: rdb}
    }
    return NewMemoryCacheStore()
}

// RedisCacheStore keeps entries in Redis with a per-key expiry.
type RedisCacheStore struct {
    rdb *redis.Client
}

func (s *RedisCacheStore) Get(ctx context.Context, key string) ([]byte, bool) {
    bs, err := s.rdb.Get(ctx, key).Bytes()
    if err != nil {
        return nil, false
    }
    return bs, true
}

func (s *RedisCacheStore) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
    return s.rdb.Set(ctx, key, val, ttl).Err()
}

type memoryEntry struct {
    val []byte
    exp time.Time
}

// MemoryCacheStore is a process-local TTL map.  Expired entries are dropped
// lazily on read and swept on write.
type MemoryCacheStore struct {
    mu      sync.Mutex
    entries map[string]memoryEntry
    now     func() time.Time
}

func NewMemoryCacheStore() *MemoryCacheStore {
    return &MemoryCacheStore{entries: map[string]memoryEntry{}, now: time.Now}
}

func (s *MemoryCacheStore) Get(_ context.Context, key string) ([]byte, bool) {
    s.mu.Lock()
    defer s.mu.Unlock()
    e, ok := s.entries[key]
    if !ok {
        return nil, false
    }
    if !s.now().Before(e.exp) {
        delete(s.entries, key)
        return nil, false
    }
    return e.val, true
}

func (s *MemoryCacheStore) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    now := s.now()
    for k, e := range s.entries {
        if !now.Before(e.exp) {
            delete(s.entries, k)
        }
    }
    cp := make([]byte, len(val))
    copy(cp, val)
    s.entries[key] = memoryEntry{val: cp, exp: now.Add(ttl)}
    return nil
}
