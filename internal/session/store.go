package session

import (
	"context"
	"errors"
	"sync"
	"time"

	sfredis "storefront/internal/infra/redis"
)

// ErrNotFound is returned by a Store when the key is absent or expired.
var ErrNotFound = errors.New("session: key not found")

// Store persists per-session string values.
type Store interface {
	Get(ctx context.Context, sessionID, key string) (string, error)
	Set(ctx context.Context, sessionID, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, sessionID string, keys ...string) error
}

type redisClient interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	SessionKey(sessionID, field string) string
}

type RedisStore struct {
	client redisClient
}

func NewRedisStore(client redisClient) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, sessionID, key string) (string, error) {
	val, err := s.client.Get(ctx, s.client.SessionKey(sessionID, key))
	if errors.Is(err, sfredis.ErrNotFound) {
		return "", ErrNotFound
	}
	return val, err
}

func (s *RedisStore) Set(ctx context.Context, sessionID, key, value string, ttl time.Duration) error {
	return s.client.Set(ctx, s.client.SessionKey(sessionID, key), value, ttl)
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string, keys ...string) error {
	full := make([]string, 0, len(keys))
	for _, k := range keys {
		full = append(full, s.client.SessionKey(sessionID, k))
	}
	return s.client.Del(ctx, full...)
}

type memoryEntry struct {
	value   string
	expires time.Time
}

// MemoryStore keeps sessions in process. It backs the CLI and a gateway run
// without Redis.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]map[string]memoryEntry
	now  func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]map[string]memoryEntry), now: time.Now}
}

func (s *MemoryStore) Get(_ context.Context, sessionID, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.data[sessionID][key]
	if !ok {
		return "", ErrNotFound
	}
	if !entry.expires.IsZero() && !s.now().Before(entry.expires) {
		delete(s.data[sessionID], key)
		return "", ErrNotFound
	}
	return entry.value, nil
}

func (s *MemoryStore) Set(_ context.Context, sessionID, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	fields, ok := s.data[sessionID]
	if !ok {
		fields = make(map[string]memoryEntry)
		s.data[sessionID] = fields
	}
	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.expires = s.now().Add(ttl)
	}
	fields[key] = entry
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID string, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	fields, ok := s.data[sessionID]
	if !ok {
		return nil
	}
	for _, k := range keys {
		delete(fields, k)
	}
	if len(fields) == 0 {
		delete(s.data, sessionID)
	}
	return nil
}

var (
	_ Store = (*RedisStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
