package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

var ErrSessionNotFound = errors.New("session not found")

// SessionRepository stores serialized booking drafts under a key for the lifetime
// of a browser session.
type SessionRepository interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

type RedisSessionRepository struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisSessionRepository(client *redis.Client, ttl time.Duration) *RedisSessionRepository {
	return &RedisSessionRepository{Client: client, TTL: ttl}
}

func (r *RedisSessionRepository) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := r.Client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("error reading session %s: %w", key, err)
	}
	return data, nil
}

func (r *RedisSessionRepository) Save(ctx context.Context, key string, data []byte) error {
	if err := r.Client.Set(ctx, key, data, r.TTL).Err(); err != nil {
		return fmt.Errorf("error saving session %s: %w", key, err)
	}
	return nil
}

func (r *RedisSessionRepository) Delete(ctx context.Context, key string) error {
	if err := r.Client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("error deleting session %s: %w", key, err)
	}
	return nil
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemorySessionRepository keeps sessions in process memory. Used for local
// development and tests.
type MemorySessionRepository struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewMemorySessionRepository(ttl time.Duration) *MemorySessionRepository {
	return &MemorySessionRepository{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (r *MemorySessionRepository) Load(_ context.Context, key string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[key]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if r.ttl > 0 && r.now().After(entry.expiresAt) {
		delete(r.entries, key)
		return nil, ErrSessionNotFound
	}
	out := make([]byte, len(entry.data))
	copy(out, entry.data)
	return out, nil
}

func (r *MemorySessionRepository) Save(_ context.Context, key string, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := make([]byte, len(data))
	copy(stored, data)
	r.entries[key] = memoryEntry{data: stored, expiresAt: r.now().Add(r.ttl)}
	return nil
}

func (r *MemorySessionRepository) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.entries, key)
	return nil
}
