package sequence

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/platform/db"
)

// PGCounter keeps one row per prefix in document_sequences.
type PGCounter struct {
	db db.DBTX
}

// NewPGCounter constructs a PostgreSQL backed counter.
func NewPGCounter(conn db.DBTX) *PGCounter {
	return &PGCounter{db: conn}
}

// Increment bumps the row for key in a single statement.
func (c *PGCounter) Increment(ctx context.Context, key string) (int64, error) {
	var value int64
	err := c.db.QueryRow(ctx, `INSERT INTO document_sequences (prefix, last_value, updated_at) VALUES ($1, 1, NOW())
ON CONFLICT (prefix) DO UPDATE SET last_value = document_sequences.last_value + 1, updated_at = NOW()
RETURNING last_value`, key).Scan(&value)
	return value, err
}

// RedisCounter uses INCR on seq:<prefix> keys.
type RedisCounter struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisCounter constructs a Redis backed counter. Keys expire after ttl
// so finished periods do not accumulate.
func NewRedisCounter(client redis.UniversalClient, ttl time.Duration) *RedisCounter {
	return &RedisCounter{client: client, ttl: ttl}
}

// Increment runs INCR and sets the expiry on first use.
func (c *RedisCounter) Increment(ctx context.Context, key string) (int64, error) {
	redisKey := "seq:" + key
	value, err := c.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return 0, err
	}
	if value == 1 && c.ttl > 0 {
		if err := c.client.Expire(ctx, redisKey, c.ttl).Err(); err != nil {
			return 0, err
		}
	}
	return value, nil
}

// MemoryCounter is an in-process counter.
type MemoryCounter struct {
	mu     sync.Mutex
	values map[string]int64
}

// NewMemoryCounter constructs an empty in-process counter.
func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{values: make(map[string]int64)}
}

// Increment bumps key under the mutex.
func (c *MemoryCounter) Increment(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key]++
	return c.values[key], nil
}

// Seed sets the current value of key.
func (c *MemoryCounter) Seed(key string, value int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
}
