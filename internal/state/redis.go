package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Sternrassler/movie-search/pkg/catalog"
	"github.com/redis/go-redis/v9"
)

// Redis keys for view state.
const (
	RedisKeyQuery     = Namespace + ":query"
	RedisKeyResults   = Namespace + ":results"
	RedisKeyUpdatedAt = Namespace + ":updated_at"
)

const (
	redisDialTimeout = 3 * time.Second
	redisIOTimeout   = 2 * time.Second
	redisPingTimeout = 2 * time.Second
)

// RedisBackend stores state under the searchState:* keys.
type RedisBackend struct {
	redis *redis.Client
	owned bool
}

// NewRedisBackend wraps an existing client. Close does not close it.
func NewRedisBackend(client *redis.Client) *RedisBackend {
	if client == nil {
		panic("redis client cannot be nil")
	}
	return &RedisBackend{redis: client}
}

// DialRedisBackend connects to redisURL and verifies the connection.
// The backend owns the client and closes it on Close.
func DialRedisBackend(ctx context.Context, redisURL string) (*RedisBackend, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: invalid URL: %w", err)
	}
	opts.DialTimeout = redisDialTimeout
	opts.ReadTimeout = redisIOTimeout
	opts.WriteTimeout = redisIOTimeout

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping failed: %w", err)
	}

	return &RedisBackend{redis: client, owned: true}, nil
}

// Load reads all state keys. Missing keys leave their field empty.
func (r *RedisBackend) Load(ctx context.Context) (Snapshot, error) {
	var snap Snapshot

	query, err := r.redis.Get(ctx, RedisKeyQuery).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return snap, fmt.Errorf("get query: %w", err)
	}
	snap.Query = catalog.SearchQuery(query)

	results, err := r.redis.Get(ctx, RedisKeyResults).Bytes()
	if err != nil && !errors.Is(err, redis.Nil) {
		return snap, fmt.Errorf("get results: %w", err)
	}
	if len(results) > 0 {
		if err := json.Unmarshal(results, &snap.Results); err != nil {
			return Snapshot{}, fmt.Errorf("parse results: %w", err)
		}
	}

	updatedAt, err := r.redis.Get(ctx, RedisKeyUpdatedAt).Bytes()
	if err != nil && !errors.Is(err, redis.Nil) {
		return snap, fmt.Errorf("get updated at: %w", err)
	}
	if len(updatedAt) > 0 {
		if err := json.Unmarshal(updatedAt, &snap.UpdatedAt); err != nil {
			return Snapshot{}, fmt.Errorf("parse updated at: %w", err)
		}
	}

	return snap, nil
}

// Save writes all state keys in one pipeline. Keys never expire.
func (r *RedisBackend) Save(ctx context.Context, snap Snapshot) error {
	results, err := json.Marshal(snap.Results)
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	updatedAt, err := json.Marshal(snap.UpdatedAt)
	if err != nil {
		return fmt.Errorf("marshal updated at: %w", err)
	}

	pipe := r.redis.Pipeline()
	pipe.Set(ctx, RedisKeyQuery, snap.Query.String(), 0)
	pipe.Set(ctx, RedisKeyResults, results, 0)
	pipe.Set(ctx, RedisKeyUpdatedAt, updatedAt, 0)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store state in redis: %w", err)
	}
	return nil
}

// Clear deletes all state keys.
func (r *RedisBackend) Clear(ctx context.Context) error {
	return r.redis.Del(ctx, RedisKeyQuery, RedisKeyResults, RedisKeyUpdatedAt).Err()
}

// Close closes the client if the backend dialed it.
func (r *RedisBackend) Close() error {
	if r.owned {
		return r.redis.Close()
	}
	return nil
}
