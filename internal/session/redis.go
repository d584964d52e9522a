package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps JSON encoded values under a key prefix with a TTL.
type RedisStore[T any] struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// DialRedis connects to addr and verifies the connection.
func DialRedis(addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("session: redis ping: %w", err)
	}
	return client, nil
}

// NewRedisStore creates a Redis-backed session store. A zero ttl stores
// keys without expiry.
func NewRedisStore[T any](client *redis.Client, ttl time.Duration) *RedisStore[T] {
	return &RedisStore[T]{
		client: client,
		prefix: "session:",
		ttl:    ttl,
	}
}

func (r *RedisStore[T]) key(id string) string {
	return r.prefix + id
}

func (r *RedisStore[T]) Get(ctx context.Context, id string) (T, bool, error) {
	var v T
	val, err := r.client.Get(ctx, r.key(id)).Result()
	if errors.Is(err, redis.Nil) {
		return v, false, nil
	}
	if err != nil {
		return v, false, err
	}
	if err := json.Unmarshal([]byte(val), &v); err != nil {
		return v, false, fmt.Errorf("session: failed to unmarshal: %w", err)
	}
	return v, true, nil
}

func (r *RedisStore[T]) Put(ctx context.Context, id string, v T) error {
	if id == "" {
		return fmt.Errorf("session: missing session id")
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("session: failed to marshal: %w", err)
	}
	return r.client.Set(ctx, r.key(id), data, r.ttl).Err()
}

func (r *RedisStore[T]) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, r.key(id)).Err()
}

func (r *RedisStore[T]) NewID() string {
	return newID()
}
