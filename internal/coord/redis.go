package coord

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const keyPrefix = "medtrack:fire"

// Options configures the Redis connection behind a FireGuard.
type Options struct {
	Addr     string
	Password string
	DB       int
	// TTL bounds how long a claimed fire is remembered.
	TTL time.Duration
}

// RedisGuard lets several processes share one patient session: the first
// to claim a (patient, date, minute) fire dispatches it, the rest skip.
type RedisGuard struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisClient(opts Options) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
}

// NewRedisGuard connects and pings the server.
func NewRedisGuard(ctx context.Context, opts Options) (*RedisGuard, error) {
	client := NewRedisClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return newRedisGuard(client, opts.TTL), nil
}

func newRedisGuard(client *redis.Client, ttl time.Duration) *RedisGuard {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisGuard{client: client, ttl: ttl}
}

// Claim reports whether this process is the first to fire minute of date
// for patient.
func (g *RedisGuard) Claim(ctx context.Context, patient, date string, minute int) (bool, error) {
	ok, err := g.client.SetNX(ctx, fireKey(patient, date, minute), time.Now().Unix(), g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim fire: %w", err)
	}
	return ok, nil
}

func (g *RedisGuard) Close() error {
	return g.client.Close()
}

func fireKey(patient, date string, minute int) string {
	return fmt.Sprintf("%s:%s:%s:%04d", keyPrefix, patient, date, minute)
}
