package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisOptions struct {
	URL          string
	PoolSize     int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// RedisAckRepository shares acknowledgments between portal instances. Entries
// carry no TTL.
type RedisAckRepository struct {
	client *redis.Client
	prefix string
}

func NewRedisAckRepository(ctx context.Context, opts RedisOptions, keyPrefix string) (*RedisAckRepository, error) {
	parsed, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	if opts.PoolSize > 0 {
		parsed.PoolSize = opts.PoolSize
	}
	parsed.DialTimeout = opts.DialTimeout
	parsed.ReadTimeout = opts.ReadTimeout
	parsed.WriteTimeout = opts.WriteTimeout

	client := redis.NewClient(parsed)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &RedisAckRepository{client: client, prefix: keyPrefix}, nil
}

func (r *RedisAckRepository) IsAcknowledged(ctx context.Context, studentID string) (bool, error) {
	val, err := r.client.Get(ctx, r.prefix+studentID).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read acknowledgment: %w", err)
	}
	return val == AckMarker, nil
}

func (r *RedisAckRepository) Acknowledge(ctx context.Context, studentID string) error {
	if err := r.client.Set(ctx, r.prefix+studentID, AckMarker, 0).Err(); err != nil {
		return fmt.Errorf("failed to write acknowledgment: %w", err)
	}
	return nil
}

func (r *RedisAckRepository) Close() error {
	return r.client.Close()
}

func (r *RedisAckRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
