package channel

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps every channel as a JSON value in one hash.
type RedisStore struct {
	rdb *redis.Client
	key string
}

func NewRedisStore(ctx context.Context, redisURL, prefix string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 2 * time.Second
	opts.WriteTimeout = 2 * time.Second
	opts.MaxRetries = 3

	if opts.TLSConfig == nil && strings.HasPrefix(redisURL, "rediss://") {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return NewRedisStoreWithClient(rdb, prefix), nil
}

func NewRedisStoreWithClient(rdb *redis.Client, prefix string) *RedisStore {
	return &RedisStore{rdb: rdb, key: prefix + "channels"}
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Channel, error) {
	raw, err := s.rdb.HGet(ctx, s.key, id).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var c Channel
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return nil, fmt.Errorf("failed to decode channel %q: %w", id, err)
	}
	if c.Actions == nil {
		c.Actions = []Action{}
	}
	return &c, nil
}

func (s *RedisStore) GetAll(ctx context.Context) ([]Channel, error) {
	all, err := s.rdb.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, err
	}

	channels := make([]Channel, 0, len(all))
	for id, raw := range all {
		var c Channel
		if err := json.Unmarshal([]byte(raw), &c); err != nil {
			return nil, fmt.Errorf("failed to decode channel %q: %w", id, err)
		}
		if c.Actions == nil {
			c.Actions = []Action{}
		}
		channels = append(channels, c)
	}

	sort.Slice(channels, func(i, j int) bool { return channels[i].Identifier < channels[j].Identifier })
	return channels, nil
}

func (s *RedisStore) Set(ctx context.Context, id string, c Channel) error {
	encoded, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode channel: %w", err)
	}
	return s.rdb.HSet(ctx, s.key, id, encoded).Err()
}

func (s *RedisStore) Remove(ctx context.Context, id string) error {
	return s.rdb.HDel(ctx, s.key, id).Err()
}

func (s *RedisStore) Clear(ctx context.Context) error {
	return s.rdb.Del(ctx, s.key).Err()
}
