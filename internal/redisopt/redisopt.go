// Package redisopt serves site options from a Redis hash.
package redisopt

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultKey         = "mediahub:options"
	defaultDialTimeout = 5 * time.Second
	defaultTimeout     = 3 * time.Second
)

// Config configures the Redis connection.
type Config struct {
	Addr        string
	Password    string
	DB          int
	Key         string
	DialTimeout time.Duration
	Timeout     time.Duration
}

// OptionStore reads and writes options stored as fields of one hash.
type OptionStore struct {
	client *redis.Client
	key    string
}

// New constructs an OptionStore. It does not contact the server.
func New(cfg Config) (*OptionStore, error) {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, fmt.Errorf("redis addr is required")
	}
	if cfg.DB < 0 {
		return nil, fmt.Errorf("redis db must be non-negative")
	}
	key := strings.TrimSpace(cfg.Key)
	if key == "" {
		key = DefaultKey
	}
	dialTimeout := cfg.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = defaultDialTimeout
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  dialTimeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
		MaxRetries:   -1,
	})
	return &OptionStore{client: client, key: key}, nil
}

// Key returns the hash key holding the options.
func (s *OptionStore) Key() string {
	return s.key
}

// Ping checks connectivity.
func (s *OptionStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// GetList returns the values of names in one HMGET. Unset names are absent
// from the result.
func (s *OptionStore) GetList(ctx context.Context, names []string) (map[string]string, error) {
	out := make(map[string]string, len(names))
	if len(names) == 0 {
		return out, nil
	}
	values, err := s.client.HMGet(ctx, s.key, names...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hmget %s: %w", s.key, err)
	}
	for i, v := range values {
		if i >= len(names) || v == nil {
			continue
		}
		switch value := v.(type) {
		case string:
			out[names[i]] = value
		default:
			out[names[i]] = fmt.Sprint(value)
		}
	}
	return out, nil
}

// GetValue returns the value of name, or "" when unset.
func (s *OptionStore) GetValue(ctx context.Context, name string) (string, error) {
	value, err := s.client.HGet(ctx, s.key, name).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("redis hget %s %s: %w", s.key, name, err)
	}
	return value, nil
}

// SetOptions writes every value in one HSET.
func (s *OptionStore) SetOptions(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	fields := make(map[string]any, len(values))
	for name, value := range values {
		name = strings.TrimSpace(name)
		if name == "" {
			return fmt.Errorf("option name is required")
		}
		fields[name] = value
	}
	if err := s.client.HSet(ctx, s.key, fields).Err(); err != nil {
		return fmt.Errorf("redis hset %s: %w", s.key, err)
	}
	return nil
}

// Close releases the connection pool.
func (s *OptionStore) Close() error {
	return s.client.Close()
}
