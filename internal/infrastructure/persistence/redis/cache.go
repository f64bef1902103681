// Package redis implements the hot tier of the badge engine's caching:
// evidence snapshots in front of the durable store, and the outbound
// notification queue the presentation layer drains.
//
// Key components:
//   - Cache: thin client with key validation and TTL management
//   - EvidenceCache: hot evidence snapshots keyed per (user, course, badge)
//   - NotificationQueue: award notifications as a Redis list
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds Redis connection configuration.
type Config struct {
	Host     string
	Port     int
	Password string
	DB       int

	PoolSize     int
	MinIdleConns int
	MaxRetries   int

	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolTimeout  time.Duration
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	return Config{
		Host:         "localhost",
		Port:         6379,
		Password:     "",
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolTimeout:  4 * time.Second,
	}
}

// Addr returns the Redis address in "host:port" format.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

var (
	// ErrCacheMiss is returned when the requested key is not found.
	ErrCacheMiss = errors.New("cache: key not found")

	// ErrCacheConnection is returned when the Redis connection fails.
	ErrCacheConnection = errors.New("cache: connection failed")

	// ErrCacheSerialization is returned when a queued payload cannot be
	// encoded or decoded.
	ErrCacheSerialization = errors.New("cache: serialization failed")

	// ErrCacheInvalidTTL is returned when a negative TTL is provided.
	ErrCacheInvalidTTL = errors.New("cache: invalid TTL")

	// ErrCacheKeyEmpty is returned when an empty key is provided.
	ErrCacheKeyEmpty = errors.New("cache: key cannot be empty")
)

// Key prefixes for namespacing.
const (
	// PrefixEvidence is the prefix for hot evidence snapshot keys.
	PrefixEvidence = "evidence:"

	// PrefixNotification is the prefix for notification queue keys.
	PrefixNotification = "notifications:"
)

// TTLEvidenceCache bounds staleness of hot evidence snapshots. The durable
// store and the reconciler correct anything older.
const TTLEvidenceCache = 30 * time.Minute

// Cache wraps the Redis client with key validation. The hot snapshot tier
// and the notification queue are built on it; losing every key here loses
// nothing but latency.
type Cache struct {
	client *redis.Client
	config Config
}

// NewCache connects to Redis and verifies the connection.
func NewCache(cfg Config) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolTimeout:  cfg.PoolTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCacheConnection, err)
	}

	return &Cache{client: client, config: cfg}, nil
}

// Close closes the Redis connection.
func (c *Cache) Close() error {
	return c.client.Close()
}

// Ping checks if Redis is reachable. The health endpoint reports through
// this.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// SetBytes stores raw bytes under key with the given TTL.
func (c *Cache) SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return ErrCacheKeyEmpty
	}
	if ttl < 0 {
		return ErrCacheInvalidTTL
	}

	return c.client.Set(ctx, key, value, ttl).Err()
}

// GetBytes retrieves raw bytes by key. Returns ErrCacheMiss when the key
// does not exist.
func (c *Cache) GetBytes(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, ErrCacheKeyEmpty
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, err
	}
	return data, nil
}

// Delete removes keys. Missing keys are not an error.
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

// LPush prepends values to a list.
func (c *Cache) LPush(ctx context.Context, key string, values ...interface{}) error {
	if key == "" {
		return ErrCacheKeyEmpty
	}
	return c.client.LPush(ctx, key, values...).Err()
}

// RPop removes and returns the last element of a list. Returns ErrCacheMiss
// when the list is empty.
func (c *Cache) RPop(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", ErrCacheKeyEmpty
	}

	val, err := c.client.RPop(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrCacheMiss
		}
		return "", err
	}
	return val, nil
}

// LLen returns the length of a list.
func (c *Cache) LLen(ctx context.Context, key string) (int64, error) {
	if key == "" {
		return 0, ErrCacheKeyEmpty
	}
	return c.client.LLen(ctx, key).Result()
}

// EvidenceKey builds the cache key for one hot evidence snapshot.
func EvidenceKey(userID, courseID, badgeID string) string {
	return PrefixEvidence + userID + ":" + courseID + ":" + badgeID
}

// NotificationQueueKey builds the key of the badge notification queue.
func NotificationQueueKey() string {
	return PrefixNotification + "badges"
}
