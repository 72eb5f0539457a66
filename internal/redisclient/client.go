package redisclient

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

const freqKey = "popular:term_freq"

type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// IncrementTermCount bumps the cached frequency of one search term.
// The term must already be case-folded and trimmed.
func (c *Client) IncrementTermCount(ctx context.Context, term string) error {
	if term == "" {
		return nil
	}
	if err := c.rdb.HIncrBy(ctx, freqKey, term, 1).Err(); err != nil {
		return fmt.Errorf("failed to increment term count: %w", err)
	}
	return nil
}

// GetTermFrequencies retrieves the cached term-frequency table. A nil map
// means the cache is cold and the caller should fall back to the catalog.
func (c *Client) GetTermFrequencies(ctx context.Context) (map[string]int64, error) {
	result, err := c.rdb.HGetAll(ctx, freqKey).Result()
	if err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, nil
	}

	freq := make(map[string]int64, len(result))
	for term, raw := range result {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		freq[term] = n
	}
	return freq, nil
}

// WarmTermFrequencies replaces the cached frequency table with counts built
// from the catalog, expiring after ttl so drift self-corrects.
func (c *Client) WarmTermFrequencies(ctx context.Context, freq map[string]int64, ttl time.Duration) error {
	pipe := c.rdb.Pipeline()
	pipe.Del(ctx, freqKey)
	for term, count := range freq {
		pipe.HSet(ctx, freqKey, term, count)
	}
	if ttl > 0 {
		pipe.Expire(ctx, freqKey, ttl)
	}

	_, err := pipe.Exec(ctx)
	return err
}

// Allow is a fixed-window rate limiter: at most limit calls per window for
// the given key
func (c *Client) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	redisKey := fmt.Sprintf("ratelimit:%s", key)

	count, err := c.rdb.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		if err := c.rdb.Expire(ctx, redisKey, window).Err(); err != nil {
			return false, err
		}
	}

	return count <= int64(limit), nil
}
