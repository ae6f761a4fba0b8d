// Package redis provides Redis connectivity and the shared search result cache.
package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"norelock.dev/listenify/grabber/internal/config"
	"norelock.dev/listenify/grabber/internal/utils"
)

// Client wraps the Redis client with app-specific functionality
type Client struct {
	client redis.UniversalClient
	logger *utils.Logger
}

// NewClient creates a new Redis client and verifies the connection.
func NewClient(cfg *config.Config, logger *utils.Logger) (*Client, error) {
	if logger == nil {
		logger = utils.GetLogger()
	}

	rc := cfg.Cache.Redis
	opts := &redis.Options{
		Addr:         rc.Address,
		Username:     rc.Username,
		Password:     rc.Password,
		DB:           rc.Database,
		MaxRetries:   rc.MaxRetries,
		PoolSize:     rc.PoolSize,
		MinIdleConns: rc.MinIdleConns,
		DialTimeout:  rc.DialTimeout,
		ReadTimeout:  rc.ReadTimeout,
		WriteTimeout: rc.WriteTimeout,
		IdleTimeout:  rc.IdleTimeout,
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Error("Failed to connect to Redis", err, "addr", opts.Addr)
		_ = client.Close()
		return nil, err
	}

	logger.Info("Connected to Redis", "addr", opts.Addr, "db", opts.DB)

	return NewClientFrom(client, logger), nil
}

// NewClientFrom wraps an existing client without pinging it.
func NewClientFrom(client redis.UniversalClient, logger *utils.Logger) *Client {
	return &Client{
		client: client,
		logger: logger.Named("redis"),
	}
}

// Close closes the Redis connection
func (c *Client) Close() error {
	err := c.client.Close()
	if err != nil {
		c.logger.Error("Failed to close Redis connection", err)
		return err
	}
	c.logger.Info("Closed Redis connection")
	return nil
}

// Ping pings the Redis server
func (c *Client) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		c.logger.Error("Failed to ping Redis", err)
		return err
	}
	return nil
}

// GetObject loads key and unmarshals it into dest. A missing key reports found == false.
func (c *Client) GetObject(ctx context.Context, key string, dest any) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		c.logger.Error("Failed to get value from Redis", err, "key", key)
		return false, err
	}

	if err := json.Unmarshal(data, dest); err != nil {
		c.logger.Error("Failed to unmarshal Redis value", err, "key", key)
		return false, err
	}
	return true, nil
}

// SetObject stores value as JSON. A zero expiration keeps the key forever.
func (c *Client) SetObject(ctx context.Context, key string, value any, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Error("Failed to marshal object for Redis", err, "key", key)
		return err
	}

	if err := c.client.Set(ctx, key, data, expiration).Err(); err != nil {
		c.logger.Error("Failed to set value in Redis", err, "key", key)
		return err
	}
	return nil
}

// CountKeys counts keys matching pattern using SCAN.
func (c *Client) CountKeys(ctx context.Context, pattern string) (int, error) {
	var (
		cursor uint64
		count  int
	)
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, 500).Result()
		if err != nil {
			c.logger.Error("Failed to scan keys", err, "pattern", pattern)
			return 0, err
		}
		count += len(keys)
		cursor = next
		if cursor == 0 {
			return count, nil
		}
	}
}
