package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Client struct {
	cli *redis.Client
}

func New(ctx context.Context, url string) (*Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis parse url: %w", err)
	}
	cli := redis.NewClient(opts)
	if err := cli.Ping(ctx).Err(); err != nil {
		if closeErr := cli.Close(); closeErr != nil {
			return nil, fmt.Errorf("redis ping: %w (close: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Client{cli: cli}, nil
}

func (c *Client) Close() error {
	return c.cli.Close()
}

// Allow — INCR по ключу limit:{key}; первый инкремент ставит TTL окна.
// Лимит общий для всех инстансов API.
func (c *Client) Allow(ctx context.Context, key string, max int, windowSec int) (bool, error) {
	k := "limit:" + key
	n, err := c.cli.Incr(ctx, k).Result()
	if err != nil {
		return false, err
	}
	if n == 1 {
		c.cli.Expire(ctx, k, time.Duration(windowSec)*time.Second)
	}
	return n <= int64(max), nil
}
