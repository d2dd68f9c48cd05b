package memory

import (
	"context"
	"sync"
	"time"
)

// Client — in-memory реализация LimiterStore для -dev (один процесс, без Redis).
type Client struct {
	mu   sync.Mutex
	hits map[string][]time.Time
}

func New() *Client {
	return &Client{hits: make(map[string][]time.Time)}
}

func (c *Client) Close() error { return nil }

func (c *Client) Allow(ctx context.Context, key string, max int, windowSec int) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	cut := now.Add(-time.Duration(windowSec) * time.Second)
	var kept []time.Time
	for _, t := range c.hits[key] {
		if t.After(cut) {
			kept = append(kept, t)
		}
	}
	if len(kept) >= max {
		c.hits[key] = kept
		return false, nil
	}
	c.hits[key] = append(kept, now)
	return true, nil
}
