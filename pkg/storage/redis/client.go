package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"impulsetracker/config"
	"impulsetracker/internal/records"

	goredis "github.com/redis/go-redis/v9"
)

const (
	impulseStream = "impulses"
	checkStream   = "cex_checks"
)

// Client appends records to Redis streams so other processes can follow a
// run live. Each entry carries the token and the JSON record.
type Client struct {
	rdb    *goredis.Client
	prefix string
	maxLen int64
}

func New(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Client{rdb: rdb, prefix: cfg.Prefix, maxLen: cfg.MaxLen}, nil
}

func (c *Client) ImpulseStream() string { return c.prefix + impulseStream }
func (c *Client) CheckStream() string   { return c.prefix + checkStream }

func (c *Client) WriteImpulse(ctx context.Context, r records.Impulse) error {
	return c.add(ctx, c.ImpulseStream(), r.Token, r)
}

func (c *Client) WriteCheck(ctx context.Context, r records.Check) error {
	return c.add(ctx, c.CheckStream(), r.Token, r)
}

func (c *Client) add(ctx context.Context, stream, token string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	args := &goredis.XAddArgs{
		Stream: stream,
		Values: map[string]any{"token": token, "data": data},
	}
	if c.maxLen > 0 {
		args.MaxLen = c.maxLen
		args.Approx = true
	}

	if err := c.rdb.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("xadd %s: %w", stream, err)
	}
	return nil
}

func (c *Client) Close() error {
	return c.rdb.Close()
}
