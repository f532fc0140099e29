package redisclient

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Client wraps a Redis client with OpenTelemetry tracing
type Client struct {
	cmdable redis.Cmdable
}

// NewClient creates a new traced Redis client for a single Redis instance
func NewClient(client *redis.Client) *Client {
	return &Client{cmdable: client}
}

// NewClusterClient creates a new traced Redis client for a Redis cluster
func NewClusterClient(client *redis.ClusterClient) *Client {
	return &Client{cmdable: client}
}

func (c *Client) span(ctx context.Context, op, key string) (context.Context, trace.Span, time.Time) {
	ctx, span := otel.Tracer("redis").Start(ctx, "redis."+op,
		trace.WithAttributes(
			attribute.String("redis.key", key),
			attribute.String("redis.operation", op),
			attribute.String("redis.client", "onboarding-api"),
		),
	)
	return ctx, span, time.Now()
}

func finish(span trace.Span, start time.Time, err error) {
	if err != nil && err != redis.Nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "success")
	}
	span.SetAttributes(attribute.Int64("redis.duration_ms", time.Since(start).Milliseconds()))
	span.End()
}

// Get wraps Redis GET with tracing
func (c *Client) Get(ctx context.Context, key string) *redis.StringCmd {
	ctx, span, start := c.span(ctx, "get", key)
	cmd := c.cmdable.Get(ctx, key)
	finish(span, start, cmd.Err())
	return cmd
}

// Set wraps Redis SET with tracing
func (c *Client) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	ctx, span, start := c.span(ctx, "set", key)
	span.SetAttributes(attribute.String("redis.expiration", expiration.String()))
	cmd := c.cmdable.Set(ctx, key, value, expiration)
	finish(span, start, cmd.Err())
	return cmd
}

// SetNX wraps Redis SETNX with tracing
func (c *Client) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd {
	ctx, span, start := c.span(ctx, "setnx", key)
	cmd := c.cmdable.SetNX(ctx, key, value, expiration)
	finish(span, start, cmd.Err())
	return cmd
}

// Del wraps Redis DEL with tracing
func (c *Client) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	key := ""
	if len(keys) > 0 {
		key = keys[0]
	}
	ctx, span, start := c.span(ctx, "del", key)
	cmd := c.cmdable.Del(ctx, keys...)
	finish(span, start, cmd.Err())
	return cmd
}

// Incr wraps Redis INCR with tracing
func (c *Client) Incr(ctx context.Context, key string) *redis.IntCmd {
	ctx, span, start := c.span(ctx, "incr", key)
	cmd := c.cmdable.Incr(ctx, key)
	finish(span, start, cmd.Err())
	return cmd
}

// Expire wraps Redis EXPIRE with tracing
func (c *Client) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	ctx, span, start := c.span(ctx, "expire", key)
	cmd := c.cmdable.Expire(ctx, key, expiration)
	finish(span, start, cmd.Err())
	return cmd
}

// Exists wraps Redis EXISTS with tracing
func (c *Client) Exists(ctx context.Context, keys ...string) *redis.IntCmd {
	key := ""
	if len(keys) > 0 {
		key = keys[0]
	}
	ctx, span, start := c.span(ctx, "exists", key)
	cmd := c.cmdable.Exists(ctx, keys...)
	finish(span, start, cmd.Err())
	return cmd
}

// TTL wraps Redis TTL with tracing
func (c *Client) TTL(ctx context.Context, key string) *redis.DurationCmd {
	ctx, span, start := c.span(ctx, "ttl", key)
	cmd := c.cmdable.TTL(ctx, key)
	finish(span, start, cmd.Err())
	return cmd
}

// Ping wraps Redis PING with tracing
func (c *Client) Ping(ctx context.Context) *redis.StatusCmd {
	ctx, span, start := c.span(ctx, "ping", "")
	cmd := c.cmdable.Ping(ctx)
	finish(span, start, cmd.Err())
	return cmd
}

// FlushDB wraps Redis FLUSHDB with tracing; used by tests to reset state
func (c *Client) FlushDB(ctx context.Context) *redis.StatusCmd {
	ctx, span, start := c.span(ctx, "flushdb", "")
	cmd := c.cmdable.FlushDB(ctx)
	finish(span, start, cmd.Err())
	return cmd
}

// Pipeline returns the underlying pipeliner; callers manage their own spans
func (c *Client) Pipeline() redis.Pipeliner {
	return c.cmdable.Pipeline()
}
