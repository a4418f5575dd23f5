package export

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisStream is the stream samples are appended to.
const DefaultRedisStream = "metrics:samples"

// RedisObserver appends samples to a capped Redis stream.
type RedisObserver struct {
	client *redis.Client
	stream string
	maxLen int64
}

// NewRedisObserver connects to addr. The stream is trimmed to roughly maxLen
// entries on every append.
func NewRedisObserver(ctx context.Context, addr, stream string, maxLen int64) (*RedisObserver, error) {
	if stream == "" {
		stream = DefaultRedisStream
	}
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		MaxRetries:   3,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisObserver{client: client, stream: stream, maxLen: maxLen}, nil
}

func (o *RedisObserver) Name() string { return "redis" }

func (o *RedisObserver) Notify(ctx context.Context, e Envelope) error {
	if err := o.client.XAdd(ctx, xaddArgs(o.stream, o.maxLen, e)).Err(); err != nil {
		return fmt.Errorf("failed to append sample to stream: %w", err)
	}
	return nil
}

func (o *RedisObserver) Close() error {
	return o.client.Close()
}

func xaddArgs(stream string, maxLen int64, e Envelope) *redis.XAddArgs {
	values := map[string]any{
		"id":        e.ID,
		"timestamp": strconv.FormatInt(e.TimestampMs, 10),
		"endpoint":  e.Endpoint,
		"method":    e.Method,
		"status":    strconv.Itoa(e.StatusCode),
		"latencyMs": strconv.FormatFloat(e.LatencyMs, 'f', -1, 64),
	}
	if e.Error != "" {
		values["error"] = e.Error
	}
	return &redis.XAddArgs{
		Stream: stream,
		MaxLen: maxLen,
		Approx: true,
		Values: values,
	}
}
