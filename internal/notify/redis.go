// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// VideoCompressor - 按目标大小压缩视频

package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ZSC714725/videocompressor/internal/job"

	"github.com/redis/go-redis/v9"
)

// DefaultTTL is how long a finished job hash stays in Redis
const DefaultTTL = 24 * time.Hour

// RedisConfig for the Redis notifier
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Channel  string
	TTL      time.Duration
}

// Redis mirrors job state into a hash "job:<id>" and publishes every
// event as JSON on a channel.
type Redis struct {
	client  redis.Cmdable
	closer  func() error
	channel string
	ttl     time.Duration
}

// NewRedis connects to Redis and fails when the server is unreachable
func NewRedis(ctx context.Context, config RedisConfig) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis %s: %w", config.Addr, err)
	}

	r := NewRedisWithClient(client, config.Channel, config.TTL)
	r.closer = client.Close
	return r, nil
}

// NewRedisWithClient wraps an existing client
func NewRedisWithClient(client redis.Cmdable, channel string, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{client: client, channel: channel, ttl: ttl}
}

// Key returns the hash key of a job
func Key(jobID string) string {
	return fmt.Sprintf("job:%s", jobID)
}

// Fields returns the hash fields written for an event
func Fields(ev job.Event) []interface{} {
	fields := []interface{}{
		"status", string(ev.Type),
		"percent", ev.Percent,
		"updated_at", ev.Time.Format(time.RFC3339),
	}
	switch ev.Type {
	case job.EventStarted:
		fields = append(fields, "started_at", ev.Time.Format(time.RFC3339))
	case job.EventFinished:
		fields = append(fields, "output", ev.Output, "completed_at", ev.Time.Format(time.RFC3339))
	case job.EventFailed:
		fields = append(fields, "error", ev.Error, "completed_at", ev.Time.Format(time.RFC3339))
	}
	return fields
}

func (r *Redis) Notify(ctx context.Context, ev job.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	key := Key(ev.JobID)
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, Fields(ev)...)
		if ev.Terminal() {
			pipe.Expire(ctx, key, r.ttl)
		}
		if r.channel != "" {
			pipe.Publish(ctx, r.channel, data)
		}
		return nil
	})
	return err
}

// Close releases the connection when the notifier owns it
func (r *Redis) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer()
}
