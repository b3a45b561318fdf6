package redis

import (
	"context"
	"encoding/json"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/mbellec/scriptforge/internal/history"
)

const defaultChannel = "scriptforge:notifications"

// Sink publishes script lifecycle events as JSON on a Redis pub/sub channel
// so that other agents can react to them live.
type Sink struct {
	client  *goredis.Client
	channel string
}

// New connects with a standard redis DSN (redis://host:port/db). An empty
// channel falls back to defaultChannel.
func New(dsn, channel string) (*Sink, error) {
	opts, err := goredis.ParseURL(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid redis dsn: %w", err)
	}
	client := goredis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	if channel == "" {
		channel = defaultChannel
	}
	return &Sink{client: client, channel: channel}, nil
}

func (s *Sink) Send(ctx context.Context, e history.Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return s.client.Publish(ctx, s.channel, payload).Err()
}

func (s *Sink) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}
