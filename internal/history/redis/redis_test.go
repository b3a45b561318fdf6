package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/mbellec/scriptforge/internal/history"
)

func setupRedisContainer(ctx context.Context, t *testing.T) (testcontainers.Container, string) {
	t.Helper()

	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor: wait.ForLog("Ready to accept connections").
				WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	host, err := redisContainer.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}
	port, err := redisContainer.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get mapped port: %v", err)
	}

	return redisContainer, "redis://" + host + ":" + port.Port() + "/0"
}

func TestRedisSink_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	redisContainer, dsn := setupRedisContainer(ctx, t)
	defer func() {
		if err := redisContainer.Terminate(ctx); err != nil {
			t.Errorf("Failed to terminate Redis container: %v", err)
		}
	}()

	sink, err := New(dsn, "test:notifications")
	if err != nil {
		t.Fatalf("Failed to create sink: %v", err)
	}
	defer func() {
		if err := sink.Close(); err != nil {
			t.Errorf("Failed to close sink: %v", err)
		}
	}()

	// Subscribe before publishing so the message is not lost.
	opts, err := goredis.ParseURL(dsn)
	if err != nil {
		t.Fatalf("Failed to parse dsn: %v", err)
	}
	sub := goredis.NewClient(opts)
	defer func() { _ = sub.Close() }()
	pubsub := sub.Subscribe(ctx, "test:notifications")
	defer func() { _ = pubsub.Close() }()
	if _, err := pubsub.Receive(ctx); err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}

	want := history.Event{
		Type:       history.EventLaunched,
		OccurredAt: time.Now().UTC(),
		Record: history.Record{
			Name:    "hotkey_terminal_20240101120000",
			PID:     4242,
			RunID:   "run-1",
			Message: "Script lancé avec AutoHotkey (PID: 4242)",
		},
	}
	if err := sink.Send(ctx, want); err != nil {
		t.Fatalf("Failed to send event: %v", err)
	}

	recvCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	msg, err := pubsub.ReceiveMessage(recvCtx)
	if err != nil {
		t.Fatalf("Failed to receive message: %v", err)
	}

	var got history.Event
	if err := json.Unmarshal([]byte(msg.Payload), &got); err != nil {
		t.Fatalf("Failed to decode payload: %v", err)
	}
	if got.Type != history.EventLaunched || got.Record.PID != 4242 || got.Record.RunID != "run-1" {
		t.Errorf("Unexpected event: %+v", got)
	}
}

func TestRedisSink_InvalidDSN(t *testing.T) {
	if _, err := New("redis://bad dsn with spaces", ""); err == nil {
		t.Error("Expected error with invalid dsn, got nil")
	}
}
