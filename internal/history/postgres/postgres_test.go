package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/mbellec/scriptforge/internal/history"
)

func TestPostgresSink_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer func() {
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Errorf("Failed to terminate PostgreSQL container: %v", err)
		}
	}()

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("Failed to get connection string: %v", err)
	}

	sink, err := New(connStr)
	if err != nil {
		t.Fatalf("Failed to create PostgreSQL sink: %v", err)
	}
	defer func() {
		if err := sink.Close(); err != nil {
			t.Errorf("Failed to close sink: %v", err)
		}
	}()

	record := history.Record{
		Name:    "hotkey_terminal_20240101120000",
		Path:    "/tmp/hotkey_terminal_20240101120000.ahk",
		Kind:    "hotkey",
		PID:     4242,
		RunID:   "run-1",
		Message: "Script lancé avec AutoHotkey (PID: 4242)",
	}

	if err := sink.Send(ctx, history.Event{
		Type:       history.EventLaunched,
		OccurredAt: time.Now().UTC(),
		Record:     record,
	}); err != nil {
		t.Fatalf("Failed to send launch event: %v", err)
	}

	if err := sink.Send(ctx, history.Event{
		Type:       history.EventStopped,
		OccurredAt: time.Now().UTC(),
		Record:     record,
	}); err != nil {
		t.Fatalf("Failed to send stop event: %v", err)
	}

	var count int
	if err := sink.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM script_events WHERE name = $1", record.Name).Scan(&count); err != nil {
		t.Fatalf("Failed to query script_events: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 events in history, got %d", count)
	}
}
