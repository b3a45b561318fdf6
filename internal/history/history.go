package history

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// EventType defines the kind of script lifecycle event.
type EventType string

const (
	EventGenerated EventType = "generated"
	EventLaunched  EventType = "launched"
	EventStopped   EventType = "stopped"
	EventReaped    EventType = "reaped"
)

// Record carries the script details attached to an event. RunID ties
// the launch, stop and reap events of one script run together.
type Record struct {
	Name    string `json:"name"`
	Path    string `json:"path,omitempty"`
	Kind    string `json:"kind,omitempty"`
	PID     int    `json:"pid,omitempty"`
	RunID   string `json:"run_id,omitempty"`
	Message string `json:"message,omitempty"`
}

// Event represents one lifecycle event to export to external systems.
type Event struct {
	Type       EventType `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Record     Record    `json:"record"`
}

// Sink is a destination for history events. Implementations must be
// safe for concurrent use.
type Sink interface {
	Send(ctx context.Context, e Event) error
}

// Recorder fans events out to its sinks. Sends are bounded by a
// timeout and sink failures are logged, never propagated, so script
// operations cannot be blocked by a slow or broken destination.
type Recorder struct {
	sinks   []Sink
	logger  *slog.Logger
	timeout time.Duration
}

func NewRecorder(logger *slog.Logger, sinks ...Sink) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{sinks: sinks, logger: logger, timeout: 5 * time.Second}
}

// Record stamps and delivers one event. A missing occurred-at defaults
// to now and a missing run id gets a fresh one.
func (r *Recorder) Record(e Event) {
	if r == nil {
		return
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	if e.Record.RunID == "" {
		e.Record.RunID = uuid.NewString()
	}
	for _, s := range r.sinks {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		if err := s.Send(ctx, e); err != nil {
			r.logger.Warn("history sink send failed",
				"event", string(e.Type), "script", e.Record.Name, "error", err)
		}
		cancel()
	}
}

// Close releases sinks that hold connections.
func (r *Recorder) Close() error {
	if r == nil {
		return nil
	}
	var first error
	for _, s := range r.sinks {
		if c, ok := s.(io.Closer); ok {
			if err := c.Close(); err != nil && first == nil {
				first = err
			}
		}
	}
	return first
}
