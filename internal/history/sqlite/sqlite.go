package sqlite

import (
	"context"
	"database/sql"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/mbellec/scriptforge/internal/history"
)

// Sink stores script lifecycle events in a SQLite database.
type Sink struct {
	db *sql.DB
}

// New opens (or creates) the database. dsn may be "sqlite:///path/to.db",
// "sqlite://:memory:" or a plain filesystem path.
func New(dsn string) (*Sink, error) {
	path := strings.TrimPrefix(dsn, "sqlite://")
	if path == "" {
		path = ":memory:"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	s := &Sink{db: db}
	if err := s.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Sink) ensureSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS script_events (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        occurred_at TIMESTAMP NOT NULL,
        event TEXT NOT NULL,
        name TEXT NOT NULL,
        path TEXT,
        kind TEXT,
        pid INTEGER,
        run_id TEXT,
        message TEXT
    )`)
	return err
}

func (s *Sink) Send(ctx context.Context, e history.Event) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO script_events (occurred_at, event, name, path, kind, pid, run_id, message)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.OccurredAt, string(e.Type), e.Record.Name, e.Record.Path,
		e.Record.Kind, e.Record.PID, e.Record.RunID, e.Record.Message)
	return err
}

func (s *Sink) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
