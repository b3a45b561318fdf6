package supervisor

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mbellec/scriptforge/internal/detector"
	"github.com/mbellec/scriptforge/internal/executor"
	"github.com/mbellec/scriptforge/internal/history"
	"github.com/mbellec/scriptforge/internal/metrics"
)

// DefaultReconcileInterval is how often tracking entries are checked
// against the OS process table when no interval is configured.
const DefaultReconcileInterval = 10 * time.Second

// Launch describes one tracked script process.
type Launch struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	PID     int    `json:"pid"`
	RunID   string `json:"run_id"`
	Message string `json:"message"`
}

type tracked struct {
	pid   int
	path  string
	runID string
}

// Supervisor launches script files through an executor and keeps an
// in-memory name->pid tracking map. Tracking state is never persisted;
// it reflects only what this instance launched.
type Supervisor struct {
	mu        sync.Mutex
	running   map[string]tracked
	reconStop chan struct{}

	exec     executor.Executor
	table    detector.Table
	recorder *history.Recorder
	logger   *slog.Logger
}

func New(exec executor.Executor, table detector.Table, recorder *history.Recorder, logger *slog.Logger) *Supervisor {
	if table == nil {
		table = detector.OS()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Supervisor{
		running:  make(map[string]tracked),
		exec:     exec,
		table:    table,
		recorder: recorder,
		logger:   logger,
	}
}

// Execute launches the script file at path and tracks the resulting pid
// under the file's base name. Launching a name that is already tracked
// overwrites the previous entry without stopping the old process.
func (s *Supervisor) Execute(path string) (Launch, error) {
	if _, err := os.Stat(path); err != nil {
		return Launch{}, fmt.Errorf("script introuvable: %s", path)
	}

	res, err := s.exec.ExecuteScript(path)
	if err != nil {
		return Launch{}, err
	}
	pid := res.PID
	if pid <= 0 {
		// Compatibility path: older executors only announce the pid
		// inside the message.
		if parsed, ok := executor.ParsePID(res.Message); ok {
			pid = parsed
		}
	}

	name := BaseName(path)
	l := Launch{
		Name:    name,
		Path:    path,
		PID:     pid,
		RunID:   uuid.NewString(),
		Message: res.Message,
	}
	if pid <= 0 {
		s.logger.Warn("executor result carried no pid, script left untracked", "name", name, "message", res.Message)
		return l, nil
	}

	s.mu.Lock()
	if old, ok := s.running[name]; ok && old.pid != pid {
		s.logger.Warn("replacing tracked pid without stopping previous process",
			"name", name, "old_pid", old.pid, "new_pid", pid)
	}
	s.running[name] = tracked{pid: pid, path: path, runID: l.RunID}
	n := len(s.running)
	s.mu.Unlock()

	metrics.IncLaunch(name)
	metrics.SetRunningScripts(n)
	s.recorder.Record(history.Event{
		Type: history.EventLaunched,
		Record: history.Record{
			Name:    name,
			Path:    path,
			PID:     pid,
			RunID:   l.RunID,
			Message: res.Message,
		},
	})
	s.logger.Info("script launched", "name", name, "pid", pid)
	return l, nil
}

// Stop force-kills the tracked process for nameOrPath. The tracking
// entry is removed whether or not the kill succeeds; stopping a name
// that is not tracked is an error.
func (s *Supervisor) Stop(nameOrPath string) (Launch, error) {
	name := BaseName(nameOrPath)

	s.mu.Lock()
	t, ok := s.running[name]
	if ok {
		delete(s.running, name)
	}
	n := len(s.running)
	s.mu.Unlock()
	if !ok {
		return Launch{}, fmt.Errorf("aucun script en cours nommé %q", name)
	}

	killErr := s.table.Kill(t.pid)

	metrics.IncStop(name)
	metrics.SetRunningScripts(n)
	metrics.ClearUsage(name)
	s.recorder.Record(history.Event{
		Type: history.EventStopped,
		Record: history.Record{
			Name:  name,
			Path:  t.path,
			PID:   t.pid,
			RunID: t.runID,
		},
	})

	l := Launch{Name: name, Path: t.path, PID: t.pid, RunID: t.runID}
	if killErr != nil {
		s.logger.Warn("kill failed, tracking entry removed anyway", "name", name, "pid", t.pid, "error", killErr)
		return l, fmt.Errorf("arrêt du script %q: %w", name, killErr)
	}
	s.logger.Info("script stopped", "name", name, "pid", t.pid)
	return l, nil
}

// Running returns a copy of the tracking map (name -> pid).
func (s *Supervisor) Running() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int, len(s.running))
	for name, t := range s.running {
		out[name] = t.pid
	}
	return out
}

// Usage samples CPU and memory for every tracked pid.
func (s *Supervisor) Usage() []metrics.ScriptUsage {
	return metrics.SampleUsage(s.Running())
}

// ReconcileOnce removes tracking entries whose process left the OS
// process table. Probe failures are logged and the entry kept for the
// next pass.
func (s *Supervisor) ReconcileOnce() {
	s.mu.Lock()
	snapshot := make(map[string]tracked, len(s.running))
	for name, t := range s.running {
		snapshot[name] = t
	}
	s.mu.Unlock()

	for name, t := range snapshot {
		alive, err := s.table.Alive(t.pid)
		if err != nil {
			s.logger.Warn("pid probe failed, keeping tracking entry", "name", name, "pid", t.pid, "error", err)
			continue
		}
		if alive {
			continue
		}

		s.mu.Lock()
		cur, ok := s.running[name]
		if ok && cur.pid == t.pid {
			delete(s.running, name)
		} else {
			ok = false
		}
		n := len(s.running)
		s.mu.Unlock()
		if !ok {
			continue
		}

		metrics.IncReaped(name)
		metrics.SetRunningScripts(n)
		metrics.ClearUsage(name)
		s.recorder.Record(history.Event{
			Type: history.EventReaped,
			Record: history.Record{
				Name:  name,
				Path:  t.path,
				PID:   t.pid,
				RunID: t.runID,
			},
		})
		s.logger.Info("reaped finished script", "name", name, "pid", t.pid)
	}
}

// StartReconciler starts a background loop that periodically calls ReconcileOnce.
func (s *Supervisor) StartReconciler(interval time.Duration) {
	if interval <= 0 {
		interval = DefaultReconcileInterval
	}
	s.mu.Lock()
	if s.reconStop != nil {
		s.mu.Unlock()
		return // already running
	}
	stop := make(chan struct{})
	s.reconStop = stop
	s.mu.Unlock()
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				s.ReconcileOnce()
			case <-stop:
				return
			}
		}
	}()
}

// StopReconciler stops the background reconcile loop if running.
func (s *Supervisor) StopReconciler() {
	s.mu.Lock()
	ch := s.reconStop
	s.reconStop = nil
	s.mu.Unlock()
	if ch != nil {
		close(ch)
	}
}

// Close stops the reconciler. Launched scripts keep running; tracking
// state is in-memory only and dies with the supervisor.
func (s *Supervisor) Close() {
	s.StopReconciler()
}

// BaseName strips the directory and the .ahk extension from a script
// path, yielding the tracking key.
func BaseName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), ".ahk")
}
