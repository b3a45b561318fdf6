package agent

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mbellec/scriptforge/internal/catalog"
	"github.com/mbellec/scriptforge/internal/classify"
	"github.com/mbellec/scriptforge/internal/executor"
	"github.com/mbellec/scriptforge/internal/generator"
	"github.com/mbellec/scriptforge/internal/history"
	"github.com/mbellec/scriptforge/internal/logger"
	"github.com/mbellec/scriptforge/internal/metrics"
	"github.com/mbellec/scriptforge/internal/supervisor"
	"github.com/mbellec/scriptforge/internal/template"
)

// Action values carried by Result. A Result reports the last action the
// agent attempted, so a generate-then-execute flow ends as "executed".
const (
	ActionGenerated = "generated"
	ActionExecuted  = "executed"
	ActionStopped   = "stopped"
)

// Result is the structured outcome of one agent operation. Operations
// never surface raw errors: failures come back as OK=false with a
// displayable message.
type Result struct {
	OK      bool   `json:"success"`
	Action  string `json:"action"`
	Name    string `json:"name,omitempty"`
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
}

// executeMarkers signal "run something existing" intent inside a
// free-text command.
var executeMarkers = []string{
	"exécute", "exécuter", "execute",
	"lance", "lancer", "run",
	"démarre", "démarrer",
}

// Config carries the directories the agent works in plus its assembled
// collaborators. Executor and Recorder may be left nil: the platform
// executor and a sinkless recorder take their place.
type Config struct {
	ScriptsDir        string
	TemplatesDir      string
	ReconcileInterval time.Duration
	Executor          executor.Executor
	Recorder          *history.Recorder
	Logger            *slog.Logger
}

// Agent composes the classifier, generator, catalog, and supervisor
// behind free-text command operations.
type Agent struct {
	scriptsDir string
	catalog    *catalog.Catalog
	templates  *template.Library
	generator  *generator.Generator
	super      *supervisor.Supervisor
	recorder   *history.Recorder
	logger     *slog.Logger
}

// New creates the scripts directory, loads the catalog, and starts the
// reconciliation loop.
func New(cfg Config) (*Agent, error) {
	if cfg.ScriptsDir == "" {
		return nil, errors.New("répertoire de scripts requis")
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	if err := os.MkdirAll(cfg.ScriptsDir, 0o755); err != nil {
		return nil, fmt.Errorf("création du répertoire de scripts: %w", err)
	}
	templatesDir := cfg.TemplatesDir
	if templatesDir == "" {
		templatesDir = filepath.Join(cfg.ScriptsDir, "templates")
	}
	exec := cfg.Executor
	if exec == nil {
		exec = executor.ForPlatform(logger.FileConfig{})
	}

	cat := catalog.New(filepath.Join(cfg.ScriptsDir, "catalog.json"), log)
	cat.Load()
	lib := template.New(templatesDir)
	cls := classify.New()

	a := &Agent{
		scriptsDir: cfg.ScriptsDir,
		catalog:    cat,
		templates:  lib,
		generator:  generator.New(cfg.ScriptsDir, lib, cat, cls, log),
		super:      supervisor.New(exec, nil, cfg.Recorder, log),
		recorder:   cfg.Recorder,
		logger:     log,
	}
	a.super.StartReconciler(cfg.ReconcileInterval)
	return a, nil
}

// Process handles one free-text command. A command carrying execute
// intent whose remainder matches a catalogued script re-executes that
// script; anything else generates a new script and launches it.
func (a *Agent) Process(commandText, description string) Result {
	if entry, ok := a.matchExisting(commandText); ok {
		res := a.Execute(entry.Name)
		if res.OK {
			res.Message = fmt.Sprintf("Script existant %q relancé. %s", entry.Name, res.Message)
		}
		return res
	}
	gen := a.Generate(commandText, description)
	if !gen.OK {
		return gen
	}
	res := a.Execute(gen.Path)
	res.Name, res.Path = gen.Name, gen.Path
	if res.OK {
		res.Message = fmt.Sprintf("Script %q créé. %s", gen.Name, res.Message)
	}
	return res
}

// Generate creates a script file from commandText without launching it.
func (a *Agent) Generate(commandText, description string) Result {
	entry, err := a.generator.Generate(commandText, description)
	if err != nil {
		return Result{Action: ActionGenerated, Message: err.Error()}
	}
	a.recorder.Record(history.Event{
		Type: history.EventGenerated,
		Record: history.Record{
			Name: entry.Name,
			Path: entry.Path,
			Kind: string(entry.Kind),
		},
	})
	return Result{
		OK:      true,
		Action:  ActionGenerated,
		Name:    entry.Name,
		Path:    entry.Path,
		Message: fmt.Sprintf("Script %q créé (%s)", entry.Name, entry.Kind),
	}
}

// Execute launches an existing script by catalog name or file path.
func (a *Agent) Execute(nameOrPath string) Result {
	path := nameOrPath
	if e, ok := a.catalog.Get(supervisor.BaseName(nameOrPath)); ok {
		path = e.Path
	}
	launch, err := a.super.Execute(path)
	if err != nil {
		return Result{Action: ActionExecuted, Name: supervisor.BaseName(nameOrPath), Message: err.Error()}
	}
	return Result{
		OK:      true,
		Action:  ActionExecuted,
		Name:    launch.Name,
		Path:    launch.Path,
		Message: launch.Message,
	}
}

// Stop terminates a tracked running script by name or path.
func (a *Agent) Stop(nameOrPath string) Result {
	launch, err := a.super.Stop(nameOrPath)
	if err != nil {
		return Result{Action: ActionStopped, Name: supervisor.BaseName(nameOrPath), Message: err.Error()}
	}
	return Result{
		OK:      true,
		Action:  ActionStopped,
		Name:    launch.Name,
		Message: fmt.Sprintf("Script %q arrêté (PID: %d)", launch.Name, launch.PID),
	}
}

// List returns catalog entries whose script file still exists.
func (a *Agent) List() []catalog.Entry { return a.catalog.List() }

// Find returns the first catalog entry whose name or description
// contains query.
func (a *Agent) Find(query string) (catalog.Entry, bool) { return a.catalog.Find(query) }

// Prune drops catalog entries whose script file is gone and reports the
// removed names.
func (a *Agent) Prune() ([]string, error) { return a.catalog.Prune() }

// Running returns a copy of the tracked {name: pid} map.
func (a *Agent) Running() map[string]int { return a.super.Running() }

// Usage samples CPU and memory for every tracked script.
func (a *Agent) Usage() []metrics.ScriptUsage { return a.super.Usage() }

// ReconcileOnce runs one reconciliation pass immediately.
func (a *Agent) ReconcileOnce() { a.super.ReconcileOnce() }

// Templates exposes the template library for save and show operations.
func (a *Agent) Templates() *template.Library { return a.templates }

// CatalogPath returns the location of the backing catalog file.
func (a *Agent) CatalogPath() string { return a.catalog.Path() }

// Close stops the reconciliation loop and flushes history sinks.
// Launched scripts keep running.
func (a *Agent) Close() error {
	a.super.Close()
	return a.recorder.Close()
}

// matchExisting reports the catalogued script a command with execute
// intent refers to. The marker words themselves are dropped before the
// catalog lookup so "exécute lance le terminal" finds a script
// described as "lance le terminal".
func (a *Agent) matchExisting(commandText string) (catalog.Entry, bool) {
	fields := strings.Fields(commandText)
	query := make([]string, 0, len(fields))
	marked := false
	for _, f := range fields {
		if isExecuteMarker(f) {
			marked = true
			continue
		}
		query = append(query, f)
	}
	if !marked || len(query) == 0 {
		return catalog.Entry{}, false
	}
	return a.catalog.Find(strings.Join(query, " "))
}

func isExecuteMarker(word string) bool {
	w := strings.ToLower(strings.Trim(word, ".,!?"))
	for _, m := range executeMarkers {
		if w == m {
			return true
		}
	}
	return false
}
