package scriptforge

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mbellec/scriptforge/internal/agent"
	"github.com/mbellec/scriptforge/internal/catalog"
	"github.com/mbellec/scriptforge/internal/classify"
	"github.com/mbellec/scriptforge/internal/config"
	"github.com/mbellec/scriptforge/internal/executor"
	"github.com/mbellec/scriptforge/internal/history"
	"github.com/mbellec/scriptforge/internal/history/factory"
	"github.com/mbellec/scriptforge/internal/logger"
	"github.com/mbellec/scriptforge/internal/metrics"
	iapi "github.com/mbellec/scriptforge/internal/server"
	"github.com/prometheus/client_golang/prometheus"
)

// Re-export core types for external consumers.
// These are aliases so conversions are zero-cost.

type Result = agent.Result

type Entry = catalog.Entry

type Kind = classify.Kind

type Config = config.FileConfig

type HistorySink = history.Sink

type ScriptUsage = metrics.ScriptUsage

// Action values carried by Result.
const (
	ActionGenerated = agent.ActionGenerated
	ActionExecuted  = agent.ActionExecuted
	ActionStopped   = agent.ActionStopped
)

// Script kinds assigned by the classifier.
const (
	KindHotkey      = classify.KindHotkey
	KindTextMacro   = classify.KindTextMacro
	KindWindow      = classify.KindWindow
	KindTranslation = classify.KindTranslation
	KindCustom      = classify.KindCustom
)

// Agent is a thin facade over the internal script agent. It provides a
// stable public API for embedding.
type Agent struct {
	inner     *agent.Agent
	logCloser io.Closer
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config { return config.Default() }

// LoadConfig reads a scriptforge.toml file.
func LoadConfig(path string) (Config, error) { return config.Load(path) }

// New assembles an agent from cfg: logger, executor, history sink,
// catalog, and the reconciliation loop. Close the agent to release
// them.
func New(cfg Config) (*Agent, error) {
	cfg.ApplyDefaults()

	log, logCloser, err := logger.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	closeLog := func() {
		if logCloser != nil {
			_ = logCloser.Close()
		}
	}

	var exec executor.Executor
	if cfg.Executor.Command != "" {
		exec = executor.Command{Name: cfg.Executor.Command, Args: cfg.Executor.Args, Output: cfg.Log.File}
	} else {
		exec = executor.ForPlatform(cfg.Log.File)
	}

	var sinks []history.Sink
	if cfg.HistoryDSN != "" {
		sink, err := factory.NewSinkFromDSN(cfg.HistoryDSN)
		if err != nil {
			closeLog()
			return nil, fmt.Errorf("history sink: %w", err)
		}
		sinks = append(sinks, sink)
	}

	inner, err := agent.New(agent.Config{
		ScriptsDir:        cfg.ScriptsDir,
		TemplatesDir:      cfg.TemplatesDir,
		ReconcileInterval: cfg.ReconcileInterval,
		Executor:          exec,
		Recorder:          history.NewRecorder(log, sinks...),
		Logger:            log,
	})
	if err != nil {
		for _, s := range sinks {
			if c, ok := s.(io.Closer); ok {
				_ = c.Close()
			}
		}
		closeLog()
		return nil, err
	}
	return &Agent{inner: inner, logCloser: logCloser}, nil
}

// Process handles one free-text command: re-execute the catalogued
// script it refers to, or generate a new one and launch it.
func (a *Agent) Process(commandText, description string) Result {
	return a.inner.Process(commandText, description)
}

// Generate creates a script file from commandText without launching it.
func (a *Agent) Generate(commandText, description string) Result {
	return a.inner.Generate(commandText, description)
}

// Execute launches an existing script by catalog name or file path.
func (a *Agent) Execute(nameOrPath string) Result { return a.inner.Execute(nameOrPath) }

// Stop terminates a tracked running script.
func (a *Agent) Stop(nameOrPath string) Result { return a.inner.Stop(nameOrPath) }

// List returns catalog entries whose script file still exists.
func (a *Agent) List() []Entry { return a.inner.List() }

// Find returns the first catalog entry whose name or description
// contains query.
func (a *Agent) Find(query string) (Entry, bool) { return a.inner.Find(query) }

// Prune drops catalog entries whose script file is gone.
func (a *Agent) Prune() ([]string, error) { return a.inner.Prune() }

// Running returns the tracked {name: pid} map.
func (a *Agent) Running() map[string]int { return a.inner.Running() }

// Usage samples CPU and memory for every tracked script.
func (a *Agent) Usage() []ScriptUsage { return a.inner.Usage() }

// ReconcileOnce runs one reconciliation pass immediately.
func (a *Agent) ReconcileOnce() { a.inner.ReconcileOnce() }

// Template returns the effective body for kind, including a user
// override saved under the kind's name.
func (a *Agent) Template(kind Kind) string { return a.inner.Templates().Get(kind) }

// TemplateKinds lists the script kinds with a built-in template.
func (a *Agent) TemplateKinds() []Kind { return a.inner.Templates().Kinds() }

// SaveTemplate stores a user template under name. Saving under a kind's
// name overrides its built-in body.
func (a *Agent) SaveTemplate(name, content string) error {
	return a.inner.Templates().SaveCustom(name, content)
}

// Close stops the reconciliation loop, flushes history sinks, and
// closes the log file. Launched scripts keep running.
func (a *Agent) Close() error {
	err := a.inner.Close()
	if a.logCloser != nil {
		if cerr := a.logCloser.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// NewHTTPServer starts an HTTP server exposing the agent API.
func NewHTTPServer(addr, basePath string, a *Agent) (*http.Server, error) {
	return iapi.NewServer(addr, basePath, a.inner)
}

// NewRouter returns an embeddable http.Handler for the agent API, for
// mounting into an existing server or mux. withMetrics also mounts the
// Prometheus handler at /metrics.
func NewRouter(a *Agent, basePath string, withMetrics bool) http.Handler {
	r := iapi.NewRouter(a.inner, basePath)
	if withMetrics {
		r.EnableMetrics()
	}
	return r.Handler()
}

// Metrics helpers (public facade)

func RegisterMetrics(r prometheus.Registerer) error { return metrics.Register(r) }
func RegisterMetricsDefault() error                 { return metrics.Register(prometheus.DefaultRegisterer) }

// ServeMetrics starts an HTTP server on addr exposing /metrics using the default registry.
// It returns any immediate listen error; otherwise it runs the server in the caller goroutine.
func ServeMetrics(addr string) error {
	http.Handle("/metrics", metrics.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           nil,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv.ListenAndServe()
}
