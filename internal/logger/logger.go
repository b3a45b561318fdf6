package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Default rotation settings, lumberjack semantics.
const (
	DefaultMaxSizeMB  = 10 // MB
	DefaultMaxBackups = 3  // number of backup files
	DefaultMaxAgeDays = 7  // days
)

// FileConfig describes rotated file output.
type FileConfig struct {
	Dir        string `toml:"dir" mapstructure:"dir"`
	MaxSizeMB  int    `toml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `toml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool   `toml:"compress" mapstructure:"compress"`
}

// Config describes application logging. Console output goes to stderr,
// colored when it is a terminal; file output is optional and rotated.
type Config struct {
	Level   string     `toml:"level" mapstructure:"level"`
	NoColor bool       `toml:"no_color" mapstructure:"no_color"`
	File    FileConfig `toml:"file" mapstructure:"file"`
}

// New builds the application logger. The returned closer owns the
// rotated file writer and is nil when no file output is configured.
func New(cfg Config) (*slog.Logger, io.Closer, error) {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var console slog.Handler
	if !cfg.NoColor && isatty.IsTerminal(os.Stderr.Fd()) {
		console = NewColorTextHandler(os.Stderr, opts)
	} else {
		console = slog.NewTextHandler(os.Stderr, opts)
	}

	if cfg.File.Dir == "" {
		return slog.New(console), nil, nil
	}

	if err := os.MkdirAll(cfg.File.Dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	file := &lj.Logger{
		Filename:   filepath.Join(cfg.File.Dir, "scriptforge.log"),
		MaxSize:    valOr(cfg.File.MaxSizeMB, DefaultMaxSizeMB),
		MaxBackups: valOr(cfg.File.MaxBackups, DefaultMaxBackups),
		MaxAge:     valOr(cfg.File.MaxAgeDays, DefaultMaxAgeDays),
		Compress:   cfg.File.Compress,
	}
	h := multiHandler{console, slog.NewTextHandler(file, opts)}
	return slog.New(h), file, nil
}

// ScriptWriters returns rotated stdout/stderr writers for one launched
// script, at Dir/<name>.stdout.log and Dir/<name>.stderr.log. Both are
// nil when no Dir is configured.
func (c FileConfig) ScriptWriters(name string) (io.WriteCloser, io.WriteCloser) {
	if c.Dir == "" {
		return nil, nil
	}
	mk := func(suffix string) io.WriteCloser {
		return &lj.Logger{
			Filename:   filepath.Join(c.Dir, fmt.Sprintf("%s.%s.log", name, suffix)),
			MaxSize:    valOr(c.MaxSizeMB, DefaultMaxSizeMB),
			MaxBackups: valOr(c.MaxBackups, DefaultMaxBackups),
			MaxAge:     valOr(c.MaxAgeDays, DefaultMaxAgeDays),
			Compress:   c.Compress,
		}
	}
	return mk("stdout"), mk("stderr")
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func valOr(v int, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
