package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/mbellec/scriptforge/internal/logger"
	"github.com/spf13/viper"
)

// Defaults filled in by ApplyDefaults for fields the file leaves unset.
const (
	DefaultScriptsDir        = "scripts/autohotkey"
	DefaultReconcileInterval = 10 * time.Second
	DefaultListen            = "127.0.0.1:8080"
	DefaultBasePath          = "/api"
)

// FileConfig represents the top-level scriptforge.toml structure.
//
//	scripts_dir = "scripts/autohotkey"
//	templates_dir = "scripts/autohotkey/templates"
//	reconcile_interval = "10s"
//	history_dsn = "sqlite://${HOME}/.scriptforge/history.db"
//	[executor]
//	command = "autohotkey"
//	args = ["/restart"]
//	[log]
//	level = "info"
//	[log.file]
//	dir = "/var/log/scriptforge"
//	[server]
//	listen = "127.0.0.1:8080"
//	base_path = "/api"
//	[metrics]
//	enabled = true
//	listen = "127.0.0.1:9090"
type FileConfig struct {
	ScriptsDir        string         `toml:"scripts_dir" mapstructure:"scripts_dir"`
	TemplatesDir      string         `toml:"templates_dir" mapstructure:"templates_dir"`
	ReconcileInterval time.Duration  `toml:"reconcile_interval" mapstructure:"reconcile_interval"`
	HistoryDSN        string         `toml:"history_dsn" mapstructure:"history_dsn"`
	Executor          ExecutorConfig `toml:"executor" mapstructure:"executor"`
	Log               logger.Config  `toml:"log" mapstructure:"log"`
	Server            ServerConfig   `toml:"server" mapstructure:"server"`
	Metrics           MetricsConfig  `toml:"metrics" mapstructure:"metrics"`
}

// ExecutorConfig replaces the platform executor with an arbitrary
// interpreter command when set.
type ExecutorConfig struct {
	Command string   `toml:"command" mapstructure:"command"`
	Args    []string `toml:"args" mapstructure:"args"`
}

type ServerConfig struct {
	Listen   string `toml:"listen" mapstructure:"listen"`
	BasePath string `toml:"base_path" mapstructure:"base_path"`
}

// MetricsConfig enables Prometheus collection. A non-empty Listen
// additionally serves /metrics on its own address.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled" mapstructure:"enabled"`
	Listen  string `toml:"listen" mapstructure:"listen"`
}

// Default returns the configuration used when no file is given. The
// templates directory is left unset so that it follows the scripts
// directory even when the caller overrides ScriptsDir before assembly.
func Default() FileConfig {
	return FileConfig{
		ScriptsDir:        DefaultScriptsDir,
		ReconcileInterval: DefaultReconcileInterval,
		Server: ServerConfig{
			Listen:   DefaultListen,
			BasePath: DefaultBasePath,
		},
	}
}

// Load parses a scriptforge.toml file. Environment references like
// ${SCRIPTFORGE_DSN} inside history_dsn are expanded, and unset fields
// fall back to the defaults.
func Load(path string) (FileConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return FileConfig{}, err
	}
	var fc FileConfig
	if err := v.Unmarshal(&fc); err != nil {
		return FileConfig{}, err
	}
	fc.HistoryDSN = os.ExpandEnv(fc.HistoryDSN)
	fc.ApplyDefaults()
	return fc, nil
}

// ApplyDefaults fills unset fields in place. The templates directory
// defaults to a subdirectory of the scripts directory so a single tree
// holds everything the generator touches.
func (fc *FileConfig) ApplyDefaults() {
	if fc.ScriptsDir == "" {
		fc.ScriptsDir = DefaultScriptsDir
	}
	if fc.TemplatesDir == "" {
		fc.TemplatesDir = filepath.Join(fc.ScriptsDir, "templates")
	}
	if fc.ReconcileInterval <= 0 {
		fc.ReconcileInterval = DefaultReconcileInterval
	}
	if fc.Server.Listen == "" {
		fc.Server.Listen = DefaultListen
	}
	if fc.Server.BasePath == "" {
		fc.Server.BasePath = DefaultBasePath
	}
}
