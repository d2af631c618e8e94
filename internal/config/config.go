// Package config loads wshd's daemon configuration from ~/.wshd/config.yaml,
// following the teacher's load-from-YAML-with-sane-defaults pattern.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the daemon's top-level configuration.
type Config struct {
	// IdleWindowMS is how long a session's PTY output must be silent before
	// it's considered quiescent (spec.md §4.4 "await_quiesce"). 0 uses
	// DefaultIdleWindow.
	IdleWindowMS int `yaml:"idle_window_ms"`

	// ScrollbackLines bounds each session's scrollback ring (spec.md §3
	// "Scrollback"). 0 uses scrollback.DefaultCapacity.
	ScrollbackLines int `yaml:"scrollback_lines"`

	// DefaultShell is the command run when create_session doesn't specify
	// one explicitly.
	DefaultShell string `yaml:"default_shell"`

	// DefaultRows/DefaultCols size a new session's PTY when the client
	// doesn't specify dimensions.
	DefaultRows int `yaml:"default_rows"`
	DefaultCols int `yaml:"default_cols"`

	// OutboxCapacity bounds each event subscriber's queue (spec.md §5). 0
	// uses eventbus.DefaultOutboxCapacity.
	OutboxCapacity int `yaml:"outbox_capacity"`
}

const (
	DefaultIdleWindow = 300 * time.Millisecond
	DefaultRows       = 24
	DefaultCols       = 80
)

// IdleWindow returns the configured idle window, or DefaultIdleWindow.
func (c *Config) IdleWindow() time.Duration {
	if c.IdleWindowMS <= 0 {
		return DefaultIdleWindow
	}
	return time.Duration(c.IdleWindowMS) * time.Millisecond
}

// Shell returns the configured default shell, or $SHELL, or "/bin/sh".
func (c *Config) Shell() string {
	if c.DefaultShell != "" {
		return c.DefaultShell
	}
	if sh := os.Getenv("SHELL"); sh != "" {
		return sh
	}
	return "/bin/sh"
}

// Rows and Cols return the configured defaults, or the package defaults.
func (c *Config) Rows() int {
	if c.DefaultRows > 0 {
		return c.DefaultRows
	}
	return DefaultRows
}

func (c *Config) Cols() int {
	if c.DefaultCols > 0 {
		return c.DefaultCols
	}
	return DefaultCols
}

// ConfigDir returns the wshd configuration directory: ~/.wshd/, overridable
// via WSHD_HOME (matching internal/socketdir's override).
func ConfigDir() string {
	if home := os.Getenv("WSHD_HOME"); home != "" {
		return home
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".wshd")
	}
	return filepath.Join(home, ".wshd")
}

// Load reads the daemon config from ~/.wshd/config.yaml. A missing file is
// not an error: it returns the zero Config, whose accessors fall back to
// package defaults.
func Load() (*Config, error) {
	return LoadFrom(filepath.Join(ConfigDir(), "config.yaml"))
}

// LoadFrom reads the daemon config from the given path.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}
