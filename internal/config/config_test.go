package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFrom_MissingFile(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.IdleWindow() != DefaultIdleWindow {
		t.Errorf("IdleWindow() = %v, want default %v", cfg.IdleWindow(), DefaultIdleWindow)
	}
	if cfg.Rows() != DefaultRows || cfg.Cols() != DefaultCols {
		t.Errorf("Rows/Cols = %d/%d, want defaults %d/%d", cfg.Rows(), cfg.Cols(), DefaultRows, DefaultCols)
	}
}

func TestLoadFrom_ParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "idle_window_ms: 500\ndefault_rows: 40\ndefault_cols: 120\ndefault_shell: /bin/zsh\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if got := cfg.IdleWindow(); got != 500*time.Millisecond {
		t.Errorf("IdleWindow() = %v, want 500ms", got)
	}
	if cfg.Rows() != 40 || cfg.Cols() != 120 {
		t.Errorf("Rows/Cols = %d/%d, want 40/120", cfg.Rows(), cfg.Cols())
	}
	if cfg.Shell() != "/bin/zsh" {
		t.Errorf("Shell() = %q, want /bin/zsh", cfg.Shell())
	}
}

func TestConfigDir_WSHDHomeOverride(t *testing.T) {
	t.Setenv("WSHD_HOME", "/tmp/custom")
	if got := ConfigDir(); got != "/tmp/custom" {
		t.Errorf("ConfigDir() = %q, want /tmp/custom", got)
	}
}
