package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type sample struct {
	Name    string        `yaml:"name"`
	Timeout time.Duration `yaml:"timeout"`
	Port    int           `yaml:"port"`
}

func (s *sample) Validate() error {
	if s.Port <= 0 {
		return errors.New("port must be positive")
	}
	return nil
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("SAMPLE_NAME", "watch")
	path := writeConfig(t, "name: ${SAMPLE_NAME}\ntimeout: 15s\nport: 9000\n")

	cfg := sample{Port: 1}
	if err := Load(path, &cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Name != "watch" || cfg.Timeout != 15*time.Second || cfg.Port != 9000 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadKeepsDefaults(t *testing.T) {
	path := writeConfig(t, "name: watch\n")

	cfg := sample{Port: 8080}
	if err := Load(path, &cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 8080 {
		t.Errorf("port = %d, want default 8080", cfg.Port)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, "name: watch\nprot: 9000\n")

	cfg := sample{Port: 1}
	err := Load(path, &cfg)
	if err == nil || !strings.Contains(err.Error(), "prot") {
		t.Errorf("err = %v, want unknown field error", err)
	}
}

func TestLoadValidates(t *testing.T) {
	path := writeConfig(t, "port: 0\n")

	cfg := sample{}
	err := Load(path, &cfg)
	if err == nil || !strings.Contains(err.Error(), "config validation failed") {
		t.Errorf("err = %v", err)
	}
}

func TestLoadEmptyFile(t *testing.T) {
	path := writeConfig(t, "")

	cfg := sample{Port: 1}
	if err := Load(path, &cfg); err != nil {
		t.Errorf("empty file: %v", err)
	}
}

func TestLoadOptional(t *testing.T) {
	cfg := sample{Port: 7}
	if err := LoadOptional(filepath.Join(t.TempDir(), "missing.yaml"), &cfg); err != nil {
		t.Fatalf("missing file: %v", err)
	}

	cfg = sample{}
	if err := LoadOptional(filepath.Join(t.TempDir(), "missing.yaml"), &cfg); err == nil {
		t.Error("invalid defaults should still fail")
	}

	if err := Load(filepath.Join(t.TempDir(), "missing.yaml"), &cfg); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load missing file err = %v", err)
	}
}
