package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate(): %v", err)
	}
	if cfg.Window() != 30*time.Second {
		t.Errorf("Window() = %v, want 30s", cfg.Window())
	}
	if len(cfg.Targets) != 2 {
		t.Errorf("len(Targets) = %d, want 2", len(cfg.Targets))
	}
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
window_seconds: 60
targets:
  - quantile: 0.9
    error: 0.01
  - quantile: 0.5
    error: 0.005
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Window() != time.Minute {
		t.Errorf("Window() = %v, want 1m", cfg.Window())
	}
	if len(cfg.Targets) != 2 {
		t.Fatalf("len(Targets) = %d, want 2", len(cfg.Targets))
	}
	if cfg.Targets[0].Quantile != 0.9 || cfg.Targets[0].Error != 0.01 {
		t.Errorf("Targets[0] = %+v, want {0.9 0.01}", cfg.Targets[0])
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "window_seconds: 10\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Window() != 10*time.Second {
		t.Errorf("Window() = %v, want 10s", cfg.Window())
	}
	// Targets were not given, so the defaults must survive.
	if len(cfg.Targets) != 2 {
		t.Errorf("len(Targets) = %d, want 2 (defaults)", len(cfg.Targets))
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("Load of missing file: expected error, got nil")
	}
}

func TestLoadBadYAML(t *testing.T) {
	path := writeConfig(t, "window_seconds: [\n")
	if _, err := Load(path); err == nil {
		t.Fatal("Load of malformed yaml: expected error, got nil")
	}
}

func TestLoadInvalidConfig(t *testing.T) {
	path := writeConfig(t, `
window_seconds: 0
targets:
  - quantile: 1.5
    error: 2
`)
	_, err := Load(path)
	if err == nil {
		t.Fatal("Load of invalid config: expected error, got nil")
	}
	// All problems are reported, not only the first.
	for _, want := range []string{"window_seconds", "quantile", "error"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{"valid", Config{WindowSeconds: 30, Targets: []TargetConfig{{0.99, 0.001}}}, true},
		{"zero window", Config{WindowSeconds: 0, Targets: []TargetConfig{{0.99, 0.001}}}, false},
		{"negative window", Config{WindowSeconds: -5, Targets: []TargetConfig{{0.99, 0.001}}}, false},
		{"no targets", Config{WindowSeconds: 30}, false},
		{"quantile zero", Config{WindowSeconds: 30, Targets: []TargetConfig{{0, 0.001}}}, false},
		{"quantile above one", Config{WindowSeconds: 30, Targets: []TargetConfig{{1.5, 0.001}}}, false},
		{"error one", Config{WindowSeconds: 30, Targets: []TargetConfig{{0.5, 1}}}, false},
		{"exact max target", Config{WindowSeconds: 30, Targets: []TargetConfig{{1, 0}}}, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := c.cfg.Validate()
			if c.ok && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
			if !c.ok && err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

func TestNewWindowedSample(t *testing.T) {
	sample, err := Default().NewWindowedSample()
	if err != nil {
		t.Fatalf("NewWindowedSample: %v", err)
	}
	if err := sample.Update(42); err != nil {
		t.Fatalf("Update: %v", err)
	}

	bad := &Config{WindowSeconds: 30, Targets: []TargetConfig{{Quantile: 2, Error: 0.1}}}
	if _, err := bad.NewWindowedSample(); err == nil {
		t.Fatal("NewWindowedSample with bad target: expected error, got nil")
	}
}
